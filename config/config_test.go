package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "empty output dir",
			mutate: func(cfg *Config) {
				cfg.OutputDir = ""
			},
			wantErr: "output directory",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "negative page delay",
			mutate: func(cfg *Config) {
				cfg.PageDelay = -1 * time.Second
			},
			wantErr: "page delay",
		},
		{
			name: "negative retry budget",
			mutate: func(cfg *Config) {
				cfg.RetryBudget = -1
			},
			wantErr: "retry budget",
		},
		{
			name: "negative rate cap",
			mutate: func(cfg *Config) {
				cfg.RequestsPerSecond = -0.5
			},
			wantErr: "requests per second",
		},
		{
			name: "zero workers",
			mutate: func(cfg *Config) {
				cfg.Workers = 0
			},
			wantErr: "workers",
		},
		{
			name: "zero batch size",
			mutate: func(cfg *Config) {
				cfg.BatchSize = 0
			},
			wantErr: "batch size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("SCRAPER_TEST_STR", "  value  ")
	if got, ok := EnvString("SCRAPER_TEST_STR"); !ok || got != "value" {
		t.Fatalf("EnvString = %q/%v, want value/true", got, ok)
	}

	t.Setenv("SCRAPER_TEST_STR", "   ")
	if _, ok := EnvString("SCRAPER_TEST_STR"); ok {
		t.Fatalf("whitespace-only value should report unset")
	}

	if _, ok := EnvString("SCRAPER_TEST_MISSING"); ok {
		t.Fatalf("missing variable should report unset")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "7")
	value, ok, err := EnvInt("SCRAPER_TEST_INT")
	if err != nil || !ok || value != 7 {
		t.Fatalf("EnvInt = %d/%v/%v, want 7/true/nil", value, ok, err)
	}

	t.Setenv("SCRAPER_TEST_INT", "seven")
	if _, _, err := EnvInt("SCRAPER_TEST_INT"); err == nil {
		t.Fatalf("non-numeric value should error")
	}

	if _, ok, err := EnvInt("SCRAPER_TEST_MISSING"); ok || err != nil {
		t.Fatalf("missing variable should report unset without error")
	}
}

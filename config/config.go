package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL            string
	OutputDir          string
	OutputFormat       string // csv, json, or dual
	UserAgentsFile     string
	MetricsAddr        string
	Timeout            time.Duration
	PageDelay          time.Duration
	RetryBudget        int
	RequestsPerSecond  float64 // 0 disables the client-side rate cap
	RespectRobotsTxt   bool
	Workers            int
	BatchSize          int
	PipelineBufferSize int
	DedupeMaxSize      int
	Verbose            bool
}

// DefaultConfig returns conservative defaults for the US storefront.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://www.amazon.com",
		OutputDir:          "output",
		OutputFormat:       "csv",
		UserAgentsFile:     "",
		MetricsAddr:        "",
		Timeout:            15 * time.Second,
		PageDelay:          2 * time.Second,
		RetryBudget:        3,
		RequestsPerSecond:  0,
		RespectRobotsTxt:   false,
		Workers:            1,
		BatchSize:          64,
		PipelineBufferSize: 512,
		DedupeMaxSize:      10000,
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("retry budget cannot be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}

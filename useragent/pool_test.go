package useragent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPoolRejectsEmpty(t *testing.T) {
	if _, err := NewPool(nil); err == nil {
		t.Fatalf("nil agent list should error")
	}
	if _, err := NewPool([]string{"", "   ", "\t"}); err == nil {
		t.Fatalf("blank-only agent list should error")
	}
}

func TestNewPoolDropsBlankLines(t *testing.T) {
	pool, err := NewPool([]string{"agent-one", "", "  agent-two  "})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	if pool.Size() != 2 {
		t.Fatalf("size = %d, want 2", pool.Size())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.txt")
	content := "agent-one\n\nagent-two\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write agents file: %v", err)
	}

	pool, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pool.Size() != 2 {
		t.Fatalf("size = %d, want 2", pool.Size())
	}
}

func TestLoadEmptyFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("\n\n"), 0o644); err != nil {
		t.Fatalf("write agents file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("empty file should error")
	}
}

func TestHeaders(t *testing.T) {
	pool, err := NewPool([]string{"agent-one", "agent-two"})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	for i := 0; i < 20; i++ {
		headers := pool.Headers()
		ua := headers["User-Agent"]
		if ua != "agent-one" && ua != "agent-two" {
			t.Fatalf("unexpected user-agent %q", ua)
		}
		for _, name := range []string{"Accept", "Accept-Language", "Referer", "DNT"} {
			if headers[name] == "" {
				t.Fatalf("header %s missing", name)
			}
		}
	}
}

func TestDefaultPoolNonEmpty(t *testing.T) {
	if Default().Size() == 0 {
		t.Fatalf("embedded default pool should not be empty")
	}
}

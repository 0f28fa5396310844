package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aluiziolira/go-scrape-amazon/config"
	"github.com/aluiziolira/go-scrape-amazon/models"
)

type mockWriter struct {
	mu      sync.Mutex
	batches [][]*models.Product
}

func (mw *mockWriter) Write(products []*models.Product) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	copyBatch := make([]*models.Product, len(products))
	copy(copyBatch, products)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	return nil
}

func (mw *mockWriter) Validate() error {
	return nil
}

func (mw *mockWriter) totalWritten() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	total := 0
	for _, batch := range mw.batches {
		total += len(batch)
	}
	return total
}

func (mw *mockWriter) batchSizes() []int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	sizes := make([]int, 0, len(mw.batches))
	for _, batch := range mw.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

type failingWriter struct{}

func (failingWriter) Write([]*models.Product) error {
	return errors.New("disk full")
}

func (failingWriter) Close() error {
	return nil
}

func (failingWriter) Validate() error {
	return nil
}

func product(asin string) *models.Product {
	return &models.Product{
		Title: "Wireless Mouse",
		Price: 19.99,
		ASIN:  asin,
	}
}

func TestPipelineValidationAndDuplicates(t *testing.T) {
	cfg := config.DefaultConfig()
	writer := &mockWriter{}
	p := NewPipeline(writer, cfg)
	p.Start(1)

	records := []*models.Product{
		product("B000TEST01"),
		{Title: "no identifier"},
		product("B000TEST01"), // duplicate, must still be written
		product("B000TEST02"),
	}
	if err := p.Process(records); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 3 {
		t.Fatalf("written = %d, want 3 (duplicates preserved)", got)
	}

	metrics := p.GetMetrics()
	if processed := metrics["processed_records"].(int64); processed != 3 {
		t.Fatalf("processed = %d, want 3", processed)
	}
	if duplicates := metrics["duplicate_asins"].(int64); duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", duplicates)
	}
	validation := metrics["validation_errors"].(map[string]int)
	if validation["invalid_record"] != 1 {
		t.Fatalf("invalid_record = %d, want 1", validation["invalid_record"])
	}
}

func TestPipelineBatching(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 2
	writer := &mockWriter{}
	p := NewPipeline(writer, cfg)
	p.Start(1)

	records := make([]*models.Product, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, product(fmt.Sprintf("B000TEST%02d", i)))
	}
	if err := p.Process(records); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sizes := writer.batchSizes()
	want := []int{2, 2, 1}
	if len(sizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("batch sizes = %v, want %v", sizes, want)
		}
	}
	if writer.totalWritten() != 5 {
		t.Fatalf("written = %d, want 5", writer.totalWritten())
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	cfg := config.DefaultConfig()
	p := NewPipeline(&mockWriter{}, cfg)
	p.Start(1)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := p.Process([]*models.Product{product("B000TEST01")}); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
}

func TestPipelineEmptyProcessIsNoop(t *testing.T) {
	cfg := config.DefaultConfig()
	writer := &mockWriter{}
	p := NewPipeline(writer, cfg)
	p.Start(1)

	if err := p.Process(nil); err != nil {
		t.Fatalf("process nil: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if writer.totalWritten() != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestPipelineWriterErrorSurfaces(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 1
	p := NewPipeline(failingWriter{}, cfg)
	p.Start(1)

	// The enqueue may race the shutdown triggered by the write failure,
	// so only Close's error is asserted.
	_ = p.Process([]*models.Product{product("B000TEST01")})
	if err := p.Close(); err == nil {
		t.Fatalf("expected writer error from Close")
	}
}

package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-scrape-amazon/models"
)

// csvHeader is the fixed column set of the tabular output.
var csvHeader = []string{
	"Product title",
	"Price",
	"Reviewers ratings",
	"Number of reviews",
	"Page URL",
	"Image URL",
	"Sponsored",
	"ASIN number",
}

// CSVWriter writes records to CSV. The file is created lazily on the
// first Write so that a run with zero records leaves no artifact behind.
type CSVWriter struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter prepares a CSV writer targeting path. Nothing touches the
// filesystem until the first record arrives.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("csv path cannot be empty")
	}
	return &CSVWriter{path: path}, nil
}

func (cw *CSVWriter) openLocked() error {
	if cw.writer != nil {
		return nil
	}
	if err := ensureDir(cw.path); err != nil {
		return err
	}

	f, err := os.Create(cw.path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv header: %w", err)
	}

	cw.file = f
	cw.writer = writer
	return nil
}

// Write appends products to the CSV output.
func (cw *CSVWriter) Write(products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if err := cw.openLocked(); err != nil {
		return err
	}

	for _, product := range products {
		sponsored := "No"
		if product.Sponsored {
			sponsored = "Yes"
		}
		record := []string{
			product.Title,
			strconv.FormatFloat(product.Price, 'f', -1, 64),
			product.RatingText,
			strconv.Itoa(product.ReviewCount),
			product.PageURL,
			product.ImageURL,
			sponsored,
			product.ASIN,
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle if one was opened.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.file == nil {
		return nil
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures at least one record was written.
func (cw *CSVWriter) Validate() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.file == nil {
		return fmt.Errorf("no records written")
	}
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records, creating the file
// lazily like CSVWriter.
type JSONWriter struct {
	path    string
	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
}

// NewJSONWriter prepares the JSON writer.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("json path cannot be empty")
	}
	return &JSONWriter{path: path}, nil
}

func (jw *JSONWriter) openLocked() error {
	if jw.encoder != nil {
		return nil
	}
	if err := ensureDir(jw.path); err != nil {
		return err
	}

	f, err := os.Create(jw.path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}

	jw.file = f
	jw.writer = bufio.NewWriter(f)
	jw.encoder = json.NewEncoder(jw.writer)
	return nil
}

// Write appends products in JSONL format.
func (jw *JSONWriter) Write(products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.openLocked(); err != nil {
		return err
	}

	for _, product := range products {
		if err := jw.encoder.Encode(product); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file if one was opened.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.file == nil {
		return nil
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.file == nil {
		return fmt.Errorf("no records written")
	}
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

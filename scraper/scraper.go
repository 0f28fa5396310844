// Package scraper downloads storefront search-result pages and extracts
// typed product records from them.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-amazon/config"
	"github.com/aluiziolira/go-scrape-amazon/models"
	"github.com/aluiziolira/go-scrape-amazon/pipeline"
	"github.com/aluiziolira/go-scrape-amazon/useragent"
)

// Scraper orchestrates the run: fetch page one, discover the page count,
// acquire the remaining pages under a shared retry budget, then extract
// records and stream them through the pipeline.
type Scraper struct {
	cfg     *config.Config
	fetcher *Fetcher
	Metrics *Metrics

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, pool *useragent.Pool) (*Scraper, error) {
	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, pool, metrics)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		cfg:          cfg,
		fetcher:      fetcher,
		Metrics:      metrics,
		errorsByType: make(map[string]int),
	}, nil
}

// NormalizeQuery trims the free-text query and rejects empty input.
func NormalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query cannot be empty or whitespace-only")
	}
	return query, nil
}

// SearchURL builds the page-one search URL. Spaces become '+'; no other
// characters are altered.
func SearchURL(baseURL, query string) string {
	return baseURL + "/s?k=" + strings.ReplaceAll(query, " ", "+")
}

// pageURL appends an explicit page parameter for pages >= 2.
func pageURL(searchURL string, page int) string {
	return fmt.Sprintf("%s&page=%d", searchURL, page)
}

// Run executes the whole acquisition-and-extraction pass for one query.
// A page-one failure or an unparsable pagination indicator aborts the
// run; everything else degrades to fewer pages or fewer records.
func (s *Scraper) Run(ctx context.Context, query string, p *pipeline.Pipeline) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	query, err := NormalizeQuery(query)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	searchURL := SearchURL(s.cfg.BaseURL, query)

	first, err := s.fetcher.Fetch(ctx, searchURL, 1)
	if err != nil {
		return nil, fmt.Errorf("first page: %w", err)
	}
	s.Metrics.IncPagesFetched()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(first.Body))
	if err != nil {
		return nil, fmt.Errorf("parse first page: %w", err)
	}
	totalPages, err := discoverTotalPages(doc)
	if err != nil {
		return nil, fmt.Errorf("discover pagination: %w", err)
	}

	slog.Info("downloading result pages",
		slog.String("query", query),
		slog.Int("total_pages", totalPages),
	)
	pages, budgetSpent := s.acquire(ctx, searchURL, first, totalPages)

	slog.Info("extracting records", slog.Int("pages", len(pages)))
	extracted := 0
	dropped := 0
	for _, page := range pages {
		products, pageDropped, err := extractPage(page.Body, s.cfg.BaseURL)
		if err != nil {
			slog.Error("page extraction failed",
				slog.Int("page", page.PageNumber),
				slog.Any("error", err),
			)
			continue
		}
		extracted += len(products)
		dropped += pageDropped
		s.Metrics.AddProducts(len(products))
		s.Metrics.AddRecordsDropped(pageDropped)
		if err := p.Process(products); err != nil && err != pipeline.ErrPipelineClosed {
			slog.Error("pipeline process error", slog.Any("error", err))
		}
	}

	skipped := totalPages - len(pages)
	s.Metrics.AddPagesSkipped(skipped)

	return &models.RunResult{
		Query:            query,
		StartTime:        start,
		EndTime:          time.Now(),
		PagesDiscovered:  totalPages,
		PagesFetched:     len(pages),
		PagesSkipped:     skipped,
		BudgetSpent:      budgetSpent,
		RecordsExtracted: extracted,
		RecordsDropped:   dropped,
		FailedURLs:       s.snapshotFailedURLs(),
		ErrorsByType:     s.snapshotErrors(),
	}, nil
}

// acquire fetches pages 2..totalPages strictly in increasing order. Each
// failure consumes one unit of the shared retry budget and abandons that
// page; when the budget hits zero the remaining pages are skipped. The
// loop never fails outright.
func (s *Scraper) acquire(ctx context.Context, searchURL string, first *models.PageResponse, totalPages int) ([]*models.PageResponse, int) {
	pages := make([]*models.PageResponse, 0, totalPages)
	pages = append(pages, first)

	budget := s.cfg.RetryBudget
	spent := 0
	for page := 2; page <= totalPages; page++ {
		if ctx.Err() != nil {
			break
		}

		url := pageURL(searchURL, page)
		resp, err := s.fetcher.Fetch(ctx, url, page)
		if err != nil {
			s.recordFailure(url, err)
			budget--
			spent++
			s.Metrics.IncBudgetSpent()
			slog.Warn("page fetch failed",
				slog.Int("page", page),
				slog.Int("budget_left", budget),
				slog.Any("error", err),
			)
			if budget <= 0 {
				break
			}
			continue
		}

		pages = append(pages, resp)
		s.Metrics.IncPagesFetched()
		if page < totalPages {
			sleepCtx(ctx, s.cfg.PageDelay)
		}
	}
	return pages, spent
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *Scraper) recordFailure(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedURLs = append(s.failedURLs, url)
	s.errorsByType[errorTypeLabel(err)]++
}

func (s *Scraper) snapshotFailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

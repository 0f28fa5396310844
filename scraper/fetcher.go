package scraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-amazon/config"
	"github.com/aluiziolira/go-scrape-amazon/models"
	"github.com/aluiziolira/go-scrape-amazon/useragent"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// Fetcher issues single synchronous GETs through a colly collector.
// It carries no retry policy; resilience lives in the acquisition loop.
type Fetcher struct {
	cfg       *config.Config
	pool      *useragent.Pool
	collector *colly.Collector
	limiter   *rate.Limiter
	metrics   *Metrics

	// Fetch calls are serialized; the capture fields hold the outcome
	// of the in-flight request.
	mu      sync.Mutex
	body    []byte
	status  int
	fetchEr error
}

// NewFetcher builds a fetcher configured from cfg, drawing per-request
// headers from pool.
func NewFetcher(cfg *config.Config, pool *useragent.Pool, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if pool == nil {
		return nil, fmt.Errorf("user-agent pool is required")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	f := &Fetcher{
		cfg:     cfg,
		pool:    pool,
		metrics: metrics,
	}
	if cfg.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	collector.OnRequest(func(r *colly.Request) {
		for name, value := range pool.Headers() {
			r.Headers.Set(name, value)
		}
		r.Ctx.Put("start", time.Now())
		if f.metrics != nil {
			f.metrics.IncRequest("started")
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		f.body = r.Body
		f.status = r.StatusCode
		if f.metrics != nil {
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				f.metrics.ObserveDuration(time.Since(start))
			}
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		f.fetchEr = err
		if r != nil {
			f.status = r.StatusCode
		}
	})

	f.collector = collector
	return f, nil
}

// Fetch downloads one result page and returns its raw body. Any non-2xx
// status or transport failure comes back as a classified error from
// errors.go; the body is never partially returned.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string, page int) (*models.PageResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.body = nil
	f.status = 0
	f.fetchEr = nil

	visitErr := f.collector.Visit(pageURL)

	err := f.fetchEr
	if err == nil {
		err = visitErr
	}
	if err != nil {
		classified := classifyError(err, f.status)
		if f.metrics != nil {
			f.metrics.IncError(errorTypeLabel(classified))
		}
		return nil, fmt.Errorf("fetch page %d (%s): %w", page, pageURL, classified)
	}

	if f.metrics != nil {
		f.metrics.IncRequest("completed")
	}
	return &models.PageResponse{
		PageNumber: page,
		URL:        pageURL,
		StatusCode: f.status,
		Body:       string(f.body),
	}, nil
}

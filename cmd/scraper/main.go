package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-amazon/config"
	"github.com/aluiziolira/go-scrape-amazon/models"
	"github.com/aluiziolira/go-scrape-amazon/pipeline"
	"github.com/aluiziolira/go-scrape-amazon/scraper"
	"github.com/aluiziolira/go-scrape-amazon/useragent"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}

	defaultCfg := config.DefaultConfig()
	outputDirDefault := defaultCfg.OutputDir
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		outputDirDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	agentsDefault := defaultCfg.UserAgentsFile
	if value, ok := config.EnvString("SCRAPER_USER_AGENTS"); ok {
		agentsDefault = value
	}
	budgetDefault := defaultCfg.RetryBudget
	if value, ok, err := config.EnvInt("SCRAPER_RETRY_BUDGET"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_RETRY_BUDGET: %v\n", err)
		os.Exit(1)
	} else if ok {
		budgetDefault = value
	}

	query := flag.String("query", "", "Search query (required)")
	outputDir := flag.String("output-dir", outputDirDefault, "Directory for the output file")
	outputFormat := flag.String("format", "csv", "Output format: csv, json, or dual")
	retryBudget := flag.Int("retry-budget", budgetDefault, "Shared budget of page-fetch failures before the run stops early")
	pageDelay := flag.Duration("page-delay", defaultCfg.PageDelay, "Delay between successful page fetches")
	timeout := flag.Duration("timeout", defaultCfg.Timeout, "HTTP request timeout")
	rps := flag.Float64("rps", defaultCfg.RequestsPerSecond, "Client-side request rate cap (0 = off)")
	userAgents := flag.String("user-agents", agentsDefault, "Newline-delimited user-agent list (empty = built-in pool)")
	respectRobots := flag.Bool("respect-robots", false, "Respect robots.txt directives")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Storefront base URL")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	rawQuery := *query
	if rawQuery == "" && flag.NArg() > 0 {
		rawQuery = strings.Join(flag.Args(), " ")
	}
	normalized, err := scraper.NormalizeQuery(rawQuery)
	if err != nil {
		slog.Error("invalid query", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = *baseURL
	cfg.OutputDir = *outputDir
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.UserAgentsFile = *userAgents
	cfg.MetricsAddr = *metricsAddr
	cfg.Timeout = *timeout
	cfg.PageDelay = *pageDelay
	cfg.RetryBudget = *retryBudget
	cfg.RequestsPerSecond = *rps
	cfg.RespectRobotsTxt = *respectRobots
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	pool := useragent.Default()
	if cfg.UserAgentsFile != "" {
		pool, err = useragent.Load(cfg.UserAgentsFile)
		if err != nil {
			slog.Error("loading user agents", slog.Any("error", err))
			os.Exit(1)
		}
	}

	slog.Info("starting scrape",
		slog.String("query", normalized),
		slog.String("base_url", cfg.BaseURL),
		slog.Int("retry_budget", cfg.RetryBudget),
		slog.Int("user_agents", pool.Size()),
	)

	s, err := scraper.NewScraper(cfg, pool)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		os.Exit(1)
	}

	outputPath := filepath.Join(cfg.OutputDir, normalized+".csv")
	writer, err := createWriter(cfg.OutputFormat, outputPath)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current page")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	p := pipeline.NewPipeline(writer, cfg)
	p.Start(cfg.Workers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	result, err := s.Run(ctx, normalized, p)
	if err != nil {
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := p.GetMetrics()
	processed := int64(0)
	if value, ok := metrics["processed_records"].(int64); ok {
		processed = value
	}

	if processed == 0 {
		slog.Info("nothing to save", slog.String("query", normalized))
	} else if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, processed, outputPath, metrics)
}

func createWriter(format, path string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(strings.TrimSuffix(path, ".csv") + ".jsonl")
	case "csv":
		return pipeline.NewCSVWriter(path)
	case "dual":
		jsonPath := strings.TrimSuffix(path, ".csv") + ".jsonl"
		return pipeline.NewDualWriter(path, jsonPath)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.RunResult, processed int64, outputPath string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	fmt.Printf("  Query:          %s\n", result.Query)
	fmt.Printf("  Pages found:    %d\n", result.PagesDiscovered)
	fmt.Printf("  Pages fetched:  %d\n", result.PagesFetched)
	if result.PagesSkipped > 0 {
		fmt.Printf("  Pages skipped:  %d\n", result.PagesSkipped)
	}
	fmt.Printf("  Budget spent:   %d\n", result.BudgetSpent)
	fmt.Printf("  Records:        %d\n", processed)
	if result.RecordsDropped > 0 {
		fmt.Printf("  Dropped:        %d (missing identifier)\n", result.RecordsDropped)
	}
	if duplicates, ok := metrics["duplicate_asins"].(int64); ok && duplicates > 0 {
		fmt.Printf("  Duplicates:     %d\n", duplicates)
	}
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:    %v\n", result.ErrorsByType)
	}
	if len(result.FailedURLs) > 0 {
		fmt.Printf("  Failed URLs:    %d\n", len(result.FailedURLs))
	}
	fmt.Printf("  Duration:       %v\n", result.EndTime.Sub(result.StartTime))
	if processed > 0 {
		fmt.Printf("  Output file:    %s\n", outputPath)
	}
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

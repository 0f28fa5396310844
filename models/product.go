// Package models defines data structures for the scraper.
package models

import "time"

// Product represents one search-result listing.
type Product struct {
	Title       string  `csv:"title" json:"title"`
	Price       float64 `csv:"price" json:"price"`
	RatingText  string  `csv:"rating" json:"rating"`
	ReviewCount int     `csv:"review_count" json:"review_count"`
	PageURL     string  `csv:"page_url" json:"page_url"`
	ImageURL    string  `csv:"image_url" json:"image_url"`
	Sponsored   bool    `csv:"sponsored" json:"sponsored"`
	ASIN        string  `csv:"asin" json:"asin"`
}

// PageResponse holds the raw body of one successfully fetched result page.
// It is consumed exactly once by the extractor and then discarded.
type PageResponse struct {
	PageNumber int
	URL        string
	StatusCode int
	Body       string
}

// RunResult holds the overall result of a scraping run.
type RunResult struct {
	Query            string
	StartTime        time.Time
	EndTime          time.Time
	PagesDiscovered  int
	PagesFetched     int
	PagesSkipped     int
	BudgetSpent      int
	RecordsExtracted int
	RecordsDropped   int
	FailedURLs       []string
	ErrorsByType     map[string]int
}

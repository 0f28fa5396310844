package scraper

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestDiscoverTotalPages(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "no pagination control",
			html: `<html><body><div>no pages here</div></body></html>`,
			want: 1,
		},
		{
			name: "indicator present",
			html: `<html><body><span class="s-pagination-item s-pagination-disabled">20</span></body></html>`,
			want: 20,
		},
		{
			name: "indicator with surrounding whitespace",
			html: `<html><body><span class="s-pagination-item s-pagination-disabled">
				7
			</span></body></html>`,
			want: 7,
		},
		{
			name: "single page indicator",
			html: `<html><body><span class="s-pagination-item s-pagination-disabled">1</span></body></html>`,
			want: 1,
		},
		{
			name: "partial class does not match",
			html: `<html><body><span class="s-pagination-item">3</span></body></html>`,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := discoverTotalPages(docFromHTML(t, tt.html))
			if err != nil {
				t.Fatalf("discoverTotalPages: %v", err)
			}
			if got != tt.want {
				t.Fatalf("total pages = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDiscoverTotalPagesNonNumeric(t *testing.T) {
	html := `<html><body><span class="s-pagination-item s-pagination-disabled">next</span></body></html>`
	_, err := discoverTotalPages(docFromHTML(t, html))
	if !errors.Is(err, ErrBadPagination) {
		t.Fatalf("expected ErrBadPagination, got %v", err)
	}
}

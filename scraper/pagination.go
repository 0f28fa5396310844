package scraper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrBadPagination marks a pagination indicator whose text is not a page
// number. This is distinct from the indicator being absent, which simply
// means a single-page result set.
var ErrBadPagination = errors.New("pagination indicator is not numeric")

// The storefront renders the last reachable page as a disabled
// pagination item.
const paginationSelector = "span.s-pagination-item.s-pagination-disabled"

// discoverTotalPages reads the total page count from the first result
// page. No indicator means one page.
func discoverTotalPages(doc *goquery.Document) (int, error) {
	indicator := doc.Find(paginationSelector).First()
	if indicator.Length() == 0 {
		return 1, nil
	}

	text := strings.TrimSpace(indicator.Text())
	total, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPagination, text)
	}
	if total < 1 {
		return 1, nil
	}
	return total, nil
}

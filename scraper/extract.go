package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-amazon/models"
)

// Every listing on a search-result page lives in one of these containers.
const resultBlockSelector = `div[data-component-type='s-search-result']`

// asinAttr is the mandatory block-level identifier attribute. A block
// without it contributes no record.
const asinAttr = "data-asin"

const sponsoredMarker = "Sponsored"

// fieldSpec describes how to pull one optional field out of a result
// block: a selector plus either text content or a named attribute.
type fieldSpec struct {
	Selector string
	Attr     string // empty means text content
}

// Optional per-record fields. Each lookup is isolated: a missing element
// yields the zero value for that field and never disturbs the others.
var productFields = map[string]fieldSpec{
	"title":   {Selector: ".a-text-normal"},
	"price":   {Selector: ".a-price-whole"},
	"rating":  {Selector: "span.a-icon-alt"},
	"reviews": {Selector: "span.a-size-base.s-underline-text"},
	"link":    {Selector: "a.a-link-normal.s-no-outline", Attr: "href"},
	"image":   {Selector: "img.s-image", Attr: "srcset"},
}

// lookupField resolves one fieldSpec against a block, returning "" when
// the element or attribute is absent.
func lookupField(block *goquery.Selection, spec fieldSpec) string {
	sel := block.Find(spec.Selector).First()
	if sel.Length() == 0 {
		return ""
	}
	if spec.Attr != "" {
		value, _ := sel.Attr(spec.Attr)
		return value
	}
	return strings.TrimSpace(sel.Text())
}

// extractPage parses one page body and maps every result block to a
// Product. Blocks without the mandatory identifier are dropped and
// counted, never aborting the page.
func extractPage(body, baseURL string) ([]*models.Product, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse page: %w", err)
	}

	var products []*models.Product
	dropped := 0
	doc.Find(resultBlockSelector).Each(func(_ int, block *goquery.Selection) {
		product, ok := extractProduct(block, baseURL)
		if !ok {
			dropped++
			return
		}
		products = append(products, product)
	})
	return products, dropped, nil
}

func extractProduct(block *goquery.Selection, baseURL string) (*models.Product, bool) {
	asin, _ := block.Attr(asinAttr)
	asin = strings.TrimSpace(asin)
	if asin == "" {
		return nil, false
	}

	product := &models.Product{
		Title:       lookupField(block, productFields["title"]),
		Price:       parsePrice(lookupField(block, productFields["price"])),
		RatingText:  lookupField(block, productFields["rating"]),
		ReviewCount: parseReviewCount(lookupField(block, productFields["reviews"])),
		ImageURL:    pickImageURL(lookupField(block, productFields["image"])),
		Sponsored:   isSponsored(block),
		ASIN:        asin,
	}
	if href := lookupField(block, productFields["link"]); href != "" {
		product.PageURL = baseURL + href
	}
	return product, true
}

// parsePrice converts the whole-price text to a decimal. The markup
// renders it with a trailing fractional separator and thousands
// separators, e.g. "1,299.".
func parsePrice(text string) float64 {
	text = strings.TrimSuffix(strings.TrimSpace(text), ".")
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return 0
	}
	price, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return price
}

func parseReviewCount(text string) int {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0
	}
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return count
}

// pickImageURL takes the second-to-last whitespace-separated entry of the
// responsive-image candidate list: the URL of the highest-resolution
// variant, whose density descriptor is the final entry.
func pickImageURL(srcset string) string {
	parts := strings.Fields(srcset)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSuffix(parts[len(parts)-2], ",")
}

func isSponsored(block *goquery.Selection) bool {
	sponsored := false
	block.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), sponsoredMarker) {
			sponsored = true
			return false
		}
		return true
	})
	return sponsored
}

package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/normalize"
)

// TricTrac looks up community ratings on the trictrac search page, which
// exposes them as schema.org microdata.
type TricTrac struct {
	fetch     docFetcher
	selectors TricTracSelectors
}

func NewTricTrac(f *Fetcher, cfg SelectorConfig) *TricTrac {
	return &TricTrac{fetch: f, selectors: cfg.TricTrac}
}

func (t *TricTrac) Name() string {
	return "trictrac"
}

// Lookup returns the rating of the first search result matching name, or
// nil when no result matches or the rating markup is incomplete.
func (t *TricTrac) Lookup(ctx context.Context, name string) (*models.Reviewer, error) {
	searchURL := "https://www.trictrac.net/recherche?search=" + url.QueryEscape(name)
	doc, err := t.fetch.Document(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("trictrac search: %w", err)
	}
	return parseTricTracResults(doc, t.selectors, name, searchURL), nil
}

func parseTricTracResults(doc *goquery.Document, sel TricTracSelectors, name, searchURL string) *models.Reviewer {
	var reviewer *models.Reviewer
	doc.Find(sel.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := strings.TrimSpace(item.Find(sel.Title).First().Text())

		note, noteErr := strconv.ParseFloat(item.Find(sel.RatingValue).First().AttrOr("content", ""), 64)
		count, countErr := strconv.Atoi(item.Find(sel.ReviewCount).First().AttrOr("content", ""))

		if title == "" || noteErr != nil || countErr != nil {
			return true
		}
		if note < 0 || count < 0 {
			return true
		}
		if !normalize.SameGame(title, name) {
			return true
		}

		reviewer = &models.Reviewer{
			Name:   "trictrac",
			Note:   note,
			Number: count,
			URL:    searchURL,
		}
		return false
	})
	return reviewer
}

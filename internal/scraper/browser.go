package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// Browser renders JS-heavy shop pages through headless Chrome. Only the
// shops whose search results are built client-side go through here; the
// plain fetcher is cheaper for everything else.
type Browser struct {
	timeout time.Duration
}

func NewBrowser(timeout time.Duration) *Browser {
	return &Browser{timeout: timeout}
}

// Document navigates to urlStr, waits for the page to settle and returns
// the rendered DOM as a goquery document.
func (b *Browser) Document(ctx context.Context, urlStr string) (*goquery.Document, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %s: %w", urlStr, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered HTML from %s: %w", urlStr, err)
	}
	return doc, nil
}

package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Fetcher is the shared HTTP client for all site scrapers. Outbound requests
// are rate limited globally so the polling cycle never hammers any source.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewFetcher creates a fetcher allowing at most rps requests per second.
func NewFetcher(rps float64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Document fetches urlStr and parses the response body as HTML.
func (f *Fetcher) Document(ctx context.Context, urlStr string) (*goquery.Document, error) {
	body, err := f.get(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", urlStr, err)
	}
	return doc, nil
}

// Bytes fetches urlStr and returns the raw response body, for non-HTML
// sources such as XML APIs.
func (f *Fetcher) Bytes(ctx context.Context, urlStr string) ([]byte, error) {
	body, err := f.get(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (f *Fetcher) get(ctx context.Context, urlStr string) (io.ReadCloser, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %s: %w", urlStr, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %q: only http and https allowed", parsed.Scheme)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for URL %s: %w", urlStr, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	res, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", urlStr, err)
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("failed to fetch URL %s: status code %d", urlStr, res.StatusCode)
	}
	return res.Body, nil
}

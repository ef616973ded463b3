// Package feed fetches and decodes the okkazeo atom feed into announce
// candidates. Decoding is entry-by-entry: a malformed entry yields an error
// outcome and never aborts the rest of the feed.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/util"
)

const (
	marketplaceSource = "okkazeo"

	// fetchRetryDelay paces feed re-fetches; the marketplace throttles
	// aggressive clients, so the first retry already waits half a second.
	fetchRetryDelay = 500 * time.Millisecond
)

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string     `xml:"id"`
	Title   string     `xml:"title"`
	Updated string     `xml:"updated"`
	Links   []atomLink `xml:"link"`
	Summary string     `xml:"summary"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

// Outcome is the per-entry result of decoding the feed. Exactly one of
// Announce or Err is meaningful.
type Outcome struct {
	Announce models.Announce
	Err      error
}

// Client fetches the marketplace feed over HTTP.
type Client struct {
	url        string
	maxRetries int
	httpClient *http.Client
}

func New(url string, maxRetries int) *Client {
	return &Client{
		url:        url,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads and decodes the feed, in feed order. The returned error is
// a whole-fetch failure (network, HTTP status, undecodable document); entry
// level problems are reported inside the outcomes.
func (c *Client) Fetch(ctx context.Context) ([]Outcome, error) {
	var outcomes []Outcome
	err := util.RetryWithBackoff(ctx, c.maxRetries, fetchRetryDelay, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return fmt.Errorf("failed to create feed request: %w", err)
		}
		res, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch feed %s: %w", c.url, err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to fetch feed %s: status code %d", c.url, res.StatusCode)
		}

		outcomes, err = Decode(res.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Decode parses an atom document into per-entry outcomes, preserving feed
// order.
func Decode(r io.Reader) ([]Outcome, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var doc atomFeed
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode atom feed: %w", err)
	}

	outcomes := make([]Outcome, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		announce, err := entryToAnnounce(entry)
		if err != nil {
			outcomes = append(outcomes, Outcome{Err: fmt.Errorf("entry %q: %w", entry.ID, err)})
			continue
		}
		outcomes = append(outcomes, Outcome{Announce: announce})
	}
	return outcomes, nil
}

func entryToAnnounce(entry atomEntry) (models.Announce, error) {
	id, err := strconv.ParseInt(entry.ID, 10, 64)
	if err != nil || id <= 0 {
		return models.Announce{}, fmt.Errorf("malformed announce id %q", entry.ID)
	}

	if entry.Title == "" {
		return models.Announce{}, fmt.Errorf("missing title")
	}

	if len(entry.Links) == 0 || entry.Links[0].Href == "" {
		return models.Announce{}, fmt.Errorf("missing announce link")
	}

	updated, err := time.Parse(time.RFC3339, entry.Updated)
	if err != nil {
		return models.Announce{}, fmt.Errorf("malformed updated timestamp %q: %w", entry.Updated, err)
	}

	price, err := util.ParseFeedPrice(entry.Summary)
	if err != nil {
		return models.Announce{}, fmt.Errorf("summary price: %w", err)
	}

	return models.Announce{
		ID:                   id,
		Name:                 entry.Title,
		Price:                price,
		URL:                  entry.Links[0].Href,
		LastModificationDate: updated,
	}, nil
}

// MarketplaceReference builds the reference the marketplace itself provides
// for an announce: its own asking price and URL.
func MarketplaceReference(a models.Announce) models.Reference {
	return models.Reference{
		Name:  marketplaceSource,
		Price: a.Price,
		URL:   a.URL,
	}
}

package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/normalize"
	"github.com/ThisIsAreku/Aubonmeeple/internal/util"
)

// docFetcher abstracts plain HTTP fetching from headless rendering, so a
// shop adapter doesn't care which transport its site needs.
type docFetcher interface {
	Document(ctx context.Context, urlStr string) (*goquery.Document, error)
}

// ShopAdapter scrapes one retailer's search page for a price reference.
// All four retailers follow the same shape (search URL -> result items ->
// title/price/link); only the selectors and URL construction differ.
type ShopAdapter struct {
	name      string
	fetch     docFetcher
	selectors ShopSelectors
	searchURL func(name string, barcode int64) string
	byBarcode bool
}

// Name returns the source name this adapter fills in the reference mapping.
func (s *ShopAdapter) Name() string {
	return s.name
}

// Lookup searches the shop for name (or barcode, when the shop supports it
// and one is known) and returns the first confidently matching offer, or
// nil when there is none.
func (s *ShopAdapter) Lookup(ctx context.Context, name string, barcode int64) (*models.Reference, error) {
	searchURL := s.searchURL(name, barcode)
	doc, err := s.fetch.Document(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.name, err)
	}

	// A barcode query is exact; a name query needs the fuzzy match gate.
	requireMatch := !(s.byBarcode && barcode > 0)
	return parseShopSearch(doc, s.selectors, s.name, name, requireMatch), nil
}

// parseShopSearch walks the result items and returns the first offer whose
// title matches the candidate name. Offers with unparsable prices are
// skipped, never admitted.
func parseShopSearch(doc *goquery.Document, sel ShopSelectors, shopName, gameName string, requireMatch bool) *models.Reference {
	var ref *models.Reference
	doc.Find(sel.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := strings.TrimSpace(item.Find(sel.Title).First().Text())
		if title == "" {
			return true
		}
		if requireMatch && !normalize.SameGame(title, gameName) {
			return true
		}

		priceText := item.Find(sel.Price).First().Text()
		price, err := util.ParseShopPrice(priceText)
		if err != nil {
			slog.Debug("Skipping offer with unparsable price", "shop", shopName, "title", title, "text", priceText)
			return true
		}

		href, _ := item.Find(sel.Link).First().Attr("href")
		ref = &models.Reference{
			Name:  shopName,
			Price: price,
			URL:   href,
		}
		return false
	})
	return ref
}

// NewPhilibert searches philibert by barcode when available, by name otherwise.
func NewPhilibert(f *Fetcher, cfg SelectorConfig) *ShopAdapter {
	return &ShopAdapter{
		name:      "philibert",
		fetch:     f,
		selectors: cfg.Shops["philibert"],
		byBarcode: true,
		searchURL: func(name string, barcode int64) string {
			query := name
			if barcode > 0 {
				query = strconv.FormatInt(barcode, 10)
			}
			return "https://www.philibertnet.com/fr/recherche?search_query=" + url.QueryEscape(query)
		},
	}
}

// NewAgorajeux searches agorajeux by name only.
func NewAgorajeux(f *Fetcher, cfg SelectorConfig) *ShopAdapter {
	return &ShopAdapter{
		name:      "agorajeux",
		fetch:     f,
		selectors: cfg.Shops["agorajeux"],
		searchURL: func(name string, _ int64) string {
			return "https://www.agorajeux.com/fr/recherche?controller=search&search_query=" + url.QueryEscape(name)
		},
	}
}

// NewUltrajeux searches ultrajeux by barcode when available, by name otherwise.
func NewUltrajeux(f *Fetcher, cfg SelectorConfig) *ShopAdapter {
	return &ShopAdapter{
		name:      "ultrajeux",
		fetch:     f,
		selectors: cfg.Shops["ultrajeux"],
		byBarcode: true,
		searchURL: func(name string, barcode int64) string {
			query := name
			if barcode > 0 {
				query = strconv.FormatInt(barcode, 10)
			}
			return "https://www.ultrajeux.com/search.php?text=" + url.QueryEscape(query)
		},
	}
}

// NewLudocortex renders the ludocortex search through the headless browser;
// its result grid is built client-side.
func NewLudocortex(b *Browser, cfg SelectorConfig) *ShopAdapter {
	return &ShopAdapter{
		name:      "ludocortex",
		fetch:     b,
		selectors: cfg.Shops["ludocortex"],
		byBarcode: true,
		searchURL: func(name string, barcode int64) string {
			query := name
			if barcode > 0 {
				query = strconv.FormatInt(barcode, 10)
			}
			return "https://www.ludocortex.fr/recherche?controller=search&s=" + url.QueryEscape(query)
		},
	}
}

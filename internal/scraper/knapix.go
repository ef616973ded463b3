package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/util"
)

const knapixBaseURL = "https://www.knapix.com"

// knapixShops is the set of retailers whose rows the comparator result
// table is allowed to contribute. Any other shop logo is ignored.
var knapixShops = map[string]bool{
	"agorajeux": true,
	"philibert": true,
	"ultrajeux": true,
}

// Knapix is the price comparator: one exact-name search can yield
// references for several retailers at once, saving that many per-shop
// lookups.
type Knapix struct {
	fetch     docFetcher
	selectors KnapixSelectors
}

func NewKnapix(f *Fetcher, cfg SelectorConfig) *Knapix {
	return &Knapix{fetch: f, selectors: cfg.Knapix}
}

func (k *Knapix) Name() string {
	return "knapix"
}

// LookupAll runs an exact-name comparator search and returns one reference
// per recognized shop. Later rows for the same shop overwrite earlier ones,
// matching the comparator's own "best offer last" ordering.
func (k *Knapix) LookupAll(ctx context.Context, name string) ([]models.Reference, error) {
	searchURL := knapixBaseURL + "/comparateur.php?nom_jeu=" +
		url.QueryEscape(name) + "&checkbox-exact=on&affiner="
	doc, err := k.fetch.Document(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("knapix search: %w", err)
	}
	return parseKnapixResults(doc, k.selectors), nil
}

func parseKnapixResults(doc *goquery.Document, sel KnapixSelectors) []models.Reference {
	bySource := make(map[string]models.Reference)
	doc.Find(sel.Row).Each(func(_ int, row *goquery.Selection) {
		href, _ := row.Attr("data-href")

		img := row.Find(sel.ShopImg).First()
		shop := strings.ToLower(strings.TrimSpace(img.AttrOr("alt", "")))
		if !knapixShops[shop] {
			return
		}

		priceText := row.Find(sel.Price).First().Text()
		price, err := util.ParseShopPrice(priceText)
		if err != nil {
			slog.Debug("Skipping knapix row with unparsable price", "shop", shop, "text", priceText)
			return
		}

		bySource[shop] = models.Reference{
			Name:  shop,
			Price: price,
			URL:   knapixBaseURL + href,
		}
	})

	refs := make([]models.Reference, 0, len(bySource))
	for _, ref := range bySource {
		refs = append(refs, ref)
	}
	return refs
}

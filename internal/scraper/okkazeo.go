package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/util"
)

const okkazeoBaseURL = "https://www.okkazeo.com"

// AnnounceDetails are the fields only present on the announce page itself,
// not in the feed.
type AnnounceDetails struct {
	Barcode   int64
	City      string
	Image     string
	Extension string
	Seller    models.Seller
	Shipping  map[string]float64
}

// Okkazeo scrapes the marketplace's announce detail pages.
type Okkazeo struct {
	fetch     docFetcher
	selectors OkkazeoSelectors
}

func NewOkkazeo(f *Fetcher, cfg SelectorConfig) *Okkazeo {
	return &Okkazeo{fetch: f, selectors: cfg.Okkazeo}
}

// AnnounceDetails fetches and parses the detail page for an announce id.
// Missing optional fields (barcode, city, shipping rows) come back zero;
// only transport failures are errors.
func (o *Okkazeo) AnnounceDetails(ctx context.Context, id int64) (AnnounceDetails, error) {
	pageURL := fmt.Sprintf("%s/annonces/view/%d", okkazeoBaseURL, id)
	doc, err := o.fetch.Document(ctx, pageURL)
	if err != nil {
		return AnnounceDetails{}, fmt.Errorf("okkazeo announce %d: %w", id, err)
	}
	return parseAnnounceDetails(doc, o.selectors), nil
}

func parseAnnounceDetails(doc *goquery.Document, sel OkkazeoSelectors) AnnounceDetails {
	details := AnnounceDetails{
		City:      strings.TrimSpace(doc.Find(sel.City).First().Text()),
		Extension: strings.TrimSpace(doc.Find(sel.Extension).First().Text()),
		Shipping:  make(map[string]float64),
	}

	if digits := util.CleanNumericString(doc.Find(sel.Barcode).First().Text()); digits != "" {
		if barcode, err := strconv.ParseInt(digits, 10, 64); err == nil {
			details.Barcode = barcode
		}
	}

	if src, ok := doc.Find(sel.Image).First().Attr("src"); ok {
		details.Image = src
	}

	sellerLink := doc.Find(sel.SellerLink).First()
	details.Seller = models.Seller{
		Name:        strings.TrimSpace(sellerLink.Text()),
		NbAnnounces: util.SafeAtoi(util.CleanNumericString(doc.Find(sel.SellerCount).First().Text())),
		IsPro:       doc.Find(sel.SellerPro).Length() > 0,
	}
	if href, ok := sellerLink.Attr("href"); ok {
		if strings.HasPrefix(href, "/") {
			href = okkazeoBaseURL + href
		}
		details.Seller.URL = href
	}

	doc.Find(sel.ShippingRow).Each(func(_ int, row *goquery.Selection) {
		shipper := strings.TrimSpace(row.Find(sel.ShipperName).First().Text())
		if shipper == "" {
			return
		}
		price, err := util.ParseShopPrice(row.Find(sel.ShipPrice).First().Text())
		if err != nil {
			return
		}
		details.Shipping[shipper] = price
	})

	return details
}

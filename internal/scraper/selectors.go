package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

// SelectorConfig holds every CSS selector the site scrapers depend on.
// Selectors live in configuration because the sites change their markup
// far more often than the scraping logic changes.
type SelectorConfig struct {
	Okkazeo  OkkazeoSelectors        `json:"okkazeo"`
	Shops    map[string]ShopSelectors `json:"shops"`
	Knapix   KnapixSelectors         `json:"knapix"`
	TricTrac TricTracSelectors       `json:"trictrac"`
}

// OkkazeoSelectors targets the announce detail page.
type OkkazeoSelectors struct {
	Barcode     string `json:"barcode"`
	City        string `json:"city"`
	Image       string `json:"image"`
	Extension   string `json:"extension"`
	SellerLink  string `json:"seller_link"`
	SellerCount string `json:"seller_count"`
	SellerPro   string `json:"seller_pro"`
	ShippingRow string `json:"shipping_row"`
	ShipperName string `json:"shipper_name"`
	ShipPrice   string `json:"ship_price"`
}

// ShopSelectors targets one retailer's search results page.
type ShopSelectors struct {
	Item  string `json:"item"`
	Title string `json:"title"`
	Price string `json:"price"`
	Link  string `json:"link"`
}

// KnapixSelectors targets the comparator's result table.
type KnapixSelectors struct {
	Row     string `json:"row"`
	ShopImg string `json:"shop_img"`
	Price   string `json:"price"`
}

// TricTracSelectors targets the rating microdata on the search page.
type TricTracSelectors struct {
	Item        string `json:"item"`
	Title       string `json:"title"`
	RatingValue string `json:"rating_value"`
	ReviewCount string `json:"review_count"`
}

// LoadSelectors loads the selector configuration from a JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}
	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes,
// supporting the embedded config via go:embed.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}
	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON is loaded.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Okkazeo: OkkazeoSelectors{
			Barcode:     ".informations .barcode",
			City:        ".seller-infos .city",
			Image:       ".announce-photos img",
			Extension:   ".informations .extension",
			SellerLink:  ".seller-infos a.seller",
			SellerCount: ".seller-infos .nb-announces",
			SellerPro:   ".seller-infos .badge-pro",
			ShippingRow: ".shipping-options tr",
			ShipperName: "td.shipper",
			ShipPrice:   "td.price",
		},
		Shops: map[string]ShopSelectors{
			"philibert": {
				Item:  "#product_list .product-miniature",
				Title: ".product-title a",
				Price: ".product-price-and-shipping .price",
				Link:  ".product-title a",
			},
			"agorajeux": {
				Item:  ".product_list .ajax_block_product",
				Title: ".product-name",
				Price: ".content_price .price",
				Link:  "a.product_img_link",
			},
			"ultrajeux": {
				Item:  "table.tableauListe td.blocproduit",
				Title: ".titre a",
				Price: ".prix",
				Link:  ".titre a",
			},
			"ludocortex": {
				Item:  ".products-grid .item",
				Title: ".product-name a",
				Price: ".price-box .price",
				Link:  ".product-name a",
			},
		},
		Knapix: KnapixSelectors{
			Row:     "tr[data-href]",
			ShopImg: "img[alt]",
			Price:   ".prix",
		},
		TricTrac: TricTracSelectors{
			Item:        "div.item",
			Title:       "span[itemprop=name]",
			RatingValue: "[itemprop=ratingValue]",
			ReviewCount: "[itemprop=reviewCount]",
		},
	}
}

package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseFeedPrice extracts the asking price from an okkazeo feed summary.
// The summary embeds the price as the last HTML text node, formatted
// "...>NN.NN€...". A summary that does not follow this shape is a hard
// parse failure for the entry, reported to the caller.
func ParseFeedPrice(summary string) (float64, error) {
	// Markup follows the price, so locate the euro sign first and only
	// then strip the tags preceding the number.
	beforeEuro, _, found := strings.Cut(summary, "€")
	if !found {
		return 0, fmt.Errorf("no price marker in summary %q", summary)
	}
	if idx := strings.LastIndex(beforeEuro, ">"); idx >= 0 {
		beforeEuro = beforeEuro[idx+1:]
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(beforeEuro), 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable price %q: %w", beforeEuro, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %.2f in summary", price)
	}
	return price, nil
}

// ParseShopPrice parses a scraped shop price such as "34,90 €", "34.90€"
// or "1 234,56 €" into a float value.
func ParseShopPrice(text string) (float64, error) {
	cleaned := strings.NewReplacer(
		"€", "",
		" ", "",
		" ", "",
		" ", "",
		",", ".",
	).Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return 0, fmt.Errorf("empty price text")
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable shop price %q: %w", text, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative shop price %q", text)
	}
	return price, nil
}

// SafeAtoi converts s to an int, returning 0 on any parse failure.
func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

// CleanNumericString strips everything but digits, for counters rendered
// with separators or suffixes ("1,204 avis").
func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

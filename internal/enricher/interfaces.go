package enricher

import (
	"context"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
)

// PriceAdapter looks up a single retailer's price for a game. A nil
// reference with a nil error means the retailer has no confident match.
type PriceAdapter interface {
	Name() string
	Lookup(ctx context.Context, name string, barcode int64) (*models.Reference, error)
}

// Comparator queries a price comparison site and can return references for
// several retailers from one search.
type Comparator interface {
	Name() string
	LookupAll(ctx context.Context, name string) ([]models.Reference, error)
}

// RatingAdapter looks up a community rating for a game. A nil reviewer with
// a nil error means no confident match was found.
type RatingAdapter interface {
	Name() string
	Lookup(ctx context.Context, name string) (*models.Reviewer, error)
}

package enricher

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
)

// Enricher cross-references a game against external sources: comparators
// first (one search can cover several retailers), then the per-retailer
// price adapters for sources still missing, then the rating sources.
// Source failures are logged and skipped; an announce with zero external
// references is still a valid catalog entry.
type Enricher struct {
	comparators []Comparator
	prices      []PriceAdapter
	ratings     []RatingAdapter
	timeout     time.Duration
	policy      models.PricePolicy
}

// New builds an enricher. Price adapters are ordered by source name so the
// lookup sequence is deterministic regardless of registration order.
func New(comparators []Comparator, prices []PriceAdapter, ratings []RatingAdapter, timeout time.Duration, policy models.PricePolicy) *Enricher {
	ordered := make([]PriceAdapter, len(prices))
	copy(ordered, prices)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Name() < ordered[j].Name()
	})

	return &Enricher{
		comparators: comparators,
		prices:      ordered,
		ratings:     ratings,
		timeout:     timeout,
		policy:      policy,
	}
}

// Enrich fills in references and ratings for game, then recomputes its
// deal. It mutates only game and returns once every source has been tried;
// individual source errors never abort the pass.
func (e *Enricher) Enrich(ctx context.Context, game *models.Game) {
	name := game.CanonicalName
	if name == "" {
		name = game.Announce.Name
	}

	for _, comp := range e.comparators {
		refs, err := e.lookupComparator(ctx, comp, name)
		if err != nil {
			slog.Warn("Comparator lookup failed", "source", comp.Name(), "game", name, "error", err)
			continue
		}
		for _, ref := range refs {
			game.SetReference(ref)
		}
	}

	for _, adapter := range e.prices {
		if game.HasReference(adapter.Name()) {
			continue
		}
		ref, err := e.lookupPrice(ctx, adapter, name, game.Announce.Barcode)
		if err != nil {
			slog.Warn("Price lookup failed", "source", adapter.Name(), "game", name, "error", err)
			continue
		}
		if ref == nil {
			slog.Debug("No price match", "source", adapter.Name(), "game", name)
			continue
		}
		game.SetReference(*ref)
	}

	for _, adapter := range e.ratings {
		rev, err := e.lookupRating(ctx, adapter, name)
		if err != nil {
			slog.Warn("Rating lookup failed", "source", adapter.Name(), "game", name, "error", err)
			continue
		}
		if rev == nil {
			slog.Debug("No rating match", "source", adapter.Name(), "game", name)
			continue
		}
		game.Review.SetReviewer(*rev)
	}

	game.Deal = models.ComputeDeal(game.Announce.Price, game.References, e.policy)
}

func (e *Enricher) lookupComparator(ctx context.Context, comp Comparator, name string) ([]models.Reference, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return comp.LookupAll(ctx, name)
}

func (e *Enricher) lookupPrice(ctx context.Context, adapter PriceAdapter, name string, barcode int64) (*models.Reference, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return adapter.Lookup(ctx, name, barcode)
}

func (e *Enricher) lookupRating(ctx context.Context, adapter RatingAdapter, name string) (*models.Reviewer, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return adapter.Lookup(ctx, name)
}

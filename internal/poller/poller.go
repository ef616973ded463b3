package poller

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ThisIsAreku/Aubonmeeple/internal/catalog"
	"github.com/ThisIsAreku/Aubonmeeple/internal/feed"
	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/normalize"
)

// Poller drives the ingestion cycle: fetch the feed, admit new announces
// through validation and enrichment, refresh prices for announces already
// in the catalog, and persist everything.
type Poller struct {
	feed         FeedSource
	details      DetailSource
	enricher     GameEnricher
	store        GameStore
	notifier     DealNotifier
	validator    AnnounceValidator
	catalog      *catalog.Catalog
	interval     time.Duration
	policy       models.PricePolicy
	alertPercent float64
	maxSize      int
}

func New(
	feedSource FeedSource,
	details DetailSource,
	enricher GameEnricher,
	store GameStore,
	notifier DealNotifier,
	validator AnnounceValidator,
	cat *catalog.Catalog,
	interval time.Duration,
	policy models.PricePolicy,
	alertPercent float64,
	maxSize int,
) *Poller {
	return &Poller{
		feed:         feedSource,
		details:      details,
		enricher:     enricher,
		store:        store,
		notifier:     notifier,
		validator:    validator,
		catalog:      cat,
		interval:     interval,
		policy:       policy,
		alertPercent: alertPercent,
		maxSize:      maxSize,
	}
}

// Run executes cycles until ctx is cancelled. The delay between cycle
// starts targets the configured interval; cycle runtime is subtracted from
// the wait so slow cycles don't stretch the cadence.
func (p *Poller) Run(ctx context.Context) error {
	for {
		start := time.Now()
		p.Cycle(ctx)

		wait := waitDuration(p.interval, time.Since(start))
		slog.Debug("Cycle finished", "elapsed", time.Since(start), "next_in", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// waitDuration returns how long to sleep after a cycle that took elapsed.
// Never negative: a cycle slower than the interval starts the next one
// immediately.
func waitDuration(interval, elapsed time.Duration) time.Duration {
	wait := interval - elapsed
	if wait < 0 {
		return 0
	}
	return wait
}

// Cycle runs one fetch-and-process pass. Entry-level failures are logged
// and skipped so one malformed announce never blocks the rest of the feed.
func (p *Poller) Cycle(ctx context.Context) {
	outcomes, err := p.feed.Fetch(ctx)
	if err != nil {
		slog.Error("Feed fetch failed", "error", err)
		return
	}

	var added, updated, skipped, failed int
	for _, outcome := range outcomes {
		if ctx.Err() != nil {
			return
		}
		if outcome.Err != nil {
			slog.Warn("Skipping malformed feed entry", "error", outcome.Err)
			failed++
			continue
		}

		announce := outcome.Announce
		switch {
		case p.catalog.Contains(announce.ID):
			changed, err := p.refreshExisting(ctx, announce)
			if err != nil {
				slog.Warn("Failed to refresh announce", "id", announce.ID, "error", err)
				failed++
			} else if changed {
				updated++
			} else {
				skipped++
			}
		default:
			if err := p.admitNew(ctx, announce); err != nil {
				slog.Warn("Failed to admit announce", "id", announce.ID, "error", err)
				failed++
			} else {
				added++
			}
		}
	}

	p.trimCatalog(ctx)

	slog.Info("Cycle complete",
		"entries", len(outcomes), "added", added, "updated", updated,
		"unchanged", skipped, "failed", failed, "catalog_size", p.catalog.Len())
}

// trimCatalog evicts the least recently modified announces once the catalog
// exceeds its configured bound, in memory and in the database.
func (p *Poller) trimCatalog(ctx context.Context) {
	if p.maxSize <= 0 {
		return
	}
	excess := p.catalog.Len() - p.maxSize
	if excess <= 0 {
		return
	}

	games := p.catalog.Snapshot()
	sort.Slice(games, func(i, j int) bool {
		return games[i].Announce.LastModificationDate.Before(games[j].Announce.LastModificationDate)
	})

	for _, game := range games[:excess] {
		id := game.Announce.ID
		if err := p.store.DeleteAnnounce(ctx, id); err != nil {
			slog.Warn("Failed to evict announce from storage", "id", id, "error", err)
			continue
		}
		p.catalog.Remove(id)
	}
	slog.Info("Trimmed catalog", "evicted", excess, "max", p.maxSize)
}

// refreshExisting updates the price of an announce already in the catalog.
// Repeat sightings never re-run enrichment; the stored references stand.
func (p *Poller) refreshExisting(ctx context.Context, announce models.Announce) (bool, error) {
	existing := p.catalog.Get(announce.ID)
	if existing == nil {
		return false, nil
	}
	if existing.Announce.Price == announce.Price &&
		!announce.LastModificationDate.After(existing.Announce.LastModificationDate) {
		return false, nil
	}

	selfRef := feed.MarketplaceReference(announce)
	if !p.catalog.UpdatePrice(announce.ID, announce.Price, announce.LastModificationDate, selfRef, p.policy) {
		return false, nil
	}

	game := p.catalog.Get(announce.ID)
	if err := p.store.UpdatePrice(ctx, announce.ID, announce.Price, announce.LastModificationDate, selfRef, game.Deal); err != nil {
		return true, err
	}
	return true, nil
}

// admitNew validates, completes, enriches and persists a first-seen announce.
func (p *Poller) admitNew(ctx context.Context, announce models.Announce) error {
	if err := p.validator.ValidateStruct(announce); err != nil {
		return err
	}

	// Detail page fields are best effort. The feed entry alone is a valid
	// catalog entry.
	if details, err := p.details.AnnounceDetails(ctx, announce.ID); err != nil {
		slog.Warn("Announce details unavailable", "id", announce.ID, "error", err)
	} else {
		announce.Barcode = details.Barcode
		announce.City = details.City
		announce.Extension = details.Extension
		announce.Seller = details.Seller
		announce.Shipping = details.Shipping
		if details.Image != "" {
			announce.Image = details.Image
		}
	}

	game := &models.Game{
		Announce:      announce,
		CanonicalName: normalize.CanonicalName(announce.Name),
	}
	game.SetReference(feed.MarketplaceReference(announce))

	p.enricher.Enrich(ctx, game)

	if !p.catalog.Insert(game) {
		// Lost the race with a concurrent insert; the other copy wins.
		return nil
	}

	if err := p.store.Store(ctx, game); err != nil {
		// Roll the insert back so the next cycle retries persistence.
		p.catalog.Remove(announce.ID)
		return err
	}

	if game.Deal.Percentage <= p.alertPercent && game.Deal.Percentage != 0 {
		if err := p.notifier.NotifyDeal(ctx, game); err != nil {
			slog.Warn("Deal notification failed", "id", announce.ID, "error", err)
		}
	}
	return nil
}

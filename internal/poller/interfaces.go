package poller

import (
	"context"
	"time"

	"github.com/ThisIsAreku/Aubonmeeple/internal/feed"
	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/scraper"
)

// FeedSource abstracts the marketplace feed.
type FeedSource interface {
	Fetch(ctx context.Context) ([]feed.Outcome, error)
}

// DetailSource abstracts the announce detail pages.
type DetailSource interface {
	AnnounceDetails(ctx context.Context, id int64) (scraper.AnnounceDetails, error)
}

// GameEnricher abstracts the cross-referencing pass.
type GameEnricher interface {
	Enrich(ctx context.Context, game *models.Game)
}

// GameStore abstracts the persistence layer.
type GameStore interface {
	Store(ctx context.Context, game *models.Game) error
	UpdatePrice(ctx context.Context, id int64, price float64, lastMod time.Time, selfRef models.Reference, deal models.Deal) error
	DeleteAnnounce(ctx context.Context, id int64) error
}

// DealNotifier abstracts the bargain alert channel.
type DealNotifier interface {
	NotifyDeal(ctx context.Context, game *models.Game) error
}

// AnnounceValidator abstracts admission validation.
type AnnounceValidator interface {
	ValidateStruct(s interface{}) error
}

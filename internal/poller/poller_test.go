package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThisIsAreku/Aubonmeeple/internal/catalog"
	"github.com/ThisIsAreku/Aubonmeeple/internal/feed"
	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/scraper"
)

type mockFeed struct {
	outcomes []feed.Outcome
	err      error
}

func (m *mockFeed) Fetch(_ context.Context) ([]feed.Outcome, error) {
	return m.outcomes, m.err
}

type mockDetails struct {
	details scraper.AnnounceDetails
	err     error
	calls   int
}

func (m *mockDetails) AnnounceDetails(_ context.Context, _ int64) (scraper.AnnounceDetails, error) {
	m.calls++
	return m.details, m.err
}

type mockEnricher struct {
	deal  models.Deal
	calls int
}

func (m *mockEnricher) Enrich(_ context.Context, game *models.Game) {
	m.calls++
	game.Deal = m.deal
}

type mockStore struct {
	stored       []*models.Game
	priceUpdates []int64
	updatedRefs  []models.Reference
	deleted      []int64
	storeErr     error
}

func (m *mockStore) Store(_ context.Context, game *models.Game) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.stored = append(m.stored, game)
	return nil
}

func (m *mockStore) UpdatePrice(_ context.Context, id int64, _ float64, _ time.Time, selfRef models.Reference, _ models.Deal) error {
	m.priceUpdates = append(m.priceUpdates, id)
	m.updatedRefs = append(m.updatedRefs, selfRef)
	return nil
}

func (m *mockStore) DeleteAnnounce(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockNotifier struct {
	notified []int64
}

func (m *mockNotifier) NotifyDeal(_ context.Context, game *models.Game) error {
	m.notified = append(m.notified, game.Announce.ID)
	return nil
}

type mockValidator struct {
	err error
}

func (m *mockValidator) ValidateStruct(_ interface{}) error {
	return m.err
}

type fixture struct {
	feed      *mockFeed
	details   *mockDetails
	enricher  *mockEnricher
	store     *mockStore
	notifier  *mockNotifier
	validator *mockValidator
	catalog   *catalog.Catalog
	poller    *Poller
}

func newFixture(outcomes ...feed.Outcome) *fixture {
	f := &fixture{
		feed:      &mockFeed{outcomes: outcomes},
		details:   &mockDetails{},
		enricher:  &mockEnricher{},
		store:     &mockStore{},
		notifier:  &mockNotifier{},
		validator: &mockValidator{},
		catalog:   catalog.New(),
	}
	f.poller = New(f.feed, f.details, f.enricher, f.store, f.notifier, f.validator,
		f.catalog, 5*time.Minute, models.MinReferencePrice("okkazeo"), -20, 0)
	return f
}

func announceOutcome(id int64, price float64) feed.Outcome {
	return feed.Outcome{Announce: models.Announce{
		ID:                   id,
		Name:                 "Catan - Jeu de base",
		Price:                price,
		URL:                  "https://www.okkazeo.com/annonces/view/42",
		LastModificationDate: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}}
}

func TestWaitDuration(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		elapsed  time.Duration
		want     time.Duration
	}{
		{"fast cycle", 300 * time.Second, 40 * time.Second, 260 * time.Second},
		{"slow cycle", 300 * time.Second, 310 * time.Second, 0},
		{"exact cycle", 300 * time.Second, 300 * time.Second, 0},
		{"instant cycle", 300 * time.Second, 0, 300 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := waitDuration(tt.interval, tt.elapsed); got != tt.want {
				t.Errorf("waitDuration(%v, %v) = %v, want %v", tt.interval, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestCycleAdmitsNewAnnounce(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.details.details = scraper.AnnounceDetails{
		Barcode: 123, City: "Lyon",
		Seller:   models.Seller{Name: "Alice"},
		Shipping: map[string]float64{"Colissimo": 7.9},
	}

	f.poller.Cycle(context.Background())

	game := f.catalog.Get(42)
	if game == nil {
		t.Fatal("announce not in catalog")
	}
	if game.CanonicalName != "Catan" {
		t.Errorf("canonical name = %q, want Catan", game.CanonicalName)
	}
	if game.Announce.City != "Lyon" || game.Announce.Barcode != 123 {
		t.Errorf("detail fields not merged: %+v", game.Announce)
	}
	if !game.HasReference("okkazeo") {
		t.Error("marketplace reference missing")
	}
	if f.enricher.calls != 1 {
		t.Errorf("enricher calls = %d, want 1", f.enricher.calls)
	}
	if len(f.store.stored) != 1 || f.store.stored[0].Announce.ID != 42 {
		t.Errorf("stored = %v, want announce 42", f.store.stored)
	}
}

func TestCycleNotifiesOnBargain(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.enricher.deal = models.Deal{Price: -10, Percentage: -33.3}

	f.poller.Cycle(context.Background())

	if len(f.notifier.notified) != 1 || f.notifier.notified[0] != 42 {
		t.Errorf("notified = %v, want announce 42", f.notifier.notified)
	}
}

func TestCycleSkipsNotificationAboveThreshold(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.enricher.deal = models.Deal{Price: -2, Percentage: -10}

	f.poller.Cycle(context.Background())

	if len(f.notifier.notified) != 0 {
		t.Errorf("notified = %v, want none above alert threshold", f.notifier.notified)
	}
}

func TestCycleRefreshesChangedPrice(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.poller.Cycle(context.Background())

	later := announceOutcome(42, 15)
	later.Announce.LastModificationDate = later.Announce.LastModificationDate.Add(time.Hour)
	f.feed.outcomes = []feed.Outcome{later}

	f.poller.Cycle(context.Background())

	game := f.catalog.Get(42)
	if game.Announce.Price != 15 {
		t.Errorf("price = %v, want 15", game.Announce.Price)
	}
	if ref := game.References["okkazeo"]; ref.Price != 15 {
		t.Errorf("marketplace reference price = %v, must follow the new asking price", ref.Price)
	}
	if len(f.store.updatedRefs) != 1 || f.store.updatedRefs[0].Name != "okkazeo" || f.store.updatedRefs[0].Price != 15 {
		t.Errorf("persisted reference update = %v, want refreshed okkazeo entry", f.store.updatedRefs)
	}
	if f.enricher.calls != 1 {
		t.Errorf("enricher calls = %d, repeat sightings must not re-enrich", f.enricher.calls)
	}
	if len(f.store.priceUpdates) != 1 || f.store.priceUpdates[0] != 42 {
		t.Errorf("price updates = %v, want announce 42", f.store.priceUpdates)
	}
	if len(f.store.stored) != 1 {
		t.Errorf("stored = %d games, repeat sightings must not re-store", len(f.store.stored))
	}
}

func TestCycleIgnoresUnchangedRepeat(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.poller.Cycle(context.Background())
	f.poller.Cycle(context.Background())

	if len(f.store.priceUpdates) != 0 {
		t.Errorf("price updates = %v, want none for identical repeat", f.store.priceUpdates)
	}
	if f.details.calls != 1 {
		t.Errorf("detail fetches = %d, want 1", f.details.calls)
	}
}

func TestCycleSkipsMalformedEntries(t *testing.T) {
	f := newFixture(
		feed.Outcome{Err: errors.New("missing id")},
		announceOutcome(42, 20),
	)

	f.poller.Cycle(context.Background())

	if f.catalog.Len() != 1 {
		t.Errorf("catalog size = %d, want 1", f.catalog.Len())
	}
}

func TestCycleRejectsInvalidAnnounce(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.validator.err = errors.New("url is required")

	f.poller.Cycle(context.Background())

	if f.catalog.Len() != 0 {
		t.Errorf("catalog size = %d, invalid announce must not be admitted", f.catalog.Len())
	}
	if len(f.store.stored) != 0 {
		t.Error("invalid announce must not be stored")
	}
}

func TestCycleRollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.store.storeErr = errors.New("postgres down")

	f.poller.Cycle(context.Background())

	if f.catalog.Len() != 0 {
		t.Error("announce must leave the catalog when persistence fails, so the next cycle retries")
	}
}

func TestCycleAdmitsDespiteDetailFailure(t *testing.T) {
	f := newFixture(announceOutcome(42, 20))
	f.details.err = errors.New("okkazeo timeout")

	f.poller.Cycle(context.Background())

	game := f.catalog.Get(42)
	if game == nil {
		t.Fatal("announce missing, detail failures must not block admission")
	}
	if game.Announce.City != "" {
		t.Errorf("city = %q, want empty without details", game.Announce.City)
	}
}

func TestCycleEvictsOldestBeyondMaxSize(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	var outcomes []feed.Outcome
	for i := int64(1); i <= 4; i++ {
		o := announceOutcome(i, 20)
		o.Announce.LastModificationDate = base.Add(time.Duration(i) * time.Hour)
		outcomes = append(outcomes, o)
	}

	f := newFixture(outcomes...)
	f.poller.maxSize = 2

	f.poller.Cycle(context.Background())

	if f.catalog.Len() != 2 {
		t.Fatalf("catalog size = %d, want 2 after trim", f.catalog.Len())
	}
	if f.catalog.Get(1) != nil || f.catalog.Get(2) != nil {
		t.Error("oldest announces should have been evicted")
	}
	if f.catalog.Get(3) == nil || f.catalog.Get(4) == nil {
		t.Error("newest announces should survive the trim")
	}
	if len(f.store.deleted) != 2 {
		t.Errorf("deleted = %v, want the two evicted ids", f.store.deleted)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- f.poller.Run(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
}

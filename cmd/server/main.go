package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ThisIsAreku/Aubonmeeple/internal/catalog"
	"github.com/ThisIsAreku/Aubonmeeple/internal/config"
	"github.com/ThisIsAreku/Aubonmeeple/internal/enricher"
	"github.com/ThisIsAreku/Aubonmeeple/internal/feed"
	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
	"github.com/ThisIsAreku/Aubonmeeple/internal/notifier"
	"github.com/ThisIsAreku/Aubonmeeple/internal/poller"
	"github.com/ThisIsAreku/Aubonmeeple/internal/scraper"
	"github.com/ThisIsAreku/Aubonmeeple/internal/server"
	"github.com/ThisIsAreku/Aubonmeeple/internal/storage"
	"github.com/ThisIsAreku/Aubonmeeple/internal/validator"
)

func main() {
	slog.Info("Starting okkazeo bargain finder...")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	store, err := storage.Open(ctx, cfg.DSN())
	if err != nil {
		slog.Error("Critical error opening postgres", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	cat := catalog.New()
	if err := warmCatalog(ctx, store, cat); err != nil {
		slog.Error("Critical error warming catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog warmed from postgres", "games", cat.Len())

	selectors := scraper.LoadConfig()
	fetcher := scraper.NewFetcher(cfg.RequestsPerSec)
	browser := scraper.NewBrowser(cfg.AdapterTimeout)

	policy := models.MinReferencePrice("okkazeo")
	enrich := enricher.New(
		[]enricher.Comparator{scraper.NewKnapix(fetcher, selectors)},
		[]enricher.PriceAdapter{
			scraper.NewPhilibert(fetcher, selectors),
			scraper.NewAgorajeux(fetcher, selectors),
			scraper.NewUltrajeux(fetcher, selectors),
			scraper.NewLudocortex(browser, selectors),
		},
		[]enricher.RatingAdapter{
			scraper.NewTricTrac(fetcher, selectors),
			scraper.NewBGG(fetcher),
		},
		cfg.AdapterTimeout,
		policy,
	)

	p := poller.New(
		feed.New(cfg.FeedURL, cfg.MaxRetries),
		scraper.NewOkkazeo(fetcher, selectors),
		enrich,
		store,
		notifier.NewDiscord(cfg.DiscordWebhookURL),
		validator.New(),
		cat,
		cfg.PollInterval,
		policy,
		cfg.DealAlertPercent,
		cfg.MaxCatalogSize,
	)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.New(store).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Poller started", "interval", cfg.PollInterval)
		return p.Run(gctx)
	})

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}

// warmCatalog seeds the in-memory catalog from postgres so restarts don't
// re-enrich announces already processed.
func warmCatalog(ctx context.Context, store *storage.Store, cat *catalog.Catalog) error {
	games, err := store.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, game := range games {
		cat.Insert(game)
	}
	return nil
}

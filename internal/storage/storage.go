package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
)

// ErrNotFound is returned when an announce id has no row.
var ErrNotFound = errors.New("announce not found")

// Store persists games in postgres. The announce row owns the seller and
// the satellite tables (shipping, references, reviewers, deal) hang off it
// with cascading deletes.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to postgres, verifies the connection and applies the
// schema migration.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS seller (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			nb_announces INT NOT NULL DEFAULT 0,
			is_pro BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (name, url)
		);
		CREATE TABLE IF NOT EXISTS okkazeo_announce (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			canonical_name TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			price REAL NOT NULL,
			url TEXT NOT NULL,
			extension TEXT NOT NULL DEFAULT '',
			barcode BIGINT NOT NULL DEFAULT 0,
			city TEXT NOT NULL DEFAULT '',
			average_note REAL NOT NULL DEFAULT 0,
			seller_id BIGINT REFERENCES seller(id),
			last_modification_date TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS shipping (
			announce_id BIGINT NOT NULL REFERENCES okkazeo_announce(id) ON DELETE CASCADE,
			shipper TEXT NOT NULL,
			price REAL NOT NULL,
			PRIMARY KEY (announce_id, shipper)
		);
		CREATE TABLE IF NOT EXISTS deal (
			announce_id BIGINT PRIMARY KEY REFERENCES okkazeo_announce(id) ON DELETE CASCADE,
			price REAL NOT NULL,
			percentage REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS reference (
			announce_id BIGINT NOT NULL REFERENCES okkazeo_announce(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (announce_id, name)
		);
		CREATE TABLE IF NOT EXISTS reviewer (
			announce_id BIGINT NOT NULL REFERENCES okkazeo_announce(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			note REAL NOT NULL,
			number INT NOT NULL,
			PRIMARY KEY (announce_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_announce_city ON okkazeo_announce(city);
		CREATE INDEX IF NOT EXISTS idx_announce_last_mod ON okkazeo_announce(last_modification_date);
	`)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Store upserts a game and all of its satellite rows in one transaction.
func (s *Store) Store(ctx context.Context, game *models.Game) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sellerID, err := upsertSeller(ctx, tx, game.Announce.Seller)
	if err != nil {
		return err
	}

	a := game.Announce
	_, err = tx.Exec(ctx, `
		INSERT INTO okkazeo_announce
			(id, name, canonical_name, image, price, url, extension, barcode, city, average_note, seller_id, last_modification_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			canonical_name = EXCLUDED.canonical_name,
			image = EXCLUDED.image,
			price = EXCLUDED.price,
			url = EXCLUDED.url,
			extension = EXCLUDED.extension,
			barcode = EXCLUDED.barcode,
			city = EXCLUDED.city,
			average_note = EXCLUDED.average_note,
			seller_id = EXCLUDED.seller_id,
			last_modification_date = EXCLUDED.last_modification_date`,
		a.ID, a.Name, game.CanonicalName, a.Image, a.Price, a.URL, a.Extension,
		a.Barcode, a.City, game.Review.AverageNote, sellerID, a.LastModificationDate)
	if err != nil {
		return fmt.Errorf("upsert announce %d: %w", a.ID, err)
	}

	if err := replaceSatellites(ctx, tx, game); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func upsertSeller(ctx context.Context, tx pgx.Tx, seller models.Seller) (*int64, error) {
	if seller.Name == "" {
		return nil, nil
	}
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO seller (name, url, nb_announces, is_pro)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, url) DO UPDATE SET
			nb_announces = EXCLUDED.nb_announces,
			is_pro = EXCLUDED.is_pro
		RETURNING id`,
		seller.Name, seller.URL, seller.NbAnnounces, seller.IsPro).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upsert seller %q: %w", seller.Name, err)
	}
	return &id, nil
}

func replaceSatellites(ctx context.Context, tx pgx.Tx, game *models.Game) error {
	id := game.Announce.ID
	for _, table := range []string{"shipping", "deal", "reference", "reviewer"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE announce_id = $1", id); err != nil {
			return fmt.Errorf("clear %s for announce %d: %w", table, id, err)
		}
	}

	for shipper, price := range game.Announce.Shipping {
		if _, err := tx.Exec(ctx,
			"INSERT INTO shipping (announce_id, shipper, price) VALUES ($1, $2, $3)",
			id, shipper, price); err != nil {
			return fmt.Errorf("insert shipping for announce %d: %w", id, err)
		}
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO deal (announce_id, price, percentage) VALUES ($1, $2, $3)",
		id, game.Deal.Price, game.Deal.Percentage); err != nil {
		return fmt.Errorf("insert deal for announce %d: %w", id, err)
	}

	for _, ref := range game.References {
		if _, err := tx.Exec(ctx,
			"INSERT INTO reference (announce_id, name, price, url) VALUES ($1, $2, $3, $4)",
			id, ref.Name, ref.Price, ref.URL); err != nil {
			return fmt.Errorf("insert reference for announce %d: %w", id, err)
		}
	}

	for _, rev := range game.Review.Reviews {
		if _, err := tx.Exec(ctx,
			"INSERT INTO reviewer (announce_id, name, url, note, number) VALUES ($1, $2, $3, $4, $5)",
			id, rev.Name, rev.URL, rev.Note, rev.Number); err != nil {
			return fmt.Errorf("insert reviewer for announce %d: %w", id, err)
		}
	}
	return nil
}

// UpdatePrice refreshes an announce's price, its timestamp, its own
// marketplace reference row and its deal after the announce reappeared in
// the feed at a new price.
func (s *Store) UpdatePrice(ctx context.Context, id int64, price float64, lastMod time.Time, selfRef models.Reference, deal models.Deal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE okkazeo_announce
		SET price = $2, last_modification_date = $3
		WHERE id = $1`, id, price, lastMod)
	if err != nil {
		return fmt.Errorf("update price for announce %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("announce %d: %w", id, ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO reference (announce_id, name, price, url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (announce_id, name) DO UPDATE SET
			price = EXCLUDED.price,
			url = EXCLUDED.url`,
		id, selfRef.Name, selfRef.Price, selfRef.URL); err != nil {
		return fmt.Errorf("update marketplace reference for announce %d: %w", id, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO deal (announce_id, price, percentage)
		VALUES ($1, $2, $3)
		ON CONFLICT (announce_id) DO UPDATE SET
			price = EXCLUDED.price,
			percentage = EXCLUDED.percentage`,
		id, deal.Price, deal.Percentage); err != nil {
		return fmt.Errorf("update deal for announce %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteAnnounce removes an announce and its satellite rows.
func (s *Store) DeleteAnnounce(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM okkazeo_announce WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete announce %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("announce %d: %w", id, ErrNotFound)
	}
	return nil
}

// Filter narrows and orders a catalog query.
type Filter struct {
	Name    string
	City    string
	Sort    string // "deal" (best deal first) or "updated" (most recent first)
	Page    int    // 1-based
	PerPage int
}

func (f Filter) normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 20
	}
	if f.Sort != "deal" {
		f.Sort = "updated"
	}
	return f
}

func (f Filter) whereClause() (string, []any) {
	var clauses []string
	var args []any
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		clauses = append(clauses, fmt.Sprintf("(a.name ILIKE $%d OR a.canonical_name ILIKE $%d)", len(args), len(args)))
	}
	if f.City != "" {
		args = append(args, "%"+f.City+"%")
		clauses = append(clauses, fmt.Sprintf("a.city ILIKE $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Count returns how many announces match the filter.
func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.whereClause()
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM okkazeo_announce a"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count announces: %w", err)
	}
	return count, nil
}

// Query returns one page of games matching the filter, fully rehydrated.
func (s *Store) Query(ctx context.Context, filter Filter) ([]*models.Game, error) {
	filter = filter.normalize()
	where, args := filter.whereClause()

	order := "a.last_modification_date DESC"
	if filter.Sort == "deal" {
		order = "d.percentage ASC NULLS LAST"
	}

	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`
		SELECT a.id, a.name, a.canonical_name, a.image, a.price, a.url, a.extension,
		       a.barcode, a.city, a.average_note, a.last_modification_date,
		       COALESCE(se.name, ''), COALESCE(se.url, ''), COALESCE(se.nb_announces, 0), COALESCE(se.is_pro, FALSE),
		       COALESCE(d.price, 0), COALESCE(d.percentage, 0)
		FROM okkazeo_announce a
		LEFT JOIN seller se ON se.id = a.seller_id
		LEFT JOIN deal d ON d.announce_id = a.id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, where, order, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query announces: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announces: %w", err)
	}

	for _, game := range games {
		if err := s.loadSatellites(ctx, game); err != nil {
			return nil, err
		}
	}
	return games, nil
}

// LoadAll rehydrates every stored game, for warming the in-memory catalog
// on startup.
func (s *Store) LoadAll(ctx context.Context) ([]*models.Game, error) {
	var all []*models.Game
	for page := 1; ; page++ {
		batch, err := s.Query(ctx, Filter{Sort: "updated", Page: page, PerPage: 500})
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return all, nil
		}
		all = append(all, batch...)
		if len(batch) < 500 {
			return all, nil
		}
	}
}

// LoadIDs returns every stored announce id in ascending order.
func (s *Store) LoadIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM okkazeo_announce ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load announce ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan announce id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announce ids: %w", err)
	}
	return ids, nil
}

func scanGame(rows pgx.Rows) (*models.Game, error) {
	var game models.Game
	err := rows.Scan(
		&game.Announce.ID, &game.Announce.Name, &game.CanonicalName, &game.Announce.Image,
		&game.Announce.Price, &game.Announce.URL, &game.Announce.Extension,
		&game.Announce.Barcode, &game.Announce.City, &game.Review.AverageNote,
		&game.Announce.LastModificationDate,
		&game.Announce.Seller.Name, &game.Announce.Seller.URL,
		&game.Announce.Seller.NbAnnounces, &game.Announce.Seller.IsPro,
		&game.Deal.Price, &game.Deal.Percentage)
	if err != nil {
		return nil, fmt.Errorf("scan announce: %w", err)
	}
	return &game, nil
}

func (s *Store) loadSatellites(ctx context.Context, game *models.Game) error {
	id := game.Announce.ID

	refRows, err := s.pool.Query(ctx,
		"SELECT name, price, url FROM reference WHERE announce_id = $1", id)
	if err != nil {
		return fmt.Errorf("load references for announce %d: %w", id, err)
	}
	for refRows.Next() {
		var ref models.Reference
		if err := refRows.Scan(&ref.Name, &ref.Price, &ref.URL); err != nil {
			refRows.Close()
			return fmt.Errorf("scan reference: %w", err)
		}
		game.SetReference(ref)
	}
	refRows.Close()
	if err := refRows.Err(); err != nil {
		return fmt.Errorf("iterate references: %w", err)
	}

	revRows, err := s.pool.Query(ctx,
		"SELECT name, url, note, number FROM reviewer WHERE announce_id = $1", id)
	if err != nil {
		return fmt.Errorf("load reviewers for announce %d: %w", id, err)
	}
	for revRows.Next() {
		var rev models.Reviewer
		if err := revRows.Scan(&rev.Name, &rev.URL, &rev.Note, &rev.Number); err != nil {
			revRows.Close()
			return fmt.Errorf("scan reviewer: %w", err)
		}
		game.Review.SetReviewer(rev)
	}
	revRows.Close()
	if err := revRows.Err(); err != nil {
		return fmt.Errorf("iterate reviewers: %w", err)
	}

	shipRows, err := s.pool.Query(ctx,
		"SELECT shipper, price FROM shipping WHERE announce_id = $1", id)
	if err != nil {
		return fmt.Errorf("load shipping for announce %d: %w", id, err)
	}
	for shipRows.Next() {
		var shipper string
		var price float64
		if err := shipRows.Scan(&shipper, &price); err != nil {
			shipRows.Close()
			return fmt.Errorf("scan shipping: %w", err)
		}
		if game.Announce.Shipping == nil {
			game.Announce.Shipping = make(map[string]float64)
		}
		game.Announce.Shipping[shipper] = price
	}
	shipRows.Close()
	if err := shipRows.Err(); err != nil {
		return fmt.Errorf("iterate shipping: %w", err)
	}

	if len(game.Review.Reviews) == 0 && game.Review.AverageNote != 0 {
		slog.Debug("Announce has an average note but no reviewer rows", "id", id)
	}
	return nil
}

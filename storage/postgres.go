package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petar-nikolic125/hmo-finder-live/identity"
	"github.com/petar-nikolic125/hmo-finder-live/models"
)

// PostgresStore is the optional durable sink for emitted records.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS hmo_listings (
		id UUID PRIMARY KEY,
		fingerprint TEXT UNIQUE NOT NULL,
		title TEXT,
		address TEXT,
		city TEXT,
		price INTEGER,
		bedrooms INTEGER,
		bathrooms INTEGER,
		area_sqm INTEGER,
		description TEXT,
		property_url TEXT,
		image_url TEXT,
		synthetic BOOLEAN DEFAULT FALSE,
		monthly_rent INTEGER,
		gross_yield REAL,
		roi_on_deposit REAL,
		profitability_score TEXT,
		first_seen_at TIMESTAMPTZ NOT NULL,
		last_seen_at TIMESTAMPTZ NOT NULL,
		times_seen INTEGER DEFAULT 1
	)`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// UpsertListing stores a record keyed by its address fingerprint. Repeat
// sightings refresh price, analysis and last_seen.
func (s *PostgresStore) UpsertListing(ctx context.Context, p *models.Property) error {
	fingerprint := identity.Fingerprint(p.Address, p.Price, p.Bedrooms)
	now := time.Now().UTC()

	query := `
		INSERT INTO hmo_listings (
			id, fingerprint, title, address, city, price, bedrooms, bathrooms,
			area_sqm, description, property_url, image_url, synthetic,
			monthly_rent, gross_yield, roi_on_deposit, profitability_score,
			first_seen_at, last_seen_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (fingerprint) DO UPDATE SET
			price = EXCLUDED.price,
			monthly_rent = EXCLUDED.monthly_rent,
			gross_yield = EXCLUDED.gross_yield,
			roi_on_deposit = EXCLUDED.roi_on_deposit,
			profitability_score = EXCLUDED.profitability_score,
			last_seen_at = EXCLUDED.last_seen_at,
			times_seen = hmo_listings.times_seen + 1`

	_, err := s.pool.Exec(ctx, query,
		p.ID, fingerprint, p.Title, p.Address, p.City, p.Price, p.Bedrooms, p.Bathrooms,
		p.AreaSqm, p.Description, p.PropertyURL, p.ImageURL, p.Synthetic,
		p.MonthlyRent, p.GrossYield, p.ROIOnDeposit, p.ProfitabilityScore,
		now, now,
	)
	return err
}

// SaveAll upserts a whole result set, returning the first error.
func (s *PostgresStore) SaveAll(ctx context.Context, records []models.Property) error {
	for i := range records {
		if err := s.UpsertListing(ctx, &records[i]); err != nil {
			return fmt.Errorf("upsert %s: %w", records[i].Address, err)
		}
	}
	return nil
}

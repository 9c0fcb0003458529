package storage

import (
	"context"
	"fmt"
	"strings"
)

type tableDef struct {
	name string
	ddl  string
}

// Tables are created in order; {{ts}} is replaced by the driver's timestamp
// type. Cities, areas, credits, payments, boosts and wishlist have no logic
// behind them yet.
var tables = []tableDef{
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		tg_user_id BIGINT NOT NULL UNIQUE,
		tg_username TEXT,
		display_name TEXT,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"cities", `
	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at {{ts}} NOT NULL
	)`},
	{"areas", `
	CREATE TABLE IF NOT EXISTS areas (
		id TEXT PRIMARY KEY,
		city_id TEXT NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		UNIQUE (city_id, name)
	)`},
	{"listings", `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		audience TEXT NOT NULL,
		unit_type TEXT NOT NULL,
		title VARCHAR(120) NOT NULL,
		description TEXT NOT NULL,
		area_text TEXT,
		area_id TEXT REFERENCES areas(id) ON DELETE SET NULL,
		price BIGINT NOT NULL DEFAULT 0,
		deposit BIGINT,
		furnished TEXT NOT NULL,
		restrictions BOOLEAN NOT NULL,
		couples_allowed BOOLEAN NOT NULL,
		bachelors_allowed BOOLEAN NOT NULL,
		pets_allowed BOOLEAN NOT NULL,
		parking_available BOOLEAN NOT NULL,
		tags TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"listings_owner_idx", `
	CREATE INDEX IF NOT EXISTS listings_owner_created_idx ON listings (owner_user_id, created_at)`},
	{"listing_media", `
	CREATE TABLE IF NOT EXISTS listing_media (
		id TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		file_id TEXT NOT NULL,
		file_unique_id TEXT NOT NULL,
		file_name TEXT,
		mime_type TEXT,
		file_size BIGINT,
		width INTEGER,
		height INTEGER,
		created_at {{ts}} NOT NULL,
		UNIQUE (listing_id, file_unique_id)
	)`},
	{"credits_wallet", `
	CREATE TABLE IF NOT EXISTS credits_wallet (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		balance BIGINT NOT NULL DEFAULT 0,
		updated_at {{ts}} NOT NULL
	)`},
	{"credits_ledger", `
	CREATE TABLE IF NOT EXISTS credits_ledger (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		delta BIGINT NOT NULL,
		reason TEXT NOT NULL,
		ref_id TEXT,
		created_at {{ts}} NOT NULL
	)`},
	{"payments", `
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider TEXT NOT NULL,
		provider_ref TEXT,
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL,
		credits BIGINT NOT NULL,
		status TEXT NOT NULL,
		created_at {{ts}} NOT NULL
	)`},
	{"listing_boosts", `
	CREATE TABLE IF NOT EXISTS listing_boosts (
		id TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		starts_at {{ts}} NOT NULL,
		ends_at {{ts}} NOT NULL,
		credits_spent BIGINT NOT NULL,
		created_at {{ts}} NOT NULL
	)`},
	{"wishlist", `
	CREATE TABLE IF NOT EXISTS wishlist (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		created_at {{ts}} NOT NULL,
		PRIMARY KEY (user_id, listing_id)
	)`},
}

func (s *Store) migrate(ctx context.Context) error {
	ts := "DATETIME"
	if s.driver == DriverPostgres {
		ts = "TIMESTAMPTZ"
	}
	for _, t := range tables {
		ddl := strings.ReplaceAll(t.ddl, "{{ts}}", ts)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.name, err)
		}
	}
	return nil
}

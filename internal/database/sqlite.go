package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// NewSQLite opens the engine's durable store. The pool is capped at a single
// connection: every multi-step mutation runs in one transaction on that
// connection, which serializes concurrent callers instead of interleaving them.
func NewSQLite(path string) (*sqlx.DB, error) {
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("error applying schema: %w", err)
	}

	return db, nil
}

// Migrate applies the engine schema. Statements are idempotent so the schema
// can be re-applied on every start.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to exec schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS wallets (
	user_id           TEXT PRIMARY KEY,
	credits           INTEGER NOT NULL DEFAULT 0,
	opened_count      INTEGER NOT NULL DEFAULT 0,
	streak_days       INTEGER NOT NULL DEFAULT 1,
	last_open_at      TIMESTAMP,
	last_free_pack_at TIMESTAMP,
	last_streak_day   TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	delta_credits INTEGER NOT NULL,
	reason        TEXT NOT NULL,
	ref_id        TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_user ON ledger_entries(user_id);

CREATE TABLE IF NOT EXISTS card_sets (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cards (
	card_id        TEXT PRIMARY KEY,
	set_code       TEXT NOT NULL,
	name           TEXT NOT NULL,
	rarity_tier    INTEGER NOT NULL,
	market_price   REAL NOT NULL DEFAULT 0,
	fallback_price REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_cards_set_tier ON cards(set_code, rarity_tier);

CREATE TABLE IF NOT EXISTS pack_slots (
	set_code     TEXT NOT NULL,
	product_code TEXT NOT NULL,
	slot_index   INTEGER NOT NULL,
	min_tier     INTEGER NOT NULL,
	max_tier     INTEGER NOT NULL,
	draw_count   INTEGER NOT NULL,
	PRIMARY KEY (set_code, product_code, slot_index)
);

CREATE TABLE IF NOT EXISTS card_instances (
	instance_id   TEXT PRIMARY KEY,
	card_id       TEXT NOT NULL,
	owner_user_id TEXT NOT NULL,
	minted_at     TIMESTAMP NOT NULL,
	mint_source   TEXT NOT NULL,
	mint_batch_id TEXT NOT NULL,
	state         TEXT NOT NULL DEFAULT 'owned',
	lock_trade_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_card_instances_owner ON card_instances(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_card_instances_lock ON card_instances(lock_trade_id);

CREATE TABLE IF NOT EXISTS open_events (
	open_id         TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	guild_id        TEXT NOT NULL DEFAULT '',
	set_code        TEXT NOT NULL,
	product_code    TEXT NOT NULL,
	result_json     TEXT NOT NULL,
	idempotency_key TEXT NOT NULL UNIQUE,
	created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id         TEXT PRIMARY KEY,
	offered_by       TEXT NOT NULL,
	offered_to       TEXT NOT NULL,
	offer_cards_json TEXT NOT NULL DEFAULT '[]',
	request_cards_json TEXT NOT NULL DEFAULT '[]',
	offer_credits    INTEGER NOT NULL DEFAULT 0,
	request_credits  INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT 'pending',
	expires_at       TIMESTAMP NOT NULL,
	created_at       TIMESTAMP NOT NULL,
	resolved_at      TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_trades_status_expiry ON trades(status, expires_at);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_events (
	id            TEXT PRIMARY KEY,
	admin_user_id TEXT NOT NULL,
	action        TEXT NOT NULL,
	payload_json  TEXT NOT NULL DEFAULT '{}',
	created_at    TIMESTAMP NOT NULL
);
`

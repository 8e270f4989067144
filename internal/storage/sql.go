package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const createRecordsSQL = `
CREATE TABLE IF NOT EXISTS player_records (
	player_id  TEXT NOT NULL,
	record_key TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (player_id, record_key)
);
`

// Valid on both SQLite (3.24+) and PostgreSQL.
const upsertRecordSQL = `
INSERT INTO player_records (player_id, record_key, value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (player_id, record_key) DO UPDATE SET
	value = excluded.value,
	updated_at = CURRENT_TIMESTAMP;
`

// SQLKV stores records in a single table through database/sql.
// Supported drivers: "sqlite3" and "postgres".
type SQLKV struct {
	db     *sqlx.DB
	get    string
	upsert string
}

// OpenSQL connects and creates the records table if needed.
func OpenSQL(driver, dsn string) (*SQLKV, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(createRecordsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create player_records: %w", err)
	}
	return &SQLKV{
		db:     db,
		get:    db.Rebind("SELECT value FROM player_records WHERE player_id = ? AND record_key = ?"),
		upsert: db.Rebind(upsertRecordSQL),
	}, nil
}

func (s *SQLKV) Get(ctx context.Context, playerID, key string) ([]byte, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.get, playerID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", playerID, key, err)
	}
	return []byte(value), nil
}

func (s *SQLKV) PutAll(ctx context.Context, playerID string, records []Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, s.upsert, playerID, r.Key, string(r.Value)); err != nil {
			tx.Rollback()
			return fmt.Errorf("put %s/%s: %w", playerID, r.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLKV) Close() error {
	return s.db.Close()
}

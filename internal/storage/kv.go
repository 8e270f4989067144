/*
Package storage
File: kv.go
Description:
    Durable per-player key-value records and the gateway that saves and
    loads versioned player state on top of them.

    Architecture:
    - KV: the backend contract (SQL or in-memory).
    - writer: ordered, coalescing asynchronous write queue per player.
    - Gateway: encodes/decodes PlayerState and owns the save-version check.
*/

package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get when no record exists for the key.
var ErrNotFound = errors.New("record not found")

// Record is one named value stored for a player.
type Record struct {
	Key   string
	Value []byte
}

// KV is a durable store of per-player records.
type KV interface {
	Get(ctx context.Context, playerID, key string) ([]byte, error)
	// PutAll writes every record for the player atomically.
	PutAll(ctx context.Context, playerID string, records []Record) error
	Close() error
}

// Open selects a backend by driver name: "memory", "sqlite3" or "postgres".
func Open(driver, dsn string) (KV, error) {
	if driver == "memory" {
		return NewMemoryKV(), nil
	}
	kv, err := OpenSQL(driver, dsn)
	if err != nil {
		return nil, err
	}
	return kv, nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/everforgeworks/resource-rush/internal/game"
)

// Options tunes the Gateway.
type Options struct {
	Namespace      string        // Key prefix, e.g. "ResourceRush"
	SaveVersion    int           // Running schema version
	KeepMismatched bool          // Load saves from other versions instead of discarding them
	Retries        int           // Extra attempts after a failed read or write
	Backoff        time.Duration // First retry delay, doubled per attempt
	Logger         *log.Logger
}

// Gateway saves and loads versioned player state.
type Gateway struct {
	kv      KV
	opts    Options
	metaKey string
	dataKey string
	writer  *writer
	logger  *log.Logger
}

func NewGateway(kv KV, opts Options) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 100 * time.Millisecond
	}
	g := &Gateway{
		kv:      kv,
		opts:    opts,
		metaKey: opts.Namespace + "_MetaData",
		dataKey: opts.Namespace + "_GameData",
		logger:  logger,
	}
	g.writer = newWriter(g.writeRecords)
	return g
}

// MetaKey and DataKey are the record keys used for every player.
func (g *Gateway) MetaKey() string { return g.metaKey }
func (g *Gateway) DataKey() string { return g.dataKey }

// Save encodes the state now and queues it for writing. It never blocks on storage.
func (g *Gateway) Save(playerID string, state *game.PlayerState) {
	meta, err := json.Marshal(game.SaveMetadata{SaveVersion: g.opts.SaveVersion})
	if err != nil {
		g.logger.Printf("Storage: encode metadata for %s: %v", playerID, err)
		return
	}
	data, err := json.Marshal(state)
	if err != nil {
		g.logger.Printf("Storage: encode state for %s: %v", playerID, err)
		return
	}
	records := []Record{{Key: g.metaKey, Value: meta}, {Key: g.dataKey, Value: data}}
	if err := g.writer.enqueue(playerID, records); err != nil {
		g.logger.Printf("Storage: save for %s dropped: %v", playerID, err)
	}
}

// Load returns the player's saved state.
// found is false when there is no compatible save; the caller starts fresh.
// The returned state has absent fields backfilled but is not reconciled with the catalog.
func (g *Gateway) Load(ctx context.Context, playerID string) (*game.PlayerState, bool, error) {
	if err := g.writer.wait(ctx, playerID); err != nil {
		return nil, false, err
	}

	raw, err := g.read(ctx, playerID, g.metaKey)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var meta game.SaveMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		g.logger.Printf("Storage: unreadable metadata for %s, starting fresh: %v", playerID, err)
		return nil, false, nil
	}
	if meta.SaveVersion != g.opts.SaveVersion {
		if !g.opts.KeepMismatched {
			g.logger.Printf("Storage: %s has save version %d, running %d; discarding", playerID, meta.SaveVersion, g.opts.SaveVersion)
			return nil, false, nil
		}
		g.logger.Printf("Storage: %s has save version %d, running %d; repairing", playerID, meta.SaveVersion, g.opts.SaveVersion)
	}

	raw, err = g.read(ctx, playerID, g.dataKey)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	state, err := decodeState(raw)
	if err != nil {
		g.logger.Printf("Storage: unreadable state for %s, starting fresh: %v", playerID, err)
		return nil, false, nil
	}
	return state, true, nil
}

// Flush waits for the player's queued writes.
func (g *Gateway) Flush(ctx context.Context, playerID string) error {
	return g.writer.wait(ctx, playerID)
}

// Close drains every queued write, then closes the backend.
func (g *Gateway) Close(ctx context.Context) error {
	if err := g.writer.close(ctx); err != nil {
		return fmt.Errorf("drain writes: %w", err)
	}
	return g.kv.Close()
}

func (g *Gateway) read(ctx context.Context, playerID, key string) ([]byte, error) {
	var raw []byte
	err := g.retry(ctx, func() error {
		var err error
		raw, err = g.kv.Get(ctx, playerID, key)
		return err
	})
	return raw, err
}

func (g *Gateway) writeRecords(playerID string, records []Record) {
	ctx := context.Background()
	err := g.retry(ctx, func() error {
		return g.kv.PutAll(ctx, playerID, records)
	})
	if err != nil {
		g.logger.Printf("Storage: save for %s failed after %d attempts: %v", playerID, g.opts.Retries+1, err)
	}
}

// retry runs op until it succeeds, returns ErrNotFound, or runs out of attempts.
func (g *Gateway) retry(ctx context.Context, op func() error) error {
	delay := g.opts.Backoff
	var err error
	for attempt := 0; attempt <= g.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = op()
		if err == nil || errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return err
}

// savedState is the on-disk shape. Pointer fields tell "absent" from zero.
type savedState struct {
	GemCount          *float64              `json:"gem_count"`
	TotalManualClicks *int64                `json:"total_manual_clicks"`
	Generators        []game.GeneratorState `json:"generators"`
	Quests            []game.QuestState     `json:"quests"`
}

// decodeState backfills fields missing from older save shapes.
func decodeState(raw []byte) (*game.PlayerState, error) {
	var saved savedState
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, err
	}
	state := &game.PlayerState{
		Generators: saved.Generators,
		Quests:     saved.Quests,
	}
	if saved.GemCount != nil {
		state.GemCount = *saved.GemCount
	}
	if saved.TotalManualClicks != nil {
		state.TotalManualClicks = *saved.TotalManualClicks
	}
	return state, nil
}

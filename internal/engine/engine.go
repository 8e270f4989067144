/*
Package engine
File: engine.go
Description:
    The authoritative simulation. Connect/Disconnect manage a player's
    session lifecycle; Click and Buy are the direct actions; Tick advances
    every connected player's passive production.

    Every mutation runs under the player's session lock and is followed, in
    the same critical section, by an asynchronous save and a snapshot
    notification, so both observe mutations in order. Invalid actions are
    silent no-ops: nothing is mutated, saved, or sent.
*/

package engine

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/everforgeworks/resource-rush/internal/game"
	"github.com/everforgeworks/resource-rush/internal/session"
)

// Notifier receives a snapshot after every mutation of a player's state.
type Notifier interface {
	Notify(playerID string, snap game.Snapshot)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(playerID string, snap game.Snapshot)

func (f NotifierFunc) Notify(playerID string, snap game.Snapshot) {
	if f == nil {
		return
	}
	f(playerID, snap)
}

// Persister is the durable side of a session. *storage.Gateway implements it.
type Persister interface {
	Save(playerID string, state *game.PlayerState)
	Load(ctx context.Context, playerID string) (*game.PlayerState, bool, error)
}

type Options struct {
	ConnectRetryDelay time.Duration // Wait between catalog-readiness checks on connect
	Shards            int
	Logger            *log.Logger
}

type Engine struct {
	catalog    atomic.Pointer[game.Catalog]
	sessions   *session.Store
	store      Persister
	notifier   Notifier
	retryDelay time.Duration
	logger     *log.Logger
}

func New(store Persister, notifier Notifier, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	delay := opts.ConnectRetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	if notifier == nil {
		notifier = NotifierFunc(nil)
	}
	return &Engine{
		sessions:   session.NewStore(opts.Shards),
		store:      store,
		notifier:   notifier,
		retryDelay: delay,
		logger:     logger,
	}
}

// LoadCatalog publishes the catalog. Only the first call takes effect.
func (e *Engine) LoadCatalog(c *game.Catalog) {
	if !e.catalog.CompareAndSwap(nil, c) {
		e.logger.Printf("Engine: catalog already loaded, ignoring reload")
		return
	}
	e.logger.Printf("Engine: catalog loaded (%d generators, %d quests)", len(c.Generators), len(c.Quests))
}

// Catalog returns the loaded catalog, or nil before LoadCatalog.
func (e *Engine) Catalog() *game.Catalog {
	return e.catalog.Load()
}

// Connect attaches a player and loads or creates their state.
// It waits for the catalog if it has not been loaded yet.
// On error the player is left detached.
func (e *Engine) Connect(ctx context.Context, playerID string) error {
	sess := e.sessions.Attach(playerID)

	var cat *game.Catalog
	err := sess.Init(func() (*game.PlayerState, error) {
		var err error
		cat, err = e.waitCatalog(ctx)
		if err != nil {
			return nil, err
		}

		state, found, err := e.store.Load(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", playerID, err)
		}
		if !found {
			state = cat.NewPlayerState()
			e.store.Save(playerID, state)
			e.logger.Printf("Engine: new save for %s", playerID)
		}
		cat.Reconcile(state)
		return state, nil
	})
	if err != nil {
		e.sessions.Detach(playerID, nil)
		return err
	}

	if cat == nil {
		cat = e.catalog.Load()
	}
	sess.Update(func(s *game.PlayerState) {
		e.notifier.Notify(playerID, cat.Snapshot(s))
	})
	return nil
}

func (e *Engine) waitCatalog(ctx context.Context) (*game.Catalog, error) {
	for {
		if c := e.catalog.Load(); c != nil {
			return c, nil
		}
		select {
		case <-time.After(e.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Disconnect releases one connection. The last one saves and evicts the session.
func (e *Engine) Disconnect(playerID string) bool {
	return e.sessions.Detach(playerID, func(s *game.PlayerState) {
		e.store.Save(playerID, s)
	})
}

// Click applies one manual drill for a connected player.
func (e *Engine) Click(playerID string) bool {
	return e.mutate(playerID, func(cat *game.Catalog, s *game.PlayerState) bool {
		cat.Click(s)
		return true
	})
}

// Buy purchases one generator unit. Unknown generators and unaffordable
// purchases leave the state untouched and report false.
func (e *Engine) Buy(playerID string, generatorID int) bool {
	return e.mutate(playerID, func(cat *game.Catalog, s *game.PlayerState) bool {
		return cat.Buy(s, generatorID)
	})
}

// mutate runs fn under the player's lock; a true result is persisted and broadcast.
func (e *Engine) mutate(playerID string, fn func(*game.Catalog, *game.PlayerState) bool) bool {
	cat := e.catalog.Load()
	if cat == nil {
		return false
	}
	sess, ok := e.sessions.Get(playerID)
	if !ok {
		return false
	}
	changed := false
	sess.Update(func(s *game.PlayerState) {
		if !fn(cat, s) {
			return
		}
		changed = true
		e.commit(cat, playerID, s)
	})
	return changed
}

func (e *Engine) commit(cat *game.Catalog, playerID string, s *game.PlayerState) {
	e.store.Save(playerID, s)
	e.notifier.Notify(playerID, cat.Snapshot(s))
}

// Tick advances every connected player by one interval. Shards are processed
// concurrently; each player only under its own lock. Players with zero
// production are neither saved nor notified. Returns the players advanced.
func (e *Engine) Tick(ctx context.Context) int {
	cat := e.catalog.Load()
	if cat == nil {
		return 0
	}

	var advanced atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < e.sessions.Shards(); i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.sessions.RangeShard(i, func(sess *session.Session) {
				sess.Update(func(s *game.PlayerState) {
					if cat.Tick(s) > 0 {
						advanced.Add(1)
						e.commit(cat, sess.ID(), s)
					}
				})
			})
			return nil
		})
	}
	g.Wait()
	return int(advanced.Load())
}

// Snapshot returns the current view of a connected player.
func (e *Engine) Snapshot(playerID string) (game.Snapshot, bool) {
	cat := e.catalog.Load()
	sess, ok := e.sessions.Get(playerID)
	if cat == nil || !ok {
		return game.Snapshot{}, false
	}
	var snap game.Snapshot
	found := sess.Update(func(s *game.PlayerState) {
		snap = cat.Snapshot(s)
	})
	return snap, found
}

// SaveAll queues a save for every connected player. Used on shutdown.
func (e *Engine) SaveAll() int {
	n := 0
	e.sessions.Range(func(sess *session.Session) {
		if sess.Update(func(s *game.PlayerState) { e.store.Save(sess.ID(), s) }) {
			n++
		}
	})
	return n
}

// Connected counts attached players.
func (e *Engine) Connected() int {
	return e.sessions.Len()
}

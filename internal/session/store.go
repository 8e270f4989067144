/*
Package session
File: store.go
Description:
    In-memory registry of connected players and their mutable state.

    The store is sharded by player ID so players never contend on one
    process-wide lock. Each Session carries its own mutex: every mutation of
    one player's state happens under that mutex, and nothing else.

    Lock order is Session.mu -> shard.mu. Nothing holds a shard lock while
    acquiring a session lock.
*/

package session

import (
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/everforgeworks/resource-rush/internal/game"
)

// ErrEvicted is returned by Init once the session has been detached for good.
var ErrEvicted = errors.New("session evicted")

// Session is one connected player. It may back several connections.
type Session struct {
	mu      sync.Mutex
	id      string
	state   *game.PlayerState
	refs    int // guarded by the shard lock
	evicted bool
	ready   atomic.Bool
}

func (s *Session) ID() string { return s.id }

// Ready reports whether the state has been loaded and the session is live.
func (s *Session) Ready() bool { return s.ready.Load() }

// Init loads the state once. Later callers see the state already present and return nil.
func (s *Session) Init(load func() (*game.PlayerState, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evicted {
		return ErrEvicted
	}
	if s.state != nil {
		return nil
	}
	state, err := load()
	if err != nil {
		return err
	}
	s.state = state
	s.ready.Store(true)
	return nil
}

// Update runs fn with exclusive access to the state.
// Returns false without calling fn if the session is not ready or already evicted.
func (s *Session) Update(fn func(state *game.PlayerState)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evicted || s.state == nil {
		return false
	}
	fn(s.state)
	return true
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// Store maps player IDs to sessions.
type Store struct {
	shards []*shard
}

func NewStore(shards int) *Store {
	if shards <= 0 {
		shards = 1
	}
	st := &Store{shards: make([]*shard, shards)}
	for i := range st.shards {
		st.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	return st
}

func (st *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return st.shards[h.Sum32()%uint32(len(st.shards))]
}

// Attach returns the player's session, creating it on first connection.
// Each Attach must be paired with one Detach.
func (st *Store) Attach(id string) *Session {
	sh := st.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[id]
	if !ok {
		sess = &Session{id: id}
		sh.sessions[id] = sess
	}
	sess.refs++
	return sess
}

// Get returns the live session for a player, if any.
func (st *Store) Get(id string) (*Session, bool) {
	sh := st.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[id]
	return sess, ok
}

// Detach releases one connection. On the last one, final runs with the
// latest state (if it was ever loaded) and the session is evicted, both
// before any new Attach for the same player can observe the store.
// Returns true when the session was evicted.
func (st *Store) Detach(id string, final func(state *game.PlayerState)) bool {
	sess, ok := st.Get(id)
	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sh := st.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.sessions[id] != sess {
		return false
	}
	sess.refs--
	if sess.refs > 0 {
		return false
	}
	delete(sh.sessions, id)
	sess.evicted = true
	sess.ready.Store(false)
	if sess.state != nil && final != nil {
		final(sess.state)
	}
	return true
}

// Shards is the number of independent partitions.
func (st *Store) Shards() int { return len(st.shards) }

// RangeShard calls fn for every ready session in shard i.
// The shard lock is released before fn runs.
func (st *Store) RangeShard(i int, fn func(*Session)) {
	sh := st.shards[i]
	sh.mu.RLock()
	sessions := make([]*Session, 0, len(sh.sessions))
	for _, sess := range sh.sessions {
		if sess.Ready() {
			sessions = append(sessions, sess)
		}
	}
	sh.mu.RUnlock()

	for _, sess := range sessions {
		fn(sess)
	}
}

// Range calls fn for every ready session.
func (st *Store) Range(fn func(*Session)) {
	for i := range st.shards {
		st.RangeShard(i, fn)
	}
}

// Len counts attached sessions, ready or not.
func (st *Store) Len() int {
	n := 0
	for _, sh := range st.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

package storage

import (
	"context"
	"errors"
	"sync"
)

var errWriterClosed = errors.New("writer closed")

// writer runs saves off the simulation path. Each player has at most one
// drain goroutine; a newer batch replaces an unwritten older one, so the last
// write always carries the most recent state and writes never reorder.
type writer struct {
	mu      sync.Mutex
	pending map[string]*playerQueue
	closed  bool
	wg      sync.WaitGroup
	write   func(playerID string, records []Record)
}

type playerQueue struct {
	next []Record
	idle chan struct{} // closed once the queue drains
}

func newWriter(write func(playerID string, records []Record)) *writer {
	return &writer{
		pending: make(map[string]*playerQueue),
		write:   write,
	}
}

func (w *writer) enqueue(playerID string, records []Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errWriterClosed
	}
	if q, ok := w.pending[playerID]; ok {
		q.next = records
		return nil
	}
	q := &playerQueue{next: records, idle: make(chan struct{})}
	w.pending[playerID] = q
	w.wg.Add(1)
	go w.drain(playerID, q)
	return nil
}

func (w *writer) drain(playerID string, q *playerQueue) {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		records := q.next
		if records == nil {
			delete(w.pending, playerID)
			close(q.idle)
			w.mu.Unlock()
			return
		}
		q.next = nil
		w.mu.Unlock()

		w.write(playerID, records)
	}
}

// wait blocks until every write queued for the player has been attempted.
func (w *writer) wait(ctx context.Context, playerID string) error {
	w.mu.Lock()
	q, ok := w.pending[playerID]
	w.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-q.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close rejects new writes and waits for queued ones.
func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

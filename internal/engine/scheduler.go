package engine

import (
	"context"
	"log"
	"time"
)

// Scheduler drives Engine.Tick on a fixed wall-clock interval.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	logger   *log.Logger
	// Ticks between "Tick:" summary log lines.
	logEvery int
}

func NewScheduler(engine *Engine, interval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{engine: engine, interval: interval, logger: logger, logEvery: 60}
}

// Run blocks until ctx is cancelled: `go scheduler.Run(ctx)`
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Printf("Tick: scheduler started, interval %v", s.interval)
	tickCount := 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("Tick: scheduler stopped after %d ticks", tickCount)
			return
		case <-ticker.C:
			advanced := s.engine.Tick(ctx)
			tickCount++
			if s.logEvery > 0 && tickCount%s.logEvery == 0 {
				s.logger.Printf("Tick: #%d advanced %d of %d players", tickCount, advanced, s.engine.Connected())
			}
		}
	}
}

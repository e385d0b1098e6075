package session

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Start begins the refresh loop in a background goroutine. The first tick
// runs immediately.
func (s *Session) Start(ctx context.Context) {
	s.logger.Info("starting view refresh loop",
		slog.Duration("interval", s.interval),
	)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop ends the refresh loop and waits for an in-flight tick to finish,
// including ticks started by other callers. After Stop returns no reconcile
// touches the session's rows.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()

	// wait out a Tick started outside the loop
	s.tickMu.Lock()
	s.tickMu.Unlock()
	s.logger.Info("view refresh loop stopped")
}

// run is the main refresh loop
func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()

	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		case <-s.refreshCh:
			s.tick(ctx)
		}
	}
}

func (s *Session) tick(ctx context.Context) {
	if err := s.Tick(ctx); err != nil && !errors.Is(err, ErrStopped) {
		s.logger.Debug("view tick finished with error",
			slog.String("error", err.Error()),
		)
	}
}

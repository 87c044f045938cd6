package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rshade/youseo/internal/logging"
)

// StartSweeper runs CleanupExpired every interval until ctx is cancelled,
// StopSweeper is called, or the manager is closed. Expiry on the read path
// is unaffected: an expired record that has not been swept is still a miss.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	if !m.enabled {
		return nil
	}

	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()
	if m.sweepCancel != nil {
		return errors.New("sweeper already running")
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.sweepCancel = cancel
	m.sweepDone = done

	go m.sweepTask(sweepCtx, interval, done)
	return nil
}

// StopSweeper stops a running sweeper and waits for it to exit.
func (m *Manager) StopSweeper() {
	m.sweepMu.Lock()
	cancel, done := m.sweepCancel, m.sweepDone
	m.sweepCancel, m.sweepDone = nil, nil
	m.sweepMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Manager) sweepTask(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.CleanupExpired(ctx)
			if err != nil {
				log.Warn().Str("component", "cache").Err(err).Msg("background cache sweep failed")
				continue
			}
			if removed > 0 {
				log.Debug().Str("component", "cache").Int("removed", removed).Msg("background cache sweep")
			}
		}
	}
}

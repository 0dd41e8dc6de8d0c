package telegram

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/pickup.football/internal/platform/timeouts"
)

const healthCheckInterval = 30 * time.Second

// HealthMonitor probes the Bot API on a fixed interval so the HTTP health
// endpoint can report connectivity without blocking on a live round trip.
type HealthMonitor struct {
	client *Client

	mu        sync.Mutex
	lastErr   error
	lastCheck time.Time
}

// NewHealthMonitor creates a monitor around the client. Run must be started
// for the status to update.
func NewHealthMonitor(client *Client) *HealthMonitor {
	return &HealthMonitor{client: client}
}

// Run probes until the context ends.
func (m *HealthMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	m.probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *HealthMonitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, timeouts.HealthProbe)
	_, err := m.client.GetMe(probeCtx)
	cancel()

	m.mu.Lock()
	wasHealthy := m.lastErr == nil
	m.lastErr = err
	if err == nil {
		m.lastCheck = time.Now()
	}
	m.mu.Unlock()

	switch {
	case err != nil && wasHealthy:
		log.Printf("telegram connectivity lost: %v", err)
	case err == nil && !wasHealthy:
		log.Printf("telegram connectivity restored")
	}
}

// Err returns the error from the most recent probe, or nil when healthy.
func (m *HealthMonitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// LastCheck returns the time of the last successful probe, zero until one
// has succeeded.
func (m *HealthMonitor) LastCheck() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCheck
}

package telegram

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/louisbranch/pickup.football/internal/platform/timeouts"
)

const maxReconnectAttempts = 15

// UpdateHandler consumes one update from the polling loop.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// Poller drives the long-polling loop and recovers from transient network
// failures with staged backoff. After maxReconnectAttempts consecutive
// failures Run returns the last error and the process is expected to restart.
type Poller struct {
	client  *Client
	handler UpdateHandler
}

// NewPoller creates a poller dispatching updates to handler.
func NewPoller(client *Client, handler UpdateHandler) *Poller {
	return &Poller{client: client, handler: handler}
}

// Run polls until the context is canceled or the reconnect budget is spent.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.client.GetUpdates(ctx, offset, int(timeouts.TelegramLongPoll.Seconds()))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempts++
			if attempts >= maxReconnectAttempts {
				log.Printf("polling failed after %d attempts: %v", attempts, err)
				return err
			}
			delay := reconnectDelay(attempts)
			log.Printf("polling error (attempt %d/%d), retrying in %s: %v", attempts, maxReconnectAttempts, delay, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}
		attempts = 0

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.handler.HandleUpdate(ctx, update)
		}
	}
}

// reconnectDelay stages backoff: quick retries first, then a moderate ramp,
// then exponential growth capped at 30 seconds.
func reconnectDelay(attempt int) time.Duration {
	switch {
	case attempt <= 3:
		return time.Duration(attempt) * time.Second
	case attempt <= 8:
		return 5*time.Second + time.Duration(attempt-3)*2*time.Second
	default:
		delay := 3 * float64(time.Second) * math.Pow(1.5, float64(attempt-8))
		return time.Duration(math.Min(delay, float64(30*time.Second)))
	}
}

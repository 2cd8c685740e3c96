// Package watch polls the fraud backend for transactions held in DELAY
// state and raises ledger alerts for them. The live stream announces new
// transactions, but a delayed payment decided server-side while the
// client was offline only surfaces through this poll.
package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/domain"
	"github.com/fdtlabs/fraudlens/internal/events"
	"github.com/fdtlabs/fraudlens/internal/notify"
)

const (
	// Schedule is the cron expression for the delayed-transaction poll.
	// The first poll of a session runs immediately via Scheduler.RunNow.
	Schedule = "@every 30s"

	pageLimit      = 20
	requestTimeout = 15 * time.Second
)

// DelayedWatcher is a scheduler job that fetches the newest page of
// delayed transactions and feeds them to the notification ledger. The
// ledger owns dedup, so ticks are idempotent.
type DelayedWatcher struct {
	backend  domain.Backend
	tokens   domain.TokenSource
	ledger   *notify.Ledger
	eventBus *events.Bus
	log      zerolog.Logger

	mu     sync.Mutex
	halted bool
}

// NewDelayedWatcher creates the polling job for one session. The event
// bus is optional; when present, new alerts are announced on it.
func NewDelayedWatcher(backend domain.Backend, tokens domain.TokenSource, ledger *notify.Ledger, eventBus *events.Bus, log zerolog.Logger) *DelayedWatcher {
	return &DelayedWatcher{
		backend:  backend,
		tokens:   tokens,
		ledger:   ledger,
		eventBus: eventBus,
		log:      log.With().Str("job", "delayed_watch").Logger(),
	}
}

// Name returns the job name
func (w *DelayedWatcher) Name() string {
	return "delayed_watch"
}

// Halted reports whether polling has shut down for this session.
func (w *DelayedWatcher) Halted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.halted
}

// Run executes one poll. Transient backend failures are absorbed and the
// next tick retries; a missing or rejected token halts the watcher for
// the rest of the session.
func (w *DelayedWatcher) Run() error {
	if w.Halted() {
		return nil
	}

	token, ok := w.tokens.Token()
	if !ok {
		w.halt("no session token")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	page, err := w.backend.Transactions(ctx, token, pageLimit, domain.ActionDelay)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			w.halt("session token rejected")
			return nil
		}
		w.log.Warn().Err(err).Msg("Delayed transaction poll failed")
		return nil
	}

	added := 0
	for _, tx := range page.Transactions {
		if w.ledger.AddDelayedTransaction(tx) {
			added++
		}
	}

	if added > 0 {
		w.log.Info().
			Int("new_alerts", added).
			Int("delayed", len(page.Transactions)).
			Msg("Delayed transactions detected")

		if w.eventBus != nil {
			w.eventBus.Emit(events.NotificationsChanged, "delayed_watch", &events.NotificationsChangedData{
				Unread: w.ledger.UnreadCount(),
				Total:  w.ledger.Len(),
			})
		}
	} else {
		w.log.Debug().
			Int("delayed", len(page.Transactions)).
			Msg("Delayed transaction poll completed")
	}
	return nil
}

func (w *DelayedWatcher) halt(reason string) {
	w.mu.Lock()
	already := w.halted
	w.halted = true
	w.mu.Unlock()

	if !already {
		w.log.Warn().Str("reason", reason).Msg("Delayed transaction polling halted for this session")
	}
}

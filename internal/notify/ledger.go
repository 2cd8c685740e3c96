// Package notify maintains the session's alert ledger: a newest-first,
// deduplicated list of user-facing notifications with read/unread state.
// Ordinary notifications remove themselves after a short window; delayed
// transaction alerts persist until the transaction is resolved.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fdtlabs/fraudlens/internal/clock"
	"github.com/fdtlabs/fraudlens/internal/domain"
	"github.com/fdtlabs/fraudlens/internal/sched"
)

// AutoExpiry is how long non-persistent notifications stay in the ledger.
const AutoExpiry = 10 * time.Second

// Ledger is the session-scoped notification store. Index 0 of the list is
// the most recent entry; consumers render it as such.
type Ledger struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	expiry        map[string]sched.Task
	resolved      map[string]bool
	clock         clock.Clock
	sched         sched.Scheduler
	log           zerolog.Logger
}

// New creates an empty ledger using the supplied clock and scheduler.
func New(clk clock.Clock, sc sched.Scheduler, log zerolog.Logger) *Ledger {
	return &Ledger{
		notifications: make([]*domain.Notification, 0),
		expiry:        make(map[string]sched.Task),
		resolved:      make(map[string]bool),
		clock:         clk,
		sched:         sc,
		log:           log.With().Str("component", "notifications").Logger(),
	}
}

// Add assigns an id and creation time to the draft and prepends it to the
// ledger. Non-persistent types are scheduled for removal after AutoExpiry.
// The stored notification is returned.
func (l *Ledger) Add(draft domain.NotificationDraft) domain.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.add(draft)
}

// AddDelayedTransaction adds a persistent delayed-transaction alert for tx.
// Insertion is skipped when an unread alert for the same transaction already
// exists, or when the transaction was already resolved this session; read
// alerts do not block re-insertion. The check and the insert happen under
// one lock so concurrent poll and stream arrivals cannot double-insert.
func (l *Ledger) AddDelayedTransaction(tx domain.Transaction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolved[tx.TxID] {
		return false
	}
	for _, n := range l.notifications {
		if n.Type == domain.NotificationDelayedTransaction && n.TransactionID == tx.TxID && !n.Read {
			return false
		}
	}

	l.add(domain.NotificationDraft{
		Type:          domain.NotificationDelayedTransaction,
		Title:         "Transaction delayed",
		Message:       fmt.Sprintf("Payment of ₹%.2f to %s is held for review", tx.Amount, tx.RecipientVPA),
		Category:      domain.CategoryWarning,
		TransactionID: tx.TxID,
		ActionURL:     "/transactions",
	})
	return true
}

// add inserts the draft. Caller must hold l.mu.
func (l *Ledger) add(draft domain.NotificationDraft) *domain.Notification {
	n := &domain.Notification{
		ID:            uuid.New().String(),
		Type:          draft.Type,
		Title:         draft.Title,
		Message:       draft.Message,
		Category:      draft.Category,
		TransactionID: draft.TransactionID,
		ActionURL:     draft.ActionURL,
		CreatedAt:     l.clock.Now(),
	}
	if n.Category == "" {
		n.Category = domain.CategoryDefault
	}

	l.notifications = append([]*domain.Notification{n}, l.notifications...)

	if !n.Type.Persistent() {
		id := n.ID
		l.expiry[id] = l.sched.AfterFunc(AutoExpiry, func() {
			l.expire(id)
		})
	}

	l.log.Debug().
		Str("id", n.ID).
		Str("type", string(n.Type)).
		Str("tx_id", n.TransactionID).
		Msg("Added notification")
	return n
}

// expire removes a notification whose auto-expiry timer fired. Removal by
// id is a no-op when the user already removed it.
func (l *Ledger) expire(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeLocked(id)
}

// MarkRead transitions a notification to read. The transition is one-way.
// Returns false when no notification has that id.
func (l *Ledger) MarkRead(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, n := range l.notifications {
		if n.ID == id {
			n.Read = true
			return true
		}
	}
	return false
}

// Remove deletes a notification by id and cancels any pending expiry.
// Returns false when no notification has that id.
func (l *Ledger) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(id)
}

// removeLocked deletes by id. Caller must hold l.mu.
func (l *Ledger) removeLocked(id string) bool {
	if task, ok := l.expiry[id]; ok {
		task.Cancel()
		delete(l.expiry, id)
	}
	for i, n := range l.notifications {
		if n.ID == id {
			l.notifications = append(l.notifications[:i], l.notifications[i+1:]...)
			return true
		}
	}
	return false
}

// ResolveTransaction marks a delayed transaction as settled: its unread
// alerts are removed and future delayed alerts for the same id are
// suppressed for the rest of the session.
func (l *Ledger) ResolveTransaction(txID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resolved[txID] = true

	removed := 0
	for i := len(l.notifications) - 1; i >= 0; i-- {
		n := l.notifications[i]
		if n.Type == domain.NotificationDelayedTransaction && n.TransactionID == txID && !n.Read {
			l.notifications = append(l.notifications[:i], l.notifications[i+1:]...)
			removed++
		}
	}
	if removed > 0 {
		l.log.Debug().Str("tx_id", txID).Int("removed", removed).Msg("Resolved delayed transaction alerts")
	}
	return removed
}

// ClearAll wipes the ledger, cancels every pending expiry and forgets the
// resolution memory. Runs on session boundaries, so nothing may survive it.
func (l *Ledger) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, task := range l.expiry {
		task.Cancel()
		delete(l.expiry, id)
	}
	l.notifications = l.notifications[:0]
	l.resolved = make(map[string]bool)
}

// All returns a copy of the ledger, newest first.
func (l *Ledger) All() []domain.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Notification, len(l.notifications))
	for i, n := range l.notifications {
		out[i] = *n
	}
	return out
}

// UnreadCount counts unread notifications. Always derived, never stored.
func (l *Ledger) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, n := range l.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// Len returns the number of notifications in the ledger.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.notifications)
}

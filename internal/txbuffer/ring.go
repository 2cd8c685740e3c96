// Package txbuffer holds the bounded, newest-first transaction window a
// session computes its analytics over. The live stream and the reload path
// are the only writers.
package txbuffer

import (
	"sync"

	"github.com/fdtlabs/fraudlens/internal/domain"
)

// DefaultCapacity is the per-session transaction window size.
const DefaultCapacity = 200

// Ring is a fixed-capacity, newest-first transaction list. Index 0 is the
// most recent arrival; the oldest entry is dropped on overflow.
type Ring struct {
	mu       sync.RWMutex
	txs      []domain.Transaction
	capacity int
}

// NewRing creates an empty ring. A capacity <= 0 falls back to DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		txs:      make([]domain.Transaction, 0, capacity),
		capacity: capacity,
	}
}

// Push prepends tx. A transaction already present under the same TxID is
// replaced in place instead, which keeps merges idempotent when the poll
// and stream paths deliver the same transaction.
func (r *Ring) Push(tx domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.txs {
		if r.txs[i].TxID == tx.TxID {
			r.txs[i] = tx
			return
		}
	}

	r.txs = append(r.txs, domain.Transaction{})
	copy(r.txs[1:], r.txs)
	r.txs[0] = tx
	if len(r.txs) > r.capacity {
		r.txs = r.txs[:r.capacity]
	}
}

// ReplaceAll swaps the window contents for a freshly fetched list, assumed
// newest-first as the backend returns it, truncated to capacity.
func (r *Ring) ReplaceAll(txs []domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(txs) > r.capacity {
		txs = txs[:r.capacity]
	}
	r.txs = make([]domain.Transaction, len(txs))
	copy(r.txs, txs)
}

// Snapshot returns a copy of the window, newest first.
func (r *Ring) Snapshot() []domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Transaction, len(r.txs))
	copy(out, r.txs)
	return out
}

// Len returns the number of buffered transactions.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.txs)
}

// Capacity returns the fixed window size.
func (r *Ring) Capacity() int {
	return r.capacity
}

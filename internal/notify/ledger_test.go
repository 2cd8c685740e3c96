package notify

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdtlabs/fraudlens/internal/domain"
	testingpkg "github.com/fdtlabs/fraudlens/internal/testing"
)

func setupLedger(t *testing.T) (*Ledger, *testingpkg.FakeClock, *testingpkg.FakeScheduler) {
	t.Helper()
	clk := testingpkg.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	sc := testingpkg.NewFakeScheduler()
	return New(clk, sc, zerolog.Nop()), clk, sc
}

func delayedTx(id string) domain.Transaction {
	return domain.Transaction{
		TxID:         id,
		UserID:       "user1",
		Amount:       1200,
		RecipientVPA: "shop@upi",
		Action:       domain.ActionDelay,
		RiskScore:    0.05,
	}
}

func TestAddPrependsNewestFirst(t *testing.T) {
	l, clk, _ := setupLedger(t)

	first := l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "first"})
	clk.Advance(time.Second)
	second := l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "second"})

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, all[0].Read)
}

func TestAddDefaultsCategory(t *testing.T) {
	l, _, _ := setupLedger(t)

	n := l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "plain"})
	assert.Equal(t, domain.CategoryDefault, n.Category)
}

func TestAutoExpiryRemovesTransientNotifications(t *testing.T) {
	l, _, sc := setupLedger(t)

	l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "transient"})
	require.Equal(t, 1, l.Len())

	sc.Advance(AutoExpiry - time.Second)
	assert.Equal(t, 1, l.Len())

	sc.Advance(time.Second)
	assert.Equal(t, 0, l.Len())
}

func TestAutoExpiryIgnoresReadState(t *testing.T) {
	l, _, sc := setupLedger(t)

	n := l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "read me"})
	require.True(t, l.MarkRead(n.ID))

	sc.Advance(AutoExpiry)
	assert.Equal(t, 0, l.Len())
}

func TestDelayedTransactionPersists(t *testing.T) {
	l, _, sc := setupLedger(t)

	require.True(t, l.AddDelayedTransaction(delayedTx("tx1")))

	sc.Advance(time.Hour)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, domain.NotificationDelayedTransaction, l.All()[0].Type)
}

func TestDelayedTransactionDedup(t *testing.T) {
	l, _, _ := setupLedger(t)

	require.True(t, l.AddDelayedTransaction(delayedTx("tx1")))
	assert.False(t, l.AddDelayedTransaction(delayedTx("tx1")))
	assert.Equal(t, 1, l.Len())

	// A different transaction is not blocked.
	require.True(t, l.AddDelayedTransaction(delayedTx("tx2")))
	assert.Equal(t, 2, l.Len())
}

func TestReadDelayedAlertDoesNotBlockReinsertion(t *testing.T) {
	l, _, _ := setupLedger(t)

	require.True(t, l.AddDelayedTransaction(delayedTx("tx1")))
	id := l.All()[0].ID
	require.True(t, l.MarkRead(id))

	// The transaction is still pending server-side, so a fresh unread alert
	// is allowed once the old one was dismissed.
	assert.True(t, l.AddDelayedTransaction(delayedTx("tx1")))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.UnreadCount())

	// But the new unread alert blocks a third insertion.
	assert.False(t, l.AddDelayedTransaction(delayedTx("tx1")))
}

func TestPollTickScenario(t *testing.T) {
	// First tick returns tx_a and tx_b, second tick returns the same two.
	l, _, _ := setupLedger(t)

	for _, tx := range []domain.Transaction{delayedTx("tx_a"), delayedTx("tx_b")} {
		l.AddDelayedTransaction(tx)
	}
	require.Equal(t, 2, l.Len())
	require.Equal(t, 2, l.UnreadCount())

	for _, tx := range []domain.Transaction{delayedTx("tx_a"), delayedTx("tx_b")} {
		l.AddDelayedTransaction(tx)
	}
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2, l.UnreadCount())
}

func TestResolveTransactionRemovesAndSuppresses(t *testing.T) {
	l, _, _ := setupLedger(t)

	require.True(t, l.AddDelayedTransaction(delayedTx("tx1")))
	removed := l.ResolveTransaction("tx1")
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, l.Len())

	// A late poll response for the resolved transaction is ignored.
	assert.False(t, l.AddDelayedTransaction(delayedTx("tx1")))
	assert.Equal(t, 0, l.Len())
}

func TestResolveKeepsReadHistory(t *testing.T) {
	l, _, _ := setupLedger(t)

	require.True(t, l.AddDelayedTransaction(delayedTx("tx1")))
	require.True(t, l.MarkRead(l.All()[0].ID))

	removed := l.ResolveTransaction("tx1")
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, l.Len())
}

func TestMarkReadUnknownID(t *testing.T) {
	l, _, _ := setupLedger(t)
	assert.False(t, l.MarkRead("no-such-id"))
}

func TestRemoveCancelsExpiry(t *testing.T) {
	l, _, sc := setupLedger(t)

	n := l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "gone"})
	require.Equal(t, 1, sc.Pending())

	require.True(t, l.Remove(n.ID))
	assert.Equal(t, 0, sc.Pending())
	assert.Equal(t, 0, l.Len())

	assert.False(t, l.Remove(n.ID))
}

func TestClearAll(t *testing.T) {
	l, _, sc := setupLedger(t)

	l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "a"})
	l.AddDelayedTransaction(delayedTx("tx1"))
	l.ResolveTransaction("tx2")
	require.Equal(t, 2, l.Len())

	l.ClearAll()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, sc.Pending())
	assert.Equal(t, 0, l.UnreadCount())

	// Resolution memory does not leak into the next session.
	assert.True(t, l.AddDelayedTransaction(delayedTx("tx2")))
}

func TestUnreadCountIsDerived(t *testing.T) {
	l, _, _ := setupLedger(t)

	a := l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "a"})
	l.Add(domain.NotificationDraft{Type: domain.NotificationSystem, Title: "b"})
	require.Equal(t, 2, l.UnreadCount())

	l.MarkRead(a.ID)
	assert.Equal(t, 1, l.UnreadCount())
}

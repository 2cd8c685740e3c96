package domain

import "time"

// NotificationType classifies a ledger entry. Delayed-transaction alerts are
// the one persistent type: they outlive the auto-expiry window and stay until
// the referenced transaction is resolved.
type NotificationType string

const (
	NotificationDelayedTransaction NotificationType = "delayed_transaction"
	NotificationTransaction        NotificationType = "transaction"
	NotificationSystem             NotificationType = "system"
	NotificationDecision           NotificationType = "decision"
)

// Persistent reports whether entries of this type skip the auto-expiry timer.
func (t NotificationType) Persistent() bool {
	return t == NotificationDelayedTransaction
}

// NotificationCategory drives how the UI renders an alert.
type NotificationCategory string

const (
	CategorySuccess NotificationCategory = "success"
	CategoryWarning NotificationCategory = "warning"
	CategoryError   NotificationCategory = "error"
	CategoryFraud   NotificationCategory = "fraud"
	CategoryDefault NotificationCategory = "default"
)

// Notification is one entry in the alert ledger, newest first.
type Notification struct {
	CreatedAt     time.Time            `json:"created_at"`
	ID            string               `json:"id"`
	Type          NotificationType     `json:"type"`
	Title         string               `json:"title"`
	Message       string               `json:"message"`
	Category      NotificationCategory `json:"category"`
	TransactionID string               `json:"transaction_id,omitempty"`
	ActionURL     string               `json:"action_url,omitempty"`
	Read          bool                 `json:"read"`
}

// NotificationDraft is the caller-supplied part of a notification; the ledger
// assigns ID, CreatedAt and read state.
type NotificationDraft struct {
	Type          NotificationType
	Title         string
	Message       string
	Category      NotificationCategory
	TransactionID string
	ActionURL     string
}

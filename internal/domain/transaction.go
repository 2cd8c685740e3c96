// Package domain provides core domain models and types.
package domain

import "time"

// Action is the disposition the fraud engine assigns to a transaction.
type Action string

const (
	ActionAllow Action = "ALLOW"
	ActionDelay Action = "DELAY"
	ActionBlock Action = "BLOCK"
)

// Valid reports whether the action is one of the three known dispositions.
func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionDelay, ActionBlock:
		return true
	}
	return false
}

// TxType represents the kind of UPI transfer
type TxType string

const (
	TxTypeP2P TxType = "P2P"
	TxTypeP2M TxType = "P2M"
)

// Channel represents the client surface a transaction originated from
type Channel string

const (
	ChannelApp Channel = "app"
	ChannelQR  Channel = "qr"
	ChannelWeb Channel = "web"
)

// Transaction is a scored payment as produced by the fraud engine.
// It is consumed read-only: an update on the server side arrives as a
// tx_updated event and triggers a full reload, never an in-place patch.
type Transaction struct {
	CreatedAt        time.Time `json:"created_at"`
	Timestamp        time.Time `json:"ts,omitempty"`
	TxID             string    `json:"tx_id"`
	UserID           string    `json:"user_id"`
	DeviceID         string    `json:"device_id,omitempty"`
	RecipientVPA     string    `json:"recipient_vpa"`
	TxType           TxType    `json:"tx_type,omitempty"`
	Channel          Channel   `json:"channel,omitempty"`
	Action           Action    `json:"action"`
	Remarks          string    `json:"remarks,omitempty"`
	FraudReasons     []string  `json:"fraud_reasons,omitempty"`
	Amount           float64   `json:"amount"`
	RiskScore        float64   `json:"risk_score"`
	LocationMismatch bool      `json:"location_mismatch,omitempty"`
}

// HighRisk reports whether the transaction sits in the critical risk band.
func (t Transaction) HighRisk() bool {
	return t.RiskScore >= 0.8
}

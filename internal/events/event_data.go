package events

// EventData is implemented by typed event payloads. Emitters may also
// pass plain maps; typed payloads exist for the events the dashboard
// consumes programmatically.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// SessionStartedData contains data for SessionStarted events
type SessionStartedData struct {
	UserID string `json:"user_id"`
}

// EventType returns the event type for SessionStartedData
func (d *SessionStartedData) EventType() EventType {
	return SessionStarted
}

// TransactionsChangedData contains data for TransactionsChanged events
type TransactionsChangedData struct {
	Total int `json:"total"`
	// TxID is set when a single stream insert triggered the change,
	// empty for full reloads.
	TxID   string `json:"tx_id,omitempty"`
	Origin string `json:"origin"` // "stream", "reload"
}

// EventType returns the event type for TransactionsChangedData
func (d *TransactionsChangedData) EventType() EventType {
	return TransactionsChanged
}

// AnalyticsUpdatedData contains the pattern counters from the latest
// aggregator pass
type AnalyticsUpdatedData struct {
	UnusualAmount       int `json:"unusual_amount"`
	SuspiciousRecipient int `json:"suspicious_recipient"`
	RapidTransactions   int `json:"rapid_transactions"`
	NewDevice           int `json:"new_device"`
	LocationMismatch    int `json:"location_mismatch"`
	HighRisk            int `json:"high_risk"`
}

// EventType returns the event type for AnalyticsUpdatedData
func (d *AnalyticsUpdatedData) EventType() EventType {
	return AnalyticsUpdated
}

// NotificationsChangedData contains data for NotificationsChanged events
type NotificationsChangedData struct {
	Unread int `json:"unread"`
	Total  int `json:"total"`
}

// EventType returns the event type for NotificationsChangedData
func (d *NotificationsChangedData) EventType() EventType {
	return NotificationsChanged
}

// StreamStatusChangedData contains data for StreamStatusChanged events
type StreamStatusChangedData struct {
	State string `json:"state"` // "disconnected", "connecting", "connected"
}

// EventType returns the event type for StreamStatusChangedData
func (d *StreamStatusChangedData) EventType() EventType {
	return StreamStatusChanged
}

// SystemStatusChangedData contains data for SystemStatusChanged events
type SystemStatusChangedData struct {
	Status        string  `json:"status,omitempty"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Timestamp     string  `json:"timestamp"`
}

// EventType returns the event type for SystemStatusChangedData
func (d *SystemStatusChangedData) EventType() EventType {
	return SystemStatusChanged
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

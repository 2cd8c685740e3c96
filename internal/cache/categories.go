package cache

import "time"

// Categories accepted by the cache. Writes against any other name are
// rejected, the same way a whitelisted repository rejects unknown tables.
const (
	CategoryDashboard     = "dashboard"
	CategoryTransactions  = "transactions"
	CategoryUserProfile   = "user_profile"
	CategoryNotifications = "notifications"
)

// AllCategories lists every category for stats and cleanup operations.
var AllCategories = []string{
	CategoryDashboard,
	CategoryTransactions,
	CategoryUserProfile,
	CategoryNotifications,
}

// CategoryConfig fixes the freshness window and entry cap for one category.
type CategoryConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// CategoryConfigs maps each category to its freshness window and cap.
// Immutable at runtime; read-only by the cache.
var CategoryConfigs = map[string]CategoryConfig{
	// Scalar counters go stale fast once the stream is live
	CategoryDashboard: {TTL: 2 * time.Minute, MaxEntries: 50},

	// Paged transaction lists, one entry per limit/filter combination
	CategoryTransactions: {TTL: 5 * time.Minute, MaxEntries: 100},

	// Profile data rarely changes within a session
	CategoryUserProfile: {TTL: 30 * time.Minute, MaxEntries: 10},

	// Server-confirmed notification payloads
	CategoryNotifications: {TTL: 10 * time.Minute, MaxEntries: 200},
}

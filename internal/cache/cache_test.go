package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/fdtlabs/fraudlens/internal/testing"
)

func setupCache(t *testing.T) (*Cache, *testingpkg.FakeClock) {
	t.Helper()
	clk := testingpkg.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return New(clk, zerolog.Nop()), clk
}

func TestSetAndGet(t *testing.T) {
	c, _ := setupCache(t)

	err := c.Set("dash:user1", map[string]int{"x": 1}, CategoryDashboard)
	require.NoError(t, err)

	val, ok := c.Get("dash:user1")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"x": 1}, val)
}

func TestSetRejectsUnknownCategory(t *testing.T) {
	c, _ := setupCache(t)

	err := c.Set("key", "value", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache category")

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestGetMissOnAbsentKey(t *testing.T) {
	c, _ := setupCache(t)

	val, ok := c.Get("never-set")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestTTLBoundary(t *testing.T) {
	c, clk := setupCache(t)
	ttl := CategoryConfigs[CategoryDashboard].TTL

	require.NoError(t, c.Set("dash", map[string]int{"x": 1}, CategoryDashboard))

	t.Run("fresh just before TTL", func(t *testing.T) {
		clk.Advance(ttl - time.Millisecond)
		val, ok := c.Get("dash")
		require.True(t, ok)
		assert.Equal(t, map[string]int{"x": 1}, val)
	})

	t.Run("miss at exactly TTL", func(t *testing.T) {
		clk.Advance(time.Millisecond)
		_, ok := c.Get("dash")
		assert.False(t, ok)
	})

	t.Run("entry removed after expiry read", func(t *testing.T) {
		assert.Equal(t, 0, c.Len())
	})
}

func TestDashboardScenario(t *testing.T) {
	// set at t=0, hit at 119_999ms, miss at 120_001ms (TTL = 2min)
	c, clk := setupCache(t)

	require.NoError(t, c.Set("dash", map[string]int{"x": 1}, CategoryDashboard))

	clk.Advance(119_999 * time.Millisecond)
	val, ok := c.Get("dash")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"x": 1}, val)

	clk.Advance(2 * time.Millisecond)
	_, ok = c.Get("dash")
	assert.False(t, ok)
}

func TestCategoryEviction(t *testing.T) {
	c, clk := setupCache(t)
	maxEntries := CategoryConfigs[CategoryUserProfile].MaxEntries

	// Stagger writes so writtenAt ordering is unambiguous.
	for i := 0; i < maxEntries+1; i++ {
		require.NoError(t, c.Set(fmt.Sprintf("profile:%d", i), i, CategoryUserProfile))
		clk.Advance(time.Second)
	}

	assert.Equal(t, maxEntries, c.Len())

	// The oldest key is gone, all later ones survive.
	_, ok := c.Get("profile:0")
	assert.False(t, ok)
	for i := 1; i <= maxEntries; i++ {
		_, ok := c.Get(fmt.Sprintf("profile:%d", i))
		assert.True(t, ok, "profile:%d should survive eviction", i)
	}
}

func TestEvictionIsPerCategory(t *testing.T) {
	c, clk := setupCache(t)
	maxEntries := CategoryConfigs[CategoryUserProfile].MaxEntries

	require.NoError(t, c.Set("dash:stats", 42, CategoryDashboard))
	clk.Advance(time.Second)

	for i := 0; i < maxEntries+1; i++ {
		require.NoError(t, c.Set(fmt.Sprintf("profile:%d", i), i, CategoryUserProfile))
		clk.Advance(time.Second)
	}

	// Filling user_profile past its cap never touches the dashboard entry,
	// even though it is the oldest entry overall.
	val, ok := c.Get("dash:stats")
	require.True(t, ok)
	assert.Equal(t, 42, val)
}

func TestEvictionSkipsExpiredEntries(t *testing.T) {
	c, clk := setupCache(t)
	cfg := CategoryConfigs[CategoryUserProfile]

	for i := 0; i < cfg.MaxEntries; i++ {
		require.NoError(t, c.Set(fmt.Sprintf("profile:%d", i), i, CategoryUserProfile))
	}

	// Let every entry age out, then insert again: no live entries remain,
	// so nothing needs evicting and the insert just succeeds.
	clk.Advance(cfg.TTL)
	require.NoError(t, c.Set("profile:new", "fresh", CategoryUserProfile))

	val, ok := c.Get("profile:new")
	require.True(t, ok)
	assert.Equal(t, "fresh", val)
	assert.Equal(t, 1, c.Len())
}

func TestOverwriteRefreshesWrittenAt(t *testing.T) {
	c, clk := setupCache(t)
	ttl := CategoryConfigs[CategoryDashboard].TTL

	require.NoError(t, c.Set("dash", 1, CategoryDashboard))
	clk.Advance(ttl / 2)
	require.NoError(t, c.Set("dash", 2, CategoryDashboard))

	// Past the original expiry but within the refreshed window.
	clk.Advance(ttl/2 + time.Second)
	val, ok := c.Get("dash")
	require.True(t, ok)
	assert.Equal(t, 2, val)
}

func TestOverwriteCountsAsInsertForEviction(t *testing.T) {
	c, clk := setupCache(t)
	maxEntries := CategoryConfigs[CategoryUserProfile].MaxEntries

	for i := 0; i < maxEntries; i++ {
		require.NoError(t, c.Set(fmt.Sprintf("profile:%d", i), i, CategoryUserProfile))
		clk.Advance(time.Second)
	}

	// Overwriting a newer key while the category is full still evicts the
	// oldest entry.
	require.NoError(t, c.Set(fmt.Sprintf("profile:%d", maxEntries-1), "rewritten", CategoryUserProfile))

	_, ok := c.Get("profile:0")
	assert.False(t, ok)
	val, ok := c.Get(fmt.Sprintf("profile:%d", maxEntries-1))
	require.True(t, ok)
	assert.Equal(t, "rewritten", val)
}

func TestInvalidateBySubstring(t *testing.T) {
	c, _ := setupCache(t)

	require.NoError(t, c.Set("transactions:user1:p1", "a", CategoryTransactions))
	require.NoError(t, c.Set("transactions:user1:p2", "b", CategoryTransactions))
	require.NoError(t, c.Set("transactions:user2:p1", "c", CategoryTransactions))
	require.NoError(t, c.Set("dash:user1", "d", CategoryDashboard))

	removed := c.Invalidate("user1")
	assert.Equal(t, 3, removed)

	_, ok := c.Get("transactions:user2:p1")
	assert.True(t, ok)
	_, ok = c.Get("dash:user1")
	assert.False(t, ok)
}

func TestInvalidateCategory(t *testing.T) {
	c, _ := setupCache(t)

	require.NoError(t, c.Set("dash:1", "a", CategoryDashboard))
	require.NoError(t, c.Set("dash:2", "b", CategoryDashboard))
	require.NoError(t, c.Set("tx:1", "c", CategoryTransactions))

	removed, err := c.InvalidateCategory(CategoryDashboard)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := c.Get("tx:1")
	assert.True(t, ok)
	_, ok = c.Get("dash:1")
	assert.False(t, ok)
}

func TestInvalidateCategoryRejectsUnknown(t *testing.T) {
	c, _ := setupCache(t)

	_, err := c.InvalidateCategory("bogus")
	require.Error(t, err)
}

func TestClear(t *testing.T) {
	c, _ := setupCache(t)

	require.NoError(t, c.Set("dash:1", "a", CategoryDashboard))
	require.NoError(t, c.Set("tx:1", "b", CategoryTransactions))

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("dash:1")
	assert.False(t, ok)
}

func TestStatsCountsOnlyFreshEntries(t *testing.T) {
	c, clk := setupCache(t)

	require.NoError(t, c.Set("dash:1", "a", CategoryDashboard))
	require.NoError(t, c.Set("tx:1", "b", CategoryTransactions))

	stats := c.Stats()
	assert.Equal(t, 1, stats[CategoryDashboard])
	assert.Equal(t, 1, stats[CategoryTransactions])
	assert.Equal(t, 0, stats[CategoryUserProfile])

	// Age the dashboard entry out; transactions (5m TTL) stays fresh.
	clk.Advance(CategoryConfigs[CategoryDashboard].TTL)
	stats = c.Stats()
	assert.Equal(t, 0, stats[CategoryDashboard])
	assert.Equal(t, 1, stats[CategoryTransactions])
}

package flashsale

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/flashdealz-backend/pkg/config"
)

func newTestCache(t *testing.T) (*Cache, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	cache, err := NewCache(store, config.FlashSaleConfig{
		ItemLockTTL:      time.Second,
		StockTTL:         time.Hour,
		ParticipationTTL: time.Hour,
		OrderIndexTTL:    time.Hour,
		ItemInfoTTL:      time.Hour,
	})
	require.NoError(t, err)
	return cache, store
}

func TestPreloadStockDoesNotClobber(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t)
	ctx := context.Background()
	itemID := uuid.New()

	created, err := cache.PreloadStock(ctx, itemID, 10)
	require.NoError(t, err)
	require.True(t, created)

	remaining, err := cache.DecrementStock(ctx, itemID)
	require.NoError(t, err)
	require.EqualValues(t, 9, remaining)

	// A second preload must not reset the counter over the reservation.
	created, err = cache.PreloadStock(ctx, itemID, 10)
	require.NoError(t, err)
	require.False(t, created)

	value, ok, err := cache.GetStock(ctx, itemID)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 9, value)
}

func TestParticipationRoundTrip(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t)
	ctx := context.Background()
	itemID := uuid.New()

	_, joined, err := cache.GetParticipation(ctx, "user", itemID)
	require.NoError(t, err)
	require.False(t, joined)

	require.NoError(t, cache.SetParticipation(ctx, "user", itemID, "FS123"))
	orderID, joined, err := cache.GetParticipation(ctx, "user", itemID)
	require.NoError(t, err)
	require.True(t, joined)
	require.Equal(t, "FS123", orderID)

	require.NoError(t, cache.ClearParticipation(ctx, "user", itemID))
	_, joined, err = cache.GetParticipation(ctx, "user", itemID)
	require.NoError(t, err)
	require.False(t, joined)
}

func TestOrderItemIndexRoundTrip(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t)
	ctx := context.Background()
	itemID := uuid.New()

	require.NoError(t, cache.SetOrderItem(ctx, "FS123", itemID))
	got, ok, err := cache.GetOrderItem(ctx, "FS123")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, itemID, got)

	require.NoError(t, cache.ClearOrderItem(ctx, "FS123"))
	_, ok, err = cache.GetOrderItem(ctx, "FS123")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSoldOutFlags(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t)
	ctx := context.Background()
	itemID := uuid.New()

	flagged, err := cache.IsSoldOut(ctx, itemID)
	require.NoError(t, err)
	require.False(t, flagged)

	require.NoError(t, cache.MarkSoldOut(ctx, itemID))
	flagged, err = cache.IsSoldOut(ctx, itemID)
	require.NoError(t, err)
	require.True(t, flagged)

	require.NoError(t, cache.ClearSoldOut(ctx, itemID))
	flagged, err = cache.IsSoldOut(ctx, itemID)
	require.NoError(t, err)
	require.False(t, flagged)
}

func TestItemLockOwnerMatchRelease(t *testing.T) {
	t.Parallel()

	cache, store := newTestCache(t)
	ctx := context.Background()
	itemID := uuid.New()

	first := cache.ItemLock(itemID)
	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	second := cache.ItemLock(itemID)
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// Simulate the lease expiring and a new holder taking over: releasing
	// the stale holder must not free the new owner's lease.
	require.NoError(t, store.Del(ctx, itemLockKey(itemID)))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(ctx))
	held, err := store.Exists(ctx, itemLockKey(itemID))
	require.NoError(t, err)
	require.True(t, held, "stale release must not drop the current lease")

	require.NoError(t, second.Release(ctx))
	held, err = store.Exists(ctx, itemLockKey(itemID))
	require.NoError(t, err)
	require.False(t, held)
}

func TestAcquireWaitBounded(t *testing.T) {
	t.Parallel()

	cache, _ := newTestCache(t)
	ctx := context.Background()
	itemID := uuid.New()

	holder := cache.ItemLock(itemID)
	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	start := time.Now()
	waiter := cache.ItemLock(itemID)
	ok, err = waiter.AcquireWait(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)
	require.Less(t, time.Since(start), time.Second, "wait must stay bounded")
}

package flashsale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/flashdealz-backend/pkg/config"
	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/redis"
)

// Key layout under the shared namespace. Everything here is ephemeral and
// reconstructible from the persistent store; every record carries a TTL.
const (
	keyStock       = "fd:flash:stock:%s"
	keyJoined      = "fd:flash:joined:%s:%s"
	keyOrderItem   = "fd:flash:order_item:%s"
	keySold        = "fd:flash:sold:%s"
	keySoldOut     = "fd:flash:sold_out:%s"
	keyTempSoldOut = "fd:flash:temp_sold_out:%s"
	keyRateLimit   = "fd:flash:rl:%s:%s"
	keyItemLock    = "fd:flash:lock:item:%s"
	keyItemInfo    = "fd:flash:item:%s"
)

// Cache is the hot-path adapter over the shared counter store. It owns the
// key layout and the typed operations the inventory controller performs.
type Cache struct {
	store CounterStore
	cfg   config.FlashSaleConfig
}

// NewCache builds the hot-path cache adapter.
func NewCache(store CounterStore, cfg config.FlashSaleConfig) (*Cache, error) {
	if store == nil {
		return nil, errors.New("counter store required")
	}
	return &Cache{store: store, cfg: cfg}, nil
}

func stockKey(itemID uuid.UUID) string    { return fmt.Sprintf(keyStock, itemID) }
func joinedKey(userID string, itemID uuid.UUID) string {
	return fmt.Sprintf(keyJoined, userID, itemID)
}
func orderItemKey(orderID string) string    { return fmt.Sprintf(keyOrderItem, orderID) }
func soldKey(itemID uuid.UUID) string       { return fmt.Sprintf(keySold, itemID) }
func soldOutKey(itemID uuid.UUID) string    { return fmt.Sprintf(keySoldOut, itemID) }
func tempSoldOutKey(itemID uuid.UUID) string { return fmt.Sprintf(keyTempSoldOut, itemID) }
func rateLimitKey(userID string, itemID uuid.UUID) string {
	return fmt.Sprintf(keyRateLimit, userID, itemID)
}
func itemLockKey(itemID uuid.UUID) string { return fmt.Sprintf(keyItemLock, itemID) }
func itemInfoKey(itemID uuid.UUID) string { return fmt.Sprintf(keyItemInfo, itemID) }

// DecrementStock atomically reserves one unit and returns the remaining
// count, which may be negative when the caller lost the race.
func (c *Cache) DecrementStock(ctx context.Context, itemID uuid.UUID) (int64, error) {
	return c.store.DecrBy(ctx, stockKey(itemID), 1)
}

// CompensateStock returns one reserved unit to the pool.
func (c *Cache) CompensateStock(ctx context.Context, itemID uuid.UUID) error {
	_, err := c.store.IncrBy(ctx, stockKey(itemID), 1)
	return err
}

// StockExists reports whether a stock counter is loaded for the item.
func (c *Cache) StockExists(ctx context.Context, itemID uuid.UUID) (bool, error) {
	return c.store.Exists(ctx, stockKey(itemID))
}

// PreloadStock seeds the stock counter from the authoritative value. The
// set-if-absent semantics make it safe to call concurrently and repeatedly:
// an existing counter (possibly holding in-flight reservations) is never
// clobbered.
func (c *Cache) PreloadStock(ctx context.Context, itemID uuid.UUID, stock int64) (bool, error) {
	return c.store.SetNX(ctx, stockKey(itemID), stock, c.cfg.StockTTL)
}

// GetStock returns the current cached stock counter.
func (c *Cache) GetStock(ctx context.Context, itemID uuid.UUID) (int64, bool, error) {
	raw, err := c.store.Get(ctx, stockKey(itemID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse stock counter: %w", err)
	}
	return value, true, nil
}

// GetParticipation returns the order id recorded for a (user, item) pair.
func (c *Cache) GetParticipation(ctx context.Context, userID string, itemID uuid.UUID) (string, bool, error) {
	raw, err := c.store.Get(ctx, joinedKey(userID, itemID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return raw, true, nil
}

// SetParticipation records that the user holds an order for the item.
func (c *Cache) SetParticipation(ctx context.Context, userID string, itemID uuid.UUID, orderID string) error {
	return c.store.Set(ctx, joinedKey(userID, itemID), orderID, c.cfg.ParticipationTTL)
}

// ClearParticipation lets the user attempt the item again.
func (c *Cache) ClearParticipation(ctx context.Context, userID string, itemID uuid.UUID) error {
	return c.store.Del(ctx, joinedKey(userID, itemID))
}

// SetOrderItem writes the order→item reverse index, which doubles as the
// reservation marker consulted at payment time.
func (c *Cache) SetOrderItem(ctx context.Context, orderID string, itemID uuid.UUID) error {
	return c.store.Set(ctx, orderItemKey(orderID), itemID.String(), c.cfg.OrderIndexTTL)
}

// GetOrderItem resolves an order id back to its item.
func (c *Cache) GetOrderItem(ctx context.Context, orderID string) (uuid.UUID, bool, error) {
	raw, err := c.store.Get(ctx, orderItemKey(orderID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	itemID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("parse order index value: %w", err)
	}
	return itemID, true, nil
}

// ClearOrderItem releases the reservation marker.
func (c *Cache) ClearOrderItem(ctx context.Context, orderID string) error {
	return c.store.Del(ctx, orderItemKey(orderID))
}

// IncrSoldCount bumps the cached sold counter for cheap reads.
func (c *Cache) IncrSoldCount(ctx context.Context, itemID uuid.UUID) error {
	count, err := c.store.IncrBy(ctx, soldKey(itemID), 1)
	if err != nil {
		return err
	}
	if count == 1 {
		return c.store.Set(ctx, soldKey(itemID), count, c.cfg.StockTTL)
	}
	return nil
}

// GetSoldCount returns the cached sold counter.
func (c *Cache) GetSoldCount(ctx context.Context, itemID uuid.UUID) (int64, bool, error) {
	raw, err := c.store.Get(ctx, soldKey(itemID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse sold counter: %w", err)
	}
	return value, true, nil
}

// MarkSoldOut sets the advisory exhaustion flags. Read paths consult them
// to short-circuit; they are never authoritative on their own.
func (c *Cache) MarkSoldOut(ctx context.Context, itemID uuid.UUID) error {
	if err := c.store.Set(ctx, soldOutKey(itemID), 1, c.cfg.StockTTL); err != nil {
		return err
	}
	return c.store.Set(ctx, tempSoldOutKey(itemID), 1, c.cfg.StockTTL)
}

// ClearSoldOut removes the exhaustion flags after stock was returned.
func (c *Cache) ClearSoldOut(ctx context.Context, itemID uuid.UUID) error {
	return c.store.Del(ctx, soldOutKey(itemID), tempSoldOutKey(itemID))
}

// IsSoldOut reports whether either exhaustion flag is set.
func (c *Cache) IsSoldOut(ctx context.Context, itemID uuid.UUID) (bool, error) {
	set, err := c.store.Exists(ctx, soldOutKey(itemID))
	if err != nil || set {
		return set, err
	}
	return c.store.Exists(ctx, tempSoldOutKey(itemID))
}

// GetItemInfo returns the cached item row, if present.
func (c *Cache) GetItemInfo(ctx context.Context, itemID uuid.UUID) (*models.FlashSaleItem, bool, error) {
	raw, err := c.store.Get(ctx, itemInfoKey(itemID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var item models.FlashSaleItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, false, fmt.Errorf("decode cached item: %w", err)
	}
	return &item, true, nil
}

// SetItemInfo caches the item row for metadata reads.
func (c *Cache) SetItemInfo(ctx context.Context, item *models.FlashSaleItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	return c.store.Set(ctx, itemInfoKey(item.ID), payload, c.cfg.ItemInfoTTL)
}

// InvalidateItem drops the cached item row so the next read hits the
// persistent store.
func (c *Cache) InvalidateItem(ctx context.Context, itemID uuid.UUID) error {
	return c.store.Del(ctx, itemInfoKey(itemID))
}

// ItemLock is a short-lived lease serializing compound cache operations on
// one item. It is a throughput/consistency aid on top of the atomic counter
// primitives, not the sole correctness mechanism, so holders must tolerate
// losing it to TTL expiry.
type ItemLock struct {
	store CounterStore
	key   string
	ttl   time.Duration
	owner string
}

// ItemLock builds an unacquired lease for the item.
func (c *Cache) ItemLock(itemID uuid.UUID) *ItemLock {
	return &ItemLock{
		store: c.store,
		key:   itemLockKey(itemID),
		ttl:   c.cfg.ItemLockTTL,
	}
}

// Acquire makes a single non-blocking attempt to own the lease.
func (l *ItemLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx item lock: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// AcquireWait polls for the lease until the bound elapses. The wait is
// bounded so request handlers are never pinned on a stalled holder.
func (l *ItemLock) AcquireWait(ctx context.Context, bound time.Duration) (bool, error) {
	deadline := time.Now().Add(bound)
	for {
		ok, err := l.Acquire(ctx)
		if err != nil || ok {
			return ok, err
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Release frees the lease only if this holder still owns it.
func (l *ItemLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read item lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete item lock: %w", err)
	}
	l.owner = ""
	return nil
}

package flashsale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/flashdealz-backend/pkg/config"
	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"
	"github.com/angelmondragon/flashdealz-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the inventory controller: it orchestrates purchase, payment,
// cancellation, the administrative item lifecycle, and the scheduler-driven
// preload/refresh passes.
type Service interface {
	Purchase(ctx context.Context, input PurchaseInput) (*OrderView, error)
	Pay(ctx context.Context, input OrderActionInput) error
	Cancel(ctx context.Context, input OrderActionInput) error
	GetItem(ctx context.Context, itemID uuid.UUID, userID string) (*ItemView, error)
	ListItems(ctx context.Context, input ListItemsInput) ([]ItemView, error)
	ListUserOrders(ctx context.Context, userID string) ([]OrderView, error)
	CreateItem(ctx context.Context, input CreateItemInput) (*ItemView, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) (*ItemView, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ForceEnd(ctx context.Context, itemID uuid.UUID) error
	PreloadStock(ctx context.Context) (int, error)
	RefreshStatuses(ctx context.Context) (int, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	cache   *Cache
	limiter *RateLimiter
	emitter Emitter
	metrics *metrics.FlashSaleMetrics
	logg    *logger.Logger
	cfg     config.FlashSaleConfig
	now     func() time.Time
}

// NewService builds the inventory controller with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	cache *Cache,
	limiter *RateLimiter,
	emitter Emitter,
	m *metrics.FlashSaleMetrics,
	logg *logger.Logger,
	cfg config.FlashSaleConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("flash-sale repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cache == nil {
		return nil, fmt.Errorf("hot-path cache required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		cache:   cache,
		limiter: limiter,
		emitter: emitter,
		metrics: m,
		logg:    logg,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// effectiveStatus derives the status from the time window unless a forced
// end pinned the item to ended.
func (s *service) effectiveStatus(item *models.FlashSaleItem) enums.ItemStatus {
	if item.ForcedEnd {
		return enums.ItemStatusEnded
	}
	return enums.DeriveItemStatus(s.now(), item.StartTime, item.EndTime)
}

func (s *service) Purchase(ctx context.Context, input PurchaseInput) (*OrderView, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"item_id": input.ItemID.String(),
		"user_id": input.UserID,
	})

	if !s.limiter.Allow(ctx, input.UserID, input.ItemID) {
		s.metrics.IncPurchase("rate_limited")
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "purchase attempts too frequent")
	}

	// Advisory dedupe. True at-most-once is enforced by writing the
	// participation record only after a won decrement, so a same-user race
	// resolves through the counter and the loser compensates.
	if _, joined, err := s.cache.GetParticipation(ctx, input.UserID, input.ItemID); err != nil {
		s.metrics.IncPurchase("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read participation record")
	} else if joined {
		s.metrics.IncPurchase("participated")
		return nil, pkgerrors.New(pkgerrors.CodeParticipated, "user already holds an order for this item")
	}

	item, err := s.loadItem(ctx, input.ItemID)
	if err != nil {
		s.metrics.IncPurchase("error")
		return nil, err
	}
	if s.effectiveStatus(item) != enums.ItemStatusOngoing {
		s.metrics.IncPurchase("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sale is not active")
	}

	lock := s.cache.ItemLock(input.ItemID)
	acquired, err := lock.AcquireWait(ctx, s.cfg.ItemLockTTL)
	if err != nil {
		s.metrics.IncPurchase("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire item lock")
	}
	if !acquired {
		s.metrics.IncPurchase("busy")
		return nil, pkgerrors.New(pkgerrors.CodeBusy, "item is busy, try again")
	}
	defer s.releaseLock(ctx, lock)

	// Lazy preload under the lock: a cache miss (eviction, first hit before
	// the scheduler warmed the item) is repaired once, from the
	// authoritative stock, without a preload stampede resetting the counter.
	loaded, err := s.cache.StockExists(ctx, input.ItemID)
	if err != nil {
		s.metrics.IncPurchase("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check stock counter")
	}
	if !loaded {
		if _, err := s.cache.PreloadStock(ctx, input.ItemID, item.Stock); err != nil {
			s.metrics.IncPurchase("error")
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "preload stock counter")
		}
	}

	remaining, err := s.cache.DecrementStock(ctx, input.ItemID)
	if err != nil {
		s.metrics.IncPurchase("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock counter")
	}
	if remaining < 0 {
		// Loser of the decrement race: put the unit back before reporting.
		// The compensation must happen even if everything after it fails.
		if compErr := s.cache.CompensateStock(ctx, input.ItemID); compErr != nil {
			s.logg.Error(ctx, "stock compensation failed", compErr)
		}
		s.metrics.IncCompensation()
		s.metrics.IncPurchase("sold_out")
		return nil, pkgerrors.New(pkgerrors.CodeSoldOut, "item is sold out")
	}
	if remaining == 0 {
		if err := s.cache.MarkSoldOut(ctx, input.ItemID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to set sold-out flag")
		}
	}

	orderTime := s.now()
	order := &models.FlashSaleOrder{
		OrderID:   generateOrderID(input.UserID, input.ItemID, orderTime),
		UserID:    input.UserID,
		ItemID:    input.ItemID,
		Price:     item.FlashPrice,
		OrderTime: orderTime,
		Status:    enums.OrderStatusPlaced,
	}
	if _, err := s.repo.CreateOrder(ctx, order); err != nil {
		// The reserved unit has no matching order now; cache TTL expiry and
		// the next preload heal the under-count. The hot path never blocks
		// on repairing the slow store.
		s.logg.Error(ctx, "order creation failed after stock reservation", err)
		s.metrics.IncPurchase("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	if err := s.cache.SetParticipation(ctx, input.UserID, input.ItemID, order.OrderID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to write participation record")
	}
	if err := s.cache.SetOrderItem(ctx, order.OrderID, input.ItemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to write order index")
	}

	s.metrics.IncPurchase("purchased")
	s.logg.Info(s.logg.WithOrderID(ctx, order.OrderID), "order placed")
	return orderView(order), nil
}

func (s *service) Pay(ctx context.Context, input OrderActionInput) error {
	if strings.TrimSpace(input.OrderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	order, err := s.findOwnedOrder(ctx, input)
	if err != nil {
		return err
	}

	lock := s.cache.ItemLock(order.ItemID)
	acquired, err := lock.AcquireWait(ctx, s.cfg.ItemLockTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire item lock")
	}
	if !acquired {
		return pkgerrors.New(pkgerrors.CodeBusy, "item is busy, try again")
	}
	defer s.releaseLock(ctx, lock)

	// Re-check under the lock: a concurrent cancel or pay may have raced us
	// between the lookup and the lease.
	order, err = s.findOwnedOrder(ctx, input)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPlaced {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable in its current state")
	}

	// The reservation marker is the proof the cached unit is still held for
	// this order. Without it, a cancellation already returned the unit.
	if _, reserved, err := s.cache.GetOrderItem(ctx, order.OrderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read reservation marker")
	} else if !reserved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation no longer held for this order")
	}

	var exhausted bool
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrderStatus(ctx, order.OrderID, enums.OrderStatusPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		remaining, err := repo.DecrementItemStock(ctx, order.ItemID)
		if err != nil {
			if errors.Is(err, ErrStockExhausted) {
				return pkgerrors.New(pkgerrors.CodeSoldOut, "no authoritative stock remaining")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement authoritative stock")
		}
		if remaining == 0 {
			// Physical exhaustion always ends the sale early, even inside
			// the time window. Pinning forced_end keeps the status refresher
			// from reopening it while the window is still running.
			exhausted = true
			updates := map[string]any{
				"status":     enums.ItemStatusEnded,
				"forced_end": true,
			}
			if err := repo.UpdateItem(ctx, order.ItemID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end exhausted sale")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.cache.IncrSoldCount(ctx, order.ItemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to bump sold counter")
	}
	if err := s.cache.ClearOrderItem(ctx, order.OrderID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to clear reservation marker")
	}
	if exhausted {
		if err := s.cache.InvalidateItem(ctx, order.ItemID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to invalidate item cache")
		}
		if err := s.cache.MarkSoldOut(ctx, order.ItemID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to set sold-out flag")
		}
		if item, loadErr := s.repo.FindItem(ctx, order.ItemID); loadErr == nil {
			s.emitter.EmitSaleEnded(ctx, item)
		}
	}

	s.logg.Info(ctx, "order paid")
	return nil
}

func (s *service) Cancel(ctx context.Context, input OrderActionInput) error {
	if strings.TrimSpace(input.OrderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	order, err := s.findOwnedOrder(ctx, input)
	if err != nil {
		return err
	}

	lock := s.cache.ItemLock(order.ItemID)
	acquired, err := lock.AcquireWait(ctx, s.cfg.ItemLockTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire item lock")
	}
	if !acquired {
		return pkgerrors.New(pkgerrors.CodeBusy, "item is busy, try again")
	}
	defer s.releaseLock(ctx, lock)

	order, err = s.findOwnedOrder(ctx, input)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPlaced {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only placed orders can be cancelled")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateOrderStatus(ctx, order.OrderID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order cancelled")
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Return the reserved unit, unstick the advisory flags, and let the
	// user attempt the item again. The authoritative stock is untouched:
	// payment never decremented it for this order.
	if err := s.cache.CompensateStock(ctx, order.ItemID); err != nil {
		s.logg.Error(ctx, "failed to restore reserved stock on cancel", err)
	}
	if err := s.cache.ClearSoldOut(ctx, order.ItemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to clear sold-out flags")
	}
	if err := s.cache.ClearParticipation(ctx, order.UserID, order.ItemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to clear participation record")
	}
	if err := s.cache.ClearOrderItem(ctx, order.OrderID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to clear reservation marker")
	}

	s.logg.Info(ctx, "order cancelled")
	return nil
}

func (s *service) GetItem(ctx context.Context, itemID uuid.UUID, userID string) (*ItemView, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	view := s.itemView(ctx, item, userID)
	return &view, nil
}

func (s *service) ListItems(ctx context.Context, input ListItemsInput) ([]ItemView, error) {
	items, err := s.repo.ListItems(ctx, input.Filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, s.itemView(ctx, &items[i], input.UserID))
	}
	return views, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID string) ([]OrderView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, *orderView(&orders[i]))
	}
	return views, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*ItemView, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.Stock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "declared stock must be positive")
	}
	if input.FlashPrice.IsNegative() || input.OriginalPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	now := s.now()
	if !input.StartTime.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start time must be in the future")
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}

	item := &models.FlashSaleItem{
		Name:          strings.TrimSpace(input.Name),
		OriginalPrice: input.OriginalPrice,
		FlashPrice:    input.FlashPrice,
		Stock:         input.Stock,
		DeclaredStock: input.Stock,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Status:        enums.ItemStatusNotStarted,
	}
	if _, err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
	}

	ctx = s.logg.WithItemID(ctx, item.ID.String())
	// Warm the counter for sales starting soon so the first buyers skip the
	// lazy-preload branch.
	if input.StartTime.Sub(now) <= s.cfg.PreloadHorizon {
		if _, err := s.cache.PreloadStock(ctx, item.ID, item.Stock); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to preload stock for new item")
		}
	}
	s.emitter.EmitItemPublished(ctx, item)
	s.logg.Info(ctx, "flash-sale item created")

	view := s.itemView(ctx, item, "")
	return &view, nil
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) (*ItemView, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.findItemDirect(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if s.effectiveStatus(item) != enums.ItemStatusNotStarted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only not-yet-started items can be updated")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.OriginalPrice != nil {
		if input.OriginalPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
		}
		updates["original_price"] = *input.OriginalPrice
	}
	if input.FlashPrice != nil {
		if input.FlashPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
		}
		updates["flash_price"] = *input.FlashPrice
	}
	if input.Stock != nil {
		if *input.Stock <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "declared stock must be positive")
		}
		updates["stock"] = *input.Stock
		updates["declared_stock"] = *input.Stock
	}
	start := item.StartTime
	end := item.EndTime
	if input.StartTime != nil {
		start = *input.StartTime
		updates["start_time"] = start
	}
	if input.EndTime != nil {
		end = *input.EndTime
		updates["end_time"] = end
	}
	if !end.After(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}
	if len(updates) == 0 {
		view := s.itemView(ctx, item, "")
		return &view, nil
	}

	if err := s.repo.UpdateItem(ctx, input.ItemID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item")
	}
	if err := s.cache.InvalidateItem(ctx, input.ItemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to invalidate item cache")
	}

	item, err = s.findItemDirect(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	view := s.itemView(ctx, item, "")
	return &view, nil
}

func (s *service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.findItemDirect(ctx, itemID)
	if err != nil {
		return err
	}
	// Items are never removed once their sale has run: orders reference them.
	if s.effectiveStatus(item) != enums.ItemStatusNotStarted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only not-yet-started items can be deleted")
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item")
	}
	if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to invalidate item cache")
	}
	return nil
}

func (s *service) ForceEnd(ctx context.Context, itemID uuid.UUID) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.findItemDirect(ctx, itemID)
	if err != nil {
		return err
	}
	if item.ForcedEnd {
		// Repeat calls are a no-op.
		return nil
	}
	updates := map[string]any{
		"status":     enums.ItemStatusEnded,
		"forced_end": true,
	}
	if err := s.repo.UpdateItem(ctx, itemID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "force-end item")
	}
	if err := s.cache.InvalidateItem(ctx, itemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to invalidate item cache")
	}
	item.Status = enums.ItemStatusEnded
	item.ForcedEnd = true
	s.emitter.EmitSaleEnded(ctx, item)
	s.logg.Info(s.logg.WithItemID(ctx, itemID.String()), "flash sale force-ended")
	return nil
}

// PreloadStock warms the counters of items whose sale starts within the
// configured horizon. Existing counters are left alone.
func (s *service) PreloadStock(ctx context.Context) (int, error) {
	now := s.now()
	items, err := s.repo.FindItemsStartingWithin(ctx, now, now.Add(s.cfg.PreloadHorizon))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find upcoming items")
	}
	preloaded := 0
	for i := range items {
		created, err := s.cache.PreloadStock(ctx, items[i].ID, items[i].Stock)
		if err != nil {
			return preloaded, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "preload stock counter")
		}
		if created {
			preloaded++
		}
	}
	return preloaded, nil
}

// RefreshStatuses walks every item and persists the time-derived status
// where the stored one drifted. Transitions into ONGOING also warm the
// stock counter, without clobbering one that already holds reservations.
func (s *service) RefreshStatuses(ctx context.Context) (int, error) {
	items, err := s.repo.ListAllItems(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	changed := 0
	for i := range items {
		item := &items[i]
		if item.ForcedEnd {
			continue
		}
		derived := enums.DeriveItemStatus(s.now(), item.StartTime, item.EndTime)
		if derived == item.Status {
			continue
		}
		if err := s.repo.UpdateItem(ctx, item.ID, map[string]any{"status": derived}); err != nil {
			return changed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist item status")
		}
		if err := s.cache.InvalidateItem(ctx, item.ID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to invalidate item cache")
		}
		if item.Status == enums.ItemStatusNotStarted && derived == enums.ItemStatusOngoing {
			if _, err := s.cache.PreloadStock(ctx, item.ID, item.Stock); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to preload stock on transition")
			}
		}
		if derived == enums.ItemStatusEnded {
			s.emitter.EmitSaleEnded(ctx, item)
		}
		changed++
	}
	return changed, nil
}

// loadItem resolves item metadata cache-first with a DB fallback.
func (s *service) loadItem(ctx context.Context, itemID uuid.UUID) (*models.FlashSaleItem, error) {
	if item, hit, err := s.cache.GetItemInfo(ctx, itemID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "item cache read failed")
	} else if hit {
		return item, nil
	}
	item, err := s.findItemDirect(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetItemInfo(ctx, item); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "item cache write failed")
	}
	return item, nil
}

func (s *service) findItemDirect(ctx context.Context, itemID uuid.UUID) (*models.FlashSaleItem, error) {
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return item, nil
}

func (s *service) findOwnedOrder(ctx context.Context, input OrderActionInput) (*models.FlashSaleOrder, error) {
	order, err := s.repo.FindOrderByOrderID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
	return order, nil
}

// itemView assembles the read model, preferring advisory cache state for
// the displayed stock and sold count. The cache never overrides an
// authoritative decision, only the presentation.
func (s *service) itemView(ctx context.Context, item *models.FlashSaleItem, userID string) ItemView {
	status := s.effectiveStatus(item)

	displayStock := item.Stock
	soldOut := false
	if flagged, err := s.cache.IsSoldOut(ctx, item.ID); err == nil && flagged {
		soldOut = true
		displayStock = 0
	} else if cached, hit, err := s.cache.GetStock(ctx, item.ID); err == nil && hit {
		if cached < 0 {
			cached = 0
		}
		displayStock = cached
	}

	soldCount := item.DeclaredStock - displayStock
	if cached, hit, err := s.cache.GetSoldCount(ctx, item.ID); err == nil && hit {
		soldCount = cached
	} else if status == enums.ItemStatusEnded {
		// Sold counters expire with the cache; for finished sales the
		// paid-order count is the durable answer.
		if n, err := s.repo.CountOrdersByItem(ctx, item.ID, enums.OrderStatusPaid); err == nil {
			soldCount = n
		}
	}
	if soldCount < 0 {
		soldCount = 0
	}

	now := s.now()
	var remaining int64
	switch status {
	case enums.ItemStatusNotStarted:
		remaining = int64(item.StartTime.Sub(now).Seconds())
	case enums.ItemStatusOngoing:
		remaining = int64(item.EndTime.Sub(now).Seconds())
	}
	if remaining < 0 {
		remaining = 0
	}

	canPurchase := status == enums.ItemStatusOngoing && !soldOut && displayStock > 0
	if canPurchase && userID != "" {
		if _, joined, err := s.cache.GetParticipation(ctx, userID, item.ID); err == nil && joined {
			canPurchase = false
		}
	}

	return ItemView{
		ID:               item.ID,
		Name:             item.Name,
		OriginalPrice:    item.OriginalPrice,
		FlashPrice:       item.FlashPrice,
		Stock:            displayStock,
		DeclaredStock:    item.DeclaredStock,
		SoldCount:        soldCount,
		StartTime:        item.StartTime,
		EndTime:          item.EndTime,
		Status:           status,
		RemainingSeconds: remaining,
		CanPurchase:      canPurchase,
	}
}

func (s *service) releaseLock(ctx context.Context, lock *ItemLock) {
	if err := lock.Release(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to release item lock")
	}
}

// generateOrderID derives a globally unique, human-scannable order id from
// the buyer, the item, the time, and a random suffix.
func generateOrderID(userID string, itemID uuid.UUID, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("FS%d%s%s%s", at.UnixMilli(), shortToken(userID), shortToken(itemID.String()), suffix)
}

// shortToken keeps up to eight alphanumeric characters of the input.
func shortToken(v string) string {
	var b strings.Builder
	for _, r := range v {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
			if b.Len() >= 8 {
				break
			}
		}
	}
	return b.String()
}

package flashsale

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
)

// CounterStore is the narrow surface of the shared counter service the hot
// path depends on. Increment/decrement and set-if-absent must be atomic.
type CounterStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IncrBy(ctx context.Context, key string, n int64) (int64, error)
	DecrBy(ctx context.Context, key string, n int64) (int64, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// Repository defines persistence operations for flash-sale tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.FlashSaleItem) (*models.FlashSaleItem, error)
	FindItem(ctx context.Context, id uuid.UUID) (*models.FlashSaleItem, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]models.FlashSaleItem, error)
	ListAllItems(ctx context.Context) ([]models.FlashSaleItem, error)
	FindItemsStartingWithin(ctx context.Context, from, until time.Time) ([]models.FlashSaleItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DecrementItemStock(ctx context.Context, id uuid.UUID) (int64, error)
	CreateOrder(ctx context.Context, order *models.FlashSaleOrder) (*models.FlashSaleOrder, error)
	FindOrderByOrderID(ctx context.Context, orderID string) (*models.FlashSaleOrder, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.FlashSaleOrder, error)
	CountOrdersByItem(ctx context.Context, itemID uuid.UUID, statuses ...enums.OrderStatus) (int64, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error
}

// Emitter broadcasts flash-sale lifecycle events one-way. Implementations
// must never block the caller on delivery and must swallow publish errors.
type Emitter interface {
	EmitItemPublished(ctx context.Context, item *models.FlashSaleItem)
	EmitSaleEnded(ctx context.Context, item *models.FlashSaleItem)
}

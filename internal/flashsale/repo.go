package flashsale

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
)

// ErrStockExhausted signals that the guarded authoritative decrement found
// no remaining stock.
var ErrStockExhausted = errors.New("authoritative stock exhausted")

// ItemFilters narrows the item listing.
type ItemFilters struct {
	Name   string
	Status enums.ItemStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a flash-sale repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.FlashSaleItem) (*models.FlashSaleItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindItem(ctx context.Context, id uuid.UUID) (*models.FlashSaleItem, error) {
	var item models.FlashSaleItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, filters ItemFilters) ([]models.FlashSaleItem, error) {
	query := r.db.WithContext(ctx).Model(&models.FlashSaleItem{})
	if name := strings.TrimSpace(filters.Name); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	var items []models.FlashSaleItem
	if err := query.Order("start_time ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListAllItems(ctx context.Context) ([]models.FlashSaleItem, error) {
	var items []models.FlashSaleItem
	err := r.db.WithContext(ctx).
		Order("start_time ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindItemsStartingWithin(ctx context.Context, from, until time.Time) ([]models.FlashSaleItem, error) {
	var items []models.FlashSaleItem
	err := r.db.WithContext(ctx).
		Where("start_time > ? AND start_time <= ?", from, until).
		Where("forced_end = ?", false).
		Order("start_time ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.FlashSaleItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.FlashSaleItem{}).Error
}

// DecrementItemStock performs the guarded authoritative decrement and
// returns the remaining stock. The stock > 0 predicate makes the update a
// single atomic row operation, so concurrent payments cannot drive the
// durable stock negative.
func (r *repository) DecrementItemStock(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FlashSaleItem{}).
		Where("id = ? AND stock > 0", id).
		UpdateColumn("stock", gorm.Expr("stock - 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrStockExhausted
	}

	var remaining int64
	err := r.db.WithContext(ctx).
		Model(&models.FlashSaleItem{}).
		Where("id = ?", id).
		Select("stock").
		Scan(&remaining).Error
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.FlashSaleOrder) (*models.FlashSaleOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrderByOrderID(ctx context.Context, orderID string) (*models.FlashSaleOrder, error) {
	var order models.FlashSaleOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrdersByUser(ctx context.Context, userID string) ([]models.FlashSaleOrder, error) {
	var orders []models.FlashSaleOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("order_time DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CountOrdersByItem(ctx context.Context, itemID uuid.UUID, statuses ...enums.OrderStatus) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FlashSaleOrder{}).
		Where("item_id = ?", itemID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.FlashSaleOrder{}).
		Where("order_id = ?", orderID).
		Update("status", status).Error
}

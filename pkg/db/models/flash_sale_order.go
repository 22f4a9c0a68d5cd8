package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
)

// FlashSaleOrder records one user's claim on one unit of a sale item.
// Price snapshots the flash price at purchase time.
type FlashSaleOrder struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   string            `gorm:"column:order_id;uniqueIndex;not null" json:"orderId"`
	UserID    string            `gorm:"column:user_id;not null;index:idx_orders_user_item" json:"userId"`
	ItemID    uuid.UUID         `gorm:"column:item_id;type:uuid;not null;index:idx_orders_user_item" json:"itemId"`
	Price     decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	OrderTime time.Time         `gorm:"column:order_time;not null" json:"orderTime"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'placed'" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (FlashSaleOrder) TableName() string { return "flash_sale_orders" }

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
)

// FlashSaleItem is a time-boxed discounted item with a fixed declared stock.
// Stock is the authoritative remaining quantity and is decremented only when
// an order is paid; the cache counter tracks reservations.
type FlashSaleItem struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string           `gorm:"column:name;not null" json:"name"`
	OriginalPrice decimal.Decimal  `gorm:"column:original_price;type:numeric(12,2);not null" json:"originalPrice"`
	FlashPrice    decimal.Decimal  `gorm:"column:flash_price;type:numeric(12,2);not null" json:"flashPrice"`
	Stock         int64            `gorm:"column:stock;not null" json:"stock"`
	DeclaredStock int64            `gorm:"column:declared_stock;not null" json:"declaredStock"`
	StartTime     time.Time        `gorm:"column:start_time;not null" json:"startTime"`
	EndTime       time.Time        `gorm:"column:end_time;not null" json:"endTime"`
	Status        enums.ItemStatus `gorm:"column:status;type:text;not null;default:'not_started'" json:"status"`
	// ForcedEnd pins the status to ended regardless of the time window.
	ForcedEnd bool      `gorm:"column:forced_end;not null;default:false" json:"forcedEnd"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (FlashSaleItem) TableName() string { return "flash_sale_items" }

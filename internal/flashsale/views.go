package flashsale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
)

// ItemView is the read model served to clients. RemainingSeconds counts
// down to the start while the sale is pending and to the end while it runs.
type ItemView struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	OriginalPrice    decimal.Decimal  `json:"originalPrice"`
	FlashPrice       decimal.Decimal  `json:"flashPrice"`
	Stock            int64            `json:"stock"`
	DeclaredStock    int64            `json:"declaredStock"`
	SoldCount        int64            `json:"soldCount"`
	StartTime        time.Time        `json:"startTime"`
	EndTime          time.Time        `json:"endTime"`
	Status           enums.ItemStatus `json:"status"`
	RemainingSeconds int64            `json:"remainingSeconds"`
	CanPurchase      bool             `json:"canPurchase"`
}

// OrderView is the read model for a user's order.
type OrderView struct {
	OrderID   string            `json:"orderId"`
	ItemID    uuid.UUID         `json:"itemId"`
	UserID    string            `json:"userId"`
	Price     decimal.Decimal   `json:"price"`
	OrderTime time.Time         `json:"orderTime"`
	Status    enums.OrderStatus `json:"status"`
}

func orderView(order *models.FlashSaleOrder) *OrderView {
	return &OrderView{
		OrderID:   order.OrderID,
		ItemID:    order.ItemID,
		UserID:    order.UserID,
		Price:     order.Price,
		OrderTime: order.OrderTime,
		Status:    order.Status,
	}
}

// PurchaseInput identifies the buyer and the target item.
type PurchaseInput struct {
	ItemID uuid.UUID
	UserID string
}

// OrderActionInput identifies the caller and the order to act on.
type OrderActionInput struct {
	OrderID string
	UserID  string
}

// ListItemsInput carries the listing filters plus the caller identity used
// to derive the per-user CanPurchase field.
type ListItemsInput struct {
	UserID  string
	Filters ItemFilters
}

// CreateItemInput captures the administrative item definition.
type CreateItemInput struct {
	Name          string
	OriginalPrice decimal.Decimal
	FlashPrice    decimal.Decimal
	Stock         int64
	StartTime     time.Time
	EndTime       time.Time
}

// UpdateItemInput mutates a not-yet-started item. Nil fields are left
// untouched.
type UpdateItemInput struct {
	ItemID        uuid.UUID
	Name          *string
	OriginalPrice *decimal.Decimal
	FlashPrice    *decimal.Decimal
	Stock         *int64
	StartTime     *time.Time
	EndTime       *time.Time
}

package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/flashdealz-backend/pkg/config"
	"github.com/angelmondragon/flashdealz-backend/pkg/db/models"
	"github.com/angelmondragon/flashdealz-backend/pkg/enums"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		DSN:         fmt.Sprintf("file:dbclient_%s?mode=memory&cache=shared", uuid.NewString()),
		Driver:      "sqlite",
		AutoMigrate: true,
	}, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return client
}

// The schema must migrate on sqlite, which the package tests run against;
// model tags must not carry Postgres-only DDL such as DB-side uuid defaults.
func TestNewSqliteAutoMigrate(t *testing.T) {
	client := newTestClient(t)

	now := time.Now()
	item := models.FlashSaleItem{
		ID:            uuid.New(),
		Name:          "limited sneaker",
		OriginalPrice: decimal.NewFromInt(120),
		FlashPrice:    decimal.NewFromInt(60),
		Stock:         5,
		DeclaredStock: 5,
		StartTime:     now,
		EndTime:       now.Add(time.Hour),
		Status:        enums.ItemStatusOngoing,
	}
	if err := client.DB().Create(&item).Error; err != nil {
		t.Fatalf("item insert failed: %v", err)
	}

	order := models.FlashSaleOrder{
		ID:        uuid.New(),
		OrderID:   "FS-test-1",
		UserID:    "buyer-1",
		ItemID:    item.ID,
		Price:     item.FlashPrice,
		OrderTime: now,
		Status:    enums.OrderStatusPlaced,
	}
	if err := client.DB().Create(&order).Error; err != nil {
		t.Fatalf("order insert failed: %v", err)
	}

	var fetched models.FlashSaleOrder
	if err := client.DB().First(&fetched, "order_id = ?", order.OrderID).Error; err != nil {
		t.Fatalf("order lookup failed: %v", err)
	}
	if fetched.ItemID != item.ID {
		t.Fatalf("expected order bound to item %s, got %s", item.ID, fetched.ItemID)
	}
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	now := time.Now()
	newOrder := func(orderID string) *models.FlashSaleOrder {
		return &models.FlashSaleOrder{
			ID:        uuid.New(),
			OrderID:   orderID,
			UserID:    "buyer-1",
			ItemID:    uuid.New(),
			Price:     decimal.NewFromInt(60),
			OrderTime: now,
			Status:    enums.OrderStatusPlaced,
		}
	}

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(newOrder("FS-committed")).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.FlashSaleOrder{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(newOrder("FS-rolled")).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := client.DB().Model(&models.FlashSaleOrder{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"

	"github.com/angelmondragon/flashdealz-backend/api/responses"
	"github.com/angelmondragon/flashdealz-backend/api/validators"
	"github.com/angelmondragon/flashdealz-backend/internal/flashsale"
)

type createItemRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	OriginalPrice decimal.Decimal `json:"originalPrice" validate:"required"`
	FlashPrice    decimal.Decimal `json:"flashPrice" validate:"required"`
	Stock         int64           `json:"stock" validate:"required,gt=0"`
	StartTime     time.Time       `json:"startTime" validate:"required"`
	EndTime       time.Time       `json:"endTime" validate:"required"`
}

type updateItemRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	FlashPrice    *decimal.Decimal `json:"flashPrice,omitempty"`
	Stock         *int64           `json:"stock,omitempty" validate:"omitempty,gt=0"`
	StartTime     *time.Time       `json:"startTime,omitempty"`
	EndTime       *time.Time       `json:"endTime,omitempty"`
}

func CreateItem(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.CreateItem(r.Context(), flashsale.CreateItemInput{
			Name:          req.Name,
			OriginalPrice: req.OriginalPrice,
			FlashPrice:    req.FlashPrice,
			Stock:         req.Stock,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func UpdateItem(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithItemID(r.Context(), itemID.String())
		view, err := svc.UpdateItem(ctx, flashsale.UpdateItemInput{
			ItemID:        itemID,
			Name:          req.Name,
			OriginalPrice: req.OriginalPrice,
			FlashPrice:    req.FlashPrice,
			Stock:         req.Stock,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func DeleteItem(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithItemID(r.Context(), itemID.String())
		if err := svc.DeleteItem(ctx, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ForceEnd ends an ongoing sale immediately, regardless of its window.
func ForceEnd(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithItemID(r.Context(), itemID.String())
		if err := svc.ForceEnd(ctx, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ended"})
	}
}

func parseItemID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "itemID")
	itemID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	return itemID, nil
}

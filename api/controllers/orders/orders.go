package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"

	"github.com/angelmondragon/flashdealz-backend/api/middleware"
	"github.com/angelmondragon/flashdealz-backend/api/responses"
	"github.com/angelmondragon/flashdealz-backend/internal/flashsale"
)

func List(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.ListUserOrders(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, views)
	}
}

// Pay settles a placed order against the authoritative stock.
func Pay(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := orderAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), input.OrderID)
		if err := svc.Pay(ctx, input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"orderId": input.OrderID,
			"status":  "paid",
		})
	}
}

// Cancel voids a placed order and releases its reservation.
func Cancel(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := orderAction(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), input.OrderID)
		if err := svc.Cancel(ctx, input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"orderId": input.OrderID,
			"status":  "cancelled",
		})
	}
}

func orderAction(r *http.Request) (flashsale.OrderActionInput, error) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		return flashsale.OrderActionInput{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return flashsale.OrderActionInput{
		OrderID: orderID,
		UserID:  middleware.UserIDFromContext(r.Context()),
	}, nil
}

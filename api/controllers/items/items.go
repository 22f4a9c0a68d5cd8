package items

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/flashdealz-backend/pkg/errors"
	"github.com/angelmondragon/flashdealz-backend/pkg/logger"

	"github.com/angelmondragon/flashdealz-backend/api/middleware"
	"github.com/angelmondragon/flashdealz-backend/api/responses"
	"github.com/angelmondragon/flashdealz-backend/api/validators"
	"github.com/angelmondragon/flashdealz-backend/internal/flashsale"
)

// List returns the flash-sale catalog, optionally filtered by ?name= and
// ?status=. The per-user purchase eligibility is derived when the caller
// is identified.
func List(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := validators.ParseQueryItemStatus(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.ListItems(r.Context(), flashsale.ListItemsInput{
			UserID: middleware.UserIDFromContext(r.Context()),
			Filters: flashsale.ItemFilters{
				Name:   r.URL.Query().Get("name"),
				Status: status,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, views)
	}
}

func Get(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithItemID(r.Context(), itemID.String())
		view, err := svc.GetItem(ctx, itemID, middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// Purchase reserves one unit for the caller and places the order.
func Purchase(svc flashsale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithItemID(r.Context(), itemID.String())
		order, err := svc.Purchase(ctx, flashsale.PurchaseInput{
			ItemID: itemID,
			UserID: middleware.UserIDFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
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

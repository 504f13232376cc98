package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/api/validators"
	"github.com/angelmondragon/restaurant-backend/internal/purchasedorders"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type updateProgressRequest struct {
	Progress enums.OrderProgress `json:"progress" validate:"required,oneof=isPending isPreparing isCompleted"`
}

func purchasedUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchased order service unavailable"))
}

// ListPurchasedOrdersByDay is the kitchen board; ?date=M-d-yyyy defaults to today.
func ListPurchasedOrdersByDay(svc purchasedorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			purchasedUnavailable(w, r, logg)
			return
		}
		orders, err := svc.ListByDay(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func GetPurchasedOrder(svc purchasedorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			purchasedUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "purchasedOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), middleware.UserFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func ListPurchasedConstructedItems(svc purchasedorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			purchasedUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "purchasedOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListConstructedItems(r.Context(), middleware.UserFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// PurchasedCategorizedItems groups one purchased item's selections by subcategory.
func PurchasedCategorizedItems(svc purchasedorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			purchasedUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "purchasedOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParsePathUUID(r, "purchasedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groups, err := svc.CategorizedItems(r.Context(), middleware.UserFromContext(r.Context()), id, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, groups)
	}
}

func UpdatePurchasedOrderProgress(svc purchasedorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			purchasedUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "purchasedOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProgressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.UpdateProgress(r.Context(), middleware.UserFromContext(r.Context()), id, req.Progress)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/api/validators"
	"github.com/angelmondragon/restaurant-backend/internal/checkout"
	"github.com/angelmondragon/restaurant-backend/internal/purchasedorders"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type checkoutRequest struct {
	OutstandingOrderID uuid.UUID `json:"outstanding_order_id" validate:"required"`
	SourceID           string    `json:"source_id" validate:"omitempty,max=255"`
	CustomerCardID     string    `json:"customer_card_id" validate:"omitempty,max=255"`
}

type checkoutResponse struct {
	PurchasedOrder purchasedorders.Detail `json:"purchased_order"`
	Replayed       bool                   `json:"replayed"`
}

// Checkout charges an outstanding order and converts it into a purchased order.
// A completed order replays with 200 instead of 201.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, req.OutstandingOrderID.String())
		}
		result, err := svc.Execute(ctx, checkout.Input{
			OutstandingOrderID: req.OutstandingOrderID,
			Caller:             middleware.UserFromContext(ctx),
			SourceID:           strings.TrimSpace(req.SourceID),
			CustomerCardID:     strings.TrimSpace(req.CustomerCardID),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, checkoutResponse{
			PurchasedOrder: purchasedorders.NewDetail(result.PurchasedOrder),
			Replayed:       result.Replayed,
		})
	}
}

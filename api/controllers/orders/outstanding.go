package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/api/validators"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

const noteMaxLen = 500

type createOutstandingOrderRequest struct {
	ConstructedItems []outstandingorders.LineInput `json:"constructed_items" validate:"omitempty,dive"`
	PreparedForDate  *time.Time                    `json:"prepared_for_date"`
	Note             *string                       `json:"note" validate:"omitempty,max=500"`
}

type updateOutstandingOrderRequest struct {
	UserID          *uuid.UUID `json:"user_id"`
	PreparedForDate *time.Time `json:"prepared_for_date"`
	Note            *string    `json:"note" validate:"omitempty,max=500"`
}

type attachConstructedItemsRequest struct {
	ConstructedItems []outstandingorders.LineInput `json:"constructed_items" validate:"required,min=1,dive"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=99"`
}

type applyOfferRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outstanding order service unavailable"))
}

func sanitizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*note, noteMaxLen)
	return &cleaned
}

// CreateOutstandingOrder opens a cart, optionally seeded with constructed items.
func CreateOutstandingOrder(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		var req createOutstandingOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		caller := middleware.CallerIDFromContext(r.Context())
		detail, err := svc.Create(r.Context(), caller, outstandingorders.CreateInput{
			UserID:          caller,
			Lines:           req.ConstructedItems,
			PreparedForDate: req.PreparedForDate,
			Note:            sanitizeNote(req.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

func GetOutstandingOrder(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), middleware.CallerIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func UpdateOutstandingOrder(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateOutstandingOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Update(r.Context(), middleware.CallerIDFromContext(r.Context()), id, outstandingorders.UpdateInput{
			UserID:          req.UserID,
			PreparedForDate: req.PreparedForDate,
			Note:            sanitizeNote(req.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func DeleteOutstandingOrder(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.CallerIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AttachConstructedItems(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req attachConstructedItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.AttachConstructedItems(r.Context(), middleware.CallerIDFromContext(r.Context()), id, req.ConstructedItems)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func UpdateConstructedItemQuantity(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.UpdateQuantity(r.Context(), middleware.CallerIDFromContext(r.Context()), id, itemID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func DetachConstructedItem(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.DetachConstructedItem(r.Context(), middleware.CallerIDFromContext(r.Context()), id, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func ApplyOffer(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req applyOfferRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.ApplyOffer(r.Context(), middleware.CallerIDFromContext(r.Context()), id, strings.TrimSpace(req.Code))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func RemoveOffer(svc outstandingorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "outstandingOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := validators.ParsePathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.RemoveOffer(r.Context(), middleware.CallerIDFromContext(r.Context()), id, offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

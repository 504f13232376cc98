package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/api/validators"
	"github.com/angelmondragon/restaurant-backend/internal/offers"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type offerResponse struct {
	ID                 uuid.UUID          `json:"id"`
	Code               string             `json:"code"`
	Name               string             `json:"name"`
	DiscountPriceCents *int64             `json:"discount_price_cents,omitempty"`
	DiscountPercent    *int               `json:"discount_percent,omitempty"`
	Availability       enums.Availability `json:"availability"`
}

func newOfferResponse(o *models.Offer) offerResponse {
	return offerResponse{
		ID:                 o.ID,
		Code:               o.Code,
		Name:               o.Name,
		DiscountPriceCents: o.DiscountPriceCents,
		DiscountPercent:    o.DiscountPercent,
		Availability:       o.Availability,
	}
}

func GetOfferByCode(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "offer code required"))
			return
		}
		offer, err := svc.GetByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOfferResponse(offer))
	}
}

func CreateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}
		var input offers.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Name = validators.SanitizeString(input.Name, 200)
		offer, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOfferResponse(offer))
	}
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/api/validators"
	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type createConstructedItemRequest struct {
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
	Name       *string   `json:"name" validate:"omitempty,max=120"`
}

type updateConstructedItemRequest struct {
	UserID     *uuid.UUID `json:"user_id"`
	IsFavorite *bool      `json:"is_favorite"`
	Name       *string    `json:"name" validate:"omitempty,max=120"`
}

type attachCategoryItemsRequest struct {
	CategoryItemIDs []uuid.UUID `json:"category_item_ids" validate:"required,min=1,dive,required"`
}

type attachModifiersRequest struct {
	ModifierIDs []uuid.UUID `json:"modifier_ids" validate:"required,min=1,dive,required"`
}

func constructedItemsUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "constructed item service unavailable"))
}

// CreateConstructedItem starts a build rooted at a category. Signed-in callers own the result.
func CreateConstructedItem(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		var req createConstructedItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		caller := middleware.CallerIDFromContext(r.Context())
		if req.Name != nil {
			name := validators.SanitizeString(*req.Name, 120)
			req.Name = &name
		}
		detail, err := svc.Create(r.Context(), caller, constructeditems.CreateInput{
			CategoryID: req.CategoryID,
			UserID:     caller,
			Name:       req.Name,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

func GetConstructedItem(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
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

func UpdateConstructedItem(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateConstructedItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Update(r.Context(), middleware.CallerIDFromContext(r.Context()), id, constructeditems.UpdateInput{
			UserID:     req.UserID,
			IsFavorite: req.IsFavorite,
			Name:       req.Name,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// ListConstructedItemCategoryItems optionally narrows to one subcategory via ?categoryId=.
func ListConstructedItemCategoryItems(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListCategoryItems(r.Context(), middleware.CallerIDFromContext(r.Context()), id, categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func AttachConstructedItemCategoryItems(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req attachCategoryItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.AttachCategoryItems(r.Context(), middleware.CallerIDFromContext(r.Context()), id, req.CategoryItemIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func DetachConstructedItemCategoryItem(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryItemID, err := validators.ParsePathUUID(r, "categoryItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.DetachCategoryItem(r.Context(), middleware.CallerIDFromContext(r.Context()), id, categoryItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func ListConstructedItemModifiers(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		modifiers, err := svc.ListModifiers(r.Context(), middleware.CallerIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, modifiers)
	}
}

func AttachConstructedItemModifiers(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req attachModifiersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.AttachModifiers(r.Context(), middleware.CallerIDFromContext(r.Context()), id, req.ModifierIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func DetachConstructedItemModifier(svc constructeditems.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			constructedItemsUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParsePathUUID(r, "constructedItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		modifierID, err := validators.ParsePathUUID(r, "modifierId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.DetachModifier(r.Context(), middleware.CallerIDFromContext(r.Context()), id, modifierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

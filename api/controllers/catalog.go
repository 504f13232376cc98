package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/api/responses"
	"github.com/angelmondragon/restaurant-backend/api/validators"
	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type categoryResponse struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	ParentCategoryID *uuid.UUID         `json:"parent_category_id,omitempty"`
	ImageURL         *string            `json:"image_url,omitempty"`
	MinimumItems     *int               `json:"minimum_items,omitempty"`
	MaximumItems     *int               `json:"maximum_items,omitempty"`
	IsConstructable  bool               `json:"is_constructable"`
	IsLeaf           bool               `json:"is_leaf"`
	Availability     enums.Availability `json:"availability"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func newCategoryResponse(c models.Category, leaf bool) categoryResponse {
	return categoryResponse{
		ID:               c.ID,
		Name:             c.Name,
		ParentCategoryID: c.ParentCategoryID,
		ImageURL:         c.ImageURL,
		MinimumItems:     c.MinimumItems,
		MaximumItems:     c.MaximumItems,
		IsConstructable:  c.IsConstructable,
		IsLeaf:           leaf,
		Availability:     c.Availability,
		UpdatedAt:        c.UpdatedAt,
	}
}

// newCategoryResponses marks leaf categories from a single tree snapshot.
func newCategoryResponses(tree *catalog.Tree, categories []models.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, newCategoryResponse(c, tree.IsLeaf(c.ID)))
	}
	return out
}

func writeCategories(w http.ResponseWriter, r *http.Request, svc catalog.Service, logg *logger.Logger, categories []models.Category) {
	tree, err := svc.Tree(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newCategoryResponses(tree, categories))
}

// RootCategories lists the top of the menu tree.
func RootCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.RootCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCategories(w, r, svc, logg, categories)
	}
}

func GetCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.Category(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		leaf, err := svc.IsLeafCategory(r.Context(), *category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCategoryResponse(*category, leaf))
	}
}

func Subcategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categories, err := svc.Subcategories(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCategories(w, r, svc, logg, categories)
	}
}

func CategoryItems(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.CategoryItems(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func CategoryItemModifiers(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(r, "categoryItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		modifiers, err := svc.Modifiers(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, modifiers)
	}
}

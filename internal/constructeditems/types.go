package constructeditems

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/pricing"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

// Detail is a constructed item with its selections, price and requirement flag.
type Detail struct {
	ID                    uuid.UUID                  `json:"id"`
	CategoryID            uuid.UUID                  `json:"category_id"`
	UserID                *uuid.UUID                 `json:"user_id,omitempty"`
	Name                  *string                    `json:"name,omitempty"`
	IsFavorite            bool                       `json:"is_favorite"`
	CreatedAt             time.Time                  `json:"created_at"`
	UpdatedAt             time.Time                  `json:"updated_at"`
	CategoryItems         []catalog.CategoryItemView `json:"category_items"`
	Modifiers             []catalog.ModifierView     `json:"modifiers"`
	PriceCents            int64                      `json:"price_cents"`
	RequirementsSatisfied bool                       `json:"requirements_satisfied"`
}

// CreateInput starts a constructed item rooted at CategoryID.
type CreateInput struct {
	CategoryID uuid.UUID
	UserID     *uuid.UUID
	Name       *string
}

// UpdateInput patches a constructed item. Nil fields are left untouched.
type UpdateInput struct {
	UserID     *uuid.UUID
	IsFavorite *bool
	Name       *string
}

func NewDetail(item models.ConstructedItem, sel Selection) Detail {
	return Detail{
		ID:                    item.ID,
		CategoryID:            item.CategoryID,
		UserID:                item.UserID,
		Name:                  item.Name,
		IsFavorite:            item.IsFavorite,
		CreatedAt:             item.CreatedAt,
		UpdatedAt:             item.UpdatedAt,
		CategoryItems:         nonNil(sel.CategoryItems),
		Modifiers:             nonNil(sel.Modifiers),
		PriceCents:            pricing.ConstructedItemPrice(sel.CategoryItems, sel.Modifiers),
		RequirementsSatisfied: sel.MinimumsMet(),
	}
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

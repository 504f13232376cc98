package catalog

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// CategoryItemView is a category/item pairing with its item name and the
// availability resolved against both its category and its item.
type CategoryItemView struct {
	ID               uuid.UUID          `json:"id"`
	CategoryID       uuid.UUID          `json:"category_id"`
	ItemID           uuid.UUID          `json:"item_id"`
	ItemName         string             `json:"item_name"`
	Description      *string            `json:"description,omitempty"`
	PriceCents       *int64             `json:"price_cents,omitempty"`
	MinimumModifiers *int               `json:"minimum_modifiers,omitempty"`
	MaximumModifiers *int               `json:"maximum_modifiers,omitempty"`
	Availability     enums.Availability `json:"availability"`
}

func (v CategoryItemView) Price() *int64 {
	return v.PriceCents
}

// ModifierView is a modifier with availability resolved against its category item.
type ModifierView struct {
	ID             uuid.UUID          `json:"id"`
	CategoryItemID uuid.UUID          `json:"category_item_id"`
	Name           string             `json:"name"`
	PriceCents     *int64             `json:"price_cents,omitempty"`
	Availability   enums.Availability `json:"availability"`
}

func (v ModifierView) Price() *int64 {
	return v.PriceCents
}

type categoryItemRow struct {
	ConstructedItemID    uuid.UUID          `gorm:"column:constructed_item_id"`
	ID                   uuid.UUID          `gorm:"column:id"`
	CategoryID           uuid.UUID          `gorm:"column:category_id"`
	ItemID               uuid.UUID          `gorm:"column:item_id"`
	ItemName             string             `gorm:"column:item_name"`
	Description          *string            `gorm:"column:description"`
	PriceCents           *int64             `gorm:"column:price_cents"`
	MinimumModifiers     *int               `gorm:"column:minimum_modifiers"`
	MaximumModifiers     *int               `gorm:"column:maximum_modifiers"`
	ItemAvailability     enums.Availability `gorm:"column:item_availability"`
	CategoryAvailability enums.Availability `gorm:"column:category_availability"`
}

func (r categoryItemRow) view() CategoryItemView {
	return CategoryItemView{
		ID:               r.ID,
		CategoryID:       r.CategoryID,
		ItemID:           r.ItemID,
		ItemName:         r.ItemName,
		Description:      r.Description,
		PriceCents:       r.PriceCents,
		MinimumModifiers: r.MinimumModifiers,
		MaximumModifiers: r.MaximumModifiers,
		Availability:     enums.WorstAvailability(r.CategoryAvailability, r.ItemAvailability),
	}
}

type modifierRow struct {
	ConstructedItemID    uuid.UUID          `gorm:"column:constructed_item_id"`
	ID                   uuid.UUID          `gorm:"column:id"`
	CategoryItemID       uuid.UUID          `gorm:"column:category_item_id"`
	Name                 string             `gorm:"column:name"`
	PriceCents           *int64             `gorm:"column:price_cents"`
	Availability         enums.Availability `gorm:"column:availability"`
	ItemAvailability     enums.Availability `gorm:"column:item_availability"`
	CategoryAvailability enums.Availability `gorm:"column:category_availability"`
}

func (r modifierRow) view() ModifierView {
	return ModifierView{
		ID:             r.ID,
		CategoryItemID: r.CategoryItemID,
		Name:           r.Name,
		PriceCents:     r.PriceCents,
		Availability:   enums.WorstAvailability(r.Availability, r.ItemAvailability, r.CategoryAvailability),
	}
}

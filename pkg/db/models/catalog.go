package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// Category is a node of the menu tree. Roots have no parent.
type Category struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name             string             `gorm:"column:name;not null"`
	ParentCategoryID *uuid.UUID         `gorm:"column:parent_category_id;type:uuid"`
	ImageURL         *string            `gorm:"column:image_url"`
	MinimumItems     *int               `gorm:"column:minimum_items"`
	MaximumItems     *int               `gorm:"column:maximum_items"`
	IsConstructable  bool               `gorm:"column:is_constructable;not null"`
	Availability     enums.Availability `gorm:"column:availability;type:availability_enum;not null"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Availability == "" {
		c.Availability = enums.AvailabilityAvailable
	}
	return nil
}

// Item is a menu entry independent of where it is listed.
type Item struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	Availability enums.Availability `gorm:"column:availability;type:availability_enum;not null"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Availability == "" {
		i.Availability = enums.AvailabilityAvailable
	}
	return nil
}

// CategoryItem lists an Item under a Category with placement-specific price and
// modifier limits. A nil price means the pairing is not purchasable standalone.
type CategoryItem struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID       uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	ItemID           uuid.UUID `gorm:"column:item_id;type:uuid;not null"`
	Description      *string   `gorm:"column:description"`
	PriceCents       *int64    `gorm:"column:price_cents"`
	MinimumModifiers *int      `gorm:"column:minimum_modifiers"`
	MaximumModifiers *int      `gorm:"column:maximum_modifiers"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ci *CategoryItem) BeforeCreate(*gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

// Price satisfies pricing.HasPrice.
func (ci CategoryItem) Price() *int64 {
	return ci.PriceCents
}

// Modifier is an add-on scoped to exactly one CategoryItem.
type Modifier struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CategoryItemID uuid.UUID          `gorm:"column:category_item_id;type:uuid;not null"`
	Name           string             `gorm:"column:name;not null"`
	PriceCents     *int64             `gorm:"column:price_cents"`
	Availability   enums.Availability `gorm:"column:availability;type:availability_enum;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Modifier) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Availability == "" {
		m.Availability = enums.AvailabilityAvailable
	}
	return nil
}

// Price satisfies pricing.HasPrice.
func (m Modifier) Price() *int64 {
	return m.PriceCents
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConstructedItem is a diner's composition rooted at a constructable category.
type ConstructedItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID uuid.UUID  `gorm:"column:category_id;type:uuid;not null"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid"`
	Name       *string    `gorm:"column:name"`
	IsFavorite bool       `gorm:"column:is_favorite;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *ConstructedItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ConstructedItemCategoryItem records one selected CategoryItem.
type ConstructedItemCategoryItem struct {
	ConstructedItemID uuid.UUID `gorm:"column:constructed_item_id;type:uuid;primaryKey"`
	CategoryItemID    uuid.UUID `gorm:"column:category_item_id;type:uuid;primaryKey"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ConstructedItemModifier records one selected Modifier. CategoryItemID tags
// the parent selection so detaching it can cascade.
type ConstructedItemModifier struct {
	ConstructedItemID uuid.UUID `gorm:"column:constructed_item_id;type:uuid;primaryKey"`
	ModifierID        uuid.UUID `gorm:"column:modifier_id;type:uuid;primaryKey"`
	CategoryItemID    uuid.UUID `gorm:"column:category_item_id;type:uuid;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

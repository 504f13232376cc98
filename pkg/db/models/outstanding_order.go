package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutstandingOrder is the mutable cart that checkout consumes.
type OutstandingOrder struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID `gorm:"column:user_id;type:uuid"`
	PreparedForDate *time.Time `gorm:"column:prepared_for_date"`
	Note            *string    `gorm:"column:note"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *OutstandingOrder) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OutstandingOrderConstructedItem is one order line. A constructed item can
// belong to at most one outstanding order.
type OutstandingOrderConstructedItem struct {
	OutstandingOrderID uuid.UUID `gorm:"column:outstanding_order_id;type:uuid;primaryKey"`
	ConstructedItemID  uuid.UUID `gorm:"column:constructed_item_id;type:uuid;primaryKey;uniqueIndex"`
	Quantity           int       `gorm:"column:quantity;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

type OutstandingOrderOffer struct {
	OutstandingOrderID uuid.UUID `gorm:"column:outstanding_order_id;type:uuid;primaryKey"`
	OfferID            uuid.UUID `gorm:"column:offer_id;type:uuid;primaryKey"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

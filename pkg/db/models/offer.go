package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// Offer is a redeemable discount identified by a unique code.
type Offer struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code               string             `gorm:"column:code;not null;uniqueIndex"`
	Name               string             `gorm:"column:name;not null"`
	DiscountPriceCents *int64             `gorm:"column:discount_price_cents"`
	DiscountPercent    *int               `gorm:"column:discount_percent"`
	Availability       enums.Availability `gorm:"column:availability;type:availability_enum;not null"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Offer) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Availability == "" {
		o.Availability = enums.AvailabilityAvailable
	}
	return nil
}

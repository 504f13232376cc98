package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// PurchasedOrder is the immutable record of a paid order. Number is assigned
// by the database.
type PurchasedOrder struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Number             int64                 `gorm:"column:number;<-:false"`
	UserID             *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	OutstandingOrderID uuid.UUID             `gorm:"column:outstanding_order_id;type:uuid;not null;uniqueIndex"`
	PaymentProvider    enums.PaymentProvider `gorm:"column:payment_provider;not null"`
	TransactionID      string                `gorm:"column:transaction_id;not null"`
	Currency           string                `gorm:"column:currency;not null"`
	SubtotalCents      int64                 `gorm:"column:subtotal_cents;not null"`
	DiscountCents      int64                 `gorm:"column:discount_cents;not null"`
	TotalCents         int64                 `gorm:"column:total_cents;not null"`
	TaxCents           int64                 `gorm:"column:tax_cents;not null"`
	ChargedCents       int64                 `gorm:"column:charged_cents;not null"`
	PurchasedAt        time.Time             `gorm:"column:purchased_at;not null"`
	PreparedForDate    *time.Time            `gorm:"column:prepared_for_date"`
	Note               *string               `gorm:"column:note"`
	Progress           enums.OrderProgress   `gorm:"column:progress;type:order_progress_enum;not null"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PurchasedOrder) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Progress == "" {
		p.Progress = enums.OrderProgressPending
	}
	return nil
}

// PurchasedConstructedItem freezes one order line at purchase time.
type PurchasedConstructedItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PurchasedOrderID  uuid.UUID `gorm:"column:purchased_order_id;type:uuid;not null"`
	ConstructedItemID uuid.UUID `gorm:"column:constructed_item_id;type:uuid;not null"`
	CategoryID        uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	Name              *string   `gorm:"column:name"`
	Quantity          int       `gorm:"column:quantity;not null"`
	UnitPriceCents    int64     `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents   int64     `gorm:"column:total_price_cents;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PurchasedConstructedItem) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchasedConstructedItemCategoryItem is a selection with the price paid.
type PurchasedConstructedItemCategoryItem struct {
	ID                         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PurchasedConstructedItemID uuid.UUID `gorm:"column:purchased_constructed_item_id;type:uuid;not null"`
	CategoryItemID             uuid.UUID `gorm:"column:category_item_id;type:uuid;not null"`
	CategoryID                 uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	ItemName                   string    `gorm:"column:item_name;not null"`
	PaidPriceCents             int64     `gorm:"column:paid_price_cents;not null"`
	CreatedAt                  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PurchasedConstructedItemCategoryItem) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchasedConstructedItemModifier is a modifier selection with the price paid.
type PurchasedConstructedItemModifier struct {
	ID                         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PurchasedConstructedItemID uuid.UUID `gorm:"column:purchased_constructed_item_id;type:uuid;not null"`
	ModifierID                 uuid.UUID `gorm:"column:modifier_id;type:uuid;not null"`
	CategoryItemID             uuid.UUID `gorm:"column:category_item_id;type:uuid;not null"`
	Name                       string    `gorm:"column:name;not null"`
	PaidPriceCents             int64     `gorm:"column:paid_price_cents;not null"`
	CreatedAt                  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (p *PurchasedConstructedItemModifier) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchasedOrderOffer freezes an offer as it was applied.
type PurchasedOrderOffer struct {
	PurchasedOrderID   uuid.UUID `gorm:"column:purchased_order_id;type:uuid;primaryKey"`
	OfferID            uuid.UUID `gorm:"column:offer_id;type:uuid;primaryKey"`
	Code               string    `gorm:"column:code;not null"`
	DiscountPriceCents *int64    `gorm:"column:discount_price_cents"`
	DiscountPercent    *int      `gorm:"column:discount_percent"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

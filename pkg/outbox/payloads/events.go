package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// OrderPurchasedEvent is emitted once a checkout finalizes.
type OrderPurchasedEvent struct {
	PurchasedOrderID   uuid.UUID             `json:"purchased_order_id"`
	OutstandingOrderID uuid.UUID             `json:"outstanding_order_id"`
	Number             int64                 `json:"number"`
	UserID             *uuid.UUID            `json:"user_id,omitempty"`
	PaymentProvider    enums.PaymentProvider `json:"payment_provider"`
	TransactionID      string                `json:"transaction_id"`
	Currency           string                `json:"currency"`
	SubtotalCents      int64                 `json:"subtotal_cents"`
	DiscountCents      int64                 `json:"discount_cents"`
	TaxCents           int64                 `json:"tax_cents"`
	ChargedCents       int64                 `json:"charged_cents"`
	ItemCount          int                   `json:"item_count"`
	OfferCodes         []string              `json:"offer_codes,omitempty"`
	PurchasedAt        time.Time             `json:"purchased_at"`
}

// OrderProgressUpdatedEvent is emitted when the kitchen advances an order.
type OrderProgressUpdatedEvent struct {
	PurchasedOrderID uuid.UUID           `json:"purchased_order_id"`
	Number           int64               `json:"number"`
	From             enums.OrderProgress `json:"from"`
	To               enums.OrderProgress `json:"to"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// OrderAbandonedEvent is emitted when an idle outstanding order is swept.
type OrderAbandonedEvent struct {
	OutstandingOrderID uuid.UUID  `json:"outstanding_order_id"`
	UserID             *uuid.UUID `json:"user_id,omitempty"`
	LastTouchedAt      time.Time  `json:"last_touched_at"`
}

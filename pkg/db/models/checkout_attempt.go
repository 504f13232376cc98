package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// CheckoutAttempt is the durable ledger row guarding one outstanding order
// against double charging. It outlives the outstanding order it references.
type CheckoutAttempt struct {
	OutstandingOrderID uuid.UUID                   `gorm:"column:outstanding_order_id;type:uuid;primaryKey"`
	UserID             *uuid.UUID                  `gorm:"column:user_id;type:uuid"`
	Status             enums.CheckoutAttemptStatus `gorm:"column:status;type:checkout_attempt_status_enum;not null"`
	AmountCents        int64                       `gorm:"column:amount_cents;not null"`
	Currency           string                      `gorm:"column:currency;not null"`
	PaymentProvider    enums.PaymentProvider       `gorm:"column:payment_provider;not null"`
	IdempotencyKey     string                      `gorm:"column:idempotency_key;not null"`
	TransactionID      *string                     `gorm:"column:transaction_id"`
	PurchasedOrderID   *uuid.UUID                  `gorm:"column:purchased_order_id;type:uuid"`
	LastError          *string                     `gorm:"column:last_error"`
	CreatedAt          time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

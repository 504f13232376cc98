package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. One row is written
// per purchased, progressed or abandoned event.
type OrderEventRow struct {
	EventID            string             `bigquery:"event_id"`
	EventType          string             `bigquery:"event_type"`
	OccurredAt         time.Time          `bigquery:"occurred_at"`
	PurchasedOrderID   *string            `bigquery:"purchased_order_id"`
	OutstandingOrderID *string            `bigquery:"outstanding_order_id"`
	OrderNumber        *int64             `bigquery:"order_number"`
	UserID             *string            `bigquery:"user_id"`
	PaymentProvider    *string            `bigquery:"payment_provider"`
	Currency           *string            `bigquery:"currency"`
	SubtotalCents      *int64             `bigquery:"subtotal_cents"`
	DiscountCents      *int64             `bigquery:"discount_cents"`
	TaxCents           *int64             `bigquery:"tax_cents"`
	ChargedCents       *int64             `bigquery:"charged_cents"`
	ItemCount          *int64             `bigquery:"item_count"`
	OfferCodes         []string           `bigquery:"offer_codes"`
	ProgressFrom       *string            `bigquery:"progress_from"`
	ProgressTo         *string            `bigquery:"progress_to"`
	Payload            cbigquery.NullJSON `bigquery:"payload"`
}

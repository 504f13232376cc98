// Package payments defines the provider-neutral charge contract used by checkout.
package payments

import (
	"context"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// ChargeRequest asks a provider to capture a single payment. IdempotencyKey
// must be stable across retries of the same logical charge.
type ChargeRequest struct {
	AmountCents    int64
	Currency       string
	SourceID       string
	CustomerID     string
	IdempotencyKey string
	ReferenceID    string
	Note           string
}

// ChargeResult is the provider's confirmation of a captured payment.
type ChargeResult struct {
	Provider      enums.PaymentProvider
	TransactionID string
	Status        string
	AmountCents   int64
}

// Gateway captures payments. Implementations return PAYMENT_DECLINED for
// card-side rejections and PAYMENT_PROVIDER_ERROR when the outcome is unknown.
type Gateway interface {
	Provider() enums.PaymentProvider
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

package square

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/payments"
)

const (
	paymentStatusCompleted = "COMPLETED"
	paymentStatusApproved  = "APPROVED"
	paymentStatusFailed    = "FAILED"
	paymentStatusCanceled  = "CANCELED"
)

// Gateway adapts the Square client to payments.Gateway.
type Gateway struct {
	client *Client
}

var _ payments.Gateway = (*Gateway)(nil)

func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) Provider() enums.PaymentProvider {
	return enums.PaymentProviderSquare
}

// Charge creates an autocompleted Square payment. The idempotency key is
// forwarded verbatim so a retried checkout cannot capture twice.
func (g *Gateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	if g == nil || g.client == nil {
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodePaymentProviderError, "square gateway not configured")
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodeInternal, "charge idempotency key is required")
	}

	payment, err := g.client.CreatePayment(ctx, PaymentCreateParams{
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		LocationID:     g.client.LocationID(),
		CustomerID:     req.CustomerID,
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		Note:           req.Note,
		ReferenceID:    req.ReferenceID,
	})
	if err != nil {
		return payments.ChargeResult{}, classifyChargeError(err)
	}

	status := strings.ToUpper(stringValue(payment.GetStatus()))
	switch status {
	case paymentStatusCompleted, paymentStatusApproved:
	case paymentStatusFailed, paymentStatusCanceled:
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was not approved").
			WithDetails(map[string]any{"status": status})
	default:
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodePaymentProviderError, fmt.Sprintf("unexpected square payment status %q", status))
	}

	amount := req.AmountCents
	if money := payment.GetAmountMoney(); money != nil && money.GetAmount() != nil {
		amount = *money.GetAmount()
	}

	return payments.ChargeResult{
		Provider:      enums.PaymentProviderSquare,
		TransactionID: stringValue(payment.GetID()),
		Status:        status,
		AmountCents:   amount,
	}, nil
}

// classifyChargeError narrows Square failures to the two outcomes checkout acts on.
func classifyChargeError(err error) error {
	typed := pkgerrors.As(err)
	if typed != nil && typed.Code() == pkgerrors.CodePaymentDeclined {
		return err
	}
	if typed != nil && (typed.Code() == pkgerrors.CodeValidation || typed.Code() == pkgerrors.CodeStateConflict) {
		return pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, "square rejected the payment")
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentProviderError, err, "square payment outcome unknown")
}

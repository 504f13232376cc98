package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/payments"
)

type paymentIntentCreator interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
}

// Gateway charges through confirmed PaymentIntents.
type Gateway struct {
	intents paymentIntentCreator
}

var _ payments.Gateway = (*Gateway)(nil)

func NewGateway(client *Client) (*Gateway, error) {
	if client == nil || client.API() == nil {
		return nil, errors.New("stripe client required")
	}
	return &Gateway{intents: client.API().V1PaymentIntents}, nil
}

func (g *Gateway) Provider() enums.PaymentProvider {
	return enums.PaymentProviderStripe
}

// Charge confirms a PaymentIntent for the saved payment method in SourceID.
func (g *Gateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodeInternal, "charge idempotency key is required")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.SourceID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.Note != "" {
		params.Description = stripe.String(req.Note)
	}
	if req.ReferenceID != "" {
		params.AddMetadata("reference_id", req.ReferenceID)
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	intent, err := g.intents.Create(ctx, params)
	if err != nil {
		return payments.ChargeResult{}, mapStripeError(err)
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was not approved").
			WithDetails(map[string]any{"status": string(intent.Status)})
	default:
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodePaymentProviderError, fmt.Sprintf("unexpected payment intent status %q", intent.Status))
	}

	return payments.ChargeResult{
		Provider:      enums.PaymentProviderStripe,
		TransactionID: intent.ID,
		Status:        string(intent.Status),
		AmountCents:   intent.Amount,
	}, nil
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeCard {
			return pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, "card declined").
				WithDetails(map[string]any{"decline_code": string(stripeErr.DeclineCode)})
		}
		if stripeErr.Type == stripe.ErrorTypeInvalidRequest && stripeErr.HTTPStatusCode < http.StatusInternalServerError {
			return pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, "stripe rejected the payment")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodePaymentProviderError, err, "stripe payment outcome unknown")
}

package stripe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/payments"
)

type fakeIntents struct {
	last   *stripe.PaymentIntentCreateParams
	intent *stripe.PaymentIntent
	err    error
}

func (f *fakeIntents) Create(_ context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	f.last = params
	return f.intent, f.err
}

func TestGatewayChargeSucceeded(t *testing.T) {
	intents := &fakeIntents{intent: &stripe.PaymentIntent{ID: "pi_123", Status: stripe.PaymentIntentStatusSucceeded, Amount: 360}}
	gw := &Gateway{intents: intents}

	res, err := gw.Charge(context.Background(), payments.ChargeRequest{
		AmountCents:    360,
		Currency:       "USD",
		SourceID:       "pm_card_visa",
		IdempotencyKey: "checkout-abc",
		ReferenceID:    "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", res.TransactionID)
	assert.Equal(t, enums.PaymentProviderStripe, res.Provider)
	assert.Equal(t, int64(360), res.AmountCents)

	require.NotNil(t, intents.last)
	assert.Equal(t, "checkout-abc", *intents.last.IdempotencyKey)
	assert.Equal(t, "usd", *intents.last.Currency)
	assert.Equal(t, int64(360), *intents.last.Amount)
}

func TestGatewayChargeRequiresIdempotencyKey(t *testing.T) {
	gw := &Gateway{intents: &fakeIntents{}}
	_, err := gw.Charge(context.Background(), payments.ChargeRequest{AmountCents: 100, Currency: "USD"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestGatewayChargeMapsCardErrors(t *testing.T) {
	gw := &Gateway{intents: &fakeIntents{err: &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "declined"}}}
	_, err := gw.Charge(context.Background(), payments.ChargeRequest{AmountCents: 100, Currency: "USD", IdempotencyKey: "k"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentDeclined))
}

func TestGatewayChargeMapsTransportErrors(t *testing.T) {
	gw := &Gateway{intents: &fakeIntents{err: errors.New("timeout")}}
	_, err := gw.Charge(context.Background(), payments.ChargeRequest{AmountCents: 100, Currency: "USD", IdempotencyKey: "k"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentProviderError))
}

func TestGatewayChargeRequiresPaymentMethodIsDeclined(t *testing.T) {
	gw := &Gateway{intents: &fakeIntents{intent: &stripe.PaymentIntent{ID: "pi_9", Status: stripe.PaymentIntentStatusRequiresPaymentMethod}}}
	_, err := gw.Charge(context.Background(), payments.ChargeRequest{AmountCents: 100, Currency: "USD", IdempotencyKey: "k"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentDeclined))
}

func TestValidateAPIKey(t *testing.T) {
	assert.NoError(t, validateAPIKey(testEnv, "sk_test_123"))
	assert.Error(t, validateAPIKey(testEnv, "sk_live_123"))
	assert.NoError(t, validateAPIKey(liveEnv, "rk_live_123"))
}

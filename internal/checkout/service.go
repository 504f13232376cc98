// Package checkout turns an outstanding order into a paid purchased order,
// charging the diner exactly once.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/locks"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	pkgcheckout "github.com/angelmondragon/restaurant-backend/pkg/checkout"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/metrics"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/restaurant-backend/pkg/payments"
)

const (
	defaultLockTTL       = 60 * time.Second
	defaultChargeTimeout = 20 * time.Second
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// notifier pushes finished orders to live subscribers without blocking.
type notifier interface {
	PublishPurchased(order models.PurchasedOrder)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

// Input identifies the order to pay for and how to pay. One of SourceID or
// CustomerCardID is required unless a previous attempt already charged.
type Input struct {
	OutstandingOrderID uuid.UUID
	Caller             *models.User
	SourceID           string
	CustomerCardID     string
}

// Result is the purchased order. Replayed is set when an earlier execution
// already completed it.
type Result struct {
	PurchasedOrder models.PurchasedOrder
	Replayed       bool
}

type ServiceParams struct {
	Tx                txRunner
	Repo              Repository
	OutstandingOrders *outstandingorders.Repository
	Snapshotter       *outstandingorders.Snapshotter
	Locker            locks.Locker
	Gateway           payments.Gateway
	Outbox            outboxPublisher
	Notifier          notifier
	Metrics           *metrics.CheckoutMetrics
	Logger            *logger.Logger
	Currency          string
	LockTTL           time.Duration
	ChargeTimeout     time.Duration
	MaxLineQuantity   int
}

type service struct {
	tx              txRunner
	repo            Repository
	orders          *outstandingorders.Repository
	snapshotter     *outstandingorders.Snapshotter
	locker          locks.Locker
	gateway         payments.Gateway
	outbox          outboxPublisher
	notifier        notifier
	metrics         *metrics.CheckoutMetrics
	logg            *logger.Logger
	currency        string
	lockTTL         time.Duration
	chargeTimeout   time.Duration
	maxLineQuantity int
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("checkout repository required")
	case params.OutstandingOrders == nil:
		return nil, fmt.Errorf("outstanding order repository required")
	case params.Snapshotter == nil:
		return nil, fmt.Errorf("snapshotter required")
	case params.Locker == nil:
		return nil, fmt.Errorf("locker required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	svc := &service{
		tx:              params.Tx,
		repo:            params.Repo,
		orders:          params.OutstandingOrders,
		snapshotter:     params.Snapshotter,
		locker:          params.Locker,
		gateway:         params.Gateway,
		outbox:          params.Outbox,
		notifier:        params.Notifier,
		metrics:         params.Metrics,
		logg:            params.Logger,
		currency:        params.Currency,
		lockTTL:         params.LockTTL,
		chargeTimeout:   params.ChargeTimeout,
		maxLineQuantity: params.MaxLineQuantity,
	}
	if svc.currency == "" {
		svc.currency = "USD"
	}
	if svc.lockTTL <= 0 {
		svc.lockTTL = defaultLockTTL
	}
	if svc.chargeTimeout <= 0 {
		svc.chargeTimeout = defaultChargeTimeout
	}
	return svc, nil
}

// IdempotencyKey derives the provider idempotency key for one checkout
// attempt of an order. The key is stored on the attempt row and reused by
// every retry until a decline releases the attempt.
func IdempotencyKey(outstandingOrderID, attemptID uuid.UUID) string {
	return uuid.NewSHA1(outstandingOrderID, []byte("checkout:"+attemptID.String())).String()
}

func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	start := time.Now()
	outcome := metrics.OutcomeRejected
	defer func() {
		s.metrics.Observe(outcome, time.Since(start))
	}()

	orderID := input.OutstandingOrderID
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outstanding order id required")
	}
	var callerID *uuid.UUID
	if input.Caller != nil {
		callerID = &input.Caller.ID
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
	}

	lease, err := s.locker.Acquire(ctx, locks.OrderKey(orderID), s.lockTTL)
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			outcome = metrics.OutcomeAlreadyInFlight
			return nil, pkgerrors.Wrap(pkgerrors.CodeAlreadyCheckedOut, err, "checkout already in progress for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	defer func() {
		if releaseErr := lease.Release(context.WithoutCancel(ctx)); releaseErr != nil && s.logg != nil {
			s.logg.Warn(ctx, "release checkout lock: "+releaseErr.Error())
		}
	}()

	attempt, err := s.findAttempt(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if attempt != nil && attempt.Status == enums.CheckoutAttemptCompleted {
		replayed, err := s.replay(ctx, attempt, callerID)
		if err != nil {
			return nil, err
		}
		outcome = metrics.OutcomeReplayed
		return replayed, nil
	}

	source := input.SourceID
	if input.CustomerCardID != "" {
		source = input.CustomerCardID
	}
	charged := attempt != nil && attempt.Status == enums.CheckoutAttemptCharged

	var snapshot *outstandingorders.Snapshot
	var idempotencyKey string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		snapshot, err = s.snapshotter.Load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := outstandingorders.VerifyOwner(&snapshot.Order, callerID); err != nil {
			return err
		}
		if err := s.validate(snapshot); err != nil {
			return err
		}
		if charged {
			return nil
		}
		if source == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment source is required")
		}
		repo := s.repo.WithTx(tx)
		if err := repo.SavePending(ctx, &models.CheckoutAttempt{
			OutstandingOrderID: orderID,
			UserID:             snapshot.Order.UserID,
			AmountCents:        snapshot.Quote.ChargeCents,
			Currency:           s.currency,
			PaymentProvider:    s.gateway.Provider(),
			IdempotencyKey:     IdempotencyKey(orderID, uuid.New()),
		}); err != nil {
			return err
		}
		// A pending row left by an unanswered charge keeps its original key.
		stored, err := repo.FindAttempt(ctx, orderID)
		if err != nil {
			return err
		}
		idempotencyKey = stored.IdempotencyKey
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prepare checkout")
		}
		return nil, err
	}

	var transactionID string
	provider := s.gateway.Provider()
	if charged {
		if attempt.AmountCents != snapshot.Quote.ChargeCents {
			msg := fmt.Sprintf("order total changed after charge: charged %d, now %d", attempt.AmountCents, snapshot.Quote.ChargeCents)
			s.recordError(ctx, orderID, msg)
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithDetails(map[string]any{
				"charged_cents": attempt.AmountCents,
				"current_cents": snapshot.Quote.ChargeCents,
			})
		}
		if attempt.TransactionID != nil {
			transactionID = *attempt.TransactionID
		}
		provider = attempt.PaymentProvider
	} else {
		charge, err := s.charge(ctx, input, source, idempotencyKey, snapshot)
		if err != nil {
			switch {
			case pkgerrors.IsCode(err, pkgerrors.CodePaymentDeclined):
				outcome = metrics.OutcomeDeclined
				if delErr := s.repo.DeleteAttempt(ctx, orderID); delErr != nil && s.logg != nil {
					s.logg.Error(ctx, "release declined checkout attempt", delErr)
				}
			default:
				outcome = metrics.OutcomeProviderError
				s.recordError(ctx, orderID, err.Error())
			}
			return nil, err
		}
		transactionID = charge.TransactionID
		if err := s.repo.MarkCharged(ctx, orderID, transactionID, snapshot.Quote.ChargeCents); err != nil {
			outcome = metrics.OutcomeFinalizeDeferred
			if s.logg != nil {
				s.logg.Error(ctx, "persist charge confirmation", err)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist charge confirmation")
		}
		s.metrics.AddCharged(string(provider), snapshot.Quote.ChargeCents)
	}

	order, err := s.finalize(ctx, snapshot, input.Caller, provider, transactionID)
	if err != nil {
		outcome = metrics.OutcomeFinalizeDeferred
		s.recordError(ctx, orderID, err.Error())
		if s.logg != nil {
			s.logg.Error(ctx, "finalize checkout", err)
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize checkout")
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.PublishPurchased(*order)
	}
	outcome = metrics.OutcomeCompleted
	return &Result{PurchasedOrder: *order}, nil
}

func (s *service) findAttempt(ctx context.Context, orderID uuid.UUID) (*models.CheckoutAttempt, error) {
	attempt, err := s.repo.FindAttempt(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout attempt")
	}
	return attempt, nil
}

func (s *service) replay(ctx context.Context, attempt *models.CheckoutAttempt, callerID *uuid.UUID) (*Result, error) {
	if attempt.UserID != nil && (callerID == nil || *callerID != *attempt.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "order belongs to another user")
	}
	if attempt.PurchasedOrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "completed checkout has no purchased order")
	}
	order, err := s.repo.FindPurchasedOrder(ctx, *attempt.PurchasedOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchased order")
	}
	return &Result{PurchasedOrder: *order, Replayed: true}, nil
}

func (s *service) validate(snapshot *outstandingorders.Snapshot) error {
	if len(snapshot.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}
	quantities := make([]pkgcheckout.LineQuantityInput, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		name := ""
		if line.ConstructedItem.Name != nil {
			name = *line.ConstructedItem.Name
		}
		quantities = append(quantities, pkgcheckout.LineQuantityInput{
			ConstructedItemID: line.ConstructedItem.ID,
			Name:              name,
			Quantity:          line.Quantity,
		})
	}
	if err := pkgcheckout.ValidateLineQuantities(quantities, s.maxLineQuantity); err != nil {
		return err
	}
	for _, line := range snapshot.Lines {
		if err := requirementsError(line); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) charge(ctx context.Context, input Input, source, idempotencyKey string, snapshot *outstandingorders.Snapshot) (payments.ChargeResult, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()

	req := payments.ChargeRequest{
		AmountCents:    snapshot.Quote.ChargeCents,
		Currency:       s.currency,
		SourceID:       source,
		IdempotencyKey: idempotencyKey,
		ReferenceID:    snapshot.Order.ID.String(),
	}
	if input.CustomerCardID != "" && input.Caller != nil && input.Caller.SquareCustomerID != nil {
		req.CustomerID = *input.Caller.SquareCustomerID
	}
	if snapshot.Order.Note != nil {
		req.Note = *snapshot.Order.Note
	}

	result, err := s.gateway.Charge(chargeCtx, req)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodePaymentDeclined) {
			return payments.ChargeResult{}, err
		}
		if pkgerrors.IsCode(err, pkgerrors.CodePaymentProviderError) {
			return payments.ChargeResult{}, err
		}
		return payments.ChargeResult{}, pkgerrors.Wrap(pkgerrors.CodePaymentProviderError, err, "payment provider unavailable")
	}
	if result.TransactionID == "" {
		return payments.ChargeResult{}, pkgerrors.New(pkgerrors.CodePaymentProviderError, "payment provider returned no transaction id")
	}
	return result, nil
}

// finalize writes the purchased order, removes the outstanding order and marks
// the attempt completed in one transaction.
func (s *service) finalize(ctx context.Context, snapshot *outstandingorders.Snapshot, caller *models.User, provider enums.PaymentProvider, transactionID string) (*models.PurchasedOrder, error) {
	now := time.Now().UTC()
	order := &models.PurchasedOrder{
		UserID:             snapshot.Order.UserID,
		OutstandingOrderID: snapshot.Order.ID,
		PaymentProvider:    provider,
		TransactionID:      transactionID,
		Currency:           s.currency,
		SubtotalCents:      snapshot.Quote.SubtotalCents,
		DiscountCents:      snapshot.Quote.DiscountCents,
		TotalCents:         snapshot.Quote.TotalCents,
		TaxCents:           snapshot.Quote.TaxCents,
		ChargedCents:       snapshot.Quote.ChargeCents,
		PurchasedAt:        now,
		PreparedForDate:    snapshot.Order.PreparedForDate,
		Note:               snapshot.Order.Note,
		Progress:           enums.OrderProgressPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreatePurchasedOrder(ctx, order); err != nil {
			return err
		}
		itemCount := 0
		for _, line := range snapshot.Lines {
			item, categoryItems, modifiers := purchasedLine(order.ID, line)
			if err := repo.CreatePurchasedItem(ctx, &item, categoryItems, modifiers); err != nil {
				return err
			}
			itemCount += line.Quantity
		}
		offers := make([]models.PurchasedOrderOffer, 0, len(snapshot.Offers))
		codes := make([]string, 0, len(snapshot.Offers))
		for _, offer := range snapshot.Offers {
			offers = append(offers, models.PurchasedOrderOffer{
				PurchasedOrderID:   order.ID,
				OfferID:            offer.ID,
				Code:               offer.Code,
				DiscountPriceCents: offer.DiscountPriceCents,
				DiscountPercent:    offer.DiscountPercent,
			})
			codes = append(codes, offer.Code)
		}
		if err := repo.CreatePurchasedOffers(ctx, offers); err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).Delete(ctx, snapshot.Order.ID); err != nil {
			return err
		}
		if err := repo.MarkCompleted(ctx, snapshot.Order.ID, order.ID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPurchased,
			AggregateType: enums.AggregatePurchasedOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPurchasedEvent{
				PurchasedOrderID:   order.ID,
				OutstandingOrderID: snapshot.Order.ID,
				Number:             order.Number,
				UserID:             order.UserID,
				PaymentProvider:    provider,
				TransactionID:      transactionID,
				Currency:           order.Currency,
				SubtotalCents:      order.SubtotalCents,
				DiscountCents:      order.DiscountCents,
				TaxCents:           order.TaxCents,
				ChargedCents:       order.ChargedCents,
				ItemCount:          itemCount,
				OfferCodes:         codes,
				PurchasedAt:        now,
			},
			Version:    1,
			OccurredAt: now,
		}
		if caller != nil {
			event.Actor = &outbox.ActorRef{UserID: &caller.ID, Role: string(caller.Role)}
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) recordError(ctx context.Context, orderID uuid.UUID, message string) {
	if err := s.repo.RecordError(ctx, orderID, message); err != nil && s.logg != nil {
		s.logg.Error(ctx, "record checkout error", err)
	}
}

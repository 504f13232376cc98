package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/internal/analytics/types"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox/payloads"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{}, nil)
	env := types.Envelope{
		EventType: enums.OutboxEventType("unsupported"),
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRoutesToHandler(t *testing.T) {
	handler := &stubHandler{}
	router := newTestRouter(t, &fakeWriter{}, map[enums.OutboxEventType]Handler{
		enums.EventOrderPurchased: handler,
	})
	data, _ := json.Marshal(payloads.OrderPurchasedEvent{PurchasedOrderID: uuid.New()})
	env := types.Envelope{
		EventType: enums.EventOrderPurchased,
		Payload:   data,
	}
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatalf("handler not invoked")
	}
}

func TestRouterRejectsEmptyPayload(t *testing.T) {
	router := newTestRouter(t, &fakeWriter{}, nil)
	if err := router.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderPurchased}); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestOrderPurchasedRow(t *testing.T) {
	writer := &fakeWriter{}
	router := newTestRouter(t, writer, nil)
	userID := uuid.New()
	purchasedAt := time.Date(2026, 3, 6, 18, 30, 0, 0, time.UTC)
	event := payloads.OrderPurchasedEvent{
		PurchasedOrderID:   uuid.New(),
		OutstandingOrderID: uuid.New(),
		Number:             42,
		UserID:             &userID,
		PaymentProvider:    enums.PaymentProviderSquare,
		Currency:           "USD",
		SubtotalCents:      1000,
		DiscountCents:      100,
		TaxCents:           90,
		ChargedCents:       990,
		ItemCount:          3,
		OfferCodes:         []string{"TENOFF"},
		PurchasedAt:        purchasedAt,
	}
	data, _ := json.Marshal(event)

	err := router.Handle(context.Background(), types.Envelope{
		EventID:    "evt-1",
		EventType:  enums.EventOrderPurchased,
		OccurredAt: purchasedAt.Add(time.Second),
		Payload:    data,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(writer.inserted) != 1 {
		t.Fatalf("expected one row, got %d", len(writer.inserted))
	}
	row := writer.inserted[0]
	if row.EventID != "evt-1" || row.EventType != string(enums.EventOrderPurchased) {
		t.Fatalf("unexpected identity %s/%s", row.EventID, row.EventType)
	}
	if !row.OccurredAt.Equal(purchasedAt) {
		t.Fatalf("expected purchase time, got %v", row.OccurredAt)
	}
	if *row.OrderNumber != 42 || *row.ChargedCents != 990 || *row.ItemCount != 3 {
		t.Fatalf("unexpected totals %+v", row)
	}
	if *row.UserID != userID.String() {
		t.Fatalf("unexpected user %s", *row.UserID)
	}
	if len(row.OfferCodes) != 1 || row.OfferCodes[0] != "TENOFF" {
		t.Fatalf("unexpected offers %v", row.OfferCodes)
	}
	if !row.Payload.Valid {
		t.Fatal("expected payload json")
	}
}

func TestOrderProgressRow(t *testing.T) {
	writer := &fakeWriter{}
	router := newTestRouter(t, writer, nil)
	data, _ := json.Marshal(payloads.OrderProgressUpdatedEvent{
		PurchasedOrderID: uuid.New(),
		Number:           7,
		From:             enums.OrderProgressPending,
		To:               enums.OrderProgressPreparing,
	})

	if err := router.Handle(context.Background(), types.Envelope{EventID: "evt-2", EventType: enums.EventOrderProgressUpdated, Payload: data}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	row := writer.inserted[0]
	if *row.ProgressFrom != string(enums.OrderProgressPending) || *row.ProgressTo != string(enums.OrderProgressPreparing) {
		t.Fatalf("unexpected progress %s -> %s", *row.ProgressFrom, *row.ProgressTo)
	}
	if row.ChargedCents != nil {
		t.Fatal("progress rows carry no totals")
	}
}

func TestOrderAbandonedWriterFailure(t *testing.T) {
	writer := &fakeWriter{err: errors.New("bq down")}
	router := newTestRouter(t, writer, nil)
	data, _ := json.Marshal(payloads.OrderAbandonedEvent{OutstandingOrderID: uuid.New()})

	if err := router.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderAbandoned, Payload: data}); err == nil {
		t.Fatal("expected writer error to surface")
	}
}

func newTestRouter(t *testing.T, writer Writer, overrides map[enums.OutboxEventType]Handler) *Router {
	t.Helper()
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test"}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router
}

type stubHandler struct {
	called bool
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	return nil
}

package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/restaurant-backend/internal/analytics/types"
	"github.com/angelmondragon/restaurant-backend/internal/analytics/writer"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox/payloads"
)

type orderPurchasedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderPurchasedHandler(w Writer, logg *logger.Logger) Handler {
	return &orderPurchasedHandler{writer: w, logg: logg}
}

func (h *orderPurchasedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderPurchasedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":         envelope.EventType,
		"purchased_order_id": event.PurchasedOrderID.String(),
		"charged_cents":      event.ChargedCents,
	})

	row, err := baseRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order row", err)
		return err
	}
	row.PurchasedOrderID = stringPtr(event.PurchasedOrderID.String())
	row.OutstandingOrderID = stringPtr(event.OutstandingOrderID.String())
	row.OrderNumber = int64Ptr(event.Number)
	if event.UserID != nil {
		row.UserID = stringPtr(event.UserID.String())
	}
	row.PaymentProvider = stringPtr(string(event.PaymentProvider))
	row.Currency = stringPtr(event.Currency)
	row.SubtotalCents = int64Ptr(event.SubtotalCents)
	row.DiscountCents = int64Ptr(event.DiscountCents)
	row.TaxCents = int64Ptr(event.TaxCents)
	row.ChargedCents = int64Ptr(event.ChargedCents)
	row.ItemCount = int64Ptr(int64(event.ItemCount))
	row.OfferCodes = append([]string{}, event.OfferCodes...)
	if !event.PurchasedAt.IsZero() {
		row.OccurredAt = event.PurchasedAt.UTC()
	}

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert order row", err)
		return err
	}
	h.logg.Info(logCtx, "order purchased row inserted")
	return nil
}

type orderProgressHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderProgressHandler(w Writer, logg *logger.Logger) Handler {
	return &orderProgressHandler{writer: w, logg: logg}
}

func (h *orderProgressHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderProgressUpdatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":         envelope.EventType,
		"purchased_order_id": event.PurchasedOrderID.String(),
		"progress":           event.To,
	})

	row, err := baseRow(envelope, event)
	if err != nil {
		return err
	}
	row.PurchasedOrderID = stringPtr(event.PurchasedOrderID.String())
	row.OrderNumber = int64Ptr(event.Number)
	row.ProgressFrom = stringPtr(string(event.From))
	row.ProgressTo = stringPtr(string(event.To))
	if !event.UpdatedAt.IsZero() {
		row.OccurredAt = event.UpdatedAt.UTC()
	}

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert progress row", err)
		return err
	}
	return nil
}

type orderAbandonedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderAbandonedHandler(w Writer, logg *logger.Logger) Handler {
	return &orderAbandonedHandler{writer: w, logg: logg}
}

func (h *orderAbandonedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderAbandonedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", envelope.EventType)
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":           envelope.EventType,
		"outstanding_order_id": event.OutstandingOrderID.String(),
	})

	row, err := baseRow(envelope, event)
	if err != nil {
		return err
	}
	row.OutstandingOrderID = stringPtr(event.OutstandingOrderID.String())
	if event.UserID != nil {
		row.UserID = stringPtr(event.UserID.String())
	}

	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert abandoned row", err)
		return err
	}
	return nil
}

func baseRow(envelope types.Envelope, event any) (types.OrderEventRow, error) {
	payloadJSON, err := writer.EncodeJSON(event)
	if err != nil {
		return types.OrderEventRow{}, err
	}
	return types.OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		Payload:    payloadJSON,
	}, nil
}

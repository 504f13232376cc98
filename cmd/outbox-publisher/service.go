package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/config"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	"github.com/angelmondragon/restaurant-backend/pkg/instance"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox/registry"
)

const (
	publishTimeout = 15 * time.Second
	idleCeiling    = 10 * time.Second
	jitterWindow   = 250 * time.Millisecond
)

type database interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type broker interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type eventStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
}

type graveyard interface {
	Bury(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// topicSender hands one message to a topic and waits for the server id.
type topicSender func(ctx context.Context, topic string, msg *gcppubsub.Message) error

type RelayParams struct {
	Outbox    config.OutboxConfig
	Logger    *logger.Logger
	DB        database
	Broker    broker
	Events    eventStore
	Registry  resolver
	Graveyard graveyard
	Send      topicSender
}

// Relay drains outbox_events into Pub/Sub. Each row ends a batch either
// published, scheduled for retry, or buried in the dead letter table.
type Relay struct {
	logg        *logger.Logger
	db          database
	broker      broker
	events      eventStore
	registry    resolver
	graveyard   graveyard
	send        topicSender
	batchSize   int
	maxAttempts int
	interval    time.Duration
	relayID     string
	jitter      *rand.Rand
}

func NewRelay(params RelayParams) (*Relay, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Broker == nil:
		return nil, errors.New("pubsub client is required")
	case params.Events == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.Graveyard == nil:
		return nil, errors.New("dead letter store is required")
	}

	r := &Relay{
		logg:        params.Logger,
		db:          params.DB,
		broker:      params.Broker,
		events:      params.Events,
		registry:    params.Registry,
		graveyard:   params.Graveyard,
		send:        params.Send,
		batchSize:   positiveOr(params.Outbox.BatchSize, 50),
		maxAttempts: positiveOr(params.Outbox.MaxAttempts, 10),
		interval:    time.Duration(positiveOr(params.Outbox.PollIntervalMS, 500)) * time.Millisecond,
		relayID:     instance.GetID(),
		jitter:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if r.send == nil {
		r.send = r.sendToPubSub
	}
	return r, nil
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

// Run polls until ctx ends. Empty batches and batch errors slow the loop
// down, doubling up to idleCeiling on consecutive errors.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		r.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := r.broker.Ping(ctx); err != nil {
		r.logg.Error(ctx, "pubsub ping failed", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	wait := r.interval
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay stopping")
			return err
		}

		busy, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox relay batch failed", err)
			wait = min(wait*2, idleCeiling)
		case busy:
			wait = r.interval
			continue
		default:
			wait = r.interval
		}

		if err := r.pause(ctx, wait); err != nil {
			return err
		}
	}
}

// drain handles one locked batch and reports whether it contained rows.
func (r *Relay) drain(ctx context.Context) (bool, error) {
	busy := false
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.events.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		busy = len(rows) > 0
		for _, row := range rows {
			if err := r.relay(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	return busy, err
}

// relay returns an error only when the row's outcome could not be stored.
func (r *Relay) relay(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) error {
	rowCtx := r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
		"relay_id":      r.relayID,
	})

	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return r.bury(rowCtx, tx, row, enums.OutboxDLQReasonNonRetryable, err)
	}
	rowCtx = r.logg.WithFields(rowCtx, map[string]any{
		"event_id": resolved.Envelope.EventID,
		"topic":    resolved.Descriptor.Topic,
	})

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	err = r.send(publishCtx, resolved.Descriptor.Topic, r.message(row, resolved))
	cancel()

	var permanent registry.NonRetryableError
	switch {
	case err == nil:
		if markErr := r.events.MarkPublishedTx(tx, row.ID); markErr != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, markErr)
		}
		r.logg.Info(rowCtx, "outbox event published")
		return nil
	case errors.As(err, &permanent):
		return r.bury(rowCtx, tx, row, enums.OutboxDLQReasonNonRetryable, err)
	case row.AttemptCount+1 >= r.maxAttempts:
		return r.bury(rowCtx, tx, row, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, err))
	}

	r.logg.Warn(r.logg.WithField(rowCtx, "error", err.Error()), "outbox publish failed, will retry")
	if markErr := r.events.MarkFailedTx(tx, row.ID, err); markErr != nil {
		return fmt.Errorf("mark failure %s: %w", row.ID, markErr)
	}
	return nil
}

func (r *Relay) bury(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	ctx = r.logg.WithFields(ctx, map[string]any{"error_reason": reason, "error": cause.Error()})
	r.logg.Warn(ctx, "outbox event dead-lettered")
	if err := r.graveyard.Bury(tx, row, reason, cause); err != nil {
		return fmt.Errorf("dead-letter %s: %w", row.ID, err)
	}
	return nil
}

// message carries the stored envelope untouched; subscribers route on the
// attributes without decoding it.
func (r *Relay) message(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
			"publisher_id":   r.relayID,
		},
	}
}

func (r *Relay) sendToPubSub(ctx context.Context, topic string, msg *gcppubsub.Message) error {
	pub := r.broker.Publisher(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}
	_, err := pub.Publish(ctx, msg).Get(ctx)
	return err
}

func (r *Relay) pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d + time.Duration(r.jitter.Int63n(int64(jitterWindow))))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

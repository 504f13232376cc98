package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// DeadLetters retires outbox rows that will never reach Pub/Sub. A buried
// row is copied into outbox_dlq and closed on outbox_events so the relay
// stops polling it.
type DeadLetters struct {
	events *Repository
}

func NewDeadLetters(events *Repository) *DeadLetters {
	return &DeadLetters{events: events}
}

// Bury must run inside the relay's batch transaction.
func (d *DeadLetters) Bury(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !reason.IsValid() {
		return errors.New("unknown dead letter reason " + string(reason))
	}
	if cause == nil {
		cause = errors.New(string(reason))
	}
	message := clipError(cause.Error())
	row := models.OutboxDLQ{
		ID:            uuid.New(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &message,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}
	return d.events.MarkTerminalTx(tx, event.ID, cause)
}

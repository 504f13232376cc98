// Package outstandingorders manages the mutable order a diner fills before
// checkout.
package outstandingorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/locks"
	"github.com/angelmondragon/restaurant-backend/internal/offers"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox/payloads"
)

// LockTTL bounds how long one mutation may hold an order.
const LockTTL = 15 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service mutates outstanding orders. Every mutation holds the order's lock
// and checks that caller owns the order, or that it has no owner.
type Service interface {
	Create(ctx context.Context, caller *uuid.UUID, input CreateInput) (*Detail, error)
	Get(ctx context.Context, caller *uuid.UUID, id uuid.UUID) (*Detail, error)
	Update(ctx context.Context, caller *uuid.UUID, id uuid.UUID, input UpdateInput) (*Detail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Detail, error)

	AttachConstructedItems(ctx context.Context, caller *uuid.UUID, id uuid.UUID, lines []LineInput) (*Detail, error)
	UpdateQuantity(ctx context.Context, caller *uuid.UUID, id, constructedItemID uuid.UUID, quantity int) (*Detail, error)
	DetachConstructedItem(ctx context.Context, caller *uuid.UUID, id, constructedItemID uuid.UUID) (*Detail, error)
	ApplyOffer(ctx context.Context, caller *uuid.UUID, id uuid.UUID, code string) (*Detail, error)
	RemoveOffer(ctx context.Context, caller *uuid.UUID, id, offerID uuid.UUID) (*Detail, error)

	Delete(ctx context.Context, caller *uuid.UUID, id uuid.UUID) error
	// Abandon deletes the order if it has not been touched since cutoff.
	Abandon(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error)
}

type ServiceParams struct {
	Tx          txRunner
	Repo        *Repository
	Items       *constructeditems.Repository
	Offers      *offers.Repository
	Snapshotter *Snapshotter
	Locker      locks.Locker
	Outbox      outboxEmitter
}

type service struct {
	tx          txRunner
	repo        *Repository
	items       *constructeditems.Repository
	offers      *offers.Repository
	snapshotter *Snapshotter
	locker      locks.Locker
	outbox      outboxEmitter
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("outstanding order repository required")
	case params.Items == nil:
		return nil, fmt.Errorf("constructed item repository required")
	case params.Offers == nil:
		return nil, fmt.Errorf("offer repository required")
	case params.Snapshotter == nil:
		return nil, fmt.Errorf("snapshotter required")
	case params.Locker == nil:
		return nil, fmt.Errorf("locker required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox required")
	}
	return &service{
		tx:          params.Tx,
		repo:        params.Repo,
		items:       params.Items,
		offers:      params.Offers,
		snapshotter: params.Snapshotter,
		locker:      params.Locker,
		outbox:      params.Outbox,
	}, nil
}

func (s *service) Create(ctx context.Context, caller *uuid.UUID, input CreateInput) (*Detail, error) {
	owner := input.UserID
	if owner != nil && (caller == nil || *caller != *owner) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cannot create an order for another user")
	}
	order := models.OutstandingOrder{
		UserID:          owner,
		PreparedForDate: input.PreparedForDate,
		Note:            input.Note,
	}
	var detail *Detail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create outstanding order")
		}
		if err := s.attach(ctx, tx, caller, order.ID, input.Lines); err != nil {
			return err
		}
		var err error
		detail, err = s.detail(ctx, tx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) Get(ctx context.Context, caller *uuid.UUID, id uuid.UUID) (*Detail, error) {
	snapshot, err := s.snapshotter.Load(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := VerifyOwner(&snapshot.Order, caller); err != nil {
		return nil, err
	}
	detail := newDetail(snapshot)
	return &detail, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Detail, error) {
	orders, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list outstanding orders")
	}
	out := make([]Detail, 0, len(orders))
	for _, order := range orders {
		snapshot, err := s.snapshotter.load(ctx, s.repo, s.items, s.snapshotter.catalog, order)
		if err != nil {
			return nil, err
		}
		out = append(out, newDetail(snapshot))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, caller *uuid.UUID, id uuid.UUID, input UpdateInput) (*Detail, error) {
	return s.mutate(ctx, caller, id, func(tx *gorm.DB, order *models.OutstandingOrder) error {
		updates := map[string]any{}
		if input.UserID != nil {
			switch {
			case order.UserID != nil && *order.UserID != *input.UserID:
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has an owner")
			case caller == nil || *caller != *input.UserID:
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "orders can only be claimed by the caller")
			case order.UserID == nil:
				updates["user_id"] = *input.UserID
			}
		}
		if input.PreparedForDate != nil {
			updates["prepared_for_date"] = input.PreparedForDate.UTC()
		}
		if input.Note != nil {
			updates["note"] = *input.Note
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now().UTC()
		if err := s.repo.WithTx(tx).Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update outstanding order")
		}
		return nil
	})
}

func (s *service) AttachConstructedItems(ctx context.Context, caller *uuid.UUID, id uuid.UUID, lines []LineInput) (*Detail, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one constructed item is required")
	}
	return s.mutate(ctx, caller, id, func(tx *gorm.DB, _ *models.OutstandingOrder) error {
		return s.attach(ctx, tx, caller, id, lines)
	})
}

// attach adds each line or replaces its quantity when it is already on this
// order. A constructed item on a different order is a conflict.
func (s *service) attach(ctx context.Context, tx *gorm.DB, caller *uuid.UUID, orderID uuid.UUID, lines []LineInput) error {
	repo := s.repo.WithTx(tx)
	items := s.items.WithTx(tx)
	for _, line := range lines {
		if line.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		item, err := items.FindByID(ctx, line.ConstructedItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "constructed item not found").
					WithDetails(map[string]any{"constructed_item_id": line.ConstructedItemID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load constructed item")
		}
		if err := constructeditems.VerifyOwner(item, caller); err != nil {
			return err
		}

		existing, err := repo.FindLine(ctx, item.ID)
		switch {
		case err == nil && existing.OutstandingOrderID != orderID:
			return pkgerrors.New(pkgerrors.CodeConflict, "constructed item is on another order").
				WithDetails(map[string]any{"constructed_item_id": item.ID})
		case err == nil:
			if _, err := repo.UpdateLineQuantity(ctx, orderID, item.ID, line.quantity()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line quantity")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.OutstandingOrderConstructedItem{
				OutstandingOrderID: orderID,
				ConstructedItemID:  item.ID,
				Quantity:           line.quantity(),
			}
			if err := repo.InsertLine(ctx, &row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order line")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line")
		}
	}
	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, caller *uuid.UUID, id, constructedItemID uuid.UUID, quantity int) (*Detail, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return s.mutate(ctx, caller, id, func(tx *gorm.DB, _ *models.OutstandingOrder) error {
		affected, err := s.repo.WithTx(tx).UpdateLineQuantity(ctx, id, constructedItemID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line quantity")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "constructed item is not on this order")
		}
		return nil
	})
}

func (s *service) DetachConstructedItem(ctx context.Context, caller *uuid.UUID, id, constructedItemID uuid.UUID) (*Detail, error) {
	return s.mutate(ctx, caller, id, func(tx *gorm.DB, _ *models.OutstandingOrder) error {
		if err := s.repo.WithTx(tx).DeleteLine(ctx, id, constructedItemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order line")
		}
		return nil
	})
}

func (s *service) ApplyOffer(ctx context.Context, caller *uuid.UUID, id uuid.UUID, code string) (*Detail, error) {
	normalized := offers.NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code is required")
	}
	return s.mutate(ctx, caller, id, func(tx *gorm.DB, _ *models.OutstandingOrder) error {
		offer, err := s.offers.WithTx(tx).FindByCode(ctx, normalized)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}
		if offer.Availability != enums.AvailabilityAvailable {
			return pkgerrors.New(pkgerrors.CodeValidation, "offer is not available")
		}
		if err := s.repo.WithTx(tx).AttachOffer(ctx, id, offer.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply offer")
		}
		return nil
	})
}

func (s *service) RemoveOffer(ctx context.Context, caller *uuid.UUID, id, offerID uuid.UUID) (*Detail, error) {
	return s.mutate(ctx, caller, id, func(tx *gorm.DB, _ *models.OutstandingOrder) error {
		if err := s.repo.WithTx(tx).DetachOffer(ctx, id, offerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove offer")
		}
		return nil
	})
}

func (s *service) Delete(ctx context.Context, caller *uuid.UUID, id uuid.UUID) error {
	lease, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer lease.Release(context.WithoutCancel(ctx))

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := VerifyOwner(order, caller); err != nil {
			return err
		}
		return s.remove(ctx, tx, order, caller)
	})
}

func (s *service) Abandon(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	lease, err := s.locker.Acquire(ctx, locks.OrderKey(id), LockTTL)
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	defer lease.Release(context.WithoutCancel(ctx))

	removed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.find(ctx, tx, id)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil
			}
			return err
		}
		if !order.UpdatedAt.Before(cutoff) {
			return nil
		}
		removed = true
		return s.remove(ctx, tx, order, nil)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// remove deletes the order and the non-favorite constructed items on it, and
// queues order.abandoned.
func (s *service) remove(ctx context.Context, tx *gorm.DB, order *models.OutstandingOrder, actor *uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	lines, err := repo.Lines(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order lines")
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ConstructedItemID)
	}
	items, err := s.items.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load constructed items")
	}
	disposable := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !item.IsFavorite {
			disposable = append(disposable, item.ID)
		}
	}

	if err := repo.Delete(ctx, order.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete outstanding order")
	}
	if err := s.items.WithTx(tx).Delete(ctx, disposable); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete constructed items")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderAbandoned,
		AggregateType: enums.AggregateOutstandingOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderAbandonedEvent{
			OutstandingOrderID: order.ID,
			UserID:             order.UserID,
			LastTouchedAt:      order.UpdatedAt,
		},
		Version:    1,
		OccurredAt: time.Now().UTC(),
	}
	if actor != nil {
		event.Actor = &outbox.ActorRef{UserID: actor, Role: string(enums.UserRoleCustomer)}
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order abandoned")
	}
	return nil
}

// mutate runs fn under the order lock in one transaction, bumps updated_at and
// returns the refreshed detail.
func (s *service) mutate(ctx context.Context, caller *uuid.UUID, id uuid.UUID, fn func(tx *gorm.DB, order *models.OutstandingOrder) error) (*Detail, error) {
	lease, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer lease.Release(context.WithoutCancel(ctx))

	var detail *Detail
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := VerifyOwner(order, caller); err != nil {
			return err
		}
		if err := fn(tx, order); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Touch(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch outstanding order")
		}
		detail, err = s.detail(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) acquire(ctx context.Context, id uuid.UUID) (locks.Lease, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outstanding order id is required")
	}
	lease, err := s.locker.Acquire(ctx, locks.OrderKey(id), LockTTL)
	if err != nil {
		if errors.Is(err, locks.ErrHeld) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order is being modified")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	return lease, nil
}

func (s *service) find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.OutstandingOrder, error) {
	order, err := s.repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "outstanding order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load outstanding order")
	}
	return order, nil
}

func (s *service) detail(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Detail, error) {
	snapshot, err := s.snapshotter.Load(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	detail := newDetail(snapshot)
	return &detail, nil
}

// VerifyOwner allows ownerless orders for anyone holding the id and owned
// orders only for their owner.
func VerifyOwner(order *models.OutstandingOrder, caller *uuid.UUID) error {
	if order.UserID == nil {
		return nil
	}
	if caller == nil || *caller != *order.UserID {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "order belongs to another user")
	}
	return nil
}

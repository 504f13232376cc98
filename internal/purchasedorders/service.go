// Package purchasedorders serves paid orders to diners and the kitchen.
package purchasedorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/restaurant-backend/pkg/pagination"
)

// DayLayout is the query format of ListByDay dates.
const DayLayout = "1-2-2006"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	PublishProgress(order models.PurchasedOrder)
}

// Service reads purchased orders and advances their kitchen progress. Staff
// see every order; customers only their own. Ownerless guest orders are
// readable by anyone holding the id.
type Service interface {
	ListByDay(ctx context.Context, day string) ([]Detail, error)
	Get(ctx context.Context, caller *models.User, id uuid.UUID) (*Detail, error)
	ListConstructedItems(ctx context.Context, caller *models.User, id uuid.UUID) ([]ConstructedItemDetail, error)
	CategorizedItems(ctx context.Context, caller *models.User, id, purchasedItemID uuid.UUID) ([]CategorizedItems, error)
	UpdateProgress(ctx context.Context, caller *models.User, id uuid.UUID, progress enums.OrderProgress) (*Detail, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
}

type ServiceParams struct {
	Tx       txRunner
	Repo     *Repository
	Outbox   outboxEmitter
	Notifier notifier
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	tx       txRunner
	repo     *Repository
	outbox   outboxEmitter
	notifier notifier
	loc      *time.Location
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("purchased order repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox required")
	}
	svc := &service{
		tx:       params.Tx,
		repo:     params.Repo,
		outbox:   params.Outbox,
		notifier: params.Notifier,
		loc:      params.Location,
		now:      params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// ListByDay returns the orders purchased on one local calendar day, today when
// day is empty.
func (s *service) ListByDay(ctx context.Context, day string) ([]Detail, error) {
	var start time.Time
	if day == "" {
		now := s.now().In(s.loc)
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	} else {
		parsed, err := time.ParseInLocation(DayLayout, day, s.loc)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must look like M-d-yyyy")
		}
		start = parsed
	}
	end := start.AddDate(0, 0, 1)

	orders, err := s.repo.ListPurchasedBetween(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchased orders")
	}
	out := make([]Detail, 0, len(orders))
	for _, order := range orders {
		out = append(out, NewDetail(order))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, caller *models.User, id uuid.UUID) (*Detail, error) {
	order, err := s.load(ctx, s.repo, caller, id)
	if err != nil {
		return nil, err
	}
	offers, err := s.repo.Offers(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchased offers")
	}
	detail := NewDetail(*order)
	for _, offer := range offers {
		detail.Offers = append(detail.Offers, OfferDetail{
			OfferID:            offer.OfferID,
			Code:               offer.Code,
			DiscountPriceCents: offer.DiscountPriceCents,
			DiscountPercent:    offer.DiscountPercent,
		})
	}
	return &detail, nil
}

func (s *service) ListConstructedItems(ctx context.Context, caller *models.User, id uuid.UUID) ([]ConstructedItemDetail, error) {
	if _, err := s.load(ctx, s.repo, caller, id); err != nil {
		return nil, err
	}
	items, err := s.repo.ListConstructedItems(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchased constructed items")
	}
	out := make([]ConstructedItemDetail, 0, len(items))
	for _, item := range items {
		out = append(out, ConstructedItemDetail{
			ID:                item.ID,
			ConstructedItemID: item.ConstructedItemID,
			CategoryID:        item.CategoryID,
			Name:              item.Name,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			TotalPriceCents:   item.TotalPriceCents,
		})
	}
	return out, nil
}

// CategorizedItems groups what was paid for on one purchased line by the
// subcategory each selection came from.
func (s *service) CategorizedItems(ctx context.Context, caller *models.User, id, purchasedItemID uuid.UUID) ([]CategorizedItems, error) {
	if _, err := s.load(ctx, s.repo, caller, id); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindConstructedItem(ctx, id, purchasedItemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "purchased constructed item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchased constructed item")
	}
	rows, err := s.repo.categorizedRows(ctx, purchasedItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list paid selections")
	}
	modifiers, err := s.repo.paidModifiers(ctx, purchasedItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list paid modifiers")
	}
	return categorize(rows, modifiers), nil
}

// UpdateProgress advances an order through the kitchen. Progress only moves
// forward; repeating or reversing a step is a state conflict.
func (s *service) UpdateProgress(ctx context.Context, caller *models.User, id uuid.UUID, progress enums.OrderProgress) (*Detail, error) {
	if !progress.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid progress %q", progress))
	}
	var updated *models.PurchasedOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, caller, id)
		if err != nil {
			return err
		}
		from := order.Progress
		if !from.CanAdvanceTo(progress) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, progress)).
				WithDetails(map[string]any{"from": from, "to": progress})
		}
		affected, err := repo.UpdateProgress(ctx, id, from, progress)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update progress")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order progress changed concurrently")
		}
		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload purchased order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderProgressUpdated,
			AggregateType: enums.AggregatePurchasedOrder,
			AggregateID:   id,
			Data: payloads.OrderProgressUpdatedEvent{
				PurchasedOrderID: id,
				Number:           updated.Number,
				From:             from,
				To:               progress,
				UpdatedAt:        updated.UpdatedAt,
			},
			Version: 1,
		}
		if caller != nil {
			event.Actor = &outbox.ActorRef{UserID: &caller.ID, Role: string(caller.Role)}
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit progress event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PublishProgress(*updated)
	}
	detail := NewDetail(*updated)
	return &detail, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	orders, err := s.repo.ListForUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchased orders")
	}
	page := &Page{Orders: make([]Detail, 0, len(orders))}
	if len(orders) > limit {
		last := orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		orders = orders[:limit]
	}
	for _, order := range orders {
		page.Orders = append(page.Orders, NewDetail(order))
	}
	return page, nil
}

func (s *service) load(ctx context.Context, repo *Repository, caller *models.User, id uuid.UUID) (*models.PurchasedOrder, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "purchased order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchased order")
	}
	if order.UserID == nil || (caller != nil && (caller.IsStaff() || caller.ID == *order.UserID)) {
		return order, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "order belongs to another user")
}

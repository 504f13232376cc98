package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// Repository persists the checkout attempt ledger and the purchased order a
// checkout finalizes into.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAttempt(ctx context.Context, outstandingOrderID uuid.UUID) (*models.CheckoutAttempt, error)
	SavePending(ctx context.Context, attempt *models.CheckoutAttempt) error
	MarkCharged(ctx context.Context, outstandingOrderID uuid.UUID, transactionID string, amountCents int64) error
	MarkCompleted(ctx context.Context, outstandingOrderID, purchasedOrderID uuid.UUID) error
	RecordError(ctx context.Context, outstandingOrderID uuid.UUID, message string) error
	DeleteAttempt(ctx context.Context, outstandingOrderID uuid.UUID) error
	ListChargedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.CheckoutAttempt, error)

	CreatePurchasedOrder(ctx context.Context, order *models.PurchasedOrder) error
	CreatePurchasedItem(ctx context.Context, item *models.PurchasedConstructedItem, categoryItems []models.PurchasedConstructedItemCategoryItem, modifiers []models.PurchasedConstructedItemModifier) error
	CreatePurchasedOffers(ctx context.Context, offers []models.PurchasedOrderOffer) error
	FindPurchasedOrder(ctx context.Context, id uuid.UUID) (*models.PurchasedOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAttempt(ctx context.Context, outstandingOrderID uuid.UUID) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	if err := r.db.WithContext(ctx).
		First(&attempt, "outstanding_order_id = ?", outstandingOrderID).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// SavePending inserts the attempt or refreshes the amount of a pending one.
// The idempotency key of an existing row is kept. Charged and completed rows
// are never downgraded.
func (r *repository) SavePending(ctx context.Context, attempt *models.CheckoutAttempt) error {
	attempt.Status = enums.CheckoutAttemptPending
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "outstanding_order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "amount_cents", "currency", "payment_provider", "updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "checkout_attempts", Name: "status"}, Value: enums.CheckoutAttemptPending},
			}},
		}).
		Create(attempt).Error
}

func (r *repository) MarkCharged(ctx context.Context, outstandingOrderID uuid.UUID, transactionID string, amountCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("outstanding_order_id = ? AND status = ?", outstandingOrderID, enums.CheckoutAttemptPending).
		Updates(map[string]any{
			"status":         enums.CheckoutAttemptCharged,
			"transaction_id": transactionID,
			"amount_cents":   amountCents,
			"last_error":     nil,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *repository) MarkCompleted(ctx context.Context, outstandingOrderID, purchasedOrderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("outstanding_order_id = ?", outstandingOrderID).
		Updates(map[string]any{
			"status":             enums.CheckoutAttemptCompleted,
			"purchased_order_id": purchasedOrderID,
			"last_error":         nil,
			"updated_at":         time.Now().UTC(),
		}).Error
}

func (r *repository) RecordError(ctx context.Context, outstandingOrderID uuid.UUID, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("outstanding_order_id = ?", outstandingOrderID).
		Updates(map[string]any{
			"last_error": message,
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteAttempt releases a pending attempt so the order can be retried.
func (r *repository) DeleteAttempt(ctx context.Context, outstandingOrderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("outstanding_order_id = ? AND status = ?", outstandingOrderID, enums.CheckoutAttemptPending).
		Delete(&models.CheckoutAttempt{}).Error
}

// ListChargedBefore returns attempts stuck between charge and finalization.
func (r *repository) ListChargedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.CheckoutAttempt, error) {
	var attempts []models.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.CheckoutAttemptCharged, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// CreatePurchasedOrder inserts the order and reloads it to pick up the
// database-assigned number.
func (r *repository) CreatePurchasedOrder(ctx context.Context, order *models.PurchasedOrder) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(order).Error; err != nil {
		return err
	}
	return db.First(order, "id = ?", order.ID).Error
}

func (r *repository) CreatePurchasedItem(ctx context.Context, item *models.PurchasedConstructedItem, categoryItems []models.PurchasedConstructedItemCategoryItem, modifiers []models.PurchasedConstructedItemModifier) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(item).Error; err != nil {
		return err
	}
	for i := range categoryItems {
		categoryItems[i].PurchasedConstructedItemID = item.ID
	}
	for i := range modifiers {
		modifiers[i].PurchasedConstructedItemID = item.ID
	}
	if len(categoryItems) > 0 {
		if err := db.Create(&categoryItems).Error; err != nil {
			return err
		}
	}
	if len(modifiers) > 0 {
		if err := db.Create(&modifiers).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) CreatePurchasedOffers(ctx context.Context, offers []models.PurchasedOrderOffer) error {
	if len(offers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&offers).Error
}

func (r *repository) FindPurchasedOrder(ctx context.Context, id uuid.UUID) (*models.PurchasedOrder, error) {
	var order models.PurchasedOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

package outstandingorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

// Repository persists outstanding orders, their lines and applied offers.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, order *models.OutstandingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OutstandingOrder, error) {
	var order models.OutstandingOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OutstandingOrder, error) {
	var orders []models.OutstandingOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListIdleSince returns orders untouched since cutoff, oldest first.
func (r *Repository) ListIdleSince(ctx context.Context, cutoff time.Time, limit int) ([]models.OutstandingOrder, error) {
	var orders []models.OutstandingOrder
	err := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.OutstandingOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Touch bumps updated_at so idle detection sees the latest edit.
func (r *Repository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OutstandingOrder{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *Repository) Lines(ctx context.Context, orderID uuid.UUID) ([]models.OutstandingOrderConstructedItem, error) {
	var lines []models.OutstandingOrderConstructedItem
	err := r.db.WithContext(ctx).
		Where("outstanding_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// FindLine returns the line holding constructedItemID in any order.
func (r *Repository) FindLine(ctx context.Context, constructedItemID uuid.UUID) (*models.OutstandingOrderConstructedItem, error) {
	var line models.OutstandingOrderConstructedItem
	if err := r.db.WithContext(ctx).
		Where("constructed_item_id = ?", constructedItemID).
		First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) InsertLine(ctx context.Context, line *models.OutstandingOrderConstructedItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *Repository) UpdateLineQuantity(ctx context.Context, orderID, constructedItemID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OutstandingOrderConstructedItem{}).
		Where("outstanding_order_id = ? AND constructed_item_id = ?", orderID, constructedItemID).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteLine(ctx context.Context, orderID, constructedItemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("outstanding_order_id = ? AND constructed_item_id = ?", orderID, constructedItemID).
		Delete(&models.OutstandingOrderConstructedItem{}).Error
}

func (r *Repository) Offers(ctx context.Context, orderID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Joins("JOIN outstanding_order_offers ON outstanding_order_offers.offer_id = offers.id").
		Where("outstanding_order_offers.outstanding_order_id = ?", orderID).
		Order("outstanding_order_offers.created_at ASC").
		Find(&offers).Error
	return offers, err
}

func (r *Repository) AttachOffer(ctx context.Context, orderID, offerID uuid.UUID) error {
	row := models.OutstandingOrderOffer{OutstandingOrderID: orderID, OfferID: offerID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *Repository) DetachOffer(ctx context.Context, orderID, offerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("outstanding_order_id = ? AND offer_id = ?", orderID, offerID).
		Delete(&models.OutstandingOrderOffer{}).Error
}

// Delete removes the order with its lines and offers.
func (r *Repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("outstanding_order_id = ?", orderID).Delete(&models.OutstandingOrderConstructedItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("outstanding_order_id = ?", orderID).Delete(&models.OutstandingOrderOffer{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", orderID).Delete(&models.OutstandingOrder{}).Error
}

package purchasedorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	"github.com/angelmondragon/restaurant-backend/pkg/pagination"
)

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

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchasedOrder, error) {
	var order models.PurchasedOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListPurchasedBetween returns orders purchased in [from, to), by number.
func (r *Repository) ListPurchasedBetween(ctx context.Context, from, to time.Time) ([]models.PurchasedOrder, error) {
	var orders []models.PurchasedOrder
	err := r.db.WithContext(ctx).
		Where("purchased_at >= ? AND purchased_at < ?", from, to).
		Order("number ASC").
		Find(&orders).Error
	return orders, err
}

// ListForUser pages a user's orders newest first using a created_at/id cursor.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.PurchasedOrder, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var orders []models.PurchasedOrder
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *Repository) ListConstructedItems(ctx context.Context, orderID uuid.UUID) ([]models.PurchasedConstructedItem, error) {
	var items []models.PurchasedConstructedItem
	err := r.db.WithContext(ctx).
		Where("purchased_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *Repository) FindConstructedItem(ctx context.Context, orderID, id uuid.UUID) (*models.PurchasedConstructedItem, error) {
	var item models.PurchasedConstructedItem
	if err := r.db.WithContext(ctx).
		First(&item, "id = ? AND purchased_order_id = ?", id, orderID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// categorizedRow is a paid selection with the name of its category.
type categorizedRow struct {
	models.PurchasedConstructedItemCategoryItem
	CategoryName string `gorm:"column:category_name"`
}

func (r *Repository) categorizedRows(ctx context.Context, purchasedItemID uuid.UUID) ([]categorizedRow, error) {
	var rows []categorizedRow
	err := r.db.WithContext(ctx).
		Table("purchased_constructed_item_category_items AS p").
		Select("p.*, categories.name AS category_name").
		Joins("JOIN categories ON categories.id = p.category_id").
		Where("p.purchased_constructed_item_id = ?", purchasedItemID).
		Order("categories.created_at ASC").
		Order("p.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) paidModifiers(ctx context.Context, purchasedItemID uuid.UUID) ([]models.PurchasedConstructedItemModifier, error) {
	var modifiers []models.PurchasedConstructedItemModifier
	err := r.db.WithContext(ctx).
		Where("purchased_constructed_item_id = ?", purchasedItemID).
		Order("created_at ASC").
		Find(&modifiers).Error
	return modifiers, err
}

func (r *Repository) Offers(ctx context.Context, orderID uuid.UUID) ([]models.PurchasedOrderOffer, error) {
	var offers []models.PurchasedOrderOffer
	err := r.db.WithContext(ctx).
		Where("purchased_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&offers).Error
	return offers, err
}

// UpdateProgress moves the order from one progress value to another. It
// affects no rows if the order is no longer at from.
func (r *Repository) UpdateProgress(ctx context.Context, id uuid.UUID, from, to enums.OrderProgress) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PurchasedOrder{}).
		Where("id = ? AND progress = ?", id, from).
		Updates(map[string]any{"progress": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

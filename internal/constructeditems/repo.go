package constructeditems

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

// Repository persists constructed items and their selections.
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

func (r *Repository) Create(ctx context.Context, item *models.ConstructedItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ConstructedItem, error) {
	var item models.ConstructedItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ConstructedItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.ConstructedItem
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// ListForUser returns the user's constructed items, newest first. A non-nil
// favorite filters on is_favorite.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, favorite *bool) ([]models.ConstructedItem, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if favorite != nil {
		query = query.Where("is_favorite = ?", *favorite)
	}
	var items []models.ConstructedItem
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ConstructedItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Touch bumps updated_at so list ordering reflects the latest edit.
func (r *Repository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ConstructedItem{}).
		Where("id = ?", id).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// AttachCategoryItem is a no-op when the pairing is already attached.
func (r *Repository) AttachCategoryItem(ctx context.Context, constructedItemID, categoryItemID uuid.UUID) error {
	row := models.ConstructedItemCategoryItem{
		ConstructedItemID: constructedItemID,
		CategoryItemID:    categoryItemID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// DetachCategoryItem removes the selection together with every modifier
// tagged to it.
func (r *Repository) DetachCategoryItem(ctx context.Context, constructedItemID, categoryItemID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("constructed_item_id = ? AND category_item_id = ?", constructedItemID, categoryItemID).
		Delete(&models.ConstructedItemModifier{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("constructed_item_id = ? AND category_item_id = ?", constructedItemID, categoryItemID).
		Delete(&models.ConstructedItemCategoryItem{}).Error
}

func (r *Repository) AttachModifier(ctx context.Context, constructedItemID, categoryItemID, modifierID uuid.UUID) error {
	row := models.ConstructedItemModifier{
		ConstructedItemID: constructedItemID,
		ModifierID:        modifierID,
		CategoryItemID:    categoryItemID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *Repository) FindModifierSelection(ctx context.Context, constructedItemID, modifierID uuid.UUID) (*models.ConstructedItemModifier, error) {
	var row models.ConstructedItemModifier
	if err := r.db.WithContext(ctx).
		Where("constructed_item_id = ? AND modifier_id = ?", constructedItemID, modifierID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) DetachModifier(ctx context.Context, constructedItemID, modifierID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("constructed_item_id = ? AND modifier_id = ?", constructedItemID, modifierID).
		Delete(&models.ConstructedItemModifier{}).Error
}

func (r *Repository) CountModifiersFor(ctx context.Context, constructedItemID, categoryItemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConstructedItemModifier{}).
		Where("constructed_item_id = ? AND category_item_id = ?", constructedItemID, categoryItemID).
		Count(&count).Error
	return count, err
}

// CountOrphanModifiers counts modifiers whose parent selection is missing.
// It is always zero unless a write path skipped the cascade.
func (r *Repository) CountOrphanModifiers(ctx context.Context, constructedItemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConstructedItemModifier{}).
		Where("constructed_item_modifiers.constructed_item_id = ?", constructedItemID).
		Where(`NOT EXISTS (SELECT 1 FROM constructed_item_category_items p
WHERE p.constructed_item_id = constructed_item_modifiers.constructed_item_id
AND p.category_item_id = constructed_item_modifiers.category_item_id)`).
		Count(&count).Error
	return count, err
}

// Delete removes a constructed item and every selection on it.
func (r *Repository) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("constructed_item_id IN ?", ids).Delete(&models.ConstructedItemModifier{}).Error; err != nil {
		return err
	}
	if err := db.Where("constructed_item_id IN ?", ids).Delete(&models.ConstructedItemCategoryItem{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&models.ConstructedItem{}).Error
}

package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/repo"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

const categoryItemSelect = `category_items.id, category_items.category_id, category_items.item_id,
items.name AS item_name, category_items.description, category_items.price_cents,
category_items.minimum_modifiers, category_items.maximum_modifiers,
items.availability AS item_availability, categories.availability AS category_availability`

const modifierSelect = `modifiers.id, modifiers.category_item_id, modifiers.name, modifiers.price_cents,
modifiers.availability, items.availability AS item_availability,
categories.availability AS category_availability`

// Repository reads the menu tree.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) ListRootCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.DB(ctx).
		Where("parent_category_id IS NULL").
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *Repository) ListSubcategories(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := r.DB(ctx).
		Where("parent_category_id = ?", parentID).
		Find(&categories).Error
	return categories, err
}

// ListCategories returns every category, used to build a Tree.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.DB(ctx).Find(&categories).Error
	return categories, err
}

func (r *Repository) CountSubcategories(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Category{}).
		Where("parent_category_id = ?", parentID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountCategoryItems(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.CategoryItem{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

func (r *Repository) categoryItemQuery(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("category_items").
		Select(categoryItemSelect).
		Joins("JOIN items ON items.id = category_items.item_id").
		Joins("JOIN categories ON categories.id = category_items.category_id")
}

func (r *Repository) ListCategoryItems(ctx context.Context, categoryID uuid.UUID) ([]CategoryItemView, error) {
	return repo.ScanViews(r.categoryItemQuery(ctx).
		Where("category_items.category_id = ?", categoryID).
		Order("items.name ASC"), categoryItemRow.view)
}

// FindCategoryItems loads the given pairings. Missing ids are simply absent
// from the result.
func (r *Repository) FindCategoryItems(ctx context.Context, ids []uuid.UUID) ([]CategoryItemView, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return repo.ScanViews(r.categoryItemQuery(ctx).Where("category_items.id IN ?", ids), categoryItemRow.view)
}

func (r *Repository) modifierQuery(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("modifiers").
		Select(modifierSelect).
		Joins("JOIN category_items ON category_items.id = modifiers.category_item_id").
		Joins("JOIN items ON items.id = category_items.item_id").
		Joins("JOIN categories ON categories.id = category_items.category_id")
}

func (r *Repository) ListModifiers(ctx context.Context, categoryItemID uuid.UUID) ([]ModifierView, error) {
	return repo.ScanViews(r.modifierQuery(ctx).
		Where("modifiers.category_item_id = ?", categoryItemID).
		Order("modifiers.name ASC"), modifierRow.view)
}

func (r *Repository) FindModifiers(ctx context.Context, ids []uuid.UUID) ([]ModifierView, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return repo.ScanViews(r.modifierQuery(ctx).Where("modifiers.id IN ?", ids), modifierRow.view)
}

// AttachedCategoryItems returns the category items selected on each of the
// given constructed items, keyed by constructed item id.
func (r *Repository) AttachedCategoryItems(ctx context.Context, constructedItemIDs []uuid.UUID) (map[uuid.UUID][]CategoryItemView, error) {
	if len(constructedItemIDs) == 0 {
		return map[uuid.UUID][]CategoryItemView{}, nil
	}
	return repo.GroupViews(r.DB(ctx).
		Table("constructed_item_category_items").
		Select("constructed_item_category_items.constructed_item_id, "+categoryItemSelect).
		Joins("JOIN category_items ON category_items.id = constructed_item_category_items.category_item_id").
		Joins("JOIN items ON items.id = category_items.item_id").
		Joins("JOIN categories ON categories.id = category_items.category_id").
		Where("constructed_item_category_items.constructed_item_id IN ?", constructedItemIDs).
		Order("constructed_item_category_items.created_at ASC"),
		func(row categoryItemRow) uuid.UUID { return row.ConstructedItemID }, categoryItemRow.view)
}

// AttachedModifiers returns the modifiers selected on each of the given
// constructed items, keyed by constructed item id.
func (r *Repository) AttachedModifiers(ctx context.Context, constructedItemIDs []uuid.UUID) (map[uuid.UUID][]ModifierView, error) {
	if len(constructedItemIDs) == 0 {
		return map[uuid.UUID][]ModifierView{}, nil
	}
	return repo.GroupViews(r.DB(ctx).
		Table("constructed_item_modifiers").
		Select("constructed_item_modifiers.constructed_item_id, "+modifierSelect).
		Joins("JOIN modifiers ON modifiers.id = constructed_item_modifiers.modifier_id").
		Joins("JOIN category_items ON category_items.id = modifiers.category_item_id").
		Joins("JOIN items ON items.id = category_items.item_id").
		Joins("JOIN categories ON categories.id = category_items.category_id").
		Where("constructed_item_modifiers.constructed_item_id IN ?", constructedItemIDs).
		Order("constructed_item_modifiers.created_at ASC"),
		func(row modifierRow) uuid.UUID { return row.ConstructedItemID }, modifierRow.view)
}

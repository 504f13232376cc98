// Package catalog serves the read side of the menu: categories, their
// subcategories, the items listed under them and each item's modifiers.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

// Service exposes catalog lookups. Every operation is read-only.
type Service interface {
	RootCategories(ctx context.Context) ([]models.Category, error)
	Category(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Subcategories(ctx context.Context, categoryID uuid.UUID) ([]models.Category, error)
	CategoryItems(ctx context.Context, categoryID uuid.UUID) ([]CategoryItemView, error)
	Modifiers(ctx context.Context, categoryItemID uuid.UUID) ([]ModifierView, error)
	IsLeafCategory(ctx context.Context, category models.Category) (bool, error)
	Tree(ctx context.Context) (*Tree, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RootCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListRootCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list root categories")
	}
	return categories, nil
}

func (s *service) Category(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func (s *service) Subcategories(ctx context.Context, categoryID uuid.UUID) ([]models.Category, error) {
	if _, err := s.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	categories, err := s.repo.ListSubcategories(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subcategories")
	}
	return categories, nil
}

func (s *service) CategoryItems(ctx context.Context, categoryID uuid.UUID) ([]CategoryItemView, error) {
	if _, err := s.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListCategoryItems(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category items")
	}
	return items, nil
}

func (s *service) Modifiers(ctx context.Context, categoryItemID uuid.UUID) ([]ModifierView, error) {
	if categoryItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category item id is required")
	}
	found, err := s.repo.FindCategoryItems(ctx, []uuid.UUID{categoryItemID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category item")
	}
	if len(found) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category item not found")
	}
	modifiers, err := s.repo.ListModifiers(ctx, categoryItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list modifiers")
	}
	return modifiers, nil
}

// IsLeafCategory reports whether the category has no subcategories, which
// makes its items directly purchasable.
func (s *service) IsLeafCategory(ctx context.Context, category models.Category) (bool, error) {
	count, err := s.repo.CountSubcategories(ctx, category.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count subcategories")
	}
	return count == 0, nil
}

func (s *service) Tree(ctx context.Context) (*Tree, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return NewTree(categories), nil
}

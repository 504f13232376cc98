// Package constructeditems builds customer-assembled items from category
// selections and modifiers, and validates them against category requirements.
package constructeditems

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service builds constructed items. Caller is the local user id of the
// authenticated requester, nil for guests; items with an owner are only
// visible to that owner.
type Service interface {
	Create(ctx context.Context, caller *uuid.UUID, input CreateInput) (*Detail, error)
	Get(ctx context.Context, caller *uuid.UUID, id uuid.UUID) (*Detail, error)
	Update(ctx context.Context, caller *uuid.UUID, id uuid.UUID, input UpdateInput) (*Detail, error)
	ListForUser(ctx context.Context, userID uuid.UUID, favorite *bool) ([]Detail, error)

	AttachCategoryItems(ctx context.Context, caller *uuid.UUID, id uuid.UUID, categoryItemIDs []uuid.UUID) (*Detail, error)
	DetachCategoryItem(ctx context.Context, caller *uuid.UUID, id, categoryItemID uuid.UUID) (*Detail, error)
	AttachModifiers(ctx context.Context, caller *uuid.UUID, id uuid.UUID, modifierIDs []uuid.UUID) (*Detail, error)
	DetachModifier(ctx context.Context, caller *uuid.UUID, id, modifierID uuid.UUID) (*Detail, error)
	ListCategoryItems(ctx context.Context, caller *uuid.UUID, id uuid.UUID, categoryID *uuid.UUID) ([]catalog.CategoryItemView, error)
	ListModifiers(ctx context.Context, caller *uuid.UUID, id uuid.UUID) ([]catalog.ModifierView, error)

	IsSatisfied(ctx context.Context, id uuid.UUID) (bool, error)
	Check(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups the builder's dependencies.
type ServiceParams struct {
	Tx      txRunner
	Repo    *Repository
	Catalog *catalog.Repository
}

type service struct {
	tx      txRunner
	repo    *Repository
	catalog *catalog.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("constructed item repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{tx: params.Tx, repo: params.Repo, catalog: params.Catalog}, nil
}

// scope binds both repositories to one transaction.
type scope struct {
	repo    *Repository
	catalog *catalog.Repository
}

func (s *service) scoped(tx *gorm.DB) scope {
	return scope{repo: s.repo.WithTx(tx), catalog: s.catalog.WithTx(tx)}
}

func (s *service) Create(ctx context.Context, caller *uuid.UUID, input CreateInput) (*Detail, error) {
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if input.UserID != nil && (caller == nil || *caller != *input.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "constructed items can only be created for the signed-in user")
	}

	var detail *Detail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sc := s.scoped(tx)
		root, err := sc.catalog.FindCategory(ctx, input.CategoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		if !root.IsConstructable {
			direct, err := sc.catalog.CountCategoryItems(ctx, root.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category items")
			}
			if direct == 0 {
				return pkgerrors.New(pkgerrors.CodeInvalidCategory, "category is not constructable")
			}
		}

		item := &models.ConstructedItem{
			CategoryID: root.ID,
			UserID:     input.UserID,
			Name:       input.Name,
		}
		if err := sc.repo.Create(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create constructed item")
		}
		detail, err = sc.detail(ctx, item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) Get(ctx context.Context, caller *uuid.UUID, id uuid.UUID) (*Detail, error) {
	sc := s.scoped(nil)
	item, err := sc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return sc.detail(ctx, item)
}

func (s *service) Update(ctx context.Context, caller *uuid.UUID, id uuid.UUID, input UpdateInput) (*Detail, error) {
	var detail *Detail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sc := s.scoped(tx)
		item, err := sc.load(ctx, caller, id)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if input.UserID != nil {
			switch {
			case item.UserID != nil && *item.UserID != *input.UserID:
				return pkgerrors.New(pkgerrors.CodeConflict, "constructed item already belongs to another user")
			case caller == nil || *caller != *input.UserID:
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "constructed items can only be claimed by the signed-in user")
			case item.UserID == nil:
				updates["user_id"] = *input.UserID
				item.UserID = input.UserID
			}
		}
		if input.IsFavorite != nil {
			updates["is_favorite"] = *input.IsFavorite
			item.IsFavorite = *input.IsFavorite
		}
		if input.Name != nil {
			updates["name"] = *input.Name
			item.Name = input.Name
		}
		if err := sc.repo.Update(ctx, item.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update constructed item")
		}
		detail, err = sc.detail(ctx, item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, favorite *bool) ([]Detail, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	items, err := s.repo.ListForUser(ctx, userID, favorite)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list constructed items")
	}
	return s.scoped(nil).details(ctx, items)
}

// AttachCategoryItems selects each category item. Every id must exist and
// belong to the root category or one of its direct subcategories; ids that
// are already attached are left alone.
func (s *service) AttachCategoryItems(ctx context.Context, caller *uuid.UUID, id uuid.UUID, categoryItemIDs []uuid.UUID) (*Detail, error) {
	if len(categoryItemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one category item id is required")
	}
	return s.mutate(ctx, caller, id, func(sc scope, item *models.ConstructedItem) error {
		found, err := sc.catalog.FindCategoryItems(ctx, categoryItemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category items")
		}
		byID := make(map[uuid.UUID]catalog.CategoryItemView, len(found))
		for _, ci := range found {
			byID[ci.ID] = ci
		}
		allowed, err := sc.allowedCategories(ctx, item.CategoryID)
		if err != nil {
			return err
		}
		for _, ciID := range categoryItemIDs {
			ci, ok := byID[ciID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("category item %s not found", ciID))
			}
			if _, ok := allowed[ci.CategoryID]; !ok {
				return pkgerrors.New(pkgerrors.CodeInvalidAttachment, fmt.Sprintf("category item %s is not part of this constructed item's category", ciID))
			}
			if err := sc.repo.AttachCategoryItem(ctx, item.ID, ci.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach category item")
			}
		}
		return nil
	})
}

// DetachCategoryItem removes the selection and every modifier tagged to it.
func (s *service) DetachCategoryItem(ctx context.Context, caller *uuid.UUID, id, categoryItemID uuid.UUID) (*Detail, error) {
	return s.mutate(ctx, caller, id, func(sc scope, item *models.ConstructedItem) error {
		if err := sc.repo.DetachCategoryItem(ctx, item.ID, categoryItemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach category item")
		}
		return nil
	})
}

// AttachModifiers selects each modifier, attaching its category item first
// when the item is not yet selected.
func (s *service) AttachModifiers(ctx context.Context, caller *uuid.UUID, id uuid.UUID, modifierIDs []uuid.UUID) (*Detail, error) {
	if len(modifierIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one modifier id is required")
	}
	return s.mutate(ctx, caller, id, func(sc scope, item *models.ConstructedItem) error {
		found, err := sc.catalog.FindModifiers(ctx, modifierIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load modifiers")
		}
		byID := make(map[uuid.UUID]catalog.ModifierView, len(found))
		parentIDs := make([]uuid.UUID, 0, len(found))
		for _, m := range found {
			byID[m.ID] = m
			parentIDs = append(parentIDs, m.CategoryItemID)
		}
		parents, err := sc.catalog.FindCategoryItems(ctx, parentIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category items")
		}
		parentCategory := make(map[uuid.UUID]uuid.UUID, len(parents))
		for _, p := range parents {
			parentCategory[p.ID] = p.CategoryID
		}
		allowed, err := sc.allowedCategories(ctx, item.CategoryID)
		if err != nil {
			return err
		}

		for _, modID := range modifierIDs {
			m, ok := byID[modID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("modifier %s not found", modID))
			}
			if _, ok := allowed[parentCategory[m.CategoryItemID]]; !ok {
				return pkgerrors.New(pkgerrors.CodeInvalidAttachment, fmt.Sprintf("modifier %s is not part of this constructed item's category", modID))
			}
			if err := sc.repo.AttachCategoryItem(ctx, item.ID, m.CategoryItemID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach category item")
			}
			if err := sc.repo.AttachModifier(ctx, item.ID, m.CategoryItemID, m.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach modifier")
			}
		}
		return nil
	})
}

// DetachModifier removes the modifier. When it was the last modifier of a
// category item that declares minimum_modifiers, the category item goes too.
func (s *service) DetachModifier(ctx context.Context, caller *uuid.UUID, id, modifierID uuid.UUID) (*Detail, error) {
	return s.mutate(ctx, caller, id, func(sc scope, item *models.ConstructedItem) error {
		selection, err := sc.repo.FindModifierSelection(ctx, item.ID, modifierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load modifier selection")
		}
		if err := sc.repo.DetachModifier(ctx, item.ID, modifierID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach modifier")
		}

		remaining, err := sc.repo.CountModifiersFor(ctx, item.ID, selection.CategoryItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count modifiers")
		}
		if remaining > 0 {
			return nil
		}
		parents, err := sc.catalog.FindCategoryItems(ctx, []uuid.UUID{selection.CategoryItemID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category item")
		}
		if len(parents) == 1 && parents[0].MinimumModifiers != nil {
			if err := sc.repo.DetachCategoryItem(ctx, item.ID, selection.CategoryItemID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach category item")
			}
		}
		return nil
	})
}

func (s *service) ListCategoryItems(ctx context.Context, caller *uuid.UUID, id uuid.UUID, categoryID *uuid.UUID) ([]catalog.CategoryItemView, error) {
	sc := s.scoped(nil)
	item, err := sc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	attached, err := sc.catalog.AttachedCategoryItems(ctx, []uuid.UUID{item.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attached category items")
	}
	out := make([]catalog.CategoryItemView, 0, len(attached[item.ID]))
	for _, ci := range attached[item.ID] {
		if categoryID != nil && ci.CategoryID != *categoryID {
			continue
		}
		out = append(out, ci)
	}
	return out, nil
}

func (s *service) ListModifiers(ctx context.Context, caller *uuid.UUID, id uuid.UUID) ([]catalog.ModifierView, error) {
	sc := s.scoped(nil)
	item, err := sc.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	attached, err := sc.catalog.AttachedModifiers(ctx, []uuid.UUID{item.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attached modifiers")
	}
	return append([]catalog.ModifierView{}, attached[item.ID]...), nil
}

// IsSatisfied is advisory: it never blocks attach or detach.
func (s *service) IsSatisfied(ctx context.Context, id uuid.UUID) (bool, error) {
	sc := s.scoped(nil)
	item, err := sc.find(ctx, id)
	if err != nil {
		return false, err
	}
	selections, err := sc.selections(ctx, []models.ConstructedItem{*item})
	if err != nil {
		return false, err
	}
	return selections[item.ID].MinimumsMet(), nil
}

// Check enforces every requirement and returns REQUIREMENTS_UNMET listing the
// unmet rules.
func (s *service) Check(ctx context.Context, id uuid.UUID) error {
	sc := s.scoped(nil)
	item, err := sc.find(ctx, id)
	if err != nil {
		return err
	}
	selections, err := sc.selections(ctx, []models.ConstructedItem{*item})
	if err != nil {
		return err
	}
	return RequirementsError(item.ID, selections[item.ID].Violations())
}

func (s *service) mutate(ctx context.Context, caller *uuid.UUID, id uuid.UUID, fn func(sc scope, item *models.ConstructedItem) error) (*Detail, error) {
	var detail *Detail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sc := s.scoped(tx)
		item, err := sc.load(ctx, caller, id)
		if err != nil {
			return err
		}
		if err := fn(sc, item); err != nil {
			return err
		}
		if err := sc.repo.Touch(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch constructed item")
		}
		detail, err = sc.detail(ctx, item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (sc scope) find(ctx context.Context, id uuid.UUID) (*models.ConstructedItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "constructed item id is required")
	}
	item, err := sc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "constructed item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load constructed item")
	}
	return item, nil
}

// load finds the item and verifies the caller may use it.
func (sc scope) load(ctx context.Context, caller *uuid.UUID, id uuid.UUID) (*models.ConstructedItem, error) {
	item, err := sc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := VerifyOwner(item, caller); err != nil {
		return nil, err
	}
	return item, nil
}

// VerifyOwner allows ownerless items for anyone and owned items only for
// their owner.
func VerifyOwner(item *models.ConstructedItem, caller *uuid.UUID) error {
	if item.UserID == nil {
		return nil
	}
	if caller == nil || *caller != *item.UserID {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "constructed item belongs to another user")
	}
	return nil
}

// allowedCategories is the root plus its direct subcategories.
func (sc scope) allowedCategories(ctx context.Context, rootID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	subs, err := sc.catalog.ListSubcategories(ctx, rootID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subcategories")
	}
	allowed := make(map[uuid.UUID]struct{}, len(subs)+1)
	allowed[rootID] = struct{}{}
	for _, sub := range subs {
		allowed[sub.ID] = struct{}{}
	}
	return allowed, nil
}

func (sc scope) detail(ctx context.Context, item *models.ConstructedItem) (*Detail, error) {
	out, err := sc.details(ctx, []models.ConstructedItem{*item})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (sc scope) details(ctx context.Context, items []models.ConstructedItem) ([]Detail, error) {
	selections, err := sc.selections(ctx, items)
	if err != nil {
		return nil, err
	}
	out := make([]Detail, 0, len(items))
	for _, item := range items {
		out = append(out, NewDetail(item, selections[item.ID]))
	}
	return out, nil
}

// Selections loads the validator input for each constructed item.
func (r *Repository) Selections(ctx context.Context, catalogRepo *catalog.Repository, items []models.ConstructedItem) (map[uuid.UUID]Selection, error) {
	return scope{repo: r, catalog: catalogRepo}.selections(ctx, items)
}

func (sc scope) selections(ctx context.Context, items []models.ConstructedItem) (map[uuid.UUID]Selection, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	categoryItems, err := sc.catalog.AttachedCategoryItems(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attached category items")
	}
	modifiers, err := sc.catalog.AttachedModifiers(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attached modifiers")
	}

	subsByRoot := map[uuid.UUID][]models.Category{}
	out := make(map[uuid.UUID]Selection, len(items))
	for _, item := range items {
		subs, ok := subsByRoot[item.CategoryID]
		if !ok {
			subs, err = sc.catalog.ListSubcategories(ctx, item.CategoryID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subcategories")
			}
			subsByRoot[item.CategoryID] = subs
		}
		out[item.ID] = Selection{
			Subcategories: subs,
			CategoryItems: categoryItems[item.ID],
			Modifiers:     modifiers[item.ID],
		}
	}
	return out, nil
}

package testdb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// Seeder inserts catalog rows.
type Seeder struct {
	t  *testing.T
	db *gorm.DB
}

func NewSeeder(t *testing.T, db *gorm.DB) *Seeder {
	return &Seeder{t: t, db: db}
}

func (s *Seeder) Category(name string, parent *models.Category, mutate ...func(*models.Category)) models.Category {
	s.t.Helper()
	category := models.Category{Name: name, Availability: enums.AvailabilityAvailable}
	if parent != nil {
		category.ParentCategoryID = &parent.ID
	}
	for _, fn := range mutate {
		fn(&category)
	}
	require.NoError(s.t, s.db.Create(&category).Error)
	return category
}

// CategoryItem creates an Item and lists it under category at the given price.
func (s *Seeder) CategoryItem(category models.Category, name string, price *int64, mutate ...func(*models.CategoryItem)) models.CategoryItem {
	s.t.Helper()
	item := models.Item{Name: name, Availability: enums.AvailabilityAvailable}
	require.NoError(s.t, s.db.Create(&item).Error)
	ci := models.CategoryItem{CategoryID: category.ID, ItemID: item.ID, PriceCents: price}
	for _, fn := range mutate {
		fn(&ci)
	}
	require.NoError(s.t, s.db.Create(&ci).Error)
	return ci
}

func (s *Seeder) Modifier(ci models.CategoryItem, name string, price *int64) models.Modifier {
	s.t.Helper()
	modifier := models.Modifier{CategoryItemID: ci.ID, Name: name, PriceCents: price, Availability: enums.AvailabilityAvailable}
	require.NoError(s.t, s.db.Create(&modifier).Error)
	return modifier
}

// Cents returns a pointer to v.
func Cents(v int64) *int64 { return &v }

// Count returns a pointer to v.
func Count(v int) *int { return &v }

func (s *Seeder) Offer(code string, flat *int64, percent *int) models.Offer {
	s.t.Helper()
	offer := models.Offer{Code: code, Name: code, DiscountPriceCents: flat, DiscountPercent: percent, Availability: enums.AvailabilityAvailable}
	require.NoError(s.t, s.db.Create(&offer).Error)
	return offer
}

func (s *Seeder) User(authUID string, role enums.UserRole) models.User {
	s.t.Helper()
	user := models.User{AuthUID: authUID, Role: role}
	require.NoError(s.t, s.db.Create(&user).Error)
	return user
}

// ConstructedItem builds an item rooted at root with the given selections.
func (s *Seeder) ConstructedItem(root models.Category, owner *uuid.UUID, selections ...models.CategoryItem) models.ConstructedItem {
	s.t.Helper()
	item := models.ConstructedItem{CategoryID: root.ID, UserID: owner}
	require.NoError(s.t, s.db.Create(&item).Error)
	for _, ci := range selections {
		row := models.ConstructedItemCategoryItem{ConstructedItemID: item.ID, CategoryItemID: ci.ID}
		require.NoError(s.t, s.db.Create(&row).Error)
	}
	return item
}

package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restaurant-backend/internal/testdb"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *testdb.Seeder) {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, testdb.NewSeeder(t, conn)
}

func TestSubcategoriesAndLeafDetection(t *testing.T) {
	ctx := context.Background()
	svc, seed := newTestService(t)

	burger := seed.Category("Burger", nil, func(c *models.Category) { c.IsConstructable = true })
	toppings := seed.Category("Toppings", &burger)
	sauces := seed.Category("Sauces", &burger)

	subs, err := svc.Subcategories(ctx, burger.ID)
	require.NoError(t, err)
	ids := []uuid.UUID{subs[0].ID, subs[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{toppings.ID, sauces.ID}, ids)

	leaf, err := svc.IsLeafCategory(ctx, burger)
	require.NoError(t, err)
	assert.False(t, leaf)

	leaf, err = svc.IsLeafCategory(ctx, toppings)
	require.NoError(t, err)
	assert.True(t, leaf)

	roots, err := svc.RootCategories(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, burger.ID, roots[0].ID)
}

func TestCategoryItemsResolveAvailability(t *testing.T) {
	ctx := context.Background()
	svc, seed := newTestService(t)

	toppings := seed.Category("Toppings", nil, func(c *models.Category) {
		c.Availability = enums.AvailabilityTemporarilyUnavailable
	})
	cheese := seed.CategoryItem(toppings, "Cheese", testdb.Cents(150))
	seed.Modifier(cheese, "Extra Cheese", testdb.Cents(50))

	items, err := svc.CategoryItems(ctx, toppings.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cheese", items[0].ItemName)
	assert.Equal(t, int64(150), *items[0].PriceCents)
	assert.Equal(t, enums.AvailabilityTemporarilyUnavailable, items[0].Availability)

	modifiers, err := svc.Modifiers(ctx, cheese.ID)
	require.NoError(t, err)
	require.Len(t, modifiers, 1)
	assert.Equal(t, "Extra Cheese", modifiers[0].Name)
	assert.Equal(t, enums.AvailabilityTemporarilyUnavailable, modifiers[0].Availability)
}

func TestMissingIdsAreNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Category(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Subcategories(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.CategoryItems(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Modifiers(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceTreeMatchesRows(t *testing.T) {
	ctx := context.Background()
	svc, seed := newTestService(t)

	menu := seed.Category("Menu", nil)
	burger := seed.Category("Burger", &menu)
	toppings := seed.Category("Toppings", &burger)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)

	ancestors, err := tree.Ancestors(toppings.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{burger.ID, menu.ID}, ancestors)

	root, err := tree.Root(toppings.ID)
	require.NoError(t, err)
	assert.Equal(t, menu.ID, root)
}

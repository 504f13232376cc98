package constructeditems

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/testdb"
	"github.com/angelmondragon/restaurant-backend/pkg/db"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

type fixture struct {
	svc  Service
	repo *Repository
	conn *gorm.DB
	seed *testdb.Seeder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Tx:      db.Wrap(conn),
		Repo:    repo,
		Catalog: catalog.NewRepository(conn),
	})
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, conn: conn, seed: testdb.NewSeeder(t, conn)}
}

func constructable(c *models.Category) { c.IsConstructable = true }

func TestBurgerScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	toppings := f.seed.Category("Toppings", &burger, func(c *models.Category) { c.MinimumItems = testdb.Count(1) })
	cheese := f.seed.CategoryItem(toppings, "Cheese", testdb.Cents(150))
	extra := f.seed.Modifier(cheese, "Extra Cheese", testdb.Cents(50))

	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: burger.ID})
	require.NoError(t, err)
	assert.False(t, item.RequirementsSatisfied)
	assert.Equal(t, int64(0), item.PriceCents)

	item, err = f.svc.AttachCategoryItems(ctx, nil, item.ID, []uuid.UUID{cheese.ID})
	require.NoError(t, err)
	assert.True(t, item.RequirementsSatisfied)
	assert.Equal(t, int64(150), item.PriceCents)

	item, err = f.svc.AttachModifiers(ctx, nil, item.ID, []uuid.UUID{extra.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(200), item.PriceCents)
	require.Len(t, item.Modifiers, 1)

	item, err = f.svc.DetachCategoryItem(ctx, nil, item.ID, cheese.ID)
	require.NoError(t, err)
	assert.Empty(t, item.CategoryItems)
	assert.Empty(t, item.Modifiers)
	assert.Equal(t, int64(0), item.PriceCents)

	orphans, err := f.repo.CountOrphanModifiers(ctx, item.ID)
	require.NoError(t, err)
	assert.Zero(t, orphans)
}

func TestAttachModifierAttachesParentFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	toppings := f.seed.Category("Toppings", &burger)
	onion := f.seed.CategoryItem(toppings, "Onion", testdb.Cents(40))
	grilled := f.seed.Modifier(onion, "Grilled", testdb.Cents(25))

	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: burger.ID})
	require.NoError(t, err)

	item, err = f.svc.AttachModifiers(ctx, nil, item.ID, []uuid.UUID{grilled.ID, grilled.ID})
	require.NoError(t, err)
	require.Len(t, item.CategoryItems, 1)
	assert.Equal(t, onion.ID, item.CategoryItems[0].ID)
	require.Len(t, item.Modifiers, 1)
	assert.Equal(t, int64(65), item.PriceCents)
}

func TestAttachIsIdempotentAndDetachRestoresPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	toppings := f.seed.Category("Toppings", &burger)
	bacon := f.seed.CategoryItem(toppings, "Bacon", testdb.Cents(200))
	lettuce := f.seed.CategoryItem(toppings, "Lettuce", nil)

	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: burger.ID})
	require.NoError(t, err)
	original := item.PriceCents

	_, err = f.svc.AttachCategoryItems(ctx, nil, item.ID, []uuid.UUID{bacon.ID, lettuce.ID})
	require.NoError(t, err)
	item, err = f.svc.AttachCategoryItems(ctx, nil, item.ID, []uuid.UUID{bacon.ID})
	require.NoError(t, err)
	assert.Len(t, item.CategoryItems, 2)
	assert.Equal(t, int64(200), item.PriceCents)

	_, err = f.svc.DetachCategoryItem(ctx, nil, item.ID, bacon.ID)
	require.NoError(t, err)
	item, err = f.svc.DetachCategoryItem(ctx, nil, item.ID, lettuce.ID)
	require.NoError(t, err)
	assert.Equal(t, original, item.PriceCents)
}

func TestDetachLastModifierCascadesWhenMinimumDeclared(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	patties := f.seed.Category("Patty", &burger)
	beef := f.seed.CategoryItem(patties, "Beef", testdb.Cents(500), func(ci *models.CategoryItem) {
		ci.MinimumModifiers = testdb.Count(1)
	})
	rare := f.seed.Modifier(beef, "Rare", nil)
	medium := f.seed.Modifier(beef, "Medium", nil)
	buns := f.seed.Category("Bun", &burger)
	brioche := f.seed.CategoryItem(buns, "Brioche", testdb.Cents(100))
	toasted := f.seed.Modifier(brioche, "Toasted", nil)

	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: burger.ID})
	require.NoError(t, err)
	_, err = f.svc.AttachModifiers(ctx, nil, item.ID, []uuid.UUID{rare.ID, medium.ID, toasted.ID})
	require.NoError(t, err)

	item, err = f.svc.DetachModifier(ctx, nil, item.ID, rare.ID)
	require.NoError(t, err)
	assert.Len(t, item.CategoryItems, 2, "beef still has a modifier")

	item, err = f.svc.DetachModifier(ctx, nil, item.ID, medium.ID)
	require.NoError(t, err)
	require.Len(t, item.CategoryItems, 1, "beef requires modifiers and must cascade")
	assert.Equal(t, brioche.ID, item.CategoryItems[0].ID)

	item, err = f.svc.DetachModifier(ctx, nil, item.ID, toasted.ID)
	require.NoError(t, err)
	require.Len(t, item.CategoryItems, 1, "brioche declares no minimum and stays")

	_, err = f.svc.DetachModifier(ctx, nil, item.ID, toasted.ID)
	require.NoError(t, err)
}

func TestCreateRejectsNonConstructableCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	menu := f.seed.Category("Menu", nil)
	f.seed.Category("Drinks", &menu)
	sides := f.seed.Category("Sides", nil)
	f.seed.CategoryItem(sides, "Fries", testdb.Cents(300))

	_, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: menu.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidCategory))

	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: sides.ID})
	require.NoError(t, err)
	assert.Equal(t, sides.ID, item.CategoryID)

	_, err = f.svc.Create(ctx, nil, CreateInput{CategoryID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAttachRejectsForeignAndUnknownCategoryItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	toppings := f.seed.Category("Toppings", &burger)
	nested := f.seed.Category("Premium", &toppings)
	truffle := f.seed.CategoryItem(nested, "Truffle", testdb.Cents(900))
	salad := f.seed.Category("Salad", nil, constructable)
	kale := f.seed.CategoryItem(salad, "Kale", testdb.Cents(100))

	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: burger.ID})
	require.NoError(t, err)

	_, err = f.svc.AttachCategoryItems(ctx, nil, item.ID, []uuid.UUID{kale.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidAttachment))

	_, err = f.svc.AttachCategoryItems(ctx, nil, item.ID, []uuid.UUID{truffle.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidAttachment), "only direct subcategories are selectable")

	_, err = f.svc.AttachCategoryItems(ctx, nil, item.ID, []uuid.UUID{uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AttachModifiers(ctx, nil, item.ID, []uuid.UUID{uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AttachCategoryItems(ctx, nil, uuid.New(), []uuid.UUID{kale.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestOwnedItemsRejectOtherCallers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	owner := uuid.New()
	stranger := uuid.New()

	item, err := f.svc.Create(ctx, &owner, CreateInput{CategoryID: burger.ID, UserID: &owner})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, &stranger, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.svc.Get(ctx, nil, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Create(ctx, &stranger, CreateInput{CategoryID: burger.ID, UserID: &owner})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	got, err := f.svc.Get(ctx, &owner, item.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, *got.UserID)
}

func TestUpdateClaimsOwnershipOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: burger.ID})
	require.NoError(t, err)

	diner := uuid.New()
	other := uuid.New()
	favorite := true
	name := "My usual"

	_, err = f.svc.Update(ctx, &other, item.ID, UpdateInput{UserID: &diner})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	updated, err := f.svc.Update(ctx, &diner, item.ID, UpdateInput{UserID: &diner, IsFavorite: &favorite, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, diner, *updated.UserID)
	assert.True(t, updated.IsFavorite)
	assert.Equal(t, name, *updated.Name)

	_, err = f.svc.Update(ctx, &diner, item.ID, UpdateInput{UserID: &diner})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, &diner, item.ID, UpdateInput{UserID: &other})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	favorites, err := f.svc.ListForUser(ctx, diner, &favorite)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, item.ID, favorites[0].ID)
}

func TestListCategoryItemsFiltersBySubcategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	burger := f.seed.Category("Burger", nil, constructable)
	toppings := f.seed.Category("Toppings", &burger)
	sauces := f.seed.Category("Sauces", &burger)
	cheese := f.seed.CategoryItem(toppings, "Cheese", testdb.Cents(150))
	mayo := f.seed.CategoryItem(sauces, "Mayo", nil)

	item, err := f.svc.Create(ctx, nil, CreateInput{CategoryID: burger.ID})
	require.NoError(t, err)
	_, err = f.svc.AttachCategoryItems(ctx, nil, item.ID, []uuid.UUID{cheese.ID, mayo.ID})
	require.NoError(t, err)

	all, err := f.svc.ListCategoryItems(ctx, nil, item.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlySauces, err := f.svc.ListCategoryItems(ctx, nil, item.ID, &sauces.ID)
	require.NoError(t, err)
	require.Len(t, onlySauces, 1)
	assert.Equal(t, mayo.ID, onlySauces[0].ID)

	modifiers, err := f.svc.ListModifiers(ctx, nil, item.ID)
	require.NoError(t, err)
	assert.Empty(t, modifiers)
}

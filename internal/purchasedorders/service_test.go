package purchasedorders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/testdb"
	"github.com/angelmondragon/restaurant-backend/pkg/db"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox"
	"github.com/angelmondragon/restaurant-backend/pkg/pagination"
)

type progressRecorder struct {
	orders []models.PurchasedOrder
}

func (r *progressRecorder) PublishProgress(order models.PurchasedOrder) {
	r.orders = append(r.orders, order)
}

type fixture struct {
	svc      Service
	conn     *gorm.DB
	seed     *testdb.Seeder
	notifier *progressRecorder
	now      time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testdb.Open(t)
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	notifier := &progressRecorder{}
	svc, err := NewService(ServiceParams{
		Tx:       db.Wrap(conn),
		Repo:     NewRepository(conn),
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
		Notifier: notifier,
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn, seed: testdb.NewSeeder(t, conn), notifier: notifier, now: now}
}

func (f fixture) purchase(t *testing.T, owner *uuid.UUID, at time.Time) models.PurchasedOrder {
	t.Helper()
	order := models.PurchasedOrder{
		UserID:             owner,
		OutstandingOrderID: uuid.New(),
		PaymentProvider:    enums.PaymentProviderSquare,
		TransactionID:      "txn-" + uuid.NewString(),
		Currency:           "USD",
		SubtotalCents:      400,
		TotalCents:         400,
		ChargedCents:       400,
		PurchasedAt:        at,
		CreatedAt:          at,
	}
	require.NoError(t, f.conn.Create(&order).Error)
	require.NoError(t, f.conn.First(&order, "id = ?", order.ID).Error)
	return order
}

func TestNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	first := f.purchase(t, nil, f.now)
	second := f.purchase(t, nil, f.now)
	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
}

func TestListByDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	today := f.purchase(t, nil, f.now)
	f.purchase(t, nil, f.now.AddDate(0, 0, -1))
	earlier := f.purchase(t, nil, time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))

	orders, err := f.svc.ListByDay(ctx, "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, today.ID, orders[0].ID)

	orders, err = f.svc.ListByDay(ctx, "3-2-2026")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, earlier.ID, orders[0].ID)

	_, err = f.svc.ListByDay(ctx, "2026-03-02")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.seed.User("owner", enums.UserRoleCustomer)
	other := f.seed.User("other", enums.UserRoleCustomer)
	staff := f.seed.User("kitchen", enums.UserRoleStaff)
	order := f.purchase(t, &owner.ID, f.now)

	_, err := f.svc.Get(ctx, &other, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = f.svc.Get(ctx, nil, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	got, err := f.svc.Get(ctx, &owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, got.Number)
	_, err = f.svc.Get(ctx, &staff, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, &staff, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	staff := f.seed.User("kitchen", enums.UserRoleStaff)
	order := f.purchase(t, nil, f.now)

	detail, err := f.svc.UpdateProgress(ctx, &staff, order.ID, enums.OrderProgressPreparing)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderProgressPreparing, detail.Progress)

	_, err = f.svc.UpdateProgress(ctx, &staff, order.ID, enums.OrderProgressPreparing)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = f.svc.UpdateProgress(ctx, &staff, order.ID, enums.OrderProgressPending)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = f.svc.UpdateProgress(ctx, &staff, order.ID, "isBurnt")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	detail, err = f.svc.UpdateProgress(ctx, &staff, order.ID, enums.OrderProgressCompleted)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderProgressCompleted, detail.Progress)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventOrderProgressUpdated).Find(&events).Error)
	assert.Len(t, events, 2)
	require.Len(t, f.notifier.orders, 2)
	assert.Equal(t, enums.OrderProgressCompleted, f.notifier.orders[1].Progress)
}

func TestCategorizedItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	burger := f.seed.Category("Burger", nil)
	buns := f.seed.Category("Buns", &burger)
	toppings := f.seed.Category("Toppings", &burger)
	order := f.purchase(t, nil, f.now)

	line := models.PurchasedConstructedItem{
		PurchasedOrderID: order.ID, ConstructedItemID: uuid.New(), CategoryID: burger.ID,
		Quantity: 1, UnitPriceCents: 450, TotalPriceCents: 450,
	}
	require.NoError(t, f.conn.Create(&line).Error)
	bun := models.PurchasedConstructedItemCategoryItem{
		PurchasedConstructedItemID: line.ID, CategoryItemID: uuid.New(), CategoryID: buns.ID, ItemName: "Brioche", PaidPriceCents: 100,
	}
	cheese := models.PurchasedConstructedItemCategoryItem{
		PurchasedConstructedItemID: line.ID, CategoryItemID: uuid.New(), CategoryID: toppings.ID, ItemName: "Cheese", PaidPriceCents: 200,
	}
	bacon := models.PurchasedConstructedItemCategoryItem{
		PurchasedConstructedItemID: line.ID, CategoryItemID: uuid.New(), CategoryID: toppings.ID, ItemName: "Bacon", PaidPriceCents: 100,
	}
	for _, row := range []*models.PurchasedConstructedItemCategoryItem{&bun, &cheese, &bacon} {
		require.NoError(t, f.conn.Create(row).Error)
	}
	require.NoError(t, f.conn.Create(&models.PurchasedConstructedItemModifier{
		PurchasedConstructedItemID: line.ID, ModifierID: uuid.New(), CategoryItemID: cheese.CategoryItemID, Name: "Extra", PaidPriceCents: 50,
	}).Error)

	items, err := f.svc.ListConstructedItems(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(450), items[0].TotalPriceCents)

	groups, err := f.svc.CategorizedItems(ctx, nil, order.ID, line.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Buns", groups[0].CategoryName)
	assert.Len(t, groups[0].Items, 1)
	assert.Equal(t, "Toppings", groups[1].CategoryName)
	require.Len(t, groups[1].Items, 2)
	assert.Len(t, groups[1].Items[0].Modifiers, 1)
	assert.Empty(t, groups[1].Items[1].Modifiers)

	_, err = f.svc.CategorizedItems(ctx, nil, order.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListForUserPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.seed.User("diner", enums.UserRoleCustomer)
	for i := 0; i < 3; i++ {
		f.purchase(t, &user.ID, f.now.Add(time.Duration(i)*time.Minute))
	}
	f.purchase(t, nil, f.now)

	page, err := f.svc.ListForUser(ctx, user.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.Equal(t, int64(3), page.Orders[0].Number)

	page, err = f.svc.ListForUser(ctx, user.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, int64(1), page.Orders[0].Number)

	_, err = f.svc.ListForUser(ctx, user.ID, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

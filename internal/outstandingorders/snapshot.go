package outstandingorders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/pricing"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

// Snapshot is an outstanding order read in one pass, priced at current
// catalog prices.
type Snapshot struct {
	Order  models.OutstandingOrder
	Lines  []SnapshotLine
	Offers []models.Offer
	Quote  pricing.Quote
}

// SnapshotLine is one constructed item with its quantity and current price.
type SnapshotLine struct {
	ConstructedItem models.ConstructedItem
	Quantity        int
	Selection       constructeditems.Selection
	UnitPriceCents  int64
}

func (l SnapshotLine) TotalCents() int64 {
	return pricing.Line{UnitPriceCents: l.UnitPriceCents, Quantity: l.Quantity}.Total()
}

// Snapshotter loads and prices outstanding orders.
type Snapshotter struct {
	orders  *Repository
	items   *constructeditems.Repository
	catalog *catalog.Repository
	taxRate decimal.Decimal
}

func NewSnapshotter(orders *Repository, items *constructeditems.Repository, catalogRepo *catalog.Repository, taxRate decimal.Decimal) *Snapshotter {
	return &Snapshotter{orders: orders, items: items, catalog: catalogRepo, taxRate: taxRate}
}

// TaxRate returns the multiplier applied to post-discount totals.
func (s *Snapshotter) TaxRate() decimal.Decimal {
	return s.taxRate
}

// Load reads the order inside tx, or outside any transaction when tx is nil.
func (s *Snapshotter) Load(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*Snapshot, error) {
	orders := s.orders.WithTx(tx)
	items := s.items.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	order, err := orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "outstanding order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load outstanding order")
	}
	return s.load(ctx, orders, items, catalogRepo, *order)
}

func (s *Snapshotter) load(ctx context.Context, orders *Repository, items *constructeditems.Repository, catalogRepo *catalog.Repository, order models.OutstandingOrder) (*Snapshot, error) {
	lines, err := orders.Lines(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order lines")
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ConstructedItemID)
	}
	constructed, err := items.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load constructed items")
	}
	byID := make(map[uuid.UUID]models.ConstructedItem, len(constructed))
	for _, ci := range constructed {
		byID[ci.ID] = ci
	}
	selections, err := items.Selections(ctx, catalogRepo, constructed)
	if err != nil {
		return nil, err
	}
	offers, err := orders.Offers(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order offers")
	}

	snapshot := &Snapshot{Order: order, Offers: offers, Lines: make([]SnapshotLine, 0, len(lines))}
	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		ci, ok := byID[line.ConstructedItemID]
		if !ok {
			continue
		}
		sel := selections[ci.ID]
		unit := pricing.ConstructedItemPrice(sel.CategoryItems, sel.Modifiers)
		snapshot.Lines = append(snapshot.Lines, SnapshotLine{
			ConstructedItem: ci,
			Quantity:        line.Quantity,
			Selection:       sel,
			UnitPriceCents:  unit,
		})
		priced = append(priced, pricing.Line{UnitPriceCents: unit, Quantity: line.Quantity})
	}
	snapshot.Quote = pricing.NewQuote(priced, offers, s.taxRate)
	return snapshot, nil
}

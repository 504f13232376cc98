package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

func requirementsError(line outstandingorders.SnapshotLine) error {
	return constructeditems.RequirementsError(line.ConstructedItem.ID, line.Selection.Violations())
}

// purchasedLine freezes one order line with the prices paid for each selection.
func purchasedLine(purchasedOrderID uuid.UUID, line outstandingorders.SnapshotLine) (models.PurchasedConstructedItem, []models.PurchasedConstructedItemCategoryItem, []models.PurchasedConstructedItemModifier) {
	item := models.PurchasedConstructedItem{
		PurchasedOrderID:  purchasedOrderID,
		ConstructedItemID: line.ConstructedItem.ID,
		CategoryID:        line.ConstructedItem.CategoryID,
		Name:              line.ConstructedItem.Name,
		Quantity:          line.Quantity,
		UnitPriceCents:    line.UnitPriceCents,
		TotalPriceCents:   line.TotalCents(),
	}
	categoryItems := make([]models.PurchasedConstructedItemCategoryItem, 0, len(line.Selection.CategoryItems))
	for _, ci := range line.Selection.CategoryItems {
		categoryItems = append(categoryItems, models.PurchasedConstructedItemCategoryItem{
			CategoryItemID: ci.ID,
			CategoryID:     ci.CategoryID,
			ItemName:       ci.ItemName,
			PaidPriceCents: paid(ci.PriceCents),
		})
	}
	modifiers := make([]models.PurchasedConstructedItemModifier, 0, len(line.Selection.Modifiers))
	for _, m := range line.Selection.Modifiers {
		modifiers = append(modifiers, models.PurchasedConstructedItemModifier{
			ModifierID:     m.ID,
			CategoryItemID: m.CategoryItemID,
			Name:           m.Name,
			PaidPriceCents: paid(m.PriceCents),
		})
	}
	return item, categoryItems, modifiers
}

func paid(price *int64) int64 {
	if price == nil {
		return 0
	}
	return *price
}

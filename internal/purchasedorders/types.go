package purchasedorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

type Detail struct {
	ID                 uuid.UUID             `json:"id"`
	Number             int64                 `json:"number"`
	UserID             *uuid.UUID            `json:"user_id,omitempty"`
	OutstandingOrderID uuid.UUID             `json:"outstanding_order_id"`
	PaymentProvider    enums.PaymentProvider `json:"payment_provider"`
	TransactionID      string                `json:"transaction_id"`
	Currency           string                `json:"currency"`
	SubtotalCents      int64                 `json:"subtotal_cents"`
	DiscountCents      int64                 `json:"discount_cents"`
	TotalCents         int64                 `json:"total_cents"`
	TaxCents           int64                 `json:"tax_cents"`
	ChargedCents       int64                 `json:"charged_cents"`
	PurchasedAt        time.Time             `json:"purchased_at"`
	PreparedForDate    *time.Time            `json:"prepared_for_date,omitempty"`
	Note               *string               `json:"note,omitempty"`
	Progress           enums.OrderProgress   `json:"progress"`
	Offers             []OfferDetail         `json:"offers,omitempty"`
}

type OfferDetail struct {
	OfferID            uuid.UUID `json:"offer_id"`
	Code               string    `json:"code"`
	DiscountPriceCents *int64    `json:"discount_price_cents,omitempty"`
	DiscountPercent    *int      `json:"discount_percent,omitempty"`
}

// NewDetail maps a purchased order to its API shape.
func NewDetail(order models.PurchasedOrder) Detail {
	return Detail{
		ID:                 order.ID,
		Number:             order.Number,
		UserID:             order.UserID,
		OutstandingOrderID: order.OutstandingOrderID,
		PaymentProvider:    order.PaymentProvider,
		TransactionID:      order.TransactionID,
		Currency:           order.Currency,
		SubtotalCents:      order.SubtotalCents,
		DiscountCents:      order.DiscountCents,
		TotalCents:         order.TotalCents,
		TaxCents:           order.TaxCents,
		ChargedCents:       order.ChargedCents,
		PurchasedAt:        order.PurchasedAt,
		PreparedForDate:    order.PreparedForDate,
		Note:               order.Note,
		Progress:           order.Progress,
	}
}

type ConstructedItemDetail struct {
	ID                uuid.UUID `json:"id"`
	ConstructedItemID uuid.UUID `json:"constructed_item_id"`
	CategoryID        uuid.UUID `json:"category_id"`
	Name              *string   `json:"name,omitempty"`
	Quantity          int       `json:"quantity"`
	UnitPriceCents    int64     `json:"unit_price_cents"`
	TotalPriceCents   int64     `json:"total_price_cents"`
}

// CategorizedItems groups the paid selections of one category.
type CategorizedItems struct {
	CategoryID   uuid.UUID  `json:"category_id"`
	CategoryName string     `json:"category_name"`
	Items        []PaidItem `json:"items"`
}

type PaidItem struct {
	CategoryItemID uuid.UUID      `json:"category_item_id"`
	Name           string         `json:"name"`
	PaidPriceCents int64          `json:"paid_price_cents"`
	Modifiers      []PaidModifier `json:"modifiers"`
}

type PaidModifier struct {
	ModifierID     uuid.UUID `json:"modifier_id"`
	Name           string    `json:"name"`
	PaidPriceCents int64     `json:"paid_price_cents"`
}

// Page is one page of a user's orders. NextCursor is empty on the last page.
type Page struct {
	Orders     []Detail `json:"orders"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

func categorize(rows []categorizedRow, modifiers []models.PurchasedConstructedItemModifier) []CategorizedItems {
	byParent := make(map[uuid.UUID][]PaidModifier, len(modifiers))
	for _, m := range modifiers {
		byParent[m.CategoryItemID] = append(byParent[m.CategoryItemID], PaidModifier{
			ModifierID:     m.ModifierID,
			Name:           m.Name,
			PaidPriceCents: m.PaidPriceCents,
		})
	}

	out := []CategorizedItems{}
	for _, row := range rows {
		if len(out) == 0 || out[len(out)-1].CategoryID != row.CategoryID {
			out = append(out, CategorizedItems{CategoryID: row.CategoryID, CategoryName: row.CategoryName})
		}
		mods := byParent[row.CategoryItemID]
		if mods == nil {
			mods = []PaidModifier{}
		}
		group := &out[len(out)-1]
		group.Items = append(group.Items, PaidItem{
			CategoryItemID: row.CategoryItemID,
			Name:           row.ItemName,
			PaidPriceCents: row.PaidPriceCents,
			Modifiers:      mods,
		})
	}
	return out
}

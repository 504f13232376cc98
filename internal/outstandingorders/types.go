package outstandingorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/pricing"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// LineInput places a constructed item on an order. Zero quantity means one.
type LineInput struct {
	ConstructedItemID uuid.UUID `json:"constructed_item_id" validate:"required"`
	Quantity          int       `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

func (l LineInput) quantity() int {
	if l.Quantity <= 0 {
		return 1
	}
	return l.Quantity
}

type CreateInput struct {
	UserID          *uuid.UUID
	Lines           []LineInput
	PreparedForDate *time.Time
	Note            *string
}

// UpdateInput patches an order. UserID may only claim an ownerless order.
type UpdateInput struct {
	UserID          *uuid.UUID
	PreparedForDate *time.Time
	Note            *string
}

type Detail struct {
	ID              uuid.UUID     `json:"id"`
	UserID          *uuid.UUID    `json:"user_id,omitempty"`
	PreparedForDate *time.Time    `json:"prepared_for_date,omitempty"`
	Note            *string       `json:"note,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Lines           []LineDetail  `json:"constructed_items"`
	Offers          []OfferDetail `json:"offers"`
	Quote           pricing.Quote `json:"quote"`
}

type LineDetail struct {
	ConstructedItem constructeditems.Detail `json:"constructed_item"`
	Quantity        int                     `json:"quantity"`
	UnitPriceCents  int64                   `json:"unit_price_cents"`
	TotalPriceCents int64                   `json:"total_price_cents"`
}

type OfferDetail struct {
	ID                 uuid.UUID          `json:"id"`
	Code               string             `json:"code"`
	Name               string             `json:"name"`
	DiscountPriceCents *int64             `json:"discount_price_cents,omitempty"`
	DiscountPercent    *int               `json:"discount_percent,omitempty"`
	Availability       enums.Availability `json:"availability"`
}

func newDetail(snapshot *Snapshot) Detail {
	order := snapshot.Order
	detail := Detail{
		ID:              order.ID,
		UserID:          order.UserID,
		PreparedForDate: order.PreparedForDate,
		Note:            order.Note,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Lines:           make([]LineDetail, 0, len(snapshot.Lines)),
		Offers:          make([]OfferDetail, 0, len(snapshot.Offers)),
		Quote:           snapshot.Quote,
	}
	for _, line := range snapshot.Lines {
		detail.Lines = append(detail.Lines, LineDetail{
			ConstructedItem: constructeditems.NewDetail(line.ConstructedItem, line.Selection),
			Quantity:        line.Quantity,
			UnitPriceCents:  line.UnitPriceCents,
			TotalPriceCents: line.TotalCents(),
		})
	}
	for _, offer := range snapshot.Offers {
		detail.Offers = append(detail.Offers, OfferDetail{
			ID:                 offer.ID,
			Code:               offer.Code,
			Name:               offer.Name,
			DiscountPriceCents: offer.DiscountPriceCents,
			DiscountPercent:    offer.DiscountPercent,
			Availability:       offer.Availability,
		})
	}
	return detail
}

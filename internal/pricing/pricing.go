// Package pricing computes constructed item, order, discount and tax amounts.
// Every amount is an int64 count of minor currency units.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
)

// HasPrice is implemented by anything that contributes to a constructed item's
// price. A nil price counts as zero.
type HasPrice interface {
	Price() *int64
}

// Sum folds the prices of values, treating nil prices as zero.
func Sum[T HasPrice](values []T) int64 {
	var total int64
	for _, v := range values {
		if p := v.Price(); p != nil {
			total += *p
		}
	}
	return total
}

// ConstructedItemPrice is the sum of the attached category items and modifiers.
func ConstructedItemPrice[C HasPrice, M HasPrice](categoryItems []C, modifiers []M) int64 {
	return Sum(categoryItems) + Sum(modifiers)
}

// Line is one order line: a constructed item's unit price and its quantity.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// Total returns the line's unit price times its quantity.
func (l Line) Total() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// OrderPrice sums every line total.
func OrderPrice(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.Total()
	}
	return total
}

// DiscountResult splits a base total into the amount taken off and what remains.
type DiscountResult struct {
	BaseCents     int64
	DiscountCents int64
	TotalCents    int64
}

// Discount applies every available offer to base. Percentages are summed and
// applied to the pre-discount base, flat discounts are summed on top, and the
// resulting total is clamped at zero so DiscountCents never exceeds base.
func Discount(base int64, offers []models.Offer) DiscountResult {
	var flat int64
	var percent int64
	for _, offer := range offers {
		if offer.Availability != enums.AvailabilityAvailable {
			continue
		}
		if offer.DiscountPriceCents != nil {
			flat += *offer.DiscountPriceCents
		}
		if offer.DiscountPercent != nil {
			percent += int64(*offer.DiscountPercent)
		}
	}

	percentOff := decimal.NewFromInt(base).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	discount := flat + percentOff
	if discount < 0 {
		discount = 0
	}
	total := base - discount
	if total < 0 {
		total = 0
	}
	return DiscountResult{
		BaseCents:     base,
		DiscountCents: base - total,
		TotalCents:    total,
	}
}

// Tax returns total multiplied by rate, rounded half up to whole cents.
func Tax(total int64, rate decimal.Decimal) int64 {
	if total <= 0 || rate.Sign() <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()
}

// ParseRate parses a tax rate multiplier such as "0.0825".
func ParseRate(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// Quote is the full price breakdown of an order.
type Quote struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ChargeCents   int64 `json:"charge_cents"`
}

// NewQuote prices lines, applies offers and taxes the post-discount total.
// The charge amount includes tax.
func NewQuote(lines []Line, offers []models.Offer, rate decimal.Decimal) Quote {
	subtotal := OrderPrice(lines)
	discounted := Discount(subtotal, offers)
	tax := Tax(discounted.TotalCents, rate)
	return Quote{
		SubtotalCents: subtotal,
		DiscountCents: discounted.DiscountCents,
		TotalCents:    discounted.TotalCents,
		TaxCents:      tax,
		ChargeCents:   discounted.TotalCents + tax,
	}
}

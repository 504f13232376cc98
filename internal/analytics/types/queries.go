package types

import "time"

// SalesQueryRequest selects one store-local calendar day.
type SalesQueryRequest struct {
	Start time.Time
	End   time.Time
}

// TimeSeriesPoint describes a single bucket/value pair.
type TimeSeriesPoint struct {
	Bucket string `json:"bucket"`
	Value  int64  `json:"value"`
}

// LabelValue represents a top-N entry such as an offer code.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SalesSummary is the staff dashboard view of one day of sales.
type SalesSummary struct {
	Date              string            `json:"date"`
	Orders            int64             `json:"orders"`
	SubtotalCents     int64             `json:"subtotal_cents"`
	DiscountCents     int64             `json:"discount_cents"`
	TaxCents          int64             `json:"tax_cents"`
	ChargedCents      int64             `json:"charged_cents"`
	AverageOrderCents float64           `json:"average_order_cents"`
	OrdersByHour      []TimeSeriesPoint `json:"orders_by_hour"`
	TopOffers         []LabelValue      `json:"top_offers"`
	Abandoned         int64             `json:"abandoned"`
}

package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/angelmondragon/restaurant-backend/internal/analytics/types"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

const (
	totalsSQL = `
SELECT
  COUNT(DISTINCT purchased_order_id) AS orders,
  SUM(COALESCE(subtotal_cents, 0)) AS subtotal_cents,
  SUM(COALESCE(discount_cents, 0)) AS discount_cents,
  SUM(COALESCE(tax_cents, 0)) AS tax_cents,
  SUM(COALESCE(charged_cents, 0)) AS charged_cents
FROM %s
WHERE event_type = @purchased
  AND occurred_at >= @start AND occurred_at < @end
`

	ordersByHourSQL = `
SELECT
  FORMAT_TIMESTAMP('%%H', occurred_at, @tz) AS bucket,
  COUNT(DISTINCT purchased_order_id) AS value
FROM %s
WHERE event_type = @purchased
  AND occurred_at >= @start AND occurred_at < @end
GROUP BY bucket
ORDER BY bucket ASC
`

	topOffersSQL = `
SELECT code AS label, COUNT(*) AS value
FROM %s, UNNEST(offer_codes) AS code
WHERE event_type = @purchased
  AND occurred_at >= @start AND occurred_at < @end
GROUP BY code
ORDER BY value DESC
LIMIT 5
`

	abandonedSQL = `
SELECT COUNT(DISTINCT outstanding_order_id) AS value
FROM %s
WHERE event_type = @abandoned
  AND occurred_at >= @start AND occurred_at < @end
`
)

// Querier is the BigQuery surface the sales service reads through.
type Querier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*cloudbigquery.RowIterator, error)
	TableRef(table string) string
}

// SalesService provides the daily sales dashboard from order_events.
type SalesService interface {
	Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesSummary, error)
}

type salesService struct {
	client   Querier
	tableRef string
}

// NewSalesService builds a service backed by BigQuery.
func NewSalesService(client Querier, table string) (SalesService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if table == "" {
		return nil, fmt.Errorf("orders table is required")
	}
	return &salesService{
		client:   client,
		tableRef: client.TableRef(table),
	}, nil
}

func (s *salesService) Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesSummary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := baseParams(req)

	summary, err := s.queryTotals(ctx, fmt.Sprintf(totalsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	byHour, err := s.querySeries(ctx, fmt.Sprintf(ordersByHourSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	topOffers, err := s.queryTopLabels(ctx, fmt.Sprintf(topOffersSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	abandoned, err := s.queryCount(ctx, fmt.Sprintf(abandonedSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	summary.Date = req.Start.Format("2006-01-02")
	summary.OrdersByHour = byHour
	summary.TopOffers = topOffers
	summary.Abandoned = abandoned
	if summary.Orders > 0 {
		summary.AverageOrderCents = float64(summary.ChargedCents) / float64(summary.Orders)
	}
	return summary, nil
}

func validateRequest(req types.SalesQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if !req.End.After(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func baseParams(req types.SalesQueryRequest) []cloudbigquery.QueryParameter {
	return []cloudbigquery.QueryParameter{
		{Name: "purchased", Value: string(enums.EventOrderPurchased)},
		{Name: "abandoned", Value: string(enums.EventOrderAbandoned)},
		{Name: "start", Value: req.Start.UTC()},
		{Name: "end", Value: req.End.UTC()},
		{Name: "tz", Value: req.Start.Location().String()},
	}
}

func (s *salesService) queryTotals(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*types.SalesSummary, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	var row struct {
		Orders        int64                   `bigquery:"orders"`
		SubtotalCents cloudbigquery.NullInt64 `bigquery:"subtotal_cents"`
		DiscountCents cloudbigquery.NullInt64 `bigquery:"discount_cents"`
		TaxCents      cloudbigquery.NullInt64 `bigquery:"tax_cents"`
		ChargedCents  cloudbigquery.NullInt64 `bigquery:"charged_cents"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return &types.SalesSummary{}, nil
		}
		return nil, fmt.Errorf("reading totals row: %w", err)
	}
	return &types.SalesSummary{
		Orders:        row.Orders,
		SubtotalCents: row.SubtotalCents.Int64,
		DiscountCents: row.DiscountCents.Int64,
		TaxCents:      row.TaxCents.Int64,
		ChargedCents:  row.ChargedCents.Int64,
	}, nil
}

func (s *salesService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	points := []types.TimeSeriesPoint{}
	for {
		var row struct {
			Bucket string `bigquery:"bucket"`
			Value  int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Bucket: row.Bucket, Value: row.Value})
	}
	return points, nil
}

func (s *salesService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	result := []types.LabelValue{}
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *salesService) queryCount(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	var row struct {
		Value int64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading count row: %w", err)
	}
	return row.Value, nil
}

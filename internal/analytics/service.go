package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-backend/internal/analytics/query"
	"github.com/angelmondragon/restaurant-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

// DateLayout is the day format accepted by the sales report.
const DateLayout = "2006-01-02"

// Service provides analytics reports based on order events.
type Service interface {
	// Sales returns the summary for one store-local day, today when date is empty.
	Sales(ctx context.Context, date string) (*types.SalesSummary, error)
}

type service struct {
	sales query.SalesService
	loc   *time.Location
	now   func() time.Time
}

// NewService builds an analytics service backed by BigQuery.
func NewService(client query.Querier, table string, loc *time.Location) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	sales, err := query.NewSalesService(client, table)
	if err != nil {
		return nil, err
	}
	return newService(sales, loc, time.Now), nil
}

func newService(sales query.SalesService, loc *time.Location, now func() time.Time) *service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{sales: sales, loc: loc, now: now}
}

func (s *service) Sales(ctx context.Context, date string) (*types.SalesSummary, error) {
	req, err := s.dayRange(date)
	if err != nil {
		return nil, err
	}
	summary, err := s.sales.Query(ctx, req)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query sales")
	}
	return summary, nil
}

func (s *service) dayRange(date string) (types.SalesQueryRequest, error) {
	var start time.Time
	if trimmed := strings.TrimSpace(date); trimmed != "" {
		parsed, err := time.ParseInLocation(DateLayout, trimmed, s.loc)
		if err != nil {
			return types.SalesQueryRequest{}, pkgerrors.New(pkgerrors.CodeValidation, "date must be formatted as YYYY-MM-DD")
		}
		start = parsed
	} else {
		now := s.now().In(s.loc)
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	}
	return types.SalesQueryRequest{Start: start, End: start.AddDate(0, 0, 1)}, nil
}

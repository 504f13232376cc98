package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/restaurant-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

type fakeSalesService struct {
	lastReq  types.SalesQueryRequest
	response *types.SalesSummary
	err      error
}

func (f *fakeSalesService) Query(ctx context.Context, req types.SalesQueryRequest) (*types.SalesSummary, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.response == nil {
		f.response = &types.SalesSummary{}
	}
	return f.response, nil
}

func TestSalesUsesStoreLocalDay(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)
	fake := &fakeSalesService{}
	srv := newService(fake, loc, time.Now)

	resp, err := srv.Sales(context.Background(), "2026-03-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != fake.response {
		t.Fatalf("expected response to be forwarded")
	}
	wantStart := time.Date(2026, 3, 6, 6, 0, 0, 0, time.UTC)
	if !fake.lastReq.Start.Equal(wantStart) {
		t.Fatalf("unexpected start %v", fake.lastReq.Start)
	}
	if fake.lastReq.End.Sub(fake.lastReq.Start) != 24*time.Hour {
		t.Fatalf("unexpected window %v - %v", fake.lastReq.Start, fake.lastReq.End)
	}
}

func TestSalesDefaultsToToday(t *testing.T) {
	fake := &fakeSalesService{}
	now := time.Date(2026, 3, 6, 23, 59, 0, 0, time.UTC)
	srv := newService(fake, time.UTC, func() time.Time { return now })

	if _, err := srv.Sales(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fake.lastReq.Start.Equal(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", fake.lastReq.Start)
	}
}

func TestSalesRejectsBadDate(t *testing.T) {
	srv := newService(&fakeSalesService{}, time.UTC, time.Now)
	_, err := srv.Sales(context.Background(), "3/6/2026")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSalesWrapsQueryFailure(t *testing.T) {
	fake := &fakeSalesService{err: errors.New("query failed")}
	srv := newService(fake, time.UTC, time.Now)

	resp, err := srv.Sales(context.Background(), "2026-03-06")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if resp != nil {
		t.Fatalf("expected nil response on error")
	}
}

package analytics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/restaurant-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type stubSales struct {
	date string
	err  error
}

func (s *stubSales) Sales(_ context.Context, date string) (*types.SalesSummary, error) {
	s.date = date
	if s.err != nil {
		return nil, s.err
	}
	return &types.SalesSummary{Date: date, Orders: 3}, nil
}

func TestSales(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "analytics-test", Output: io.Discard})

	svc := &stubSales{}
	resp := httptest.NewRecorder()
	Sales(svc, logg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?date=2026-03-07", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.date != "2026-03-07" {
		t.Fatalf("expected date passthrough got %q", svc.date)
	}

	bad := &stubSales{err: pkgerrors.New(pkgerrors.CodeValidation, "date must look like YYYY-MM-DD")}
	resp = httptest.NewRecorder()
	Sales(bad, logg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?date=yesterday", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	Sales(nil, logg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

package orders

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	"github.com/angelmondragon/restaurant-backend/internal/purchasedorders"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
}

func withParams(r *http.Request, kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

type stubOutstanding struct {
	outstandingorders.Service
	caller   *uuid.UUID
	create   outstandingorders.CreateInput
	code     string
	deleted  uuid.UUID
	quantity int
}

func (s *stubOutstanding) Create(_ context.Context, caller *uuid.UUID, input outstandingorders.CreateInput) (*outstandingorders.Detail, error) {
	s.caller = caller
	s.create = input
	return &outstandingorders.Detail{ID: uuid.New(), UserID: input.UserID}, nil
}

func (s *stubOutstanding) ApplyOffer(_ context.Context, _ *uuid.UUID, id uuid.UUID, code string) (*outstandingorders.Detail, error) {
	s.code = code
	return &outstandingorders.Detail{ID: id}, nil
}

func (s *stubOutstanding) Delete(_ context.Context, _ *uuid.UUID, id uuid.UUID) error {
	s.deleted = id
	return nil
}

func (s *stubOutstanding) UpdateQuantity(_ context.Context, _ *uuid.UUID, id, _ uuid.UUID, quantity int) (*outstandingorders.Detail, error) {
	s.quantity = quantity
	return &outstandingorders.Detail{ID: id}, nil
}

func TestCreateOutstandingOrderSeedsLines(t *testing.T) {
	svc := &stubOutstanding{}
	user := &models.User{ID: uuid.New(), AuthUID: "uid-1"}
	itemID := uuid.New()
	body := `{"constructed_items":[{"constructed_item_id":"` + itemID.String() + `","quantity":2}],"note":"  extra napkins "}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	resp := httptest.NewRecorder()
	CreateOutstandingOrder(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.caller == nil || *svc.caller != user.ID {
		t.Fatalf("expected caller %s got %v", user.ID, svc.caller)
	}
	if len(svc.create.Lines) != 1 || svc.create.Lines[0].ConstructedItemID != itemID || svc.create.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines %+v", svc.create.Lines)
	}
	if svc.create.Note == nil || *svc.create.Note != "extra napkins" {
		t.Fatalf("expected sanitized note got %v", svc.create.Note)
	}
}

func TestCreateOutstandingOrderRejectsBadQuantity(t *testing.T) {
	svc := &stubOutstanding{}
	body := `{"constructed_items":[{"constructed_item_id":"` + uuid.NewString() + `","quantity":500}]}`

	resp := httptest.NewRecorder()
	CreateOutstandingOrder(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.create.Lines != nil {
		t.Fatalf("service should not be called")
	}
}

func TestApplyOfferTrimsCode(t *testing.T) {
	svc := &stubOutstanding{}
	id := uuid.New()
	req := withParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":" lunch10 "}`)), "outstandingOrderId", id.String())

	resp := httptest.NewRecorder()
	ApplyOffer(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.code != "lunch10" {
		t.Fatalf("expected trimmed code got %q", svc.code)
	}
}

func TestDeleteOutstandingOrderReturnsNoContent(t *testing.T) {
	svc := &stubOutstanding{}
	id := uuid.New()

	resp := httptest.NewRecorder()
	DeleteOutstandingOrder(svc, testLogger()).ServeHTTP(resp, withParams(httptest.NewRequest(http.MethodDelete, "/", nil), "outstandingOrderId", id.String()))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.deleted != id {
		t.Fatalf("expected delete of %s got %s", id, svc.deleted)
	}
}

func TestUpdateQuantityRequiresPositive(t *testing.T) {
	svc := &stubOutstanding{}
	req := withParams(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"quantity":0}`)),
		"outstandingOrderId", uuid.NewString(), "constructedItemId", uuid.NewString())

	resp := httptest.NewRecorder()
	UpdateConstructedItemQuantity(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.quantity != 0 {
		t.Fatalf("service should not be called")
	}
}

type stubPurchased struct {
	purchasedorders.Service
	progress enums.OrderProgress
	day      string
	err      error
}

func (s *stubPurchased) UpdateProgress(_ context.Context, _ *models.User, id uuid.UUID, progress enums.OrderProgress) (*purchasedorders.Detail, error) {
	s.progress = progress
	if s.err != nil {
		return nil, s.err
	}
	return &purchasedorders.Detail{ID: id, Progress: progress}, nil
}

func (s *stubPurchased) ListByDay(_ context.Context, day string) ([]purchasedorders.Detail, error) {
	s.day = day
	return []purchasedorders.Detail{}, nil
}

func TestUpdateProgress(t *testing.T) {
	id := uuid.New()

	t.Run("unknown progress", func(t *testing.T) {
		svc := &stubPurchased{}
		req := withParams(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"progress":"isBurnt"}`)), "purchasedOrderId", id.String())
		resp := httptest.NewRecorder()
		UpdatePurchasedOrderProgress(svc, testLogger()).ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", resp.Code)
		}
	})

	t.Run("backward transition", func(t *testing.T) {
		svc := &stubPurchased{err: pkgerrors.New(pkgerrors.CodeStateConflict, "progress cannot move backward")}
		req := withParams(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"progress":"isPending"}`)), "purchasedOrderId", id.String())
		resp := httptest.NewRecorder()
		UpdatePurchasedOrderProgress(svc, testLogger()).ServeHTTP(resp, req)
		if resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 got %d", resp.Code)
		}
	})

	t.Run("forward", func(t *testing.T) {
		svc := &stubPurchased{}
		req := withParams(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"progress":"isPreparing"}`)), "purchasedOrderId", id.String())
		resp := httptest.NewRecorder()
		UpdatePurchasedOrderProgress(svc, testLogger()).ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
		if svc.progress != enums.OrderProgressPreparing {
			t.Fatalf("expected isPreparing got %s", svc.progress)
		}
	})
}

func TestListByDayPassesDate(t *testing.T) {
	svc := &stubPurchased{}
	resp := httptest.NewRecorder()
	ListPurchasedOrdersByDay(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/?date=3-7-2026", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.day != "3-7-2026" {
		t.Fatalf("expected date passthrough got %q", svc.day)
	}
}

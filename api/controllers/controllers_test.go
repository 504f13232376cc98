package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/checkout"
	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/users"
	"github.com/angelmondragon/restaurant-backend/pkg/config"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func withParams(r *http.Request, kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func withCaller(r *http.Request, user *models.User) *http.Request {
	ctx := middleware.WithAuthUID(r.Context(), user.AuthUID)
	return r.WithContext(middleware.WithUser(ctx, user))
}

func decodeError(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error.Code
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return io.ErrUnexpectedEOF }

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	handler := HealthReady(cfg, testLogger(), map[string]Pinger{"redis": failingPinger{}})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeDependency), decodeError(t, resp.Body.Bytes()))
}

type stubCatalog struct {
	catalog.Service
	requested uuid.UUID
}

func (s *stubCatalog) Category(_ context.Context, id uuid.UUID) (*models.Category, error) {
	s.requested = id
	return &models.Category{ID: id, Name: "Salads", Availability: enums.AvailabilityAvailable}, nil
}

func (s *stubCatalog) IsLeafCategory(context.Context, models.Category) (bool, error) {
	return true, nil
}

func TestGetCategoryValidatesPathID(t *testing.T) {
	svc := &stubCatalog{}
	handler := GetCategory(svc, testLogger())

	bad := httptest.NewRecorder()
	handler.ServeHTTP(bad, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "categoryId", "not-a-uuid"))
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	id := uuid.New()
	ok := httptest.NewRecorder()
	handler.ServeHTTP(ok, withParams(httptest.NewRequest(http.MethodGet, "/", nil), "categoryId", id.String()))
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, id, svc.requested)
	assert.Contains(t, ok.Body.String(), `"name":"Salads"`)
	assert.Contains(t, ok.Body.String(), `"is_leaf":true`)
}

type stubConstructedItems struct {
	constructeditems.Service
	caller   *uuid.UUID
	create   constructeditems.CreateInput
	userID   uuid.UUID
	favorite *bool
}

func (s *stubConstructedItems) Create(_ context.Context, caller *uuid.UUID, input constructeditems.CreateInput) (*constructeditems.Detail, error) {
	s.caller = caller
	s.create = input
	return &constructeditems.Detail{ID: uuid.New(), CategoryID: input.CategoryID, UserID: input.UserID}, nil
}

func (s *stubConstructedItems) ListForUser(_ context.Context, userID uuid.UUID, favorite *bool) ([]constructeditems.Detail, error) {
	s.userID = userID
	s.favorite = favorite
	return []constructeditems.Detail{}, nil
}

func TestCreateConstructedItemOwnedByCaller(t *testing.T) {
	svc := &stubConstructedItems{}
	user := &models.User{ID: uuid.New(), AuthUID: "uid-1", Role: enums.UserRoleCustomer}
	categoryID := uuid.New()
	body := `{"category_id":"` + categoryID.String() + `","name":"  Lunch bowl  "}`

	resp := httptest.NewRecorder()
	CreateConstructedItem(svc, testLogger()).ServeHTTP(resp, withCaller(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), user))

	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, svc.caller)
	assert.Equal(t, user.ID, *svc.caller)
	assert.Equal(t, categoryID, svc.create.CategoryID)
	require.NotNil(t, svc.create.Name)
	assert.Equal(t, "Lunch bowl", *svc.create.Name)
}

func TestCreateConstructedItemAsGuest(t *testing.T) {
	svc := &stubConstructedItems{}
	body := `{"category_id":"` + uuid.NewString() + `"}`

	resp := httptest.NewRecorder()
	CreateConstructedItem(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Nil(t, svc.caller)
	assert.Nil(t, svc.create.UserID)
}

func TestCreateConstructedItemRejectsUnknownFields(t *testing.T) {
	resp := httptest.NewRecorder()
	CreateConstructedItem(&stubConstructedItems{}, testLogger()).ServeHTTP(resp,
		httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"category_id":"`+uuid.NewString()+`","price":1}`)))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListUserConstructedItems(t *testing.T) {
	owner := &models.User{ID: uuid.New(), AuthUID: "uid-owner", Role: enums.UserRoleCustomer}
	other := &models.User{ID: uuid.New(), AuthUID: "uid-other", Role: enums.UserRoleCustomer}

	t.Run("owner with favorite filter", func(t *testing.T) {
		svc := &stubConstructedItems{}
		req := httptest.NewRequest(http.MethodGet, "/?isFavorite=true", nil)
		resp := httptest.NewRecorder()
		ListUserConstructedItems(svc, testLogger()).ServeHTTP(resp, withCaller(withParams(req, "userId", owner.ID.String()), owner))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, owner.ID, svc.userID)
		require.NotNil(t, svc.favorite)
		assert.True(t, *svc.favorite)
	})

	t.Run("another customer is forbidden", func(t *testing.T) {
		svc := &stubConstructedItems{}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp := httptest.NewRecorder()
		ListUserConstructedItems(svc, testLogger()).ServeHTTP(resp, withCaller(withParams(req, "userId", owner.ID.String()), other))

		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, uuid.Nil, svc.userID)
	})
}

type stubCheckout struct {
	input  checkout.Input
	result *checkout.Result
	err    error
}

func (s *stubCheckout) Execute(_ context.Context, input checkout.Input) (*checkout.Result, error) {
	s.input = input
	return s.result, s.err
}

func TestCheckoutStatusCodes(t *testing.T) {
	orderID := uuid.New()
	body := `{"outstanding_order_id":"` + orderID.String() + `","source_id":" cnon:ok "}`
	purchased := models.PurchasedOrder{ID: uuid.New(), Number: 7, OutstandingOrderID: orderID, Progress: enums.OrderProgressPending}

	t.Run("first execution", func(t *testing.T) {
		svc := &stubCheckout{result: &checkout.Result{PurchasedOrder: purchased}}
		resp := httptest.NewRecorder()
		Checkout(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, orderID, svc.input.OutstandingOrderID)
		assert.Equal(t, "cnon:ok", svc.input.SourceID)
		assert.Nil(t, svc.input.Caller)
		assert.Contains(t, resp.Body.String(), `"number":7`)
	})

	t.Run("replay", func(t *testing.T) {
		svc := &stubCheckout{result: &checkout.Result{PurchasedOrder: purchased, Replayed: true}}
		resp := httptest.NewRecorder()
		Checkout(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"replayed":true`)
	})

	t.Run("declined", func(t *testing.T) {
		svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodePaymentDeclined, "card declined by issuer")}
		resp := httptest.NewRecorder()
		Checkout(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

		assert.Equal(t, http.StatusPaymentRequired, resp.Code)
		assert.Equal(t, string(pkgerrors.CodePaymentDeclined), decodeError(t, resp.Body.Bytes()))
	})

	t.Run("missing order id", func(t *testing.T) {
		svc := &stubCheckout{}
		resp := httptest.NewRecorder()
		Checkout(svc, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"source_id":"cnon:ok"}`)))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, uuid.Nil, svc.input.OutstandingOrderID)
	})
}

type stubUsers struct {
	users.Service
	created bool
	authUID string
}

func (s *stubUsers) Register(_ context.Context, authUID string, input users.CreateInput) (*users.UserDTO, bool, error) {
	s.authUID = authUID
	return &users.UserDTO{ID: uuid.New(), Email: input.Email, Role: enums.UserRoleCustomer}, s.created, nil
}

func TestRegisterUser(t *testing.T) {
	t.Run("requires a verified identity", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RegisterUser(&stubUsers{}, testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("new user", func(t *testing.T) {
		svc := &stubUsers{created: true}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"diner@example.com"}`))
		req = req.WithContext(middleware.WithAuthUID(req.Context(), "uid-9"))
		resp := httptest.NewRecorder()
		RegisterUser(svc, testLogger()).ServeHTTP(resp, req)

		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, "uid-9", svc.authUID)
	})

	t.Run("existing user with empty body", func(t *testing.T) {
		svc := &stubUsers{}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(middleware.WithAuthUID(req.Context(), "uid-9"))
		resp := httptest.NewRecorder()
		RegisterUser(svc, testLogger()).ServeHTTP(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestNilServicesReportInternalError(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"catalog":    RootCategories(nil, testLogger()),
		"offers":     GetOfferByCode(nil, testLogger()),
		"storeHours": StoreHours(nil, testLogger()),
		"checkout":   Checkout(nil, testLogger()),
		"session":    KitchenSession(nil, testLogger()),
	}
	for name, handler := range handlers {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.Code, name)
	}
}

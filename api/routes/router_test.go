package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/checkout"
	"github.com/angelmondragon/restaurant-backend/internal/offers"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	"github.com/angelmondragon/restaurant-backend/internal/users"
	pkgauth "github.com/angelmondragon/restaurant-backend/pkg/auth"
	"github.com/angelmondragon/restaurant-backend/pkg/config"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubVerifier struct{}

// Verify treats the token itself as the uid.
func (stubVerifier) Verify(_ context.Context, token string) (pkgauth.Identity, error) {
	return pkgauth.Identity{UID: token}, nil
}

type stubUsers struct {
	users.Service
	byUID map[string]*models.User
}

func (s stubUsers) Resolve(_ context.Context, authUID string) (*models.User, error) {
	if u, ok := s.byUID[authUID]; ok {
		return u, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not registered")
}

type stubCatalog struct {
	catalog.Service
}

var (
	bowlsID = uuid.New()
	basesID = uuid.New()
)

func stubCategories() []models.Category {
	return []models.Category{
		{ID: bowlsID, Name: "Bowls", IsConstructable: true, Availability: enums.AvailabilityAvailable},
		{ID: basesID, Name: "Bases", ParentCategoryID: &bowlsID, Availability: enums.AvailabilityAvailable},
	}
}

func (stubCatalog) RootCategories(context.Context) ([]models.Category, error) {
	return stubCategories()[:1], nil
}

func (stubCatalog) Subcategories(context.Context, uuid.UUID) ([]models.Category, error) {
	return stubCategories()[1:], nil
}

func (stubCatalog) Tree(context.Context) (*catalog.Tree, error) {
	return catalog.NewTree(stubCategories()), nil
}

type stubOffers struct {
	offers.Service
	created int
}

func (s *stubOffers) Create(_ context.Context, input offers.CreateInput) (*models.Offer, error) {
	s.created++
	return &models.Offer{ID: uuid.New(), Code: strings.ToUpper(input.Code), Name: input.Name, Availability: enums.AvailabilityAvailable}, nil
}

// Calls panic through the nil embedded interface; ownership checks run first.
type stubOutstanding struct {
	outstandingorders.Service
}

type stubCheckout struct {
	calls int
}

func (s *stubCheckout) Execute(_ context.Context, input checkout.Input) (*checkout.Result, error) {
	s.calls++
	return &checkout.Result{PurchasedOrder: models.PurchasedOrder{
		ID:                 uuid.New(),
		Number:             1,
		OutstandingOrderID: input.OutstandingOrderID,
		Progress:           enums.OrderProgressPending,
	}}, nil
}

func testConfig(guestCheckout bool) *config.Config {
	return &config.Config{
		App:          config.AppConfig{Env: "test"},
		FeatureFlags: config.FeatureFlagsConfig{GuestCheckout: guestCheckout},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
}

var (
	customer = &models.User{ID: uuid.New(), AuthUID: "customer-uid", Role: enums.UserRoleCustomer}
	staff    = &models.User{ID: uuid.New(), AuthUID: "staff-uid", Role: enums.UserRoleStaff}
)

func newTestRouter(t *testing.T, guestCheckout bool, deps Dependencies) http.Handler {
	t.Helper()
	deps.DB = stubPinger{}
	deps.Verifier = stubVerifier{}
	deps.Users = stubUsers{byUID: map[string]*models.User{
		customer.AuthUID: customer,
		staff.AuthUID:    staff,
	}}
	return NewRouter(testConfig(guestCheckout), testLogger(), deps)
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, true, Dependencies{})

	live := serve(router, http.MethodGet, "/health/live", "", "")
	require.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "test", live.Header().Get("X-Restaurant-Env"))

	ready := serve(router, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusOK, ready.Code)
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(t, false, Dependencies{Catalog: stubCatalog{}})

	resp := serve(router, http.MethodGet, "/api/v1/categories", "", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data []struct {
			Name            string `json:"name"`
			IsConstructable bool   `json:"is_constructable"`
			IsLeaf          bool   `json:"is_leaf"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Bowls", envelope.Data[0].Name)
	assert.True(t, envelope.Data[0].IsConstructable)
	assert.False(t, envelope.Data[0].IsLeaf)

	sub := serve(router, http.MethodGet, "/api/v1/categories/"+bowlsID.String()+"/subcategories", "", "")
	require.Equal(t, http.StatusOK, sub.Code)
	require.NoError(t, json.Unmarshal(sub.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Bases", envelope.Data[0].Name)
	assert.True(t, envelope.Data[0].IsLeaf)
}

func TestStaffRoutesRejectCustomersAndGuests(t *testing.T) {
	offerSvc := &stubOffers{}
	router := newTestRouter(t, true, Dependencies{Offers: offerSvc})
	body := `{"code":"lunch","name":"Lunch deal","discount_percent":10}`

	guest := serve(router, http.MethodPost, "/api/v1/offers", "", body)
	assert.Equal(t, http.StatusUnauthorized, guest.Code)

	cust := serve(router, http.MethodPost, "/api/v1/offers", customer.AuthUID, body)
	assert.Equal(t, http.StatusForbidden, cust.Code)

	unregistered := serve(router, http.MethodPost, "/api/v1/offers", "stranger", body)
	assert.Equal(t, http.StatusForbidden, unregistered.Code)

	ok := serve(router, http.MethodPost, "/api/v1/offers", staff.AuthUID, body)
	require.Equal(t, http.StatusCreated, ok.Code)
	assert.Equal(t, 1, offerSvc.created)
	assert.Contains(t, ok.Body.String(), `"code":"LUNCH"`)
}

func TestGuestCheckoutFlag(t *testing.T) {
	body := `{"outstanding_order_id":"` + uuid.NewString() + `","source_id":"cnon:card-nonce-ok"}`

	t.Run("enabled", func(t *testing.T) {
		svc := &stubCheckout{}
		router := newTestRouter(t, true, Dependencies{Checkout: svc})
		resp := serve(router, http.MethodPost, "/api/v1/checkout", "", body)
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, 1, svc.calls)
	})

	t.Run("disabled", func(t *testing.T) {
		svc := &stubCheckout{}
		router := newTestRouter(t, false, Dependencies{Checkout: svc})
		resp := serve(router, http.MethodPost, "/api/v1/checkout", "", body)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Zero(t, svc.calls)

		signedIn := serve(router, http.MethodPost, "/api/v1/checkout", customer.AuthUID, body)
		require.Equal(t, http.StatusCreated, signedIn.Code)
		assert.Equal(t, 1, svc.calls)
	})
}

func TestUserRoutesRequireRegistration(t *testing.T) {
	router := newTestRouter(t, true, Dependencies{OutstandingOrders: stubOutstanding{}})

	resp := serve(router, http.MethodGet, "/api/v1/users/me", "stranger", "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	other := serve(router, http.MethodGet, "/api/v1/users/"+staff.ID.String()+"/outstanding-orders", customer.AuthUID, "")
	assert.Equal(t, http.StatusForbidden, other.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t, true, Dependencies{})
	resp := serve(router, http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMissingServiceIsInternalError(t *testing.T) {
	router := newTestRouter(t, true, Dependencies{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/store-hours", nil).WithContext(ctx)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/restaurant-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/restaurant-backend/api/controllers/analytics"
	ordercontrollers "github.com/angelmondragon/restaurant-backend/api/controllers/orders"
	"github.com/angelmondragon/restaurant-backend/api/middleware"
	"github.com/angelmondragon/restaurant-backend/internal/analytics"
	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/checkout"
	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/offers"
	"github.com/angelmondragon/restaurant-backend/internal/ordersessions"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	"github.com/angelmondragon/restaurant-backend/internal/purchasedorders"
	"github.com/angelmondragon/restaurant-backend/internal/storehours"
	"github.com/angelmondragon/restaurant-backend/internal/users"
	pkgauth "github.com/angelmondragon/restaurant-backend/pkg/auth"
	"github.com/angelmondragon/restaurant-backend/pkg/config"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/redis"
)

// Store is the Redis surface the HTTP layer needs for idempotency replay and
// rate limiting.
type Store interface {
	redis.IdempotencyStore
	redis.Pinger
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (pkgauth.Identity, error)
}

// Dependencies carries everything the router wires into handlers. Nil services
// surface as INTERNAL_ERROR on their routes rather than panicking.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    Store
	Metrics  http.Handler
	Verifier TokenVerifier
	Hub      *ordersessions.Hub

	Catalog           catalog.Service
	ConstructedItems  constructeditems.Service
	Offers            offers.Service
	OutstandingOrders outstandingorders.Service
	PurchasedOrders   purchasedorders.Service
	Checkout          checkout.Service
	Users             users.Service
	StoreHours        storehours.Service
	Analytics         analytics.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutCallerLimit,
	)
	registerPolicy := middleware.NewRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterCallerLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Guests browse the menu, build items and, when enabled, check out.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(deps.Verifier, deps.Users, false, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.RootCategories(deps.Catalog, logg))
				r.Get("/{categoryId}", controllers.GetCategory(deps.Catalog, logg))
				r.Get("/{categoryId}/subcategories", controllers.Subcategories(deps.Catalog, logg))
				r.Get("/{categoryId}/items", controllers.CategoryItems(deps.Catalog, logg))
			})
			r.Get("/category-items/{categoryItemId}/modifiers", controllers.CategoryItemModifiers(deps.Catalog, logg))
			r.Get("/store-hours", controllers.StoreHours(deps.StoreHours, logg))
			r.Get("/offers/{code}", controllers.GetOfferByCode(deps.Offers, logg))

			r.Get("/purchased-orders/{purchasedOrderId}", ordercontrollers.GetPurchasedOrder(deps.PurchasedOrders, logg))
			r.Get("/purchased-orders/{purchasedOrderId}/constructed-items", ordercontrollers.ListPurchasedConstructedItems(deps.PurchasedOrders, logg))
			r.Get("/purchased-orders/{purchasedOrderId}/constructed-items/{purchasedItemId}/categorized-items", ordercontrollers.PurchasedCategorizedItems(deps.PurchasedOrders, logg))
			r.Get("/purchased-orders/{purchasedOrderId}/ws", controllers.PurchasedOrderSession(deps.Hub, deps.PurchasedOrders, logg))

			r.Group(func(r chi.Router) {
				if !cfg.FeatureFlags.GuestCheckout {
					r.Use(middleware.RequireUser(logg))
				}
				mountOrdering(r, deps, logg, checkoutPolicy)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(deps.Verifier, deps.Users, true, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.With(middleware.RateLimit(registerPolicy, deps.Redis, logg)).Post("/users", controllers.RegisterUser(deps.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser(logg))
				r.Get("/users/me", controllers.Me(deps.Users, logg))
				r.Route("/users/{userId}", func(r chi.Router) {
					r.Get("/", controllers.GetUser(deps.Users, logg))
					r.Get("/constructed-items", controllers.ListUserConstructedItems(deps.ConstructedItems, logg))
					r.Get("/outstanding-orders", controllers.ListUserOutstandingOrders(deps.OutstandingOrders, logg))
					r.Get("/purchased-orders", controllers.ListUserPurchasedOrders(deps.PurchasedOrders, logg))
					r.Post("/cards", controllers.AddUserCard(deps.Users, logg))
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaff(logg))
					r.Post("/offers", controllers.CreateOffer(deps.Offers, logg))
					r.Get("/purchased-orders", ordercontrollers.ListPurchasedOrdersByDay(deps.PurchasedOrders, logg))
					r.Patch("/purchased-orders/{purchasedOrderId}/progress", ordercontrollers.UpdatePurchasedOrderProgress(deps.PurchasedOrders, logg))
					r.Get("/order-sessions/{sessionId}/ws", controllers.KitchenSession(deps.Hub, logg))
					r.Get("/analytics/sales", analyticscontrollers.Sales(deps.Analytics, logg))
				})
			})
		})
	})

	return r
}

func mountOrdering(r chi.Router, deps Dependencies, logg *logger.Logger, checkoutPolicy middleware.RateLimitPolicy) {
	r.Route("/constructed-items", func(r chi.Router) {
		r.Post("/", controllers.CreateConstructedItem(deps.ConstructedItems, logg))
		r.Route("/{constructedItemId}", func(r chi.Router) {
			r.Get("/", controllers.GetConstructedItem(deps.ConstructedItems, logg))
			r.Patch("/", controllers.UpdateConstructedItem(deps.ConstructedItems, logg))
			r.Get("/category-items", controllers.ListConstructedItemCategoryItems(deps.ConstructedItems, logg))
			r.Post("/category-items", controllers.AttachConstructedItemCategoryItems(deps.ConstructedItems, logg))
			r.Delete("/category-items/{categoryItemId}", controllers.DetachConstructedItemCategoryItem(deps.ConstructedItems, logg))
			r.Get("/modifiers", controllers.ListConstructedItemModifiers(deps.ConstructedItems, logg))
			r.Post("/modifiers", controllers.AttachConstructedItemModifiers(deps.ConstructedItems, logg))
			r.Delete("/modifiers/{modifierId}", controllers.DetachConstructedItemModifier(deps.ConstructedItems, logg))
		})
	})

	r.Route("/outstanding-orders", func(r chi.Router) {
		r.Post("/", ordercontrollers.CreateOutstandingOrder(deps.OutstandingOrders, logg))
		r.Route("/{outstandingOrderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.GetOutstandingOrder(deps.OutstandingOrders, logg))
			r.Patch("/", ordercontrollers.UpdateOutstandingOrder(deps.OutstandingOrders, logg))
			r.Delete("/", ordercontrollers.DeleteOutstandingOrder(deps.OutstandingOrders, logg))
			r.Post("/constructed-items", ordercontrollers.AttachConstructedItems(deps.OutstandingOrders, logg))
			r.Patch("/constructed-items/{constructedItemId}", ordercontrollers.UpdateConstructedItemQuantity(deps.OutstandingOrders, logg))
			r.Delete("/constructed-items/{constructedItemId}", ordercontrollers.DetachConstructedItem(deps.OutstandingOrders, logg))
			r.Post("/offers", ordercontrollers.ApplyOffer(deps.OutstandingOrders, logg))
			r.Delete("/offers/{offerId}", ordercontrollers.RemoveOffer(deps.OutstandingOrders, logg))
		})
	})

	r.With(middleware.RateLimit(checkoutPolicy, deps.Redis, logg)).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
}

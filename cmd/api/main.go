package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/restaurant-backend/api/routes"
	"github.com/angelmondragon/restaurant-backend/internal/analytics"
	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/internal/checkout"
	"github.com/angelmondragon/restaurant-backend/internal/constructeditems"
	"github.com/angelmondragon/restaurant-backend/internal/locks"
	"github.com/angelmondragon/restaurant-backend/internal/offers"
	"github.com/angelmondragon/restaurant-backend/internal/ordersessions"
	"github.com/angelmondragon/restaurant-backend/internal/outstandingorders"
	"github.com/angelmondragon/restaurant-backend/internal/purchasedorders"
	"github.com/angelmondragon/restaurant-backend/internal/squarecustomers"
	"github.com/angelmondragon/restaurant-backend/internal/storehours"
	"github.com/angelmondragon/restaurant-backend/internal/users"
	pkgauth "github.com/angelmondragon/restaurant-backend/pkg/auth"
	"github.com/angelmondragon/restaurant-backend/pkg/bigquery"
	"github.com/angelmondragon/restaurant-backend/pkg/config"
	"github.com/angelmondragon/restaurant-backend/pkg/db"
	"github.com/angelmondragon/restaurant-backend/pkg/instance"
	"github.com/angelmondragon/restaurant-backend/pkg/logger"
	"github.com/angelmondragon/restaurant-backend/pkg/metrics"
	"github.com/angelmondragon/restaurant-backend/pkg/migrate"
	"github.com/angelmondragon/restaurant-backend/pkg/outbox"
	"github.com/angelmondragon/restaurant-backend/pkg/payments"
	"github.com/angelmondragon/restaurant-backend/pkg/redis"
	"github.com/angelmondragon/restaurant-backend/pkg/square"
	"github.com/angelmondragon/restaurant-backend/pkg/stripe"
)

const (
	sessionBuffer   = 32
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	verifier, err := pkgauth.NewVerifier(cfg.Identity, pkgauth.NewCertKeySource(cfg.Identity.CertsURL, cfg.Identity.FetchTimeout))
	if err != nil {
		logg.Error(ctx, "failed to create token verifier", err)
		os.Exit(1)
	}

	taxRate, err := decimal.NewFromString(cfg.Pricing.TaxRate)
	if err != nil {
		logg.Error(ctx, "invalid tax rate", err)
		os.Exit(1)
	}

	orderLocker, err := locks.NewRedisLocker(redisClient, "orders")
	if err != nil {
		logg.Error(ctx, "failed to create order locker", err)
		os.Exit(1)
	}

	var squareClient *square.Client
	if strings.TrimSpace(cfg.Square.AccessToken) != "" {
		squareClient, err = square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			logg.Error(ctx, "failed to create square client", err)
			os.Exit(1)
		}
	}

	gateway, err := newGateway(ctx, cfg, logg, squareClient)
	if err != nil {
		logg.Error(ctx, "failed to create payment gateway", err)
		os.Exit(1)
	}

	registry := metrics.NewRegistry()
	hub := ordersessions.NewHub(logg, sessionBuffer)
	go hub.Run(ctx)

	conn := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)
	catalogRepo := catalog.NewRepository(conn)
	itemRepo := constructeditems.NewRepository(conn)
	orderRepo := outstandingorders.NewRepository(conn)
	offerRepo := offers.NewRepository(conn)
	snapshotter := outstandingorders.NewSnapshotter(orderRepo, itemRepo, catalogRepo, taxRate)

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	itemService, err := constructeditems.NewService(constructeditems.ServiceParams{
		Tx:      dbClient,
		Repo:    itemRepo,
		Catalog: catalogRepo,
	})
	if err != nil {
		logg.Error(ctx, "failed to create constructed item service", err)
		os.Exit(1)
	}
	offerService, err := offers.NewService(offerRepo)
	if err != nil {
		logg.Error(ctx, "failed to create offer service", err)
		os.Exit(1)
	}
	orderService, err := outstandingorders.NewService(outstandingorders.ServiceParams{
		Tx:          dbClient,
		Repo:        orderRepo,
		Items:       itemRepo,
		Offers:      offerRepo,
		Snapshotter: snapshotter,
		Locker:      orderLocker,
		Outbox:      outboxService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create outstanding order service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:                dbClient,
		Repo:              checkout.NewRepository(conn),
		OutstandingOrders: orderRepo,
		Snapshotter:       snapshotter,
		Locker:            orderLocker,
		Gateway:           gateway,
		Outbox:            outboxService,
		Notifier:          hub,
		Metrics:           metrics.NewCheckoutMetrics(registry),
		Logger:            logg,
		Currency:          cfg.Payments.Currency,
		LockTTL:           cfg.Checkout.LockTTL,
		ChargeTimeout:     cfg.Checkout.ChargeTimeout,
		MaxLineQuantity:   cfg.Checkout.MaxLineQuantity,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}
	purchasedService, err := purchasedorders.NewService(purchasedorders.ServiceParams{
		Tx:       dbClient,
		Repo:     purchasedorders.NewRepository(conn),
		Outbox:   outboxService,
		Notifier: hub,
		Location: cfg.App.Location(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create purchased order service", err)
		os.Exit(1)
	}

	var customers squarecustomers.Service
	if squareClient != nil {
		customers = squarecustomers.NewService(squareClient)
	} else {
		logg.Warn(ctx, "square access token missing; card vaulting disabled")
	}
	userService, err := users.NewService(users.ServiceParams{
		Repo:      users.NewRepository(conn),
		Customers: customers,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create user service", err)
		os.Exit(1)
	}
	hoursService, err := storehours.NewService(storehours.ServiceParams{
		Repo:     storehours.NewRepository(conn),
		Location: cfg.App.Location(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create store hours service", err)
		os.Exit(1)
	}

	var analyticsService analytics.Service
	if cfg.GCP.ProjectID != "" {
		bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to create bigquery client", err)
			os.Exit(1)
		}
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing bigquery", err)
			}
		}()
		analyticsService, err = analytics.NewService(bqClient, cfg.BigQuery.OrdersTable, cfg.App.Location())
		if err != nil {
			logg.Error(ctx, "failed to create analytics service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "gcp project missing; sales analytics disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"provider": cfg.Payments.ProviderName(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:                dbClient,
			Redis:             redisClient,
			Metrics:           metrics.Handler(registry),
			Verifier:          verifier,
			Hub:               hub,
			Catalog:           catalogService,
			ConstructedItems:  itemService,
			Offers:            offerService,
			OutstandingOrders: orderService,
			PurchasedOrders:   purchasedService,
			Checkout:          checkoutService,
			Users:             userService,
			StoreHours:        hoursService,
			Analytics:         analyticsService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

// newGateway picks the charge provider. The Square client is shared with card
// vaulting so only one is built.
func newGateway(ctx context.Context, cfg *config.Config, logg *logger.Logger, squareClient *square.Client) (payments.Gateway, error) {
	switch cfg.Payments.ProviderName() {
	case config.PaymentProviderStripe:
		client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		return stripe.NewGateway(client)
	default:
		if squareClient == nil {
			return nil, errors.New("square access token required for square payments")
		}
		return square.NewGateway(squareClient), nil
	}
}

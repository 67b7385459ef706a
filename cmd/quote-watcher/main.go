package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arjundesai/medikart-backend/internal/expiry"
	"github.com/arjundesai/medikart-backend/internal/orders"
	"github.com/arjundesai/medikart-backend/internal/reconciler"
	"github.com/arjundesai/medikart-backend/pkg/config"
	"github.com/arjundesai/medikart-backend/pkg/db"
	"github.com/arjundesai/medikart-backend/pkg/db/models"
	"github.com/arjundesai/medikart-backend/pkg/enums"
	"github.com/arjundesai/medikart-backend/pkg/logger"
	"github.com/arjundesai/medikart-backend/pkg/metrics"
	"github.com/arjundesai/medikart-backend/pkg/redis"
)

// quote-watcher tails the orders visible to one pharmacy: it announces new
// prescription orders, reports status changes, and counts down each order's
// quote window.
func main() {
	logg := logger.New(logger.Options{ServiceName: "quote-watcher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	rawPharmacyID := flag.String("pharmacy", os.Getenv("MEDIKART_WATCH_PHARMACY_ID"), "pharmacy id to watch")
	flag.Parse()

	pharmacyID, err := uuid.Parse(*rawPharmacyID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "a valid -pharmacy id is required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "quote-watcher"

	logg = logger.New(logger.Options{
		ServiceName: "quote-watcher",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Logger: logg,
		Window: cfg.Quote.Window(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	source, err := reconciler.NewPharmacySource(ordersService, pharmacyID)
	if err != nil {
		logg.Error(context.Background(), "failed to create order source", err)
		os.Exit(1)
	}
	seen, err := reconciler.NewRedisSeenStore(redisClient, enums.ActorRolePharmacy, pharmacyID)
	if err != nil {
		logg.Error(context.Background(), "failed to create seen store", err)
		os.Exit(1)
	}

	clock, err := expiry.NewClock(expiry.ClockParams{
		Tick:   cfg.Quote.ExpiryTick,
		Logger: logg,
		Handler: func(orderID uuid.UUID) {
			ctx := logg.WithOrderID(context.Background(), orderID.String())
			logg.Warn(ctx, "quote window closed; awaiting server sweep")
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry clock", err)
		os.Exit(1)
	}

	events := reconciler.Events{
		NewOrder: func(order models.PrescriptionOrder) {
			ctx := logg.WithOrderID(context.Background(), order.ID.String())
			logg.Info(ctx, "new prescription order waiting for quotes")
			if order.QuoteExpiry != nil {
				clock.Track(order.ID, *order.QuoteExpiry)
			}
		},
		StatusChanged: func(order models.PrescriptionOrder, from, to enums.OrderStatus) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"order_id": order.ID.String(),
				"from":     from.String(),
				"to":       to.String(),
			})
			logg.Info(ctx, "order status changed")
			if to.IsTerminal() {
				clock.Untrack(order.ID)
			}
		},
		WindowExpiring: func(order models.PrescriptionOrder, secondsLeft int64) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"order_id":     order.ID.String(),
				"seconds_left": secondsLeft,
			})
			logg.Warn(ctx, "quote window closing soon")
		},
	}

	poller, err := reconciler.NewPoller(reconciler.PollerParams{
		Source:        source,
		Seen:          seen,
		Events:        events,
		Logger:        logg,
		Metrics:       metrics.NewPollerMetrics(prometheus.DefaultRegisterer),
		Role:          enums.ActorRolePharmacy,
		Interval:      cfg.Poller.Interval,
		FetchTimeout:  cfg.Poller.FetchTimeout,
		FetchAttempts: cfg.Poller.FetchAttempts,
		ExpiryWarn:    time.Duration(cfg.Poller.ExpiryWarnSecs) * time.Second,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create poller", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"pharmacy_id": pharmacyID.String(),
	})
	logg.Info(ctx, "starting quote watcher")

	go clock.Run(ctx)
	poller.Run(ctx)
	clock.Stop()

	logg.Info(ctx, "quote watcher shutting down gracefully")
}

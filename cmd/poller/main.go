package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nourhachem/backoffice-backend/internal/activity"
	"github.com/nourhachem/backoffice-backend/internal/clients"
	"github.com/nourhachem/backoffice-backend/internal/cron"
	"github.com/nourhachem/backoffice-backend/internal/delivery"
	"github.com/nourhachem/backoffice-backend/internal/notifications"
	"github.com/nourhachem/backoffice-backend/internal/orders"
	"github.com/nourhachem/backoffice-backend/internal/products"
	"github.com/nourhachem/backoffice-backend/pkg/config"
	"github.com/nourhachem/backoffice-backend/pkg/db"
	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
	"github.com/nourhachem/backoffice-backend/pkg/metrics"
	"github.com/nourhachem/backoffice-backend/pkg/migrate"
	"github.com/nourhachem/backoffice-backend/pkg/redis"
	"github.com/nourhachem/backoffice-backend/pkg/types"

	"github.com/google/uuid"
)

// orderSweepSource pairs the repository's tracked-order listing with the
// service's delivery-values write so the sweep goes through the same
// notification path as the API.
type orderSweepSource struct {
	repo orders.Repository
	svc  orders.Service
}

func (s orderSweepSource) ListTrackedByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	return s.repo.ListTrackedByStatus(ctx, status)
}

func (s orderSweepSource) ApplyDeliveryValues(ctx context.Context, id uuid.UUID, values types.DeliveryValues) error {
	return s.svc.ApplyDeliveryValues(ctx, id, values)
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "poller"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "poller"

	logg = logger.New(logger.Options{
		ServiceName: "poller",
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	gormDB := dbClient.DB()

	ordersRepo := orders.NewRepository(gormDB)

	clientsService, err := clients.NewService(clients.ServiceParams{
		Repo:   clients.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create clients service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(products.ServiceParams{
		Repo:   products.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	activityService, err := activity.NewService(activity.ServiceParams{
		Repo:   activity.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		Tx:       dbClient,
		Ledger:   clientsService,
		Stock:    productsService,
		Activity: activityService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:       notifications.NewRepository(gormDB),
		Permission: notifications.StaticPermission(cfg.Notifications.DesktopGranted),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	gateway, err := delivery.NewClient(delivery.NewSettingsSource(gormDB), logg,
		delivery.WithBaseURL(cfg.Delivery.DefaultBaseURL),
		delivery.WithDefaultCity(cfg.Delivery.DefaultCity),
		delivery.WithTokenTTL(cfg.Delivery.TokenTTL),
		delivery.WithHTTPClient(&http.Client{Timeout: cfg.Delivery.HTTPTimeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery gateway client", err)
		os.Exit(1)
	}

	shipmentJob, err := cron.NewShipmentStatusJob(cron.ShipmentStatusJobParams{
		Logger:   logg,
		Orders:   orderSweepSource{repo: ordersRepo, svc: ordersService},
		Gateway:  gateway,
		Notifier: notificationsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shipment status job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("poller"), cfg.Poller.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create poller lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(shipmentJob),
		Lock:     lock,
		Metrics:  metrics.NewPollerJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Poller.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create poller service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting shipment status poller")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "poller stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "poller shutting down gracefully")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/nourhachem/backoffice-backend/api/routes"
	"github.com/nourhachem/backoffice-backend/internal/activity"
	"github.com/nourhachem/backoffice-backend/internal/clients"
	"github.com/nourhachem/backoffice-backend/internal/delivery"
	"github.com/nourhachem/backoffice-backend/internal/expenses"
	"github.com/nourhachem/backoffice-backend/internal/notifications"
	"github.com/nourhachem/backoffice-backend/internal/orders"
	"github.com/nourhachem/backoffice-backend/internal/products"
	"github.com/nourhachem/backoffice-backend/pkg/config"
	"github.com/nourhachem/backoffice-backend/pkg/db"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
	"github.com/nourhachem/backoffice-backend/pkg/migrate"
	"github.com/nourhachem/backoffice-backend/pkg/redis"
)

const shutdownGrace = 10 * time.Second

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

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:       notifications.NewRepository(gormDB),
		Permission: notifications.StaticPermission(cfg.Notifications.DesktopGranted),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	expensesService, err := expenses.NewService(expenses.ServiceParams{
		Repo:    expenses.NewRepository(gormDB),
		Revenue: ordersRepo,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expenses service", err)
		os.Exit(1)
	}

	watcher := orders.NewWatcher(ordersRepo, logg)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		Tx:       dbClient,
		Ledger:   clientsService,
		Stock:    productsService,
		Activity: activityService,
		Watcher:  watcher,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	settingsSource := delivery.NewSettingsSource(gormDB)
	gateway, err := delivery.NewClient(settingsSource, logg,
		delivery.WithBaseURL(cfg.Delivery.DefaultBaseURL),
		delivery.WithDefaultCity(cfg.Delivery.DefaultCity),
		delivery.WithTokenTTL(cfg.Delivery.TokenTTL),
		delivery.WithHTTPClient(&http.Client{Timeout: cfg.Delivery.HTTPTimeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery gateway client", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:           cfg,
			Logger:           logg,
			DB:               dbClient,
			Redis:            redisClient,
			Orders:           ordersService,
			OrdersWatcher:    watcher,
			Clients:          clientsService,
			Products:         productsService,
			Activity:         activityService,
			Expenses:         expensesService,
			Notifications:    notificationsService,
			Gateway:          gateway,
			DeliverySettings: settingsSource,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

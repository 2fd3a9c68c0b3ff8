package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nourhachem/backoffice-backend/api/controllers"
	"github.com/nourhachem/backoffice-backend/api/middleware"
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
	"github.com/nourhachem/backoffice-backend/pkg/redis"
)

// RouterParams carry everything the HTTP surface needs. All services are
// required; Gateway may be nil when delivery credentials are not yet
// configured, the shipment endpoints then answer 503.
type RouterParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               db.Pinger
	Redis            *redis.Client
	Orders           orders.Service
	OrdersWatcher    *orders.Watcher
	Clients          clients.Service
	Products         products.Service
	Activity         activity.Service
	Expenses         expenses.Service
	Notifications    notifications.Service
	Gateway          controllers.ShipmentGateway
	DeliverySettings *delivery.SettingsSource
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Post("/", controllers.CreateOrder(p.Orders, logg))
			r.Get("/stream", controllers.StreamOrders(p.OrdersWatcher, logg))
			r.Get("/trash", controllers.ListTrashedOrders(p.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(p.Orders, logg))
				r.Patch("/", controllers.UpdateOrder(p.Orders, logg))
				r.Post("/status", controllers.UpdateOrderStatus(p.Orders, logg))
				r.Delete("/", controllers.DeleteOrder(p.Orders, logg))
				r.Post("/restore", controllers.RestoreOrder(p.Orders, logg))
				r.Delete("/purge", controllers.PurgeOrder(p.Orders, logg))
				r.Post("/shipment", controllers.CreateOrderShipment(p.Orders, p.Gateway, logg))
				r.Delete("/shipment", controllers.CancelOrderShipment(p.Orders, p.Gateway, logg))
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", controllers.ListClients(p.Clients, logg))
			r.Get("/{clientId}", controllers.ClientDetail(p.Clients, logg))
			r.Delete("/{clientId}", controllers.DeleteClient(p.Clients, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.Post("/", controllers.CreateProduct(p.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(p.Products, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(p.Products, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(p.Products, logg))
		})

		r.Get("/activity", controllers.RecentActivity(p.Activity, logg))

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", controllers.ListExpenses(p.Expenses, logg))
			r.Post("/", controllers.AddExpense(p.Expenses, logg))
			r.Delete("/{expenseId}", controllers.DeleteExpense(p.Expenses, logg))
		})
		r.Get("/finance/summary", controllers.FinanceSummary(p.Expenses, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
		})

		r.Route("/settings/delivery", func(r chi.Router) {
			r.Get("/", controllers.GetDeliverySettings(p.DeliverySettings, logg))
			r.Put("/", controllers.SaveDeliverySettings(p.DeliverySettings, logg))
		})
	})

	return r
}

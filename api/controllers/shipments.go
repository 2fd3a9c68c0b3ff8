package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nourhachem/backoffice-backend/api/responses"
	"github.com/nourhachem/backoffice-backend/internal/delivery"
	ordersvc "github.com/nourhachem/backoffice-backend/internal/orders"
	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
	"github.com/nourhachem/backoffice-backend/pkg/types"
)

// ShipmentGateway is the slice of the delivery client the order shipment
// endpoints use.
type ShipmentGateway interface {
	CreateShipment(ctx context.Context, req delivery.ShipmentRequest) (*delivery.Shipment, error)
	CancelShipment(ctx context.Context, trackingID string) error
}

// itemsSummary renders order lines the way couriers expect on the package
// label: "2x Shirt + 1x Hat".
func itemsSummary(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, item.Article))
	}
	return strings.Join(parts, " + ")
}

// CreateOrderShipment registers the order with the delivery gateway and
// caches the returned tracking fields on the order.
func CreateOrderShipment(svc ordersvc.Service, gateway ShipmentGateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "delivery gateway is not configured"))
			return
		}

		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if order.Delivery != nil && order.Delivery.TrackingID != "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeConflict, "order already has a shipment"))
			return
		}

		comment := ""
		if order.Notes != nil {
			comment = *order.Notes
		}

		shipment, err := gateway.CreateShipment(r.Context(), delivery.ShipmentRequest{
			Reference:   order.DisplayID,
			Customer:    order.Customer,
			Phone:       order.Phone,
			City:        order.City,
			Address:     order.Address,
			Price:       order.Amount,
			Description: itemsSummary(order.Items),
			Comment:     comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now().UTC()
		values := types.DeliveryValues{
			TrackingID:  shipment.TrackingID,
			Status:      shipment.Status,
			LastChecked: &now,
		}
		if err := svc.ApplyDeliveryValues(r.Context(), order.ID, values); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, values)
	}
}

// CancelOrderShipment cancels the external shipment. Cached delivery fields
// stay on the order for audit.
func CancelOrderShipment(svc ordersvc.Service, gateway ShipmentGateway, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "delivery gateway is not configured"))
			return
		}

		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if order.Delivery == nil || order.Delivery.TrackingID == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "order has no shipment to cancel"))
			return
		}

		if err := gateway.CancelShipment(r.Context(), order.Delivery.TrackingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

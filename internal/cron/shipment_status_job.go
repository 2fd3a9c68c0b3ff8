package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
	"github.com/nourhachem/backoffice-backend/pkg/types"
)

// ShipmentStatusJobParams configure the shipment status sweep.
type ShipmentStatusJobParams struct {
	Logger   *logger.Logger
	Orders   trackedOrderSource
	Gateway  shipmentStatusFetcher
	Notifier statusChangeNotifier
	Now      func() time.Time
}

type trackedOrderSource interface {
	ListTrackedByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	ApplyDeliveryValues(ctx context.Context, id uuid.UUID, values types.DeliveryValues) error
}

type shipmentStatusFetcher interface {
	ShipmentStatus(ctx context.Context, trackingID string) (string, error)
}

type statusChangeNotifier interface {
	NotifyStatusChange(ctx context.Context, displayID, status string) error
}

// NewShipmentStatusJob builds the job that refreshes cached gateway statuses
// for orders out for pickup.
func NewShipmentStatusJob(params ShipmentStatusJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders source required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("delivery gateway required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &shipmentStatusJob{
		logg:     params.Logger,
		orders:   params.Orders,
		gateway:  params.Gateway,
		notifier: params.Notifier,
		now:      now,
	}, nil
}

type shipmentStatusJob struct {
	logg     *logger.Logger
	orders   trackedOrderSource
	gateway  shipmentStatusFetcher
	notifier statusChangeNotifier
	now      func() time.Time
}

func (j *shipmentStatusJob) Name() string { return "shipment-status" }

// Run sweeps every tracked order once. A failure on one order never blocks
// the rest of the sweep; errors are folded and reported together.
func (j *shipmentStatusJob) Run(ctx context.Context) error {
	tracked, err := j.orders.ListTrackedByStatus(ctx, enums.OrderStatusRamassage)
	if err != nil {
		return fmt.Errorf("list tracked orders: %w", err)
	}

	var errs []error
	checked := 0
	for _, order := range tracked {
		if order.Delivery == nil || order.Delivery.TrackingID == "" {
			continue
		}
		if err := j.refreshOrder(ctx, order); err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", order.DisplayID, err))
			continue
		}
		checked++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"tracked": len(tracked), "checked": checked})
	j.logg.Info(logCtx, "shipment status sweep complete")
	return multierr.Combine(errs...)
}

func (j *shipmentStatusJob) refreshOrder(ctx context.Context, order models.Order) error {
	status, err := j.gateway.ShipmentStatus(ctx, order.Delivery.TrackingID)
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}

	if status == order.Delivery.Status {
		return nil
	}

	checkedAt := j.now().UTC()
	values := types.DeliveryValues{
		TrackingID:  order.Delivery.TrackingID,
		Status:      status,
		LastChecked: &checkedAt,
	}
	if err := j.orders.ApplyDeliveryValues(ctx, order.ID, values); err != nil {
		return fmt.Errorf("store status: %w", err)
	}

	logCtx := j.logg.WithDisplayID(ctx, order.DisplayID)
	j.logg.Info(logCtx, fmt.Sprintf("shipment status moved to %s", status))
	if err := j.notifier.NotifyStatusChange(ctx, order.DisplayID, status); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

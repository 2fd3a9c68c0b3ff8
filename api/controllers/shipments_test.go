package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nourhachem/backoffice-backend/internal/delivery"
	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/types"
)

type shipmentOrdersStub struct {
	stubOrdersService

	order   *models.Order
	applied *types.DeliveryValues
}

func (s *shipmentOrdersStub) Get(context.Context, uuid.UUID) (*models.Order, error) {
	if s.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *shipmentOrdersStub) ApplyDeliveryValues(_ context.Context, _ uuid.UUID, values types.DeliveryValues) error {
	s.applied = &values
	return nil
}

type stubGateway struct {
	created   *delivery.ShipmentRequest
	cancelled string
	createErr error
	cancelErr error
}

func (g *stubGateway) CreateShipment(_ context.Context, req delivery.ShipmentRequest) (*delivery.Shipment, error) {
	g.created = &req
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &delivery.Shipment{TrackingID: "TRK-42", Status: "Registered"}, nil
}

func (g *stubGateway) CancelShipment(_ context.Context, trackingID string) error {
	g.cancelled = trackingID
	return g.cancelErr
}

func shipmentRequest(method, orderID string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/orders/"+orderID+"/shipment", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateOrderShipment(t *testing.T) {
	logg := testLogger()
	orderID := uuid.New()

	notes := "Sonner avant de livrer"
	baseOrder := func() *models.Order {
		return &models.Order{
			ID:        orderID,
			DisplayID: "ORD-0007",
			Customer:  "Amine",
			Phone:     "0555123456",
			City:      "casa",
			Address:   "12 Rue Didouche",
			Amount:    decimal.NewFromInt(4500),
			Notes:     &notes,
			Items: []models.OrderItem{
				{Article: "Veste", Quantity: 2},
				{Article: "Casquette", Quantity: 1},
			},
		}
	}

	t.Run("registers package and caches tracking", func(t *testing.T) {
		stub := &shipmentOrdersStub{order: baseOrder()}
		gateway := &stubGateway{}
		rec := httptest.NewRecorder()

		CreateOrderShipment(stub, gateway, logg).ServeHTTP(rec, shipmentRequest(http.MethodPost, orderID.String()))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gateway.created == nil {
			t.Fatal("expected gateway call")
		}
		if gateway.created.Reference != "ORD-0007" {
			t.Fatalf("expected display id as reference, got %q", gateway.created.Reference)
		}
		if gateway.created.Description != "2x Veste + 1x Casquette" {
			t.Fatalf("unexpected items summary: %q", gateway.created.Description)
		}
		if gateway.created.Comment != "Sonner avant de livrer" {
			t.Fatalf("unexpected comment: %q", gateway.created.Comment)
		}
		if stub.applied == nil || stub.applied.TrackingID != "TRK-42" {
			t.Fatalf("expected tracking cached on order, got %+v", stub.applied)
		}
		if stub.applied.Status != "Registered" {
			t.Fatalf("expected gateway status cached verbatim, got %q", stub.applied.Status)
		}
	})

	t.Run("refuses a second shipment", func(t *testing.T) {
		order := baseOrder()
		order.Delivery = &types.DeliveryValues{TrackingID: "TRK-1"}
		stub := &shipmentOrdersStub{order: order}
		gateway := &stubGateway{}
		rec := httptest.NewRecorder()

		CreateOrderShipment(stub, gateway, logg).ServeHTTP(rec, shipmentRequest(http.MethodPost, orderID.String()))

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if gateway.created != nil {
			t.Fatal("gateway should not be called for an already shipped order")
		}
	})

	t.Run("gateway failure surfaces", func(t *testing.T) {
		stub := &shipmentOrdersStub{order: baseOrder()}
		gateway := &stubGateway{createErr: pkgerrors.New(pkgerrors.CodeGateway, "courier offline")}
		rec := httptest.NewRecorder()

		CreateOrderShipment(stub, gateway, logg).ServeHTTP(rec, shipmentRequest(http.MethodPost, orderID.String()))

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		if stub.applied != nil {
			t.Fatal("tracking must not be cached when the gateway fails")
		}
	})
}

func TestCancelOrderShipment(t *testing.T) {
	logg := testLogger()
	orderID := uuid.New()

	t.Run("cancels and keeps cached fields", func(t *testing.T) {
		stub := &shipmentOrdersStub{order: &models.Order{
			ID:       orderID,
			Delivery: &types.DeliveryValues{TrackingID: "TRK-9", Status: "In Transit"},
		}}
		gateway := &stubGateway{}
		rec := httptest.NewRecorder()

		CancelOrderShipment(stub, gateway, logg).ServeHTTP(rec, shipmentRequest(http.MethodDelete, orderID.String()))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gateway.cancelled != "TRK-9" {
			t.Fatalf("expected cancel of TRK-9, got %q", gateway.cancelled)
		}
		if stub.applied != nil {
			t.Fatal("cancel must not rewrite cached delivery values")
		}
	})

	t.Run("no shipment to cancel", func(t *testing.T) {
		stub := &shipmentOrdersStub{order: &models.Order{ID: orderID}}
		gateway := &stubGateway{}
		rec := httptest.NewRecorder()

		CancelOrderShipment(stub, gateway, logg).ServeHTTP(rec, shipmentRequest(http.MethodDelete, orderID.String()))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if gateway.cancelled != "" {
			t.Fatal("gateway should not be called without a tracking id")
		}
	})
}

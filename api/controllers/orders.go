package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nourhachem/backoffice-backend/api/responses"
	"github.com/nourhachem/backoffice-backend/api/validators"
	ordersvc "github.com/nourhachem/backoffice-backend/internal/orders"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

const actorHeader = "X-Actor"

// actorFrom identifies the collaborator behind a mutation for the activity
// log. The dashboard is single-tenant so a plain header is enough.
func actorFrom(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get(actorHeader)); actor != "" {
		return actor
	}
	return "dashboard"
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

type createOrderItemRequest struct {
	ProductID *uuid.UUID `json:"productId,omitempty"`
	Article   string     `json:"article" validate:"required"`
	Size      string     `json:"size,omitempty"`
	Color     string     `json:"color,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	Customer    string                   `json:"customer" validate:"required"`
	Phone       string                   `json:"phone" validate:"required"`
	City        string                   `json:"city,omitempty"`
	Address     string                   `json:"address" validate:"required"`
	Items       []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Amount      decimal.Decimal          `json:"amount"`
	DeliveryFee *decimal.Decimal         `json:"deliveryFee,omitempty"`
	Status      string                   `json:"status,omitempty"`
	Notes       *string                  `json:"notes,omitempty"`
}

func (req createOrderRequest) toInput(actor string) ordersvc.CreateOrderInput {
	input := ordersvc.CreateOrderInput{
		Customer:    req.Customer,
		Phone:       req.Phone,
		City:        req.City,
		Address:     req.Address,
		Amount:      req.Amount,
		DeliveryFee: req.DeliveryFee,
		Status:      req.Status,
		Notes:       req.Notes,
		ActorID:     actor,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ordersvc.CreateOrderItemInput{
			ProductID: item.ProductID,
			Article:   item.Article,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		})
	}
	return input
}

func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), payload.toInput(actorFrom(r)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func ListTrashedOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := svc.Trash(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		responses.WriteSuccess(w, order)
	}
}

type updateOrderRequest struct {
	Customer    *string          `json:"customer,omitempty"`
	Phone       *string          `json:"phone,omitempty"`
	City        *string          `json:"city,omitempty"`
	Address     *string          `json:"address,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	DeliveryFee *decimal.Decimal `json:"deliveryFee,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

func UpdateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Update(r.Context(), id, ordersvc.UpdateOrderInput{
			Customer:    payload.Customer,
			Phone:       payload.Phone,
			City:        payload.City,
			Address:     payload.Address,
			Amount:      payload.Amount,
			DeliveryFee: payload.DeliveryFee,
			Notes:       payload.Notes,
			ActorID:     actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func UpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), id, payload.Status, actorFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func DeleteOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), id, actorFrom(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "trashed"})
	}
}

func RestoreOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Restore(r.Context(), id, actorFrom(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "restored"})
	}
}

func PurgeOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Purge(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "purged"})
	}
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/internal/clients"
	"github.com/nourhachem/backoffice-backend/internal/sequence"
	pkgdb "github.com/nourhachem/backoffice-backend/pkg/db"
	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
	"github.com/nourhachem/backoffice-backend/pkg/types"
)

// maxCreateAttempts bounds the retry loop around display id allocation.
// Contention on the sequence row is rare and short-lived, so a couple of
// retries is plenty.
const maxCreateAttempts = 3

type CreateOrderItemInput struct {
	ProductID *uuid.UUID
	Article   string `validate:"required"`
	Size      string
	Color     string
	Quantity  int `validate:"min=1"`
}

type CreateOrderInput struct {
	Customer    string `validate:"required"`
	Phone       string `validate:"required"`
	City        string
	Address     string                 `validate:"required"`
	Items       []CreateOrderItemInput `validate:"min=1,dive"`
	Amount      decimal.Decimal        `validate:"-"`
	DeliveryFee *decimal.Decimal
	Status      string
	Notes       *string
	ActorID     string
}

type UpdateOrderInput struct {
	Customer    *string
	Phone       *string
	City        *string
	Address     *string
	Amount      *decimal.Decimal
	DeliveryFee *decimal.Decimal
	Notes       *string
	ActorID     string
}

type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	Trash(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, actorID string) (*models.Order, error)
	ApplyDeliveryValues(ctx context.Context, id uuid.UUID, values types.DeliveryValues) error
	SoftDelete(ctx context.Context, id uuid.UUID, actorID string) error
	Restore(ctx context.Context, id uuid.UUID, actorID string) error
	Purge(ctx context.Context, id uuid.UUID) error
}

// Narrow views of the sibling services, so tests can fake them without
// dragging the real implementations in.
type clientLedger interface {
	UpsertFromOrder(ctx context.Context, view clients.OrderView) error
}

type stockKeeper interface {
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type activityLog interface {
	Append(ctx context.Context, action enums.ActivityAction, orderID uuid.UUID, detail, actorID string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotNotifier interface {
	Refresh(ctx context.Context)
}

type service struct {
	repo     Repository
	tx       txRunner
	ledger   clientLedger
	stock    stockKeeper
	activity activityLog
	watcher  snapshotNotifier
	logg     *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Ledger   clientLedger
	Stock    stockKeeper
	Activity activityLog
	Watcher  snapshotNotifier
	Logger   *logger.Logger
	Now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner is required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client ledger is required")
	}
	if params.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock keeper is required")
	}
	if params.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activity log is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		ledger:   params.Ledger,
		stock:    params.Stock,
		activity: params.Activity,
		watcher:  params.Watcher,
		logg:     params.Logger,
		validate: validator.New(),
		now:      params.Now,
	}, nil
}

// Create allocates the next display id and inserts the order in one
// transaction, retrying on contention so two concurrent creates can never
// share an id. Ledger, stock and audit writes happen after commit and are
// best effort: the order stands even when one of them fails.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}

	status := enums.OrderStatusPacking
	if input.Status != "" {
		parsed, err := enums.ParseOrderStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
		status = parsed
	}

	order := &models.Order{
		ID:          uuid.New(),
		Customer:    input.Customer,
		Phone:       input.Phone,
		City:        input.City,
		Address:     input.Address,
		Amount:      input.Amount,
		DeliveryFee: input.DeliveryFee,
		Status:      status,
		Notes:       input.Notes,
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			Article:   item.Article,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		})
	}

	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			displayID, err := sequence.NextDisplayID(ctx, tx, sequence.Orders)
			if err != nil {
				return err
			}
			order.DisplayID = displayID
			return s.repo.WithTx(tx).Create(ctx, order)
		})
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		if !s.retryableCreateError(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
		}
		// Fresh identifiers so the retry re-inserts cleanly.
		order.ID = uuid.New()
		for i := range order.Items {
			order.Items[i].ID = uuid.New()
			order.Items[i].OrderID = uuid.Nil
		}
		s.logg.Warn(ctx, fmt.Sprintf("display id contention on order create, attempt %d", attempt))
	}
	if lastErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeContention, lastErr, "failed to allocate order display id")
	}

	ctx = s.logg.WithDisplayID(ctx, order.DisplayID)
	s.logg.Info(ctx, "order created")
	s.runCreateSideEffects(ctx, order, input.ActorID)
	s.notify(ctx)
	return order, nil
}

func (s *service) retryableCreateError(err error) bool {
	return pkgdb.IsSerializationFailure(err) || pkgdb.IsUniqueViolation(err, "orders_display_id_key")
}

func (s *service) runCreateSideEffects(ctx context.Context, order *models.Order, actorID string) {
	var errs error

	view := clients.OrderView{
		Customer:   order.Customer,
		Phone:      order.Phone,
		City:       order.City,
		Address:    order.Address,
		Amount:     order.Amount,
		CountOrder: true,
		PlacedAt:   order.CreatedAt,
	}
	if err := s.ledger.UpsertFromOrder(ctx, view); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("client ledger: %w", err))
	}

	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		if err := s.stock.DecrementStock(ctx, *item.ProductID, item.Quantity); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("stock for %s: %w", item.Article, err))
		}
	}

	s.activity.Append(ctx, enums.ActivityOrderCreated, order.ID,
		fmt.Sprintf("order %s created for %s", order.DisplayID, order.Customer), actorID)

	if errs != nil {
		s.logg.Error(ctx, "order side effects incomplete", errs)
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to fetch order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return orders, nil
}

func (s *service) Trash(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListTrash(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list trashed orders")
	}
	return orders, nil
}

// Update patches order fields. When the customer identity or the amount
// changes, the client ledger is re-synced without counting a new order.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateOrderInput) (*models.Order, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	resyncLedger := false
	if input.Customer != nil && *input.Customer != current.Customer {
		if *input.Customer == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer cannot be empty")
		}
		updates["customer"] = *input.Customer
		resyncLedger = true
	}
	if input.Phone != nil && *input.Phone != current.Phone {
		if *input.Phone == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone cannot be empty")
		}
		updates["phone"] = *input.Phone
		resyncLedger = true
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.Address != nil {
		if *input.Address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address cannot be empty")
		}
		updates["address"] = *input.Address
	}
	if input.Amount != nil && !input.Amount.Equal(current.Amount) {
		if input.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
		}
		updates["amount"] = *input.Amount
		resyncLedger = true
	}
	if input.DeliveryFee != nil {
		updates["delivery_fee"] = *input.DeliveryFee
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if resyncLedger {
		view := clients.OrderView{
			Customer:   updated.Customer,
			Phone:      updated.Phone,
			City:       updated.City,
			Address:    updated.Address,
			Amount:     updated.Amount,
			CountOrder: false,
			PlacedAt:   updated.CreatedAt,
		}
		if err := s.ledger.UpsertFromOrder(ctx, view); err != nil {
			s.logg.Error(ctx, "failed to re-sync client from order update", err)
		}
	}

	s.notify(ctx)
	return updated, nil
}

// UpdateStatus moves the order to any of the known statuses. Transitions are
// unrestricted: the back office corrects mistakes by moving orders backwards.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status, actorID string) (*models.Order, error) {
	parsed, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == parsed {
		return current, nil
	}

	if err := s.repo.Update(ctx, id, map[string]any{"status": parsed}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
	}

	ctx = s.logg.WithDisplayID(ctx, current.DisplayID)
	s.logg.Info(ctx, fmt.Sprintf("order status changed from %s to %s", current.Status, parsed))
	s.activity.Append(ctx, enums.ActivityStatusChanged, id,
		fmt.Sprintf("order %s moved from %s to %s", current.DisplayID, current.Status, parsed), actorID)

	current.Status = parsed
	s.notify(ctx)
	return current, nil
}

// ApplyDeliveryValues overwrites the cached shipment state. The gateway's
// status vocabulary is stored verbatim and never touches the order status.
func (s *service) ApplyDeliveryValues(ctx context.Context, id uuid.UUID, values types.DeliveryValues) error {
	if err := s.repo.UpdateDelivery(ctx, id, &values); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store delivery values")
	}
	s.notify(ctx)
	return nil
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID, actorID string) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete order")
	}

	ctx = s.logg.WithDisplayID(ctx, order.DisplayID)
	s.logg.Info(ctx, "order moved to trash")
	s.activity.Append(ctx, enums.ActivityOrderDeleted, id,
		fmt.Sprintf("order %s moved to trash", order.DisplayID), actorID)
	s.notify(ctx)
	return nil
}

func (s *service) Restore(ctx context.Context, id uuid.UUID, actorID string) error {
	order, err := s.repo.FindAny(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to fetch order")
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is not in the trash")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to restore order")
	}

	ctx = s.logg.WithDisplayID(ctx, order.DisplayID)
	s.logg.Info(ctx, "order restored from trash")
	s.activity.Append(ctx, enums.ActivityOrderRestored, id,
		fmt.Sprintf("order %s restored from trash", order.DisplayID), actorID)
	s.notify(ctx)
	return nil
}

// Purge permanently removes a trashed order. Live orders must go through the
// trash first.
func (s *service) Purge(ctx context.Context, id uuid.UUID) error {
	order, err := s.repo.FindAny(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to fetch order")
	}
	if !order.DeletedAt.Valid {
		return pkgerrors.New(pkgerrors.CodeConflict, "order must be trashed before it can be purged")
	}
	if err := s.repo.Purge(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to purge order")
	}
	ctx = s.logg.WithDisplayID(ctx, order.DisplayID)
	s.logg.Info(ctx, "order purged")
	s.notify(ctx)
	return nil
}

func (s *service) notify(ctx context.Context) {
	if s.watcher == nil {
		return
	}
	s.watcher.Refresh(ctx)
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/internal/clients"
	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
	"github.com/nourhachem/backoffice-backend/pkg/types"
)

type fakeOrdersRepo struct {
	created     []*models.Order
	createErrs  []error
	orders      map[uuid.UUID]*models.Order
	updates     map[string]any
	delivery    *types.DeliveryValues
	softDeleted []uuid.UUID
	restored    []uuid.UUID
	purged      []uuid.UUID
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (f *fakeOrdersRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeOrdersRepo) Create(_ context.Context, order *models.Order) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	f.created = append(f.created, &copied)
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrdersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok || order.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrdersRepo) FindAny(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrdersRepo) List(context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if !order.DeletedAt.Valid {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrdersRepo) ListTrash(context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.DeletedAt.Valid {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrdersRepo) ListTrackedByStatus(context.Context, enums.OrderStatus) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) DeliveredRevenue(context.Context, time.Time, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeOrdersRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates = updates
	order, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = status
	}
	if customer, ok := updates["customer"].(string); ok {
		order.Customer = customer
	}
	if amount, ok := updates["amount"].(decimal.Decimal); ok {
		order.Amount = amount
	}
	return nil
}

func (f *fakeOrdersRepo) UpdateDelivery(_ context.Context, id uuid.UUID, values *types.DeliveryValues) error {
	f.delivery = values
	if order, ok := f.orders[id]; ok {
		order.Delivery = values
	}
	return nil
}

func (f *fakeOrdersRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	order, ok := f.orders[id]
	if !ok || order.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	order.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	f.softDeleted = append(f.softDeleted, id)
	return nil
}

func (f *fakeOrdersRepo) Restore(_ context.Context, id uuid.UUID) error {
	order, ok := f.orders[id]
	if !ok || !order.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	order.DeletedAt = gorm.DeletedAt{}
	f.restored = append(f.restored, id)
	return nil
}

func (f *fakeOrdersRepo) Purge(_ context.Context, id uuid.UUID) error {
	if _, ok := f.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.orders, id)
	f.purged = append(f.purged, id)
	return nil
}

type fakeLedger struct {
	views []clients.OrderView
	err   error
}

func (f *fakeLedger) UpsertFromOrder(_ context.Context, view clients.OrderView) error {
	f.views = append(f.views, view)
	return f.err
}

type fakeStock struct {
	decrements map[uuid.UUID]int
	err        error
}

func (f *fakeStock) DecrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	if f.decrements == nil {
		f.decrements = map[uuid.UUID]int{}
	}
	f.decrements[id] += quantity
	return f.err
}

type activityCall struct {
	action  enums.ActivityAction
	orderID uuid.UUID
	detail  string
	actorID string
}

type fakeActivity struct {
	calls []activityCall
}

func (f *fakeActivity) Append(_ context.Context, action enums.ActivityAction, orderID uuid.UUID, detail, actorID string) {
	f.calls = append(f.calls, activityCall{action: action, orderID: orderID, detail: detail, actorID: actorID})
}

type fakeWatcher struct {
	refreshes int
}

func (f *fakeWatcher) Refresh(context.Context) { f.refreshes++ }

// sqliteTxRunner backs the display id allocator with a real database so the
// sequence SQL actually runs.
type sqliteTxRunner struct {
	db *gorm.DB
}

func (r *sqliteTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type serviceTestHarness struct {
	svc      Service
	repo     *fakeOrdersRepo
	ledger   *fakeLedger
	stock    *fakeStock
	activity *fakeActivity
	watcher  *fakeWatcher
}

func newServiceTestHarness(t *testing.T) *serviceTestHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS sequences (name TEXT PRIMARY KEY, value INTEGER NOT NULL DEFAULT 0)`).Error; err != nil {
		t.Fatalf("create sequences table: %v", err)
	}
	t.Cleanup(func() { db.Exec("DROP TABLE sequences") })

	harness := &serviceTestHarness{
		repo:     newFakeOrdersRepo(),
		ledger:   &fakeLedger{},
		stock:    &fakeStock{},
		activity: &fakeActivity{},
		watcher:  &fakeWatcher{},
	}
	svc, err := NewService(ServiceParams{
		Repo:     harness.repo,
		Tx:       &sqliteTxRunner{db: db},
		Ledger:   harness.ledger,
		Stock:    harness.stock,
		Activity: harness.activity,
		Watcher:  harness.watcher,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	harness.svc = svc
	return harness
}

func validCreateInput() CreateOrderInput {
	return CreateOrderInput{
		Customer: "Amine B",
		Phone:    "0550123456",
		City:     "Alger",
		Address:  "12 Rue Didouche",
		Amount:   decimal.NewFromInt(250),
		Items: []CreateOrderItemInput{
			{Article: "Tee", Quantity: 2},
		},
		ActorID: "nour",
	}
}

func TestService_Create_assignsSequentialDisplayIDs(t *testing.T) {
	h := newServiceTestHarness(t)
	ctx := context.Background()

	first, err := h.svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.DisplayID != "ORD-0001" {
		t.Fatalf("unexpected display id: %s", first.DisplayID)
	}
	if first.Status != enums.OrderStatusPacking {
		t.Fatalf("expected default status Packing, got %s", first.Status)
	}

	second, err := h.svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.DisplayID != "ORD-0002" {
		t.Fatalf("unexpected display id: %s", second.DisplayID)
	}
}

func TestService_Create_runsSideEffects(t *testing.T) {
	h := newServiceTestHarness(t)
	ctx := context.Background()

	productID := uuid.New()
	input := validCreateInput()
	input.Items = []CreateOrderItemInput{
		{Article: "Tee", Quantity: 2, ProductID: &productID},
		{Article: "Cap", Quantity: 1},
	}

	order, err := h.svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(h.ledger.views) != 1 {
		t.Fatalf("expected 1 ledger upsert, got %d", len(h.ledger.views))
	}
	view := h.ledger.views[0]
	if !view.CountOrder {
		t.Fatal("create must count the order in the ledger")
	}
	if view.Phone != input.Phone || !view.Amount.Equal(input.Amount) {
		t.Fatalf("unexpected ledger view: %+v", view)
	}

	if h.stock.decrements[productID] != 2 {
		t.Fatalf("expected stock decrement of 2, got %d", h.stock.decrements[productID])
	}
	if len(h.stock.decrements) != 1 {
		t.Fatal("items without a product id must not touch stock")
	}

	if len(h.activity.calls) != 1 {
		t.Fatalf("expected 1 activity entry, got %d", len(h.activity.calls))
	}
	call := h.activity.calls[0]
	if call.action != enums.ActivityOrderCreated || call.orderID != order.ID || call.actorID != "nour" {
		t.Fatalf("unexpected activity call: %+v", call)
	}

	if h.watcher.refreshes != 1 {
		t.Fatalf("expected 1 snapshot refresh, got %d", h.watcher.refreshes)
	}
}

func TestService_Create_sideEffectFailureDoesNotFailOrder(t *testing.T) {
	h := newServiceTestHarness(t)
	h.ledger.err = errors.New("ledger down")
	h.stock.err = errors.New("stock down")

	productID := uuid.New()
	input := validCreateInput()
	input.Items[0].ProductID = &productID

	order, err := h.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create must survive side effect failures: %v", err)
	}
	if order.DisplayID == "" {
		t.Fatal("order should still carry a display id")
	}
}

func TestService_Create_retriesDisplayIDCollision(t *testing.T) {
	h := newServiceTestHarness(t)
	h.repo.createErrs = []error{
		fmt.Errorf(`duplicate key value violates unique constraint "orders_display_id_key"`),
	}

	order, err := h.svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// The failed transaction rolled its increment back, so the retry
	// re-allocates the same value instead of leaving a gap.
	if order.DisplayID != "ORD-0001" {
		t.Fatalf("unexpected display id after retry: %s", order.DisplayID)
	}
}

func TestService_Create_givesUpAfterRepeatedCollisions(t *testing.T) {
	h := newServiceTestHarness(t)
	collision := fmt.Errorf(`duplicate key value violates unique constraint "orders_display_id_key"`)
	h.repo.createErrs = []error{collision, collision, collision}

	_, err := h.svc.Create(context.Background(), validCreateInput())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeContention) {
		t.Fatalf("expected contention error, got %v", err)
	}
}

func TestService_Create_rejectsInvalidInput(t *testing.T) {
	h := newServiceTestHarness(t)
	ctx := context.Background()

	missingCustomer := validCreateInput()
	missingCustomer.Customer = ""
	if _, err := h.svc.Create(ctx, missingCustomer); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	noItems := validCreateInput()
	noItems.Items = nil
	if _, err := h.svc.Create(ctx, noItems); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	negative := validCreateInput()
	negative.Amount = decimal.NewFromInt(-5)
	if _, err := h.svc.Create(ctx, negative); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	badStatus := validCreateInput()
	badStatus.Status = "Shipped"
	if _, err := h.svc.Create(ctx, badStatus); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	h := newServiceTestHarness(t)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.activity.calls = nil

	updated, err := h.svc.UpdateStatus(ctx, order.ID, "Ramassage", "nour")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != enums.OrderStatusRamassage {
		t.Fatalf("unexpected status: %s", updated.Status)
	}
	if len(h.activity.calls) != 1 || h.activity.calls[0].action != enums.ActivityStatusChanged {
		t.Fatalf("expected a status_changed entry, got %+v", h.activity.calls)
	}

	// Same status again is a no-op without an audit entry.
	h.activity.calls = nil
	if _, err := h.svc.UpdateStatus(ctx, order.ID, "Ramassage", "nour"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(h.activity.calls) != 0 {
		t.Fatal("no-op status change must not append activity")
	}

	if _, err := h.svc.UpdateStatus(ctx, order.ID, "Delivered", "nour"); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestService_Update_resyncsLedgerWithoutCounting(t *testing.T) {
	h := newServiceTestHarness(t)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.ledger.views = nil

	newAmount := decimal.NewFromInt(300)
	if _, err := h.svc.Update(ctx, order.ID, UpdateOrderInput{Amount: &newAmount}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(h.ledger.views) != 1 {
		t.Fatalf("expected 1 ledger re-sync, got %d", len(h.ledger.views))
	}
	if h.ledger.views[0].CountOrder {
		t.Fatal("an order correction must not count as a new order")
	}

	// Touching only notes leaves the ledger alone.
	h.ledger.views = nil
	notes := "leave at the door"
	if _, err := h.svc.Update(ctx, order.ID, UpdateOrderInput{Notes: &notes}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(h.ledger.views) != 0 {
		t.Fatal("notes-only update must not touch the ledger")
	}
}

func TestService_PurgeRequiresTrash(t *testing.T) {
	h := newServiceTestHarness(t)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := h.svc.Purge(ctx, order.ID); !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict purging a live order, got %v", err)
	}

	if err := h.svc.SoftDelete(ctx, order.ID, "nour"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := h.svc.Purge(ctx, order.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if len(h.repo.purged) != 1 {
		t.Fatal("expected the order to be purged")
	}
}

func TestService_SoftDeleteAndRestoreAppendActivity(t *testing.T) {
	h := newServiceTestHarness(t)
	ctx := context.Background()

	order, err := h.svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	h.activity.calls = nil

	if err := h.svc.SoftDelete(ctx, order.ID, "nour"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := h.svc.Restore(ctx, order.ID, "nour"); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if len(h.activity.calls) != 2 {
		t.Fatalf("expected delete+restore entries, got %d", len(h.activity.calls))
	}
	if h.activity.calls[0].action != enums.ActivityOrderDeleted {
		t.Fatalf("unexpected first action: %s", h.activity.calls[0].action)
	}
	if h.activity.calls[1].action != enums.ActivityOrderRestored {
		t.Fatalf("unexpected second action: %s", h.activity.calls[1].action)
	}
}

package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	"github.com/nourhachem/backoffice-backend/pkg/types"
)

// Repository exposes persistence helpers for orders. The default listing
// excludes soft-deleted rows; the trash view returns only those.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindAny(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListTrash(ctx context.Context) ([]models.Order, error)
	ListTrackedByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	DeliveredRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateDelivery(ctx context.Context, id uuid.UUID, values *types.DeliveryValues) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	Purge(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindAny looks the order up regardless of its trash state.
func (r *repository) FindAny(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, display_id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListTrash(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Items").
		Where("deleted_at IS NOT NULL").
		Order("created_at DESC, display_id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListTrackedByStatus returns live orders in the given status that carry a
// delivery sub-record. Callers still need to check the tracking id: the
// column holds JSON and an empty tracking id means the shipment was never
// registered.
func (r *repository) ListTrackedByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Where("delivery_values IS NOT NULL").
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// DeliveredRevenue sums the amounts of delivered orders in [from, to). Zero
// bounds widen the window to everything.
func (r *repository) DeliveredRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(CASE WHEN amount - COALESCE(delivery_fee, 0) > 0 THEN amount - COALESCE(delivery_fee, 0) ELSE 0 END), 0)").
		Where("status = ?", enums.OrderStatusLivre)
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}

	var total decimal.Decimal
	row := query.Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateDelivery goes through a struct update so the JSON serializer on the
// delivery column applies.
func (r *repository) UpdateDelivery(ctx context.Context, id uuid.UUID, values *types.DeliveryValues) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Select("Delivery").
		Updates(&models.Order{Delivery: values}).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Restore(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Order{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Purge removes the row for good. Line items go with it via the FK cascade.
func (r *repository) Purge(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

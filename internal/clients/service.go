package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgdb "github.com/nourhachem/backoffice-backend/pkg/db"
	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

// OrderView is the slice of an order the client ledger cares about.
// CountOrder distinguishes a new order (counters move) from a correction to
// an existing one (identity fields only).
type OrderView struct {
	Customer   string
	Phone      string
	City       string
	Address    string
	Amount     decimal.Decimal
	CountOrder bool
	PlacedAt   time.Time
}

type Service interface {
	UpsertFromOrder(ctx context.Context, view OrderView) error
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	GetByPhone(ctx context.Context, phone string) (*models.Client, error)
	List(ctx context.Context) ([]models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
	Now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "clients repository is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{repo: params.Repo, logg: params.Logger, now: params.Now}, nil
}

// UpsertFromOrder keys the ledger on the phone number. A fresh phone creates
// a client row; a known one aggregates, overwriting name, city and address
// only when the incoming values are non-empty.
func (s *service) UpsertFromOrder(ctx context.Context, view OrderView) error {
	phone := strings.TrimSpace(view.Phone)
	if phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "client phone is required")
	}

	existing, err := s.repo.FindByPhone(ctx, phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to look up client by phone")
	}

	if existing == nil {
		client := &models.Client{
			ID:      uuid.New(),
			Name:    strings.TrimSpace(view.Customer),
			Phone:   phone,
			City:    strings.TrimSpace(view.City),
			Address: strings.TrimSpace(view.Address),
		}
		if view.CountOrder {
			client.TotalOrders = 1
			client.TotalSpent = view.Amount
			placedAt := s.placedAt(view)
			client.LastOrderAt = &placedAt
		}
		if err := s.repo.Create(ctx, client); err != nil {
			if pkgdb.IsUniqueViolation(err, "clients_phone_key") {
				// Lost the race to another order for the same phone,
				// fall through to the aggregate path.
				existing, err = s.repo.FindByPhone(ctx, phone)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to re-read client after create race")
				}
			} else {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create client")
			}
		} else {
			return nil
		}
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(view.Customer); name != "" {
		updates["name"] = name
	}
	if city := strings.TrimSpace(view.City); city != "" {
		updates["city"] = city
	}
	if address := strings.TrimSpace(view.Address); address != "" {
		updates["address"] = address
	}
	if view.CountOrder {
		updates["total_orders"] = gorm.Expr("total_orders + 1")
		updates["total_spent"] = gorm.Expr("total_spent + ?", view.Amount)
		updates["last_order_at"] = s.placedAt(view)
	}
	if err := s.repo.Update(ctx, existing.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to aggregate client ledger")
	}
	return nil
}

func (s *service) placedAt(view OrderView) time.Time {
	if !view.PlacedAt.IsZero() {
		return view.PlacedAt
	}
	return s.now()
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to fetch client")
	}
	return client, nil
}

func (s *service) GetByPhone(ctx context.Context, phone string) (*models.Client, error) {
	client, err := s.repo.FindByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to fetch client")
	}
	return client, nil
}

func (s *service) List(ctx context.Context) ([]models.Client, error) {
	clients, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list clients")
	}
	return clients, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete client")
	}
	return nil
}

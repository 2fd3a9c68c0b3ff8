package expenses

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

type AddExpenseInput struct {
	Label   string `validate:"required"`
	Amount  decimal.Decimal
	SpentAt time.Time
}

// Summary nets delivered-order revenue against recorded expenses over a
// window. Zero bounds mean all time.
type Summary struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// RevenueSource is the slice of the orders domain the finance summary needs.
type RevenueSource interface {
	DeliveredRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

type Service interface {
	Add(ctx context.Context, input AddExpenseInput) (*models.Expense, error)
	List(ctx context.Context) ([]models.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Summarize(ctx context.Context, from, to time.Time) (*Summary, error)
}

type service struct {
	repo     Repository
	revenue  RevenueSource
	logg     *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

type ServiceParams struct {
	Repo    Repository
	Revenue RevenueSource
	Logger  *logger.Logger
	Now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "expenses repository is required")
	}
	if params.Revenue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "revenue source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:     params.Repo,
		revenue:  params.Revenue,
		logg:     params.Logger,
		validate: validator.New(),
		now:      params.Now,
	}, nil
}

func (s *service) Add(ctx context.Context, input AddExpenseInput) (*models.Expense, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expense")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	spentAt := input.SpentAt
	if spentAt.IsZero() {
		spentAt = s.now()
	}

	expense := &models.Expense{
		ID:      uuid.New(),
		Label:   input.Label,
		Amount:  input.Amount,
		SpentAt: spentAt,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record expense")
	}
	return expense, nil
}

func (s *service) List(ctx context.Context) ([]models.Expense, error) {
	expenses, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list expenses")
	}
	return expenses, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete expense")
	}
	return nil
}

func (s *service) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	revenue, err := s.revenue.DeliveredRevenue(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to sum revenue")
	}
	spent, err := s.repo.Total(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to sum expenses")
	}
	return &Summary{
		Revenue:  revenue,
		Expenses: spent,
		Net:      revenue.Sub(spent),
	}, nil
}

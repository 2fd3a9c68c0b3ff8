package activity

import (
	"context"

	"github.com/google/uuid"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type Service interface {
	Append(ctx context.Context, action enums.ActivityAction, orderID uuid.UUID, detail, actorID string)
	Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activity repository is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// Append records an audit entry. It deliberately returns nothing: a failed
// audit write must never fail the operation it describes, so the error is
// logged and swallowed.
func (s *service) Append(ctx context.Context, action enums.ActivityAction, orderID uuid.UUID, detail, actorID string) {
	entry := &models.ActivityEntry{
		ID:      uuid.New(),
		Action:  action,
		OrderID: orderID,
		Detail:  detail,
		ActorID: actorID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Error(ctx, "failed to append activity entry", err)
	}
}

func (s *service) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list activity")
	}
	return entries, nil
}

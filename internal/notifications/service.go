package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// PermissionSource reports whether the operator granted desktop
// notifications. When they did, a status notice goes to the desktop channel;
// otherwise it falls back to the in-app toast. Exactly one channel fires per
// notice.
type PermissionSource interface {
	DesktopGranted(ctx context.Context) bool
}

// StaticPermission is a PermissionSource fixed at configuration time.
type StaticPermission bool

func (p StaticPermission) DesktopGranted(context.Context) bool {
	return bool(p)
}

type Service interface {
	NotifyStatusChange(ctx context.Context, displayID, status string) error
	List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       Repository
	permission PermissionSource
	logg       *logger.Logger
	now        func() time.Time
}

type ServiceParams struct {
	Repo       Repository
	Permission PermissionSource
	Logger     *logger.Logger
	Now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository is required")
	}
	if params.Permission == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "permission source is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:       params.Repo,
		permission: params.Permission,
		logg:       params.Logger,
		now:        params.Now,
	}, nil
}

// NotifyStatusChange records one notice for a shipment status move.
func (s *service) NotifyStatusChange(ctx context.Context, displayID, status string) error {
	channel := enums.NotificationChannelToast
	if s.permission.DesktopGranted(ctx) {
		channel = enums.NotificationChannelDesktop
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		DisplayID: displayID,
		Status:    status,
		Channel:   channel,
		Body:      fmt.Sprintf("Order %s is now %s", displayID, status),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record notification")
	}

	ctx = s.logg.WithDisplayID(ctx, displayID)
	s.logg.Info(ctx, fmt.Sprintf("notification dispatched via %s", channel))
	return nil
}

func (s *service) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	notifications, err := s.repo.List(ctx, unreadOnly, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list notifications")
	}
	return notifications, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark notification read")
	}
	return nil
}

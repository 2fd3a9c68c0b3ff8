package notifications

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	"github.com/nourhachem/backoffice-backend/pkg/enums"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

type fakeNotificationsRepo struct {
	created   []*models.Notification
	listLimit int
	markedID  uuid.UUID
	markErr   error
}

func (f *fakeNotificationsRepo) Create(_ context.Context, notification *models.Notification) error {
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeNotificationsRepo) List(_ context.Context, _ bool, limit int) ([]models.Notification, error) {
	f.listLimit = limit
	return nil, nil
}

func (f *fakeNotificationsRepo) MarkRead(_ context.Context, id uuid.UUID, _ time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markedID = id
	return nil
}

func newNotificationsService(t *testing.T, repo Repository, desktopGranted bool) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Permission: StaticPermission(desktopGranted),
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestNotifyStatusChange_usesDesktopWhenGranted(t *testing.T) {
	repo := &fakeNotificationsRepo{}
	svc := newNotificationsService(t, repo, true)

	if err := svc.NotifyStatusChange(context.Background(), "ORD-0001", "In Transit"); err != nil {
		t.Fatalf("NotifyStatusChange: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.Channel != enums.NotificationChannelDesktop {
		t.Fatalf("expected desktop channel, got %s", created.Channel)
	}
	if created.Body != "Order ORD-0001 is now In Transit" {
		t.Fatalf("unexpected body: %s", created.Body)
	}
}

func TestNotifyStatusChange_fallsBackToToast(t *testing.T) {
	repo := &fakeNotificationsRepo{}
	svc := newNotificationsService(t, repo, false)

	if err := svc.NotifyStatusChange(context.Background(), "ORD-0001", "In Transit"); err != nil {
		t.Fatalf("NotifyStatusChange: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(repo.created))
	}
	if repo.created[0].Channel != enums.NotificationChannelToast {
		t.Fatalf("expected toast channel, got %s", repo.created[0].Channel)
	}
}

func TestList_clampsLimit(t *testing.T) {
	repo := &fakeNotificationsRepo{}
	svc := newNotificationsService(t, repo, false)
	ctx := context.Background()

	if _, err := svc.List(ctx, false, 0); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.listLimit != defaultListLimit {
		t.Fatalf("expected default limit, got %d", repo.listLimit)
	}

	if _, err := svc.List(ctx, false, 10_000); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.listLimit != maxListLimit {
		t.Fatalf("expected clamped limit, got %d", repo.listLimit)
	}
}

func TestMarkRead_notFound(t *testing.T) {
	repo := &fakeNotificationsRepo{markErr: gorm.ErrRecordNotFound}
	svc := newNotificationsService(t, repo, false)

	err := svc.MarkRead(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

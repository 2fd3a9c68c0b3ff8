package delivery

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
)

// Credentials is what the gateway client needs to authenticate.
type Credentials struct {
	APIKey    string
	SecretKey string
	BaseURL   string
}

// CredentialsSource yields the current gateway credentials. The client calls
// it on every token refresh, so rotations in settings apply without a
// restart.
type CredentialsSource interface {
	ReadCredentials(ctx context.Context) (Credentials, error)
}

// SettingsSource reads credentials from the delivery settings row.
type SettingsSource struct {
	db *gorm.DB
}

func NewSettingsSource(db *gorm.DB) *SettingsSource {
	return &SettingsSource{db: db}
}

func (s *SettingsSource) ReadCredentials(ctx context.Context) (Credentials, error) {
	var setting models.DeliverySetting
	err := s.db.WithContext(ctx).
		Where("name = ?", models.DeliverySettingName).
		First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Credentials{}, pkgerrors.New(pkgerrors.CodeDependency, "delivery gateway credentials are not configured")
		}
		return Credentials{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to read delivery settings")
	}

	creds := Credentials{
		APIKey:    strings.TrimSpace(setting.APIKey),
		SecretKey: strings.TrimSpace(setting.SecretKey),
		BaseURL:   strings.TrimSpace(setting.BaseURL),
	}
	if creds.APIKey == "" || creds.SecretKey == "" {
		return Credentials{}, pkgerrors.New(pkgerrors.CodeDependency, "delivery gateway credentials are incomplete")
	}
	return creds, nil
}

// SaveCredentials upserts the settings row.
func (s *SettingsSource) SaveCredentials(ctx context.Context, creds Credentials) error {
	if strings.TrimSpace(creds.APIKey) == "" || strings.TrimSpace(creds.SecretKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "api key and secret key are required")
	}

	setting := models.DeliverySetting{
		Name:      models.DeliverySettingName,
		APIKey:    strings.TrimSpace(creds.APIKey),
		SecretKey: strings.TrimSpace(creds.SecretKey),
		BaseURL:   strings.TrimSpace(creds.BaseURL),
	}
	err := s.db.WithContext(ctx).Save(&setting).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store delivery settings")
	}
	return nil
}

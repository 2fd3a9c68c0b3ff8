package controllers

import (
	"net/http"

	"github.com/nourhachem/backoffice-backend/api/responses"
	"github.com/nourhachem/backoffice-backend/api/validators"
	"github.com/nourhachem/backoffice-backend/internal/delivery"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

type deliverySettingsResponse struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl,omitempty"`
	// SecretKey never leaves the server; the UI writes it blind.
	SecretKeySet bool `json:"secretKeySet"`
}

func GetDeliverySettings(source *delivery.SettingsSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := source.ReadCredentials(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, deliverySettingsResponse{
			APIKey:       creds.APIKey,
			BaseURL:      creds.BaseURL,
			SecretKeySet: creds.SecretKey != "",
		})
	}
}

type saveDeliverySettingsRequest struct {
	APIKey    string `json:"apiKey" validate:"required"`
	SecretKey string `json:"secretKey" validate:"required"`
	BaseURL   string `json:"baseUrl,omitempty"`
}

func SaveDeliverySettings(source *delivery.SettingsSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload saveDeliverySettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := source.SaveCredentials(r.Context(), delivery.Credentials{
			APIKey:    payload.APIKey,
			SecretKey: payload.SecretKey,
			BaseURL:   payload.BaseURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "saved"})
	}
}

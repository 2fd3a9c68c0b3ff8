package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nourhachem/backoffice-backend/api/responses"
	activitysvc "github.com/nourhachem/backoffice-backend/internal/activity"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

func RecentActivity(svc activitysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			limit = value
		}

		entries, err := svc.Recent(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

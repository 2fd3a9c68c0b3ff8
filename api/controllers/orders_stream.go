package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nourhachem/backoffice-backend/api/responses"
	ordersvc "github.com/nourhachem/backoffice-backend/internal/orders"
	pkgerrors "github.com/nourhachem/backoffice-backend/pkg/errors"
	"github.com/nourhachem/backoffice-backend/pkg/logger"
)

// StreamOrders pushes full order snapshots to the dashboard over
// server-sent events. Every committed mutation produces one event holding
// the complete list; the client replaces its view wholesale.
func StreamOrders(watcher *ordersvc.Watcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if watcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order watcher unavailable"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		snapshots, cancel := watcher.Subscribe()
		defer cancel()

		// Prime the subscriber so it does not wait for the next mutation.
		watcher.Refresh(r.Context())

		for {
			select {
			case <-r.Context().Done():
				return
			case snapshot, open := <-snapshots:
				if !open {
					return
				}
				payload, err := json.Marshal(snapshot)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "failed to encode order snapshot", err)
					}
					continue
				}
				fmt.Fprintf(w, "event: orders\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}

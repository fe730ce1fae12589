package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geopod-io/geopod/internal/lifecycle"
)

// NewAdminRouter exposes the listener lifecycle on the control plane. It
// is mounted on the side server, not the managed listener, so the
// controller stays reachable while the listener is down.
func NewAdminRouter(ctrl *lifecycle.Controller, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(logger))
	r.Use(Logging(logger))

	r.Route("/admin/server", func(r chi.Router) {
		r.Post("/start", adminAction(func(req *http.Request) (string, error) {
			return ctrl.Start(req.Context())
		}))
		r.Post("/stop", adminAction(func(req *http.Request) (string, error) {
			return ctrl.Stop(req.Context())
		}))
		r.Post("/restart", adminAction(func(req *http.Request) (string, error) {
			return ctrl.Restart(req.Context())
		}))
		r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, ctrl.Status(req.Context()))
		})
		r.Put("/config", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				InternalAddress string `json:"internal_address"`
				ExternalAddress string `json:"external_address"`
				Port            int    `json:"port"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error())
				return
			}
			msg, err := ctrl.Reconfigure(req.Context(), lifecycle.Params{
				InternalAddress: body.InternalAddress,
				ExternalAddress: body.ExternalAddress,
				Port:            body.Port,
			})
			if err != nil {
				var verr *lifecycle.ValidationError
				if errors.As(err, &verr) {
					writeViolations(w, verr.Violations)
					return
				}
				logger.Error("reconfigure failed", "err", err)
				writeError(w, http.StatusInternalServerError, codeInternal, "could not reconfigure server")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": msg})
		})
	})

	return r
}

func adminAction(fn func(*http.Request) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := fn(r)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": msg})
	}
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/dragonpay-gateway/internal/api/httpx"
	"github.com/baharkarakas/dragonpay-gateway/internal/services"
)

type Reconciler interface {
	Run(ctx context.Context) (services.ReconcileReport, error)
}

type ReconcileHandler struct {
	rec Reconciler
	log *slog.Logger
}

func NewReconcileHandler(rec Reconciler, log *slog.Logger) *ReconcileHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReconcileHandler{rec: rec, log: log}
}

// Run sweeps all open records once and reports the counts. The sweep is
// bound to the request context.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	rep, err := h.rec.Run(r.Context())
	if err != nil {
		h.log.Warn("reconcile incomplete", "err", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, rep)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rep)
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/dragonpay-gateway/internal/api/httpx"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/metrics"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
)

// CallbackValidator authenticates a raw callback.
type CallbackValidator interface {
	Validate(cb dragonpay.Callback) (dragonpay.AuthenticatedCallback, error)
}

// CallbackApplier stores the outcome of an authenticated callback.
type CallbackApplier interface {
	ApplyCallback(ctx context.Context, cb dragonpay.AuthenticatedCallback) (*models.Transaction, error)
}

// CallbackHandler serves the postback and return URLs registered with
// Dragonpay.
type CallbackHandler struct {
	validator CallbackValidator
	txns      CallbackApplier
	log       *slog.Logger
}

func NewCallbackHandler(v CallbackValidator, t CallbackApplier, log *slog.Logger) *CallbackHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CallbackHandler{validator: v, txns: t, log: log}
}

// Postback is the server-to-server notification. Dragonpay expects the
// plain body "result=OK" on success.
func (h *CallbackHandler) Postback(w http.ResponseWriter, r *http.Request) {
	if _, err := h.process(r); err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(callbackStatus(err))
		_, _ = w.Write([]byte("result=FAIL"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("result=OK"))
}

type returnResp struct {
	TxnID   string `json:"txn_id"`
	RefNo   string `json:"refno"`
	Status  string `json:"status"`
	Label   string `json:"label"`
	Message string `json:"message"`
	// Final is false while the gateway may still change the status.
	Final   bool   `json:"final"`
}

// Return is where the customer's browser lands after paying. It carries the
// same signed fields as the postback.
func (h *CallbackHandler) Return(w http.ResponseWriter, r *http.Request) {
	cb, err := h.process(r)
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	label, _ := dragonpay.StatusLabel(string(cb.Status))
	httpx.WriteJSON(w, http.StatusOK, returnResp{
		TxnID:   cb.TxnID,
		RefNo:   cb.RefNo,
		Status:  string(cb.Status),
		Label:   label,
		Message: cb.Message,
		Final:   cb.Status != dragonpay.StatusPending && cb.Status != dragonpay.StatusUnknown,
	})
}

func (h *CallbackHandler) process(r *http.Request) (dragonpay.AuthenticatedCallback, error) {
	if err := r.ParseForm(); err != nil {
		metrics.CallbacksTotal.WithLabelValues("invalid").Inc()
		return dragonpay.AuthenticatedCallback{}, &dragonpay.ValidationError{
			Fields: []dragonpay.FieldError{{Field: "body", Reason: "malformed form"}},
		}
	}
	cb, err := h.validator.Validate(dragonpay.CallbackFromValues(r.Form))
	if err != nil {
		metrics.CallbacksTotal.WithLabelValues(callbackResult(err)).Inc()
		h.log.Warn("callback rejected", "txn_id", r.Form.Get("txnid"), "err", err)
		return dragonpay.AuthenticatedCallback{}, err
	}
	metrics.CallbacksTotal.WithLabelValues("authenticated").Inc()

	if _, err := h.txns.ApplyCallback(r.Context(), cb); err != nil {
		h.log.Error("callback not applied", "txn_id", cb.TxnID, "err", err)
		return dragonpay.AuthenticatedCallback{}, err
	}
	return cb, nil
}

func callbackResult(err error) string {
	var de *dragonpay.DecodeError
	switch {
	case errors.Is(err, dragonpay.ErrAuthentication):
		return "rejected"
	case errors.As(err, &de):
		return "decode_failed"
	}
	return "invalid"
}

func callbackStatus(err error) int {
	if status, _ := classify(err); status != 0 {
		return status
	}
	return http.StatusInternalServerError
}

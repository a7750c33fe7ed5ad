package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/dragonpay-gateway/internal/api/httpx"
	"github.com/baharkarakas/dragonpay-gateway/internal/api/validate"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	"github.com/baharkarakas/dragonpay-gateway/internal/services"
)

type TransactionService interface {
	Begin(ctx context.Context, d services.TransactionDetails, mode dragonpay.PaymentMethod) (*models.Transaction, string, error)
	FetchStatus(ctx context.Context, id string) (*models.Transaction, error)
	Get(ctx context.Context, id string) (models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
	History(ctx context.Context, id string) ([]models.StatusChange, error)
}

type TransactionHandler struct {
	svc TransactionService
	log *slog.Logger
}

func NewTransactionHandler(svc TransactionService, log *slog.Logger) *TransactionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionHandler{svc: svc, log: log}
}

type beginReq struct {
	services.TransactionDetails
	Mode dragonpay.PaymentMethod `json:"mode"`
}

type beginResp struct {
	Transaction *models.Transaction `json:"transaction"`
	PaymentURL  string              `json:"payment_url"`
}

// Begin records a pending payment and returns the gateway redirect URL.
func (h *TransactionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var req beginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, err)
		return
	}
	tx, url, err := h.svc.Begin(r.Context(), req.TransactionDetails, req.Mode)
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	status := http.StatusCreated
	if tx == nil {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, beginResp{Transaction: tx, PaymentURL: url})
}

// List supports ?status=, ?incomplete=true, ?search= and paging.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := validate.NewQuery(r.URL.Query())
	f := models.TransactionFilter{
		Status: q.Status("status", dragonpay.TransactionStatuses),
		Search: q.String("search"),
	}
	if inc := q.Bool("incomplete"); inc != nil {
		f.Incomplete = *inc
	}
	f.Limit, f.Offset = q.Page()
	if err := q.Err(); err != nil {
		writeErr(w, h.log, err)
		return
	}

	txs, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

// FetchStatus polls the gateway and applies the answer.
func (h *TransactionHandler) FetchStatus(w http.ResponseWriter, r *http.Request) {
	tx, err := h.svc.FetchStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	changes, err := h.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	if changes == nil {
		changes = []models.StatusChange{}
	}
	httpx.WriteJSON(w, http.StatusOK, changes)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/dragonpay-gateway/internal/api/httpx"
	"github.com/baharkarakas/dragonpay-gateway/internal/api/validate"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/models"
	"github.com/baharkarakas/dragonpay-gateway/internal/services"
)

type PayoutService interface {
	Create(ctx context.Context, req services.PayoutRequest) ([]models.Payout, error)
	FetchStatus(ctx context.Context, id string) (*models.Payout, error)
	Get(ctx context.Context, id string) (models.Payout, error)
	List(ctx context.Context, f models.PayoutFilter) ([]models.Payout, error)
	History(ctx context.Context, id string) ([]models.StatusChange, error)
	RegisterUser(ctx context.Context, u models.PayoutUser) (models.PayoutUser, error)
	GetUser(ctx context.Context, id string) (models.PayoutUser, error)
}

type PayoutHandler struct {
	svc PayoutService
	log *slog.Logger
}

func NewPayoutHandler(svc PayoutService, log *slog.Logger) *PayoutHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PayoutHandler{svc: svc, log: log}
}

// decodePayoutRequest reads a JSON object as a single payout and a JSON
// array as a batch.
func decodePayoutRequest(r *http.Request) (services.PayoutRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	switch raw[0] {
	case '{':
		var d services.PayoutDetails
		if err := dec.Decode(&d); err != nil {
			return nil, err
		}
		return services.SinglePayout{PayoutDetails: d}, nil
	case '[':
		var items []services.PayoutDetails
		if err := dec.Decode(&items); err != nil {
			return nil, err
		}
		return services.BatchPayout{Items: items}, nil
	}
	return nil, dragonpay.ErrUnsupportedRequest
}

type createPayoutResp struct {
	Saved   bool            `json:"saved"`
	Payouts []models.Payout `json:"payouts"`
}

func (h *PayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayoutRequest(r)
	if errors.Is(err, dragonpay.ErrUnsupportedRequest) {
		writeErr(w, h.log, err)
		return
	}
	if err != nil {
		badJSON(w, err)
		return
	}

	rows, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	if rows == nil {
		httpx.WriteJSON(w, http.StatusOK, createPayoutResp{Payouts: []models.Payout{}})
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, createPayoutResp{Saved: true, Payouts: rows})
}

// List supports ?status=, ?completed=true|false, ?search= and paging.
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	q := validate.NewQuery(r.URL.Query())
	f := models.PayoutFilter{
		Status:    q.Status("status", dragonpay.PayoutStatuses),
		Completed: q.Bool("completed"),
		Search:    q.String("search"),
	}
	f.Limit, f.Offset = q.Page()
	if err := q.Err(); err != nil {
		writeErr(w, h.log, err)
		return
	}

	ps, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	if ps == nil {
		ps = []models.Payout{}
	}
	httpx.WriteJSON(w, http.StatusOK, ps)
}

func (h *PayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *PayoutHandler) FetchStatus(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.FetchStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *PayoutHandler) History(w http.ResponseWriter, r *http.Request) {
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

func (h *PayoutHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var u models.PayoutUser
	if err := httpx.DecodeJSON(r, &u); err != nil {
		badJSON(w, err)
		return
	}
	created, err := h.svc.RegisterUser(r.Context(), u)
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *PayoutHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

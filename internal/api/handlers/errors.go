package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/dragonpay-gateway/internal/api/httpx"
	"github.com/baharkarakas/dragonpay-gateway/internal/api/validate"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/gateway"
	repo "github.com/baharkarakas/dragonpay-gateway/internal/repository"
)

// classify maps a domain error onto an HTTP status and an API error body.
// A zero status means the error is unexpected.
func classify(err error) (int, httpx.APIError) {
	var (
		ve  *dragonpay.ValidationError
		qe  validate.Errs
		de  *dragonpay.DecodeError
		gwe *gateway.Error
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, httpx.APIError{Code: "validation_error", Error: "invalid input", Details: ve.Fields}
	case errors.As(err, &qe):
		return http.StatusBadRequest, httpx.APIError{Code: "validation_error", Error: "invalid query", Details: qe}
	case errors.Is(err, dragonpay.ErrAuthentication):
		return http.StatusForbidden, httpx.APIError{Code: "authentication_failed", Error: "digest mismatch"}
	case errors.As(err, &de):
		return http.StatusBadRequest, httpx.APIError{Code: "decode_failed", Error: "could not decode " + de.Field}
	case errors.Is(err, dragonpay.ErrUnsupportedRequest):
		return http.StatusBadRequest, httpx.APIError{Code: "unsupported_request", Error: err.Error()}
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, httpx.APIError{Code: "not_found", Error: "not found"}
	case errors.Is(err, repo.ErrStaleStatus):
		return http.StatusConflict, httpx.APIError{Code: "conflict", Error: "status changed concurrently, retry"}
	case errors.As(err, &gwe):
		return http.StatusBadGateway, httpx.APIError{Code: "gateway_error", Error: gwe.Error(),
			Details: map[string]string{"code": gwe.Code, "label": gwe.Label}}
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusServiceUnavailable, httpx.APIError{Code: "gateway_unavailable", Error: "gateway unavailable"}
	case errors.Is(err, gateway.ErrRequestFailed):
		return http.StatusBadGateway, httpx.APIError{Code: "gateway_error", Error: "gateway request failed"}
	}
	return 0, httpx.APIError{Code: "internal_error", Error: "internal error"}
}

func writeErr(w http.ResponseWriter, log *slog.Logger, err error) {
	status, body := classify(err)
	if status == 0 {
		log.Error("request failed", "err", err)
		status = http.StatusInternalServerError
	}
	httpx.WriteJSON(w, status, body)
}

func badJSON(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", err.Error())
}

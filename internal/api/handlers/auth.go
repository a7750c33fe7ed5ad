package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/api/httpx"
	"github.com/baharkarakas/dragonpay-gateway/internal/auth"
)

type AuthHandler struct {
	TM        *auth.TokenManager
	AppEnv    string
	AdminUser string
	AdminHash string
	log       *slog.Logger
}

func NewAuthHandler(tm *auth.TokenManager, appEnv, adminUser, adminHash string, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{TM: tm, AppEnv: appEnv, AdminUser: adminUser, AdminHash: adminHash, log: log}
}

type loginReq struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// dev only
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

// Login checks the configured admin credentials. In dev, a body without a
// password issues a token for any user id and role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, err)
		return
	}

	if h.AppEnv == "dev" && req.Password == "" {
		if req.UserID == "" {
			req.UserID = "dev"
		}
		if req.Role != auth.RoleAdmin {
			req.Role = auth.RoleOperator
		}
		h.issue(w, req.UserID, req.Role)
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.AdminUser)) == 1
	if err := auth.VerifyPassword(req.Password, h.AdminHash); err != nil || !userOK {
		h.log.Warn("admin login failed", "username", req.Username)
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
		return
	}
	h.issue(w, h.AdminUser, auth.RoleAdmin)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "refresh_token required", nil)
		return
	}
	claims, isRefresh, err := h.TM.ParseAny(req.RefreshToken)
	if err != nil || !isRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	h.issue(w, claims.UserID, claims.Role)
}

func (h *AuthHandler) issue(w http.ResponseWriter, userID, role string) {
	access, refresh, exp, err := h.TM.GeneratePair(userID, role)
	if err != nil {
		h.log.Error("token generation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Truncate(time.Second) / time.Second),
	})
}

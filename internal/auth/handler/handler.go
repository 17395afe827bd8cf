package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"castingbase/pkg/platform/httputil"
	"castingbase/pkg/requestcontext"
)

// Service defines the auth operations the HTTP layer needs.
type Service interface {
	Login(ctx context.Context, identifier, password string) (string, error)
}

// Handler handles login.
type Handler struct {
	logger *slog.Logger
	auth   Service
	expiry time.Duration
}

// New creates a new auth Handler.
func New(auth Service, expiry time.Duration, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, auth: auth, expiry: expiry}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.handleLogin)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.auth.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.expiry.Seconds()),
	})
}

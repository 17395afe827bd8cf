package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"castingbase/internal/production/models"
	dErrors "castingbase/pkg/domain-errors"
	"castingbase/pkg/platform/httputil"
	"castingbase/pkg/requestcontext"
)

// Service defines the production operations the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, input models.CreateInput) (uuid.UUID, error)
	Pairs(ctx context.Context) (map[uuid.UUID]string, error)
	Assign(ctx context.Context, productionID, identityID uuid.UUID) error
}

// Handler handles production endpoints.
type Handler struct {
	logger     *slog.Logger
	production Service
}

// New creates a new production Handler.
func New(production Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, production: production}
}

// Register registers the production routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/production/create", h.handleCreate)
	r.Get("/api/production/pairs", h.handlePairs)
	r.Post("/api/production/assign", h.handleAssign)
}

type createRequest struct {
	Name    string `json:"production_name"`
	Code    string `json:"production_code"`
	Budget  string `json:"budget"`
	Address string `json:"address"`
	About   string `json:"about"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[createRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	id, err := h.production.Create(ctx, models.CreateInput{
		Name:    req.Name,
		Code:    req.Code,
		Budget:  req.Budget,
		Address: req.Address,
		About:   req.About,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "production create rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) handlePairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.production.Pairs(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make(map[string]string, len(pairs))
	for id, name := range pairs {
		out[id.String()] = name
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"productions": out})
}

type assignRequest struct {
	ProductionID string `json:"production_id"`
	IdentityID   string `json:"identity_id"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[assignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	productionID, err := uuid.Parse(req.ProductionID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "production_id is not a valid uuid"))
		return
	}
	identityID, err := uuid.Parse(req.IdentityID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity_id is not a valid uuid"))
		return
	}

	if err := h.production.Assign(ctx, productionID, identityID); err != nil {
		h.logger.WarnContext(ctx, "membership assignment rejected",
			"request_id", requestID,
			"production_id", productionID,
			"identity_id", identityID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

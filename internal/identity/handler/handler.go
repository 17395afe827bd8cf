package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"castingbase/internal/identity/models"
	"castingbase/internal/identity/service"
	dErrors "castingbase/pkg/domain-errors"
	"castingbase/pkg/platform/httputil"
	"castingbase/pkg/requestcontext"
)

// registrationCookie carries the registration token between the partial step
// and the specialization step so browser clients do not have to hold it.
const registrationCookie = "registration_token"

// Service defines the identity operations the HTTP layer needs.
type Service interface {
	RegisterPartial(ctx context.Context, input models.PartialInput) (string, error)
	ResolvePartial(ctx context.Context, token string) (*models.Identity, error)
	SpecializeActor(ctx context.Context, token string, data service.ActorData) (*models.Identity, error)
	SpecializeProducer(ctx context.Context, token string, data service.CrewData, productionID *uuid.UUID) (*models.Identity, error)
	SpecializeDirector(ctx context.Context, token string, data service.CrewData, productionID *uuid.UUID) (*models.Identity, error)
	SpecializeCastingDirector(ctx context.Context, token string, productionID uuid.UUID, productionCode string) (*models.Identity, error)
	UploadProfilePhoto(ctx context.Context, id uuid.UUID, filename, contentType string, size int64, content io.Reader) (string, error)
	ResolveProfilePhoto(ctx context.Context, id uuid.UUID) (string, error)
}

// Handler handles registration, specialization and profile photo endpoints.
type Handler struct {
	logger   *slog.Logger
	identity Service
}

// New creates a new identity Handler.
func New(identity Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, identity: identity}
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/partial/register", h.handlePartialRegister)
	r.Post("/api/partial/return", h.handlePartialReturn)
	r.Post("/api/actor/register", h.handleActorRegister)
	r.Post("/api/producer/register", h.handleProducerRegister)
	r.Post("/api/director/register", h.handleDirectorRegister)
	r.Post("/api/castingdirector/register", h.handleCastingDirectorRegister)
	r.Post("/api/identity/{id}/photo", h.handlePhotoUpload)
	r.Get("/api/identity/{id}/photo", h.handlePhotoDownload)
}

type partialRegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	Position    string `json:"position"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
}

type partialRegisterResponse struct {
	RegistrationToken string `json:"registration_token"`
}

func (h *Handler) handlePartialRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[partialRegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.identity.RegisterPartial(ctx, models.PartialInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Position:    req.Position,
		Gender:      req.Gender,
		Nationality: req.Nationality,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "partial registration rejected",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     registrationCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((30 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusCreated, partialRegisterResponse{RegistrationToken: token})
}

type tokenRequest struct {
	RegistrationToken string `json:"registration_token"`
}

func (h *Handler) handlePartialReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[tokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token := h.token(r, req.RegistrationToken)
	identity, err := h.identity.ResolvePartial(ctx, token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, partialView(identity))
}

type actorRegisterRequest struct {
	RegistrationToken string  `json:"registration_token"`
	HeightCM          float64 `json:"height_cm"`
	WeightKG          float64 `json:"weight_kg"`
	Bio               string  `json:"bio"`
	DateOfBirth       string  `json:"date_of_birth"`
}

func (h *Handler) handleActorRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[actorRegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if dob == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "date_of_birth is required"))
		return
	}

	identity, err := h.identity.SpecializeActor(ctx, h.token(r, req.RegistrationToken), service.ActorData{
		HeightCM:    req.HeightCM,
		WeightKG:    req.WeightKG,
		Bio:         req.Bio,
		DateOfBirth: *dob,
	})
	h.writeSpecialized(w, r, identity, err)
}

type crewRegisterRequest struct {
	RegistrationToken string  `json:"registration_token"`
	Bio               string  `json:"bio"`
	DateOfBirth       string  `json:"date_of_birth"`
	ProductionID      *string `json:"production_id"`
}

func (h *Handler) handleProducerRegister(w http.ResponseWriter, r *http.Request) {
	h.handleCrewRegister(w, r, h.identity.SpecializeProducer)
}

func (h *Handler) handleDirectorRegister(w http.ResponseWriter, r *http.Request) {
	h.handleCrewRegister(w, r, h.identity.SpecializeDirector)
}

func (h *Handler) handleCrewRegister(
	w http.ResponseWriter,
	r *http.Request,
	specialize func(ctx context.Context, token string, data service.CrewData, productionID *uuid.UUID) (*models.Identity, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[crewRegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var productionID *uuid.UUID
	if req.ProductionID != nil && *req.ProductionID != "" {
		id, err := uuid.Parse(*req.ProductionID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "production_id is not a valid uuid"))
			return
		}
		productionID = &id
	}

	identity, err := specialize(ctx, h.token(r, req.RegistrationToken), service.CrewData{
		Bio:         req.Bio,
		DateOfBirth: dob,
	}, productionID)
	h.writeSpecialized(w, r, identity, err)
}

type castingDirectorRegisterRequest struct {
	RegistrationToken string `json:"registration_token"`
	ProductionID      string `json:"production_id"`
	ProductionCode    string `json:"production_code"`
}

func (h *Handler) handleCastingDirectorRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[castingDirectorRegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	productionID, err := uuid.Parse(req.ProductionID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "production_id is not a valid uuid"))
		return
	}

	identity, err := h.identity.SpecializeCastingDirector(ctx, h.token(r, req.RegistrationToken), productionID, req.ProductionCode)
	h.writeSpecialized(w, r, identity, err)
}

// writeSpecialized finishes every specialization route the same way: clear the
// registration cookie on success so a stale token is never resent.
func (h *Handler) writeSpecialized(w http.ResponseWriter, r *http.Request, identity *models.Identity, err error) {
	ctx := r.Context()
	if err != nil {
		h.logger.WarnContext(ctx, "specialization rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     registrationCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, identityView(identity))
}

func (h *Handler) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity id is not a valid uuid"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "no file uploaded"))
		return
	}
	defer file.Close()

	ref, err := h.identity.UploadProfilePhoto(ctx, id, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		h.logger.WarnContext(ctx, "photo upload rejected",
			"request_id", requestID,
			"identity_id", id,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"photo": ref})
}

func (h *Handler) handlePhotoDownload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identity id is not a valid uuid"))
		return
	}

	path, err := h.identity.ResolveProfilePhoto(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	http.ServeFile(w, r, path)
}

// token prefers the explicit body field and falls back to the registration
// cookie set at the partial step.
func (h *Handler) token(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(registrationCookie); err == nil {
		return c.Value
	}
	return ""
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "date_of_birth must be YYYY-MM-DD")
}

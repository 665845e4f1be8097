package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/dto"
)

const (
	labelValidation = "Erro de validação"
	labelNotFound   = "Recurso não encontrado"
	labelBadRequest = "Requisição inválida"
	labelInternal   = "Erro interno do servidor"

	genericErrorMessage = "Ocorreu um erro inesperado. Tente novamente mais tarde."
	notFoundMessage     = "Contato não encontrado"
)

// ContactService is the set of operations the handler exposes over HTTP.
type ContactService interface {
	ListAll(ctx context.Context) ([]*dto.ContactDTO, error)
	ListFavorites(ctx context.Context) ([]*dto.ContactDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ContactDTO, error)
	Search(ctx context.Context, term string) ([]*dto.ContactDTO, error)
	Create(ctx context.Context, in *dto.ContactDTO) (*dto.ContactDTO, error)
	Update(ctx context.Context, id uuid.UUID, in *dto.ContactDTO) (*dto.ContactDTO, error)
	Inactivate(ctx context.Context, id uuid.UUID) error
	ToggleFavorite(ctx context.Context, id uuid.UUID) (*dto.ContactDTO, error)
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// ContactHandler handles HTTP requests for contacts.
type ContactHandler struct {
	service ContactService
	logger  *slog.Logger
	now     func() time.Time
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  logger.With("component", "contact_handler"),
		now:     time.Now,
	}
}

// RegisterRoutes mounts the contact routes on r. Static segments are matched before {id}.
func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/contatos", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Post("/", h.Create)
		r.Get("/favoritos", h.ListFavorites)
		r.Get("/buscar", h.Search)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Inactivate)
		r.Patch("/{id}/favorito", h.ToggleFavorite)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func (h *ContactHandler) respondWithError(w http.ResponseWriter, code int, errLabel, message string, fields map[string]string) {
	respondWithJSON(w, code, ErrorResponse{
		Timestamp: h.now().UTC(),
		Status:    code,
		Error:     errLabel,
		Message:   message,
		Errors:    fields,
	})
}

// handleServiceError maps service errors to status codes. Unexpected errors are logged, not echoed.
func (h *ContactHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	var cerr *domain.ConflictError

	switch {
	case errors.As(err, &verr):
		h.respondWithError(w, http.StatusBadRequest, labelValidation, verr.Error(), verr.Fields)
	case errors.As(err, &cerr):
		h.respondWithError(w, http.StatusBadRequest, labelValidation, cerr.Message, nil)
	case errors.Is(err, domain.ErrNotFound):
		h.respondWithError(w, http.StatusNotFound, labelNotFound, notFoundMessage, nil)
	default:
		h.logger.ErrorContext(r.Context(), "Unexpected error handling request",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		h.respondWithError(w, http.StatusInternalServerError, labelInternal, genericErrorMessage, nil)
	}
}

func (h *ContactHandler) badRequest(w http.ResponseWriter, message string) {
	h.respondWithError(w, http.StatusBadRequest, labelBadRequest, message, nil)
}

// parseID reads the {id} path parameter and writes a 400 when it is not a UUID.
func (h *ContactHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.badRequest(w, "Invalid contact ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *ContactHandler) decodeContact(w http.ResponseWriter, r *http.Request) (*dto.ContactDTO, bool) {
	defer r.Body.Close()
	var in dto.ContactDTO
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.badRequest(w, "Invalid request payload: "+err.Error())
		return nil, false
	}
	return &in, true
}

func (h *ContactHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.ListAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.ListFavorites(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, contacts)
}

// Search requires the termo query parameter; an empty value is allowed and matches everything.
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	values, ok := r.URL.Query()["termo"]
	if !ok {
		h.badRequest(w, "Parâmetro 'termo' é obrigatório")
		return
	}
	contacts, err := h.service.Search(r.Context(), values[0])
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	contact, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeContact(w, r)
	if !ok {
		return
	}
	contact, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeContact(w, r)
	if !ok {
		return
	}
	contact, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) Inactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Inactivate(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	contact, err := h.service.ToggleFavorite(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, contact)
}

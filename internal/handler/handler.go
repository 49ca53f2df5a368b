package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"netgraph/internal/codec"
	"netgraph/internal/domain"
	"netgraph/internal/service"

	"github.com/rs/zerolog"
)

// MaxDescriptorBytes caps the body of a level upload
const MaxDescriptorBytes = 1 << 20

// LevelHandler handles level API requests
type LevelHandler struct {
	svc    *service.LevelService
	logger zerolog.Logger
}

// NewLevelHandler creates a new level handler
func NewLevelHandler(svc *service.LevelService, logger zerolog.Logger) *LevelHandler {
	return &LevelHandler{svc: svc, logger: logger}
}

// ErrorResponse is the body of every failed request. Kind and Line are set
// when a descriptor was rejected.
type ErrorResponse struct {
	Error   string                `json:"error"`
	Details string                `json:"details,omitempty"`
	Kind    domain.DiagnosticKind `json:"kind,omitempty"`
	Line    int                   `json:"line,omitempty"`
}

// ListLevels returns a summary of every stored level
func (h *LevelHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list levels")
		h.writeError(w, "Failed to list levels", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, levels, http.StatusOK)
}

// GetLevel returns one level with its graph
func (h *LevelHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	level, err := h.svc.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, "Failed to get level", err)
		return
	}

	h.writeJSON(w, level, http.StatusOK)
}

// PutLevel stores the request body under the level name. The body is
// descriptor text unless ?format= or the Content-Type names json or yaml.
func (h *LevelHandler) PutLevel(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatFromContentType(r.Header.Get("Content-Type"))
	}

	body := http.MaxBytesReader(w, r.Body, MaxDescriptorBytes)
	level, err := h.svc.ImportFormat(r.Context(), name, format, body)
	if err != nil {
		h.fail(w, "Failed to store level", err)
		return
	}

	h.writeJSON(w, level.Summary(), http.StatusOK)
}

// DeleteLevel removes a level
func (h *LevelHandler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("name")); err != nil {
		h.fail(w, "Failed to delete level", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportLevel writes a level in the format named by ?format=, descriptor
// text by default
func (h *LevelHandler) ExportLevel(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	format := r.URL.Query().Get("format")

	c, err := codec.ForFormat(format)
	if err != nil {
		h.fail(w, "Failed to export level", err)
		return
	}

	// service.Export buffers, so nothing is written when it fails
	w.Header().Set("Content-Type", contentTypes[c.Format()])
	if err := h.svc.Export(r.Context(), name, c.Format(), w); err != nil {
		w.Header().Del("Content-Type")
		h.fail(w, "Failed to export level", err)
		return
	}
}

// Health reports liveness and the number of stored levels
func (h *LevelHandler) Health(w http.ResponseWriter, r *http.Request) {
	levels, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, "Storage unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"status": "ok",
		"levels": len(levels),
	}, http.StatusOK)
}

var contentTypes = map[string]string{
	codec.FormatDescriptor: "text/plain; charset=utf-8",
	codec.FormatJSON:       "application/json",
	codec.FormatYAML:       "application/x-yaml",
}

func formatFromContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return codec.FormatDescriptor
	}
	switch mediaType {
	case "application/json":
		return codec.FormatJSON
	case "application/yaml", "application/x-yaml", "text/yaml":
		return codec.FormatYAML
	}
	return codec.FormatDescriptor
}

// fail maps a service error to a response status
func (h *LevelHandler) fail(w http.ResponseWriter, message string, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrLevelNotFound):
		h.writeError(w, "Level not found", err.Error(), http.StatusNotFound)
	case errors.As(err, &maxBytes):
		h.writeError(w, message, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, service.ErrInvalidLevelName),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, codec.ErrMalformed):
		h.writeError(w, message, err.Error(), http.StatusBadRequest)
	default:
		if d, ok := domain.AsDiagnostic(err); ok && d.Kind != domain.KindIo {
			h.writeJSON(w, ErrorResponse{
				Error:   "Descriptor rejected",
				Details: d.Error(),
				Kind:    d.Kind,
				Line:    d.Line,
			}, http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error().Err(err).Msg(message)
		h.writeError(w, message, err.Error(), http.StatusInternalServerError)
	}
}

// Helper methods

func (h *LevelHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON")
	}
}

func (h *LevelHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

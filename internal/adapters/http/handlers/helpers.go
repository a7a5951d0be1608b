package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/longregen/promptforge/internal/adapters/http/dto"
	"github.com/longregen/promptforge/internal/domain"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, errorType string, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.NewErrorResponse(errorType, message, status))
}

// respondDomainError maps domain sentinel errors onto HTTP statuses
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, "validation_error", err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, "not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrGeneration), errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrEvaluation):
		respondError(w, "upstream_error", err.Error(), http.StatusBadGateway)
	default:
		respondError(w, "internal_error", err.Error(), http.StatusInternalServerError)
	}
}

// validateURLParam validates and returns a URL parameter
func validateURLParam(r *http.Request, w http.ResponseWriter, paramName, errorField string) (string, bool) {
	value := chi.URLParam(r, paramName)
	if value == "" {
		respondError(w, "invalid_request", errorField+" is required", http.StatusBadRequest)
		return "", false
	}
	return value, true
}

// decodeJSON decodes JSON request body with error handling
func decodeJSON[T any](r *http.Request, w http.ResponseWriter) (*T, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 10*1024*1024) // 10MB limit, documents come through here

	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/longregen/promptforge/internal/adapters/http/dto"
	"github.com/longregen/promptforge/internal/application/services"
	"github.com/longregen/promptforge/internal/domain/models"
)

// DocumentsHandler manages the reference corpus.
type DocumentsHandler struct {
	ingestion *services.IngestionService
}

func NewDocumentsHandler(ingestion *services.IngestionService) *DocumentsHandler {
	return &DocumentsHandler{ingestion: ingestion}
}

func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[dto.UploadDocumentRequest](r, w)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		respondError(w, "validation_error", "filename is required", http.StatusBadRequest)
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	doc, err := h.ingestion.Ingest(r.Context(), req.Filename, contentType, req.Content)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, doc, http.StatusCreated)
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.ingestion.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	respondJSON(w, docs, http.StatusOK)
}

func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := validateURLParam(r, w, "id", "document id")
	if !ok {
		return
	}

	if err := h.ingestion.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ingestion.Stats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AritraCh2005/SmartSeva-4/internal/docstore"
	"github.com/AritraCh2005/SmartSeva-4/internal/ingestion"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
)

// handleIngest handles POST /api/documents: a multipart upload with a single
// "file" part carrying the scheme document (PDF or plain text).
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if s.ingester == nil {
		http.Error(w, "document management not available", http.StatusNotImplemented)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		http.Error(w, "invalid or oversized upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file part is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	res, err := s.ingester.Ingest(r.Context(), ingestion.Source{
		Name: header.Filename,
		Data: data,
	})
	if err != nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, docstore.ErrInvalidDocument) {
			http.Error(w, "document has no extractable text", http.StatusUnprocessableEntity)
			return
		}
		log.Error("ingest failed",
			slog.String("source", header.Filename),
			slog.Any("error", err))
		http.Error(w, "ingestion failed", http.StatusInternalServerError)
		return
	}

	s.metrics.ingestDocumentsTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestChunksTotal.Add(float64(res.Chunks))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ingestResponse{ //nolint:errcheck
		DocumentID: res.DocumentID,
		Chunks:     res.Chunks,
	})
}

// handleListDocuments handles GET /api/documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		http.Error(w, "document management not available", http.StatusNotImplemented)
		return
	}

	docs, err := s.docs.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("list documents failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{
			ID:        d.ID,
			Source:    d.Source,
			CreatedAt: d.CreatedAt.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out) //nolint:errcheck
}

// handleRemoveDocument handles DELETE /api/documents/{id}.
func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	if s.ingester == nil {
		http.Error(w, "document management not available", http.StatusNotImplemented)
		return
	}

	id := r.PathValue("id")
	if err := s.ingester.Remove(r.Context(), id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("remove document failed",
			slog.String("document_id", id),
			slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

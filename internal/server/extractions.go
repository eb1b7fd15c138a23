package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const msgNoStore = "Persistence is not configured"

type storedExtraction struct {
	ID            string          `json:"id"`
	Filename      string          `json:"filename"`
	DocumentType  string          `json:"document_type"`
	RawTextLength int             `json:"raw_text_length"`
	CreatedAt     string          `json:"created_at"`
	Data          *extractionData `json:"data"`
}

func toStored(rec repository.Record) (storedExtraction, error) {
	inv, rep, err := rec.Decode()
	if err != nil {
		return storedExtraction{}, err
	}
	return storedExtraction{
		ID:            rec.ID.String(),
		Filename:      rec.Filename,
		DocumentType:  rec.DocumentType,
		RawTextLength: rec.RawTextLength,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		Data:          &extractionData{Invoice: inv, Validation: rep, ID: rec.ID.String()},
	}, nil
}

func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, msgNoStore)
		return
	}
	raw := chi.URLParam(r, "id")
	if err := common.NewValidator().Field("id", raw, common.UUID).Err(); err != nil {
		writeValidationError(w, err)
		return
	}
	id := uuid.MustParse(raw)

	rec, err := s.deps.Store.Get(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Extraction not found")
		return
	}
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("api.extraction.get_failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load extraction")
		return
	}
	out, err := toStored(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not decode extraction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "extraction": out})
}

func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, msgNoStore)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.deps.Store.List(r.Context(), limit)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("api.extraction.list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not list extractions")
		return
	}
	out := make([]storedExtraction, 0, len(recs))
	for _, rec := range recs {
		se, err := toStored(rec)
		if err != nil {
			continue
		}
		out = append(out, se)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "extractions": out})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		writeError(w, http.StatusServiceUnavailable, msgNoStore)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	data, err := s.deps.Exporter.ExportExtractionsXLSX(r.Context(), limit)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("api.export.failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="extractions.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// extractionData is the "data" object of a successful extraction: the
// invoice fields flattened alongside the validation report.
type extractionData struct {
	invoice.Invoice
	Validation       invoice.Report `json:"validation"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	ID               string         `json:"id,omitempty"`
}

func newExtractionData(doc pipeline.Document) extractionData {
	d := extractionData{
		Invoice:          doc.Invoice,
		Validation:       doc.Report,
		ProcessingTimeMS: doc.Elapsed.Milliseconds(),
	}
	if d.Invoice.LineItems == nil {
		d.Invoice.LineItems = []invoice.LineItem{}
	}
	if d.Validation.Warnings == nil {
		d.Validation.Warnings = []string{}
	}
	if d.Validation.Suggestions == nil {
		d.Validation.Suggestions = []string{}
	}
	if doc.ID != uuid.Nil {
		d.ID = doc.ID.String()
	}
	return d
}

type extractResponse struct {
	Success  bool            `json:"success"`
	Filename string          `json:"filename,omitempty"`
	Data     *extractionData `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type batchResponse struct {
	Success bool              `json:"success"`
	Results []extractResponse `json:"results"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, extractResponse{Success: false, Error: msg})
}

// writeValidationError answers 400 with the validator's field messages.
func writeValidationError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	writeError(w, http.StatusBadRequest, msg)
}

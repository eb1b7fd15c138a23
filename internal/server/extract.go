package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

const (
	fieldFile    = "file"
	fieldFiles   = "files"
	fieldDocType = "document_type"

	// document_type is interpolated into the model prompt
	maxDocTypeLen = 64

	// multipart parts above this stay on disk rather than in memory
	multipartMemory = 8 << 20
)

const (
	msgNoFile         = "No file provided"
	msgNoFileSelected = "No file selected"
	msgPDFOnly        = "Only PDF files are supported"
	msgTooLarge       = "File too large"
	msgNoText         = "Could not extract text from PDF"
)

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	logger := common.LoggerFromContext(r.Context(), s.logger)
	if !s.parseMultipart(w, r) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[fieldFile]
	if len(files) == 0 {
		if _, present := r.MultipartForm.Value[fieldFile]; present {
			writeError(w, http.StatusBadRequest, msgNoFileSelected)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	fh := files[0]
	if strings.TrimSpace(fh.Filename) == "" {
		writeError(w, http.StatusBadRequest, msgNoFileSelected)
		return
	}
	if !isPDF(fh.Filename) {
		writeError(w, http.StatusBadRequest, msgPDFOnly)
		return
	}

	docType := r.FormValue(fieldDocType)
	if err := validateDocType(docType); err != nil {
		writeValidationError(w, err)
		return
	}

	logger.Info("api.extract.start", "file", fh.Filename, "size", fh.Size)
	resp, code := s.extractOne(r.Context(), fh, docType)
	writeJSON(w, code, resp)
}

func (s *Server) handleBatchExtract(w http.ResponseWriter, r *http.Request) {
	logger := common.LoggerFromContext(r.Context(), s.logger)
	if !s.parseMultipart(w, r) {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[fieldFiles]
	docType := r.FormValue(fieldDocType)
	if err := validateDocType(docType); err != nil {
		writeValidationError(w, err)
		return
	}
	results := make([]extractResponse, len(files))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.BatchWorkers)
	for i, fh := range files {
		if !isPDF(fh.Filename) {
			results[i] = extractResponse{Filename: fh.Filename, Error: msgPDFOnly}
			continue
		}
		g.Go(func() error {
			results[i], _ = s.extractOne(ctx, fh, docType)
			results[i].Filename = fh.Filename
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, res := range results {
		if res.Success {
			ok++
		}
	}
	logger.Info("api.batch.done", "files", len(files), "succeeded", ok)
	writeJSON(w, http.StatusOK, batchResponse{Success: true, Results: results})
}

// extractOne spools the upload to a temp file and runs it through the
// pipeline, returning the response body and its status code.
func (s *Server) extractOne(ctx context.Context, fh *multipart.FileHeader, docType string) (extractResponse, int) {
	logger := common.LoggerFromContext(ctx, s.logger)

	path, cleanup, err := spool(fh)
	if err != nil {
		logger.Error("api.extract.spool_failed", "file", fh.Filename, "error", err)
		return extractResponse{Error: "Processing failed: " + err.Error()}, http.StatusInternalServerError
	}
	defer cleanup()

	doc, err := s.deps.Runner.Run(ctx, path, fh.Filename, docType)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrUnsupportedFile):
		return extractResponse{Error: msgPDFOnly}, http.StatusBadRequest
	case errors.Is(err, common.ErrInsufficientText):
		return extractResponse{Error: msgNoText}, http.StatusUnprocessableEntity
	default:
		logger.Error("api.extract.failed", "file", fh.Filename, "error", err)
		return extractResponse{Error: "Processing failed: " + err.Error()}, http.StatusInternalServerError
	}

	data := newExtractionData(doc)
	logger.Info("api.extract.ok",
		"file", fh.Filename,
		"method", doc.Method(),
		"valid", doc.Report.IsValid,
		"id", data.ID,
	)
	return extractResponse{Success: true, Filename: fh.Filename, Data: &data}, http.StatusOK
}

// parseMultipart writes the error response itself and reports false on failure.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		writeError(w, http.StatusBadRequest, msgNoFile)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid upload: %v", err))
	}
	return false
}

func spool(fh *multipart.FileHeader) (string, func(), error) {
	src, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = src.Close() }()

	ext := constants.NormalizeExt(filepath.Ext(fh.Filename))
	dst, err := os.CreateTemp("", "invoice-*."+ext)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(dst.Name()) }
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		cleanup()
		return "", nil, err
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return dst.Name(), cleanup, nil
}

func isPDF(name string) bool {
	return !common.NewValidator().Field(fieldFile, name, common.Extension("pdf")).HasErrors()
}

func validateDocType(docType string) error {
	return common.NewValidator().Field(fieldDocType, docType, common.MaxLength(maxDocTypeLen)).Err()
}

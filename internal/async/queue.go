// Package async runs document jobs on a fixed pool of workers.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has begun.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one file to run through the pipeline.
type Job struct {
	Path        string
	Filename    string // reported name; defaults to the base of Path
	DocType     string
	SubmittedAt time.Time
	TraceID     string
}

// Outcome pairs a job with what the pipeline produced for it.
type Outcome struct {
	Job      Job
	Document pipeline.Document
	Err      error
	WorkerID int
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// DocumentRunner is satisfied by *pipeline.DocumentRunner.
type DocumentRunner interface {
	Run(ctx context.Context, path, filename, docType string) (pipeline.Document, error)
}

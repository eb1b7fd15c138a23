package constants

// JobStatus is the canonical status for batch jobs and stored extractions.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusOCROK   JobStatus = "OCR_OK"    // text extracted
	JobStatusDone    JobStatus = "EXTRACTED" // invoice + report produced
	JobStatusFailed  JobStatus = "FAILED"    // terminal failure
)

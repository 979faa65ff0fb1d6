package ocr

import (
	"context"
	"errors"
	"strings"
)

// Result is the outcome of a synchronous text detection pass.
type Result struct {
	Text       string
	LineCount  int
	WordCount  int
	Confidence float64 // mean per-line confidence, 0-100
}

// KeyValue is a single form field recovered by document analysis.
type KeyValue struct {
	Key        string
	Value      string
	Confidence float64
}

// Analysis extends a detection result with structured form fields.
type Analysis struct {
	Result
	Forms []KeyValue
}

// JobStatus values reported by asynchronous detection jobs.
const (
	JobInProgress = "IN_PROGRESS"
	JobSucceeded  = "SUCCEEDED"
	JobFailed     = "FAILED"
)

// JobResult is a poll response for an asynchronous detection job.
type JobResult struct {
	Status string
	Result Result
}

// Provider performs synchronous text detection on a stored object.
type Provider interface {
	DetectText(ctx context.Context, storageKey string) (Result, error)
}

// FormsAnalyzer recovers key/value form fields in addition to raw text.
// Optional capability; not every provider implements it.
type FormsAnalyzer interface {
	AnalyzeDocument(ctx context.Context, storageKey string) (Analysis, error)
}

// AsyncDetector runs detection as a background job for large documents.
// Optional capability; not every provider implements it.
type AsyncDetector interface {
	StartTextDetection(ctx context.Context, storageKey string) (jobID string, err error)
	GetTextDetection(ctx context.Context, jobID string) (JobResult, error)
}

// ErrJobNotReady is returned while an asynchronous job is still running.
var ErrJobNotReady = errors.New("text detection job still in progress")

// CountWords reports whitespace-separated tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

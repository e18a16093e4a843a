package converter

import (
	"fmt"
	"strings"
	"time"
)

// Report summarizes the result of a single batch run.
type Report struct {
	Summary   BatchSummary `json:"summary"`
	Converted []FileResult `json:"converted"`
	Skipped   []FileResult `json:"skipped"`
	Errors    []FileResult `json:"errors"`
}

// BatchSummary contains aggregated statistics for a batch run.
// SuccessCount includes skipped items: an existing output is a success that
// needed no work. SkippedCount is that subset.
type BatchSummary struct {
	RunID           string    `json:"runId"`
	InputPath       string    `json:"inputPath"`
	OutputPath      string    `json:"outputPath"`
	Quality         float32   `json:"quality"`
	Lossless        bool      `json:"lossless"`
	Total           int       `json:"total"`
	SuccessCount    int       `json:"successCount"`
	SkippedCount    int       `json:"skippedCount"`
	ErrorCount      int       `json:"errorCount"`
	CancelledCount  int       `json:"cancelledCount"`
	Concurrency     int       `json:"concurrency"`
	DurationSeconds float64   `json:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp"`
	SchemaVersion   string    `json:"schemaVersion"`
}

// FileResult details the outcome of one candidate.
type FileResult struct {
	Path       string `json:"path"`
	OutputPath string `json:"outputPath"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// SummaryBlock renders the final multi-line block appended to the LogSink.
// The Cancelled line only appears when dispatch was interrupted.
func (s BatchSummary) SummaryBlock() string {
	var b strings.Builder
	b.WriteString("\nFinished processing all files")
	fmt.Fprintf(&b, "\nSuccess: %d", s.SuccessCount)
	fmt.Fprintf(&b, "\nErrors: %d", s.ErrorCount)
	if s.CancelledCount > 0 {
		fmt.Fprintf(&b, "\nCancelled: %d", s.CancelledCount)
	}
	fmt.Fprintf(&b, "\nTotal: %d", s.Total)
	return b.String()
}

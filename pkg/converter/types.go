package converter

// Status defines the processing states of a candidate during a batch.
// StatusSuccess, StatusSkipped and StatusFailed are the three final outcomes;
// exactly one of them is reported per candidate.
type Status string

// Constants representing the defined file processing statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// IsFinal reports whether s is one of the three outcome states.
func (s Status) IsFinal() bool {
	return s == StatusSuccess || s == StatusSkipped || s == StatusFailed
}

// OutputFormat defines the format of the final report printed by the CLI.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

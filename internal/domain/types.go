package domain

// JobStatus tracks the lifecycle of a single processing job.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusSuperseded JobStatus = "superseded"
)

// ProcessingOptions fully determines normalization and output ordering.
type ProcessingOptions struct {
	CaseSensitive    bool `json:"caseSensitive"`
	TrimWhitespace   bool `json:"trimWhitespace"`
	IgnoreEmptyLines bool `json:"ignoreEmptyLines"`
	SortResults      bool `json:"sortResults"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	CaseSensitive    bool   `json:"caseSensitive"`
	TrimWhitespace   bool   `json:"trimWhitespace"`
	IgnoreEmptyLines bool   `json:"ignoreEmptyLines"`
	SortResults      bool   `json:"sortResults"`
	HistoryLimit     int    `json:"historyLimit" validate:"min=1,max=5000"`
	ChunkSize        int    `json:"chunkSize" validate:"min=1,max=1000000"`
	Locale           string `json:"locale" validate:"required,bcp47_language_tag"`
	ExportDir        string `json:"exportDir"`
}

// Options extracts the processing options carried by settings.
func (s Settings) Options() ProcessingOptions {
	return ProcessingOptions{
		CaseSensitive:    s.CaseSensitive,
		TrimWhitespace:   s.TrimWhitespace,
		IgnoreEmptyLines: s.IgnoreEmptyLines,
		SortResults:      s.SortResults,
	}
}

// Job stores the identity, lifecycle status, and outcome of one processing run.
type Job struct {
	ID       string            `json:"id"`
	Status   JobStatus         `json:"status"`
	Options  ProcessingOptions `json:"options"`
	Progress int               `json:"progress"`
	Count    int               `json:"count"`
	Error    string            `json:"error,omitempty"`
}

// LocaleOption describes one collation locale offered for sorting results.
type LocaleOption struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	Selected   bool   `json:"selected"`
}

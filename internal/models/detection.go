package models

import "time"

// ResultRow is one line of the detection report.
type ResultRow struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Prediction string `json:"prediction"`
}

// Result is the outcome of one detection run. Rows and CSV always describe the same rows.
type Result struct {
	Device   string      `json:"device"`
	Rows     []ResultRow `json:"rows"`
	CSV      []byte      `json:"-"`
	FileName string      `json:"file_name"`
}

// DetectionRequest is a CSV batch received over MQTT for a device slug.
type DetectionRequest struct {
	DeviceSlug string
	Payload    []byte
	ReceivedAt time.Time
}

// DetectionSummary is the audit and notification record of a run.
type DetectionSummary struct {
	RunID      string         `json:"run_id"`
	Device     string         `json:"device"`
	Source     string         `json:"source"`
	Rows       int            `json:"rows"`
	Counts     map[string]int `json:"counts,omitempty"`
	Error      string         `json:"error,omitempty"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMs float64        `json:"duration_ms"`
}

// Failed reports whether the run ended in an error.
func (s *DetectionSummary) Failed() bool {
	return s.Error != ""
}

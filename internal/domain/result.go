package domain

import "time"

type ResultStatus string

const (
	ResultSuccess  ResultStatus = "success"
	ResultWarning  ResultStatus = "warning"
	ResultError    ResultStatus = "error"
	ResultReceived ResultStatus = "received"
)

// Result is what the recorder and admin operations hand back to callers.
// Failures are reported through Status rather than an error return.
type Result struct {
	Status    ResultStatus
	Message   string
	Timestamp time.Time
}

// SnapshotAck acknowledges a camera snapshot without recording it.
type SnapshotAck struct {
	Status    ResultStatus
	ZoneID    string
	ImageSize int
	Timestamp time.Time
}

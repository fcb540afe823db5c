package domain

import "errors"

var (
	ErrStoreUnavailable     = errors.New("store not connected")
	ErrSummaryNotFound      = errors.New("occupancy summary not found")
	ErrLicensePlateRequired = errors.New("license plate required")
	ErrInvalidEventType     = errors.New("invalid event type")
	ErrInvalidLimit         = errors.New("invalid limit")
)

package domain

import "time"

// Well-known identity of the live-count document.
const (
	SummaryCollection = "live_counts"
	SummaryDocumentID = "summary"
)

// OccupancySummary is the single shared live-count document.
// TotalCapacity is zero when the document does not carry the field.
type OccupancySummary struct {
	Occupied      int
	TotalCapacity int
	LastUpdated   time.Time
}

// SummarySnapshot is one observation of the live-count document.
type SummarySnapshot struct {
	Summary OccupancySummary
	Exists  bool
}

// Stats is the derived availability view served to API clients.
// Available is not clamped; it goes negative if Occupied exceeds Total.
type Stats struct {
	Occupied    int
	Total       int
	Available   int
	LastUpdated *time.Time
}

// DecrementFloor returns n-1 clamped at zero.
func DecrementFloor(n int) int {
	if n <= 1 {
		return 0
	}
	return n - 1
}

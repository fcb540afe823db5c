package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/app"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

// EventRecorder is the minimal interface needed by the gate endpoints.
type EventRecorder interface {
	HandleEntry(ctx context.Context, in app.RecordInput) (domain.Result, error)
	HandleExit(ctx context.Context, in app.RecordInput) (domain.Result, error)
	HandleSnapshot(ctx context.Context, zoneID, imageBase64 string) domain.SnapshotAck
}

// StatsReader is the minimal interface needed by the read endpoints.
type StatsReader interface {
	GetStats(ctx context.Context) domain.Stats
	GetHistory(ctx context.Context, limit int) ([]domain.Event, error)
}

// recordRequest is lenient about extra fields: gate cameras send their own
// capture time, which is ignored in favour of the server clock.
type recordRequest struct {
	LicensePlate string `json:"licensePlate"`
	ZoneID       string `json:"zoneId"`
}

type resultResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func newResultResponse(res domain.Result) resultResponse {
	return resultResponse{
		Status:    string(res.Status),
		Message:   res.Message,
		Timestamp: res.Timestamp,
	}
}

// HandleEntry returns an HTTP handler recording a vehicle entry.
func HandleEntry(svc EventRecorder) http.HandlerFunc {
	return handleRecord(svc.HandleEntry)
}

// HandleExit returns an HTTP handler recording a vehicle exit.
func HandleExit(svc EventRecorder) http.HandlerFunc {
	return handleRecord(svc.HandleExit)
}

func handleRecord(record func(context.Context, app.RecordInput) (domain.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := record(r.Context(), app.RecordInput{
			LicensePlate: req.LicensePlate,
			ZoneID:       req.ZoneID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// Store failures are reported in the body, not the status code.
		writeJSON(w, http.StatusCreated, newResultResponse(res))
	}
}

type snapshotRequest struct {
	ZoneID      string `json:"zoneId"`
	ImageBase64 string `json:"imageBase64"`
}

type snapshotResponse struct {
	Status    string    `json:"status"`
	ZoneID    string    `json:"zoneId"`
	ImageSize int       `json:"imageSize"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleSnapshot returns an HTTP handler acknowledging a camera snapshot.
func HandleSnapshot(svc EventRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req snapshotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		ack := svc.HandleSnapshot(r.Context(), req.ZoneID, req.ImageBase64)
		writeJSON(w, http.StatusCreated, snapshotResponse{
			Status:    string(ack.Status),
			ZoneID:    ack.ZoneID,
			ImageSize: ack.ImageSize,
			Timestamp: ack.Timestamp,
		})
	}
}

type statsResponse struct {
	Occupied    int        `json:"occupied"`
	Total       int        `json:"total"`
	Available   int        `json:"available"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// HandleStats returns an HTTP handler serving derived occupancy stats.
func HandleStats(svc StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := svc.GetStats(r.Context())
		writeJSON(w, http.StatusOK, statsResponse{
			Occupied:    stats.Occupied,
			Total:       stats.Total,
			Available:   stats.Available,
			LastUpdated: stats.LastUpdated,
		})
	}
}

type eventResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	LicensePlate string    `json:"licensePlate"`
	ZoneID       string    `json:"zoneId"`
	Timestamp    time.Time `json:"timestamp"`
}

// HandleHistory returns an HTTP handler listing recent events, newest first.
// limit must be a positive integer when given.
func HandleHistory(svc StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeDomainError(w, domain.ErrInvalidLimit)
				return
			}
			limit = n
		}

		events, err := svc.GetHistory(r.Context(), limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEventResponses(events))
	}
}

func toEventResponses(events []domain.Event) []eventResponse {
	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse{
			ID:           e.ID,
			Type:         string(e.Type),
			LicensePlate: e.LicensePlate,
			ZoneID:       e.ZoneID,
			Timestamp:    e.Timestamp,
		})
	}
	return resp
}

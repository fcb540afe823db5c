package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
}).ParseFS(templateFiles, "templates/*.html"))

const statusPageEvents = 10

type endpointRow struct {
	Method      string
	Path        string
	Description string
	Link        bool
}

var endpointTable = []endpointRow{
	{Method: "GET", Path: "/events/stats", Description: "Current occupancy", Link: true},
	{Method: "GET", Path: "/events/history", Description: "Recent events", Link: true},
	{Method: "GET", Path: "/events/live", Description: "Live occupancy stream (websocket)"},
	{Method: "POST", Path: "/events/entry", Description: "Record entry (gate camera)"},
	{Method: "POST", Path: "/events/exit", Description: "Record exit (gate camera)"},
	{Method: "POST", Path: "/events/snapshot", Description: "Acknowledge camera snapshot"},
	{Method: "POST", Path: "/admin/reset", Description: "Reset count to 0"},
	{Method: "GET", Path: "/dashboard", Description: "Live dashboard", Link: true},
	{Method: "GET", Path: "/metrics", Description: "Prometheus metrics", Link: true},
}

type statusPageData struct {
	Stats     domain.Stats
	Events    []domain.Event
	Endpoints []endpointRow
}

// HandleStatusPage renders the admin page: current stats, the endpoint list,
// the last ten events, and a reset button.
func HandleStatusPage(svc StatsReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, _ := svc.GetHistory(r.Context(), statusPageEvents)
		render(w, logger, "status.html", statusPageData{
			Stats:     svc.GetStats(r.Context()),
			Events:    events,
			Endpoints: endpointTable,
		})
	}
}

type dashboardData struct {
	Zones []domain.Zone
	Total int
}

// HandleDashboard renders the live dashboard shell; figures arrive over
// the /events/live websocket.
func HandleDashboard(total int, zones []domain.Zone, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, logger, "dashboard.html", dashboardData{Zones: zones, Total: total})
	}
}

func render(w http.ResponseWriter, logger *slog.Logger, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("render page", slog.String("page", name), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

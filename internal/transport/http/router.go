package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

// Services are the handlers' dependencies.
type Services struct {
	Recorder EventRecorder
	Stats    StatsReader
	Admin    CountResetter
	Live     LiveSubscriber
}

type RouterOptions struct {
	Logger *slog.Logger
	// Requests is told about every served request; optional.
	Requests RequestObserver
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// CORSOrigins are the browser origins allowed to call the API and open
	// the live stream.
	CORSOrigins []string
	// EventRateLimit caps gate POSTs per client IP per minute; zero disables it.
	EventRateLimit int
	// TrustProxy makes the client IP come from forwarding headers. Leave it
	// off unless a proxy in front of the API sets them.
	TrustProxy bool
	// StoreConnected is false when the service runs on a disconnected store.
	StoreConnected bool
	TotalCapacity  int
	Zones          []domain.Zone
}

// NewRouter wires every route of the API.
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(logger, opts.Requests))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth(opts.StoreConnected))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Get("/", HandleStatusPage(svc.Stats, logger))
	r.Get("/dashboard", HandleDashboard(opts.TotalCapacity, opts.Zones, logger))

	r.Route("/events", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.EventRateLimit > 0 {
				r.Use(httprate.LimitByIP(opts.EventRateLimit, time.Minute))
			}
			r.Post("/entry", HandleEntry(svc.Recorder))
			r.Post("/exit", HandleExit(svc.Recorder))
			r.Post("/snapshot", HandleSnapshot(svc.Recorder))
		})
		r.Get("/stats", HandleStats(svc.Stats))
		r.Get("/history", HandleHistory(svc.Stats))
		r.Get("/live", HandleLive(svc.Live, originPatterns(opts.CORSOrigins), logger))
	})

	r.Post("/admin/reset", HandleReset(svc.Admin))

	return r
}

// originPatterns turns CORS origins into the host patterns the websocket
// handshake checks. Same-host requests are always accepted.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		out = append(out, u.Host)
	}
	return out
}

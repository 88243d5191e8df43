package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/parlay-slip/internal/metrics"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	CORSOrigins []string
	Metrics     *metrics.Metrics
	// MetricsPath mounts the Prometheus handler when set and Metrics is non-nil.
	MetricsPath string
}

// NewRouter wires the handler's routes and middleware
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(instrument(opts.Metrics))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil && opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, opts.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		// Long-lived stream, kept outside the request timeout.
		r.Get("/slips/{session}/ws", h.StreamSlip)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Post("/odds/price", h.PriceOdds)
			r.Get("/suggestions", h.ListSuggestions)

			r.Get("/templates", h.ListTemplates)
			r.Delete("/templates/{id}", h.DeleteTemplate)

			r.Route("/slips/{session}", func(r chi.Router) {
				r.Get("/", h.GetSlip)
				r.Delete("/", h.ClearSlip)
				r.Put("/stake", h.SetTotalStake)
				r.Put("/order", h.ReorderLegs)
				r.Get("/round-robin", h.RoundRobin)

				r.Post("/legs", h.AddLeg)
				r.Delete("/legs/{legID}", h.RemoveLeg)
				r.Put("/legs/{legID}/stake", h.SetLegStake)

				r.Post("/suggestions/{suggestionID}", h.AddSuggestion)

				r.Post("/templates", h.SaveTemplate)
				r.Post("/templates/{id}", h.ApplyTemplate)
			})
		})
	})

	return r
}

// requestLogger logs one line per request
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
			}).Debug("request served")
		})
	}
}

// instrument counts requests by route pattern
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RecordHTTPRequest(r.Method, route, status)
		})
	}
}

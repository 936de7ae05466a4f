// Package api exposes the detection service over HTTP using the chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
)

// RouterConfig holds HTTP routing options.
type RouterConfig struct {
	// DetectRateLimit is the number of uploads per minute allowed per client IP.
	// Zero disables rate limiting.
	DetectRateLimit int
}

// NewRouter configures all HTTP routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/devices", h.Devices)
		r.Get("/devices/{slug}/stats", h.DeviceStats)
		r.With(rateLimit(cfg.DetectRateLimit)).Post("/detect", h.Detect)
	})

	return r
}

// rateLimit limits requests per client IP using go-chi/httprate.
func rateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(perMinute, time.Minute)
}

// requestLogger logs one line per request with status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log := logging.Component("http")
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}

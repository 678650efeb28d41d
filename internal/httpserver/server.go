// Package httpserver exposes the probes, Prometheus metrics and the Telegram webhook over HTTP.
package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/coinpulse-bot/internal/lifecycle"
	"github.com/Proton-105/coinpulse-bot/internal/middleware"
	"github.com/Proton-105/coinpulse-bot/pkg/config"
	"github.com/Proton-105/coinpulse-bot/pkg/logger"
)

// Options configures the router.
type Options struct {
	Probes lifecycle.HealthChecker
	// Webhook receives Telegram updates; nil when the bot long-polls.
	Webhook     http.Handler
	WebhookPath string
	Log         *slog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP, logger.Middleware, middleware.New(log), chimw.Recoverer)

	r.Get("/healthz", probeHandler(opts.Probes, false))
	r.Get("/readyz", probeHandler(opts.Probes, true))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if opts.Webhook != nil {
		path := opts.WebhookPath
		if path == "" {
			path = config.DefaultWebhookPath
		}
		r.Method(http.MethodPost, path, opts.Webhook)
		log.Info("telegram webhook mounted", slog.String("path", path))
	}

	return r
}

// NewServer returns an http.Server for addr serving handler.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// WebhookPath extracts the path Telegram posts to from the public webhook URL.
func WebhookPath(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return config.DefaultWebhookPath
	}
	return u.Path
}

func probeHandler(probes lifecycle.HealthChecker, readiness bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if probes == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		check := probes.Liveness
		if readiness {
			check = probes.Readiness
		}

		if err := check(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

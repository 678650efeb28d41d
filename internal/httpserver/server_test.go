package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/coinpulse-bot/pkg/config"
)

type stubProbes struct{ readyErr error }

func (s stubProbes) Liveness(context.Context) error  { return nil }
func (s stubProbes) Readiness(context.Context) error { return s.readyErr }

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader("{}")))
	return rec
}

func TestProbes(t *testing.T) {
	h := NewRouter(Options{Probes: stubProbes{readyErr: errors.New("not ready: redis: down")}})

	live := serve(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, live.Code)
	assert.NotEmpty(t, live.Header().Get("X-Request-ID"))

	ready := serve(h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
	assert.Contains(t, ready.Body.String(), "redis: down")
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewRouter(Options{})

	rec := serve(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestWebhookMountedOnlyWhenConfigured(t *testing.T) {
	var hits int
	webhook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { hits++ })

	h := NewRouter(Options{Webhook: webhook, WebhookPath: "/tg/hook"})
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/tg/hook").Code)
	assert.Equal(t, 1, hits)

	polling := NewRouter(Options{})
	assert.Equal(t, http.StatusNotFound, serve(polling, http.MethodPost, config.DefaultWebhookPath).Code)
}

func TestWebhookPath(t *testing.T) {
	assert.Equal(t, "/bot/updates", WebhookPath("https://example.com/bot/updates"))
	assert.Equal(t, config.DefaultWebhookPath, WebhookPath("::bad"))
}

func TestWebhookReachableForBareHostURL(t *testing.T) {
	tests := map[string]string{
		"https://bot.example.com":             config.DefaultWebhookPath,
		"https://bot.example.com/":            config.DefaultWebhookPath,
		"https://bot.example.com/hooks/tg":    "/hooks/tg",
		"https://bot.example.com:8443/secret": "/secret",
	}

	for raw, wantPath := range tests {
		t.Run(raw, func(t *testing.T) {
			cfg := config.BotConfig{WebhookURL: raw}
			registered, err := url.Parse(cfg.PublicWebhookURL())
			require.NoError(t, err)
			require.Equal(t, wantPath, registered.Path)

			var hits int
			webhook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { hits++ })
			h := NewRouter(Options{Webhook: webhook, WebhookPath: WebhookPath(cfg.PublicWebhookURL())})

			// Telegram posts to the path of the registered URL.
			assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, registered.Path).Code)
			assert.Equal(t, 1, hits)
		})
	}
}

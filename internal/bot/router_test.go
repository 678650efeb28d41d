package bot

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/handlers"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

const routerChat int64 = 7

type routeContext struct {
	telebot.Context

	text      string
	callback  *telebot.Callback
	responded int
	sent      []any
	values    map[string]any
}

func textUpdate(text string) *routeContext {
	return &routeContext{text: text, values: make(map[string]any)}
}

func callbackUpdate(data string) *routeContext {
	return &routeContext{callback: &telebot.Callback{ID: "cb-1", Data: data}, values: make(map[string]any)}
}

func (c *routeContext) Chat() *telebot.Chat         { return &telebot.Chat{ID: routerChat} }
func (c *routeContext) Sender() *telebot.User       { return &telebot.User{ID: routerChat} }
func (c *routeContext) Text() string                { return c.text }
func (c *routeContext) Message() *telebot.Message   { return &telebot.Message{Text: c.text} }
func (c *routeContext) Callback() *telebot.Callback { return c.callback }
func (c *routeContext) Get(key string) interface{}  { return c.values[key] }
func (c *routeContext) Set(key string, val interface{}) {
	c.values[key] = val
}

func (c *routeContext) Respond(_ ...*telebot.CallbackResponse) error {
	c.responded++
	return nil
}

func (c *routeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

type routeRecorder struct {
	calls    []string
	payloads []string
}

func (r *routeRecorder) handler(name string) func(telebot.Context) error {
	return func(telebot.Context) error {
		r.calls = append(r.calls, name)
		return nil
	}
}

func (r *routeRecorder) callback(name string) func(telebot.Context, string) error {
	return func(_ telebot.Context, payload string) error {
		r.calls = append(r.calls, name)
		r.payloads = append(r.payloads, payload)
		return nil
	}
}

func newTestRouter(t *testing.T) (*Router, *state.Store, *routeRecorder) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := state.NewStore()
	rec := &routeRecorder{}

	dispatcher := NewDispatcher(store, log)
	dispatcher.RegisterStateHandler(state.StateSettingInterval, rec.handler("interval_input"))
	dispatcher.RegisterStateHandler(state.StateSearching, rec.handler("search_input"))

	router := NewRouter(dispatcher, store, log)
	router.RegisterCommand(CommandCancel, rec.handler("cancel"))
	router.RegisterCallback("coin", rec.callback("coin"))
	router.RegisterCallback("chart", rec.callback("chart"))
	router.RegisterLabel("⏱ Інтервал", rec.handler("open_interval"))

	return router, store, rec
}

func TestRouteCallbackByExactTag(t *testing.T) {
	router, _, rec := newTestRouter(t)

	require.NoError(t, router.Route(callbackUpdate("chart:bitcoin:30")))
	require.NoError(t, router.Route(callbackUpdate("coin:ethereum")))

	assert.Equal(t, []string{"chart", "coin"}, rec.calls)
	assert.Equal(t, []string{"bitcoin:30", "ethereum"}, rec.payloads)
}

func TestRouteUnknownCallbackIsAcknowledged(t *testing.T) {
	router, _, rec := newTestRouter(t)

	for _, data := range []string{"chartcoin:bitcoin", "legacy_button", "  "} {
		c := callbackUpdate(data)
		require.NoError(t, router.Route(c))
		assert.Equal(t, 1, c.responded, data)
	}
	assert.Empty(t, rec.calls)
}

func TestRouteSearchingConsumesAnyText(t *testing.T) {
	router, store, rec := newTestRouter(t)
	store.SetInput(routerChat, state.StateSearching)

	require.NoError(t, router.Route(textUpdate("⏱ Інтервал")))

	assert.Equal(t, []string{"search_input"}, rec.calls)
}

func TestRouteCommandWinsOverSearching(t *testing.T) {
	router, store, rec := newTestRouter(t)
	store.SetInput(routerChat, state.StateSearching)

	require.NoError(t, router.Route(textUpdate("/cancel@coinpulse_bot")))

	assert.Equal(t, []string{"cancel"}, rec.calls)
}

func TestRouteLabelClearsInputMode(t *testing.T) {
	router, store, rec := newTestRouter(t)
	store.SetInput(routerChat, state.StateSettingInterval)

	require.NoError(t, router.Route(textUpdate("⏱ Інтервал")))

	assert.Equal(t, []string{"open_interval"}, rec.calls)
	assert.Equal(t, state.StateIdle, store.Input(routerChat))
}

func TestRouteInputModeText(t *testing.T) {
	router, store, rec := newTestRouter(t)
	store.SetInput(routerChat, state.StateSettingInterval)

	require.NoError(t, router.Route(textUpdate("00:10:00")))

	assert.Equal(t, []string{"interval_input"}, rec.calls)
	assert.Equal(t, state.StateSettingInterval, store.Input(routerChat))
}

func TestRouteIdleTextIsIgnored(t *testing.T) {
	router, store, rec := newTestRouter(t)

	for _, text := range []string{"hello", "00:10:00", "/unknown"} {
		c := textUpdate(text)
		require.NoError(t, router.Route(c))
		assert.Empty(t, c.sent, text)
	}

	assert.Empty(t, rec.calls)
	assert.Equal(t, state.StateIdle, store.Input(routerChat))
}

func TestRouteAppliesMiddlewaresInOrder(t *testing.T) {
	router, _, rec := newTestRouter(t)

	var order []string
	wrap := func(name string) handlers.Middleware {
		return func(next handlers.Handler) handlers.Handler {
			return func(c telebot.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	router.Use(wrap("outer"))
	router.Use(wrap("inner"))

	require.NoError(t, router.Route(callbackUpdate("coin:bitcoin")))

	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, []string{"coin"}, rec.calls)
}

func TestNormalizeCommand(t *testing.T) {
	tests := map[string]string{
		"/start":                "/start",
		"/Start@coinpulse_bot":  "/start",
		"/cancel now":           "/cancel",
		"  /help\nmore details": "/help",
	}

	for in, want := range tests {
		assert.Equal(t, want, normalizeCommand(in), in)
	}
}

package middleware

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/idempotency"
)

type updateContext struct {
	telebot.Context

	text      string
	msg       *telebot.Message
	callback  *telebot.Callback
	responded int
}

func (c *updateContext) Text() string                 { return c.text }
func (c *updateContext) Message() *telebot.Message    { return c.msg }
func (c *updateContext) Callback() *telebot.Callback  { return c.callback }
func (c *updateContext) Get(string) interface{}       { return nil }
func (c *updateContext) Respond(...*telebot.CallbackResponse) error {
	c.responded++
	return nil
}

func TestActionName(t *testing.T) {
	tests := []struct {
		name string
		c    telebot.Context
		want string
	}{
		{"nil", nil, "unknown"},
		{"callback tag", &updateContext{callback: &telebot.Callback{Data: "chart:bitcoin:30"}}, "callback:chart"},
		{"command with bot name", &updateContext{text: "/start@coinpulse_bot", msg: &telebot.Message{Text: "/start@coinpulse_bot"}}, "command:start"},
		{"command with args", &updateContext{text: "/help me", msg: &telebot.Message{Text: "/help me"}}, "command:help"},
		{"free text", &updateContext{text: "btc", msg: &telebot.Message{Text: "btc"}}, "text"},
		{"empty", &updateContext{msg: &telebot.Message{}}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionName(tt.c))
		})
	}
}

func TestUpdateKey(t *testing.T) {
	assert.Empty(t, UpdateKey(nil))
	assert.Empty(t, UpdateKey(&updateContext{callback: &telebot.Callback{}}))
	assert.Empty(t, UpdateKey(&updateContext{msg: &telebot.Message{}}))

	first := UpdateKey(&updateContext{msg: &telebot.Message{ID: 10, Chat: &telebot.Chat{ID: 1}}})
	other := UpdateKey(&updateContext{msg: &telebot.Message{ID: 10, Chat: &telebot.Chat{ID: 2}}})
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, other)
}

func TestIdempotencySkipsDuplicateCallback(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := idempotency.NewManager(idempotency.NewMemoryStore(time.Minute), log)

	calls := 0
	handler := Idempotency(manager, log)(func(telebot.Context) error {
		calls++
		return nil
	})

	first := &updateContext{callback: &telebot.Callback{ID: "cb-9", Data: "noop"}}
	dup := &updateContext{callback: &telebot.Callback{ID: "cb-9", Data: "noop"}}

	require.NoError(t, handler(first))
	require.NoError(t, handler(dup))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, dup.responded)
}

func TestIdempotencyRetriesAfterFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := idempotency.NewManager(idempotency.NewMemoryStore(time.Minute), log)

	calls := 0
	handler := Idempotency(manager, log)(func(telebot.Context) error {
		calls++
		if calls == 1 {
			return errors.New("send failed")
		}
		return nil
	})

	update := func() *updateContext {
		return &updateContext{text: "00:10:00", msg: &telebot.Message{ID: 5, Text: "00:10:00", Chat: &telebot.Chat{ID: 3}}}
	}

	require.Error(t, handler(update()))
	require.NoError(t, handler(update()))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyWithoutManagerPassesThrough(t *testing.T) {
	calls := 0
	handler := Idempotency(nil, nil)(func(telebot.Context) error {
		calls++
		return nil
	})

	c := &updateContext{callback: &telebot.Callback{ID: "cb-1"}}
	require.NoError(t, handler(c))
	require.NoError(t, handler(c))
	assert.Equal(t, 2, calls)
}

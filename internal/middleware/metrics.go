package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/handlers"
	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(ActionName(c), status, time.Since(start))

		return err
	}
}

// ActionName labels an update with a bounded value: the callback tag, the
// command, or "text" for free text.
func ActionName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		if tag, _, err := keyboard.DecodeCallback(cb.Data); err == nil {
			return "callback:" + tag
		}
		return "callback"
	}

	if msg := c.Message(); msg != nil && len(msg.Text) > 0 && msg.Text[0] == '/' {
		return "command:" + commandName(msg.Text)
	}

	if c.Text() != "" {
		return "text"
	}

	return "unknown"
}

func commandName(text string) string {
	for i, r := range text {
		if r == ' ' || r == '@' {
			return text[1:i]
		}
	}
	return text[1:]
}

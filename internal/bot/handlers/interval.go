package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

// IntervalAction handles interval:set and interval:stop.
func (h *Handlers) IntervalAction(c telebot.Context, payload string) error {
	id := chatID(c)

	switch payload {
	case keyboard.ActionSet:
		h.State.SetInput(id, state.StateSettingInterval)
		h.respond(c, id)
		return c.Send(h.T.T("interval.prompt"))

	case keyboard.ActionStop:
		if h.State.Input(id) == state.StateSettingInterval {
			h.State.ResetInput(id)
		}
		if !h.Triggers.ClearInterval(id) {
			return h.alert(c, h.T.T("interval.nothing_to_stop"))
		}
		h.respond(c, id)
		return c.Send(h.T.T("interval.stopped"))
	}

	return c.Respond()
}

// IntervalInput parses HH:MM:SS and arms the interval trigger. Invalid input
// keeps the chat in the interval input mode.
func (h *Handlers) IntervalInput(c telebot.Context) error {
	id := chatID(c)

	t, err := domain.ParseTimeOfDay(c.Text())
	if err != nil {
		return c.Send(h.T.T("time.invalid"))
	}

	period := t.Duration()
	if period <= 0 {
		return c.Send(h.T.T("interval.zero"))
	}

	if err := h.Triggers.SetInterval(id, period); err != nil {
		return err
	}
	h.State.ResetInput(id)

	h.Log.Info("interval armed", slog.Int64("chat_id", id), slog.Duration("period", period))
	return c.Send(h.T.Tf("interval.armed", formatPeriod(period)), keyboard.MainMenu(h.T))
}

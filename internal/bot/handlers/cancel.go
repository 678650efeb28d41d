package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
)

// Cancel drops the pending input, selection dialog and schedule draft and
// returns the chat to the main menu. Armed triggers are kept.
func (h *Handlers) Cancel(c telebot.Context) error {
	id := chatID(c)
	h.State.Cancel(id)
	h.Views.Delete(viewKey(id))

	if err := c.Send(h.T.T("cancel.done"), keyboard.MainMenu(h.T)); err != nil {
		h.Log.Error("failed to notify user about cancellation", slog.Int64("chat_id", id), slog.Any("error", err))
		return err
	}

	return nil
}

package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
)

// Start greets the chat and shows the main menu.
func (h *Handlers) Start(c telebot.Context) error {
	h.State.ResetInput(chatID(c))
	return c.Send(h.T.T("start.greeting"), keyboard.MainMenu(h.T))
}

// Help lists what the menu buttons do.
func (h *Handlers) Help(c telebot.Context) error {
	return c.Send(h.T.T("help.text"), keyboard.MainMenu(h.T))
}

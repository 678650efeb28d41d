package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/i18n"
)

// Menu label keys. The router matches incoming text against their translations.
const (
	LabelNow      = "menu.now"
	LabelCoins    = "menu.coins"
	LabelChart    = "menu.chart"
	LabelInterval = "menu.interval"
	LabelSchedule = "menu.schedule"
)

// MenuLabels lists every main menu label key.
var MenuLabels = []string{LabelNow, LabelCoins, LabelChart, LabelInterval, LabelSchedule}

// MainMenu builds a localized reply keyboard for the bot main menu.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	markup.Reply(
		markup.Row(markup.Text(lookup(LabelNow))),
		markup.Row(markup.Text(lookup(LabelCoins)), markup.Text(lookup(LabelChart))),
		markup.Row(markup.Text(lookup(LabelInterval)), markup.Text(lookup(LabelSchedule))),
	)

	return markup
}

package handlers

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/chart"
)

// ChartCoin asks for the history period of the chosen coin.
func (h *Handlers) ChartCoin(c telebot.Context, coinID string) error {
	id := chatID(c)
	if coinID == "" {
		return c.Respond()
	}

	markup, err := h.Keyboards.ChartPeriodPicker(coinID)
	if err != nil {
		return err
	}

	h.respond(c, id)
	return c.Send(h.T.Tf("chart.pick_period", h.chartName(coinID)), markup)
}

// Chart renders the price history named by "<coin id>:<days>" and sends it as a photo.
func (h *Handlers) Chart(c telebot.Context, payload string) error {
	ctx := RequestContext(c)
	id := chatID(c)

	idx := strings.LastIndex(payload, keyboard.CallbackDataSeparator)
	if idx <= 0 {
		return c.Respond()
	}
	coinID := payload[:idx]
	days, err := strconv.Atoi(payload[idx+1:])
	if err != nil || days <= 0 {
		return c.Respond()
	}

	if err := h.ack(c, h.T.T("chart.rendering")); err != nil {
		h.Log.Warn("failed to answer callback", slog.Int64("chat_id", id), slog.Any("error", err))
	}

	name := h.chartName(coinID)
	points, err := h.History.History(ctx, coinID, days)
	if err != nil {
		h.Log.Warn("failed to fetch price history",
			slog.Int64("chat_id", id),
			slog.String("coin_id", coinID),
			slog.Int("days", days),
			slog.Any("error", err),
		)
		return c.Send(h.T.T("chart.unavailable"))
	}

	img, err := h.Charts.RenderHistory(points, days, name)
	if err != nil {
		h.Log.Warn("failed to render chart",
			slog.Int64("chat_id", id),
			slog.String("coin_id", coinID),
			slog.Int("points", len(points)),
			slog.Any("error", err),
		)
		return c.Send(h.T.T("chart.unavailable"))
	}

	photo := &telebot.Photo{
		File:    telebot.FromReader(bytes.NewReader(img)),
		Caption: chart.Caption(name, days, points),
	}
	return c.Send(photo)
}

func (h *Handlers) chartName(coinID string) string {
	if coin, ok := h.Coins.Lookup(coinID); ok && coin.Symbol != "" {
		return strings.ToUpper(coin.Symbol)
	}
	return strings.ToUpper(coinID)
}

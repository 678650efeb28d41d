// Package delivery composes price summaries for a chat and sends them.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/internal/i18n"
	"github.com/Proton-105/coinpulse-bot/internal/market"
	"github.com/Proton-105/coinpulse-bot/pkg/metrics"
)

// Delivery sources besides the trigger kinds owned by the jobs package.
const (
	SourceOnDemand = "on_demand"
	SourceConfirm  = "confirm"
)

type PriceSource interface {
	Prices(ctx context.Context, ids []string) (map[string]domain.Quote, error)
}

type SelectionReader interface {
	Confirmed(chatID int64) []string
}

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Dispatcher is the single path by which price summaries reach a chat,
// whether requested by the user or fired by a trigger.
type Dispatcher struct {
	selections SelectionReader
	prices     PriceSource
	sender     Sender
	tr         i18n.Translator
	log        *slog.Logger
}

func NewDispatcher(selections SelectionReader, prices PriceSource, sender Sender, tr i18n.Translator, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		selections: selections,
		prices:     prices,
		sender:     sender,
		tr:         tr,
		log:        log.With(slog.String("component", "delivery")),
	}
}

// Compose builds the message for chatID. It never fails: provider errors
// degrade to the "try again later" text.
func (d *Dispatcher) Compose(ctx context.Context, chatID int64) string {
	text, _ := d.compose(ctx, chatID)
	return text
}

// DeliverNow composes and sends the summary for chatID. Only a transport
// failure is returned.
func (d *Dispatcher) DeliverNow(ctx context.Context, chatID int64, source string) error {
	text, outcome := d.compose(ctx, chatID)

	if err := d.sender.SendText(ctx, chatID, text); err != nil {
		metrics.RecordDelivery(source, "send_failed")
		return fmt.Errorf("deliver to chat %d: %w", chatID, err)
	}

	metrics.RecordDelivery(source, outcome)
	d.log.DebugContext(ctx, "prices delivered",
		slog.Int64("chat_id", chatID),
		slog.String("source", source),
		slog.String("outcome", outcome),
	)
	return nil
}

func (d *Dispatcher) compose(ctx context.Context, chatID int64) (string, string) {
	ids := d.selections.Confirmed(chatID)
	if len(ids) == 0 {
		return d.tr.T("delivery.no_coins"), "no_coins"
	}

	quotes, err := d.prices.Prices(ctx, ids)
	if err != nil {
		d.log.WarnContext(ctx, "price lookup failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
		return d.tr.T("delivery.unavailable"), "unavailable"
	}

	text := market.FormatQuotes(ids, quotes)
	if text == "" {
		return d.tr.T("delivery.unavailable"), "unavailable"
	}
	return text, "ok"
}

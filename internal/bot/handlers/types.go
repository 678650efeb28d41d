// Package handlers implements the bot's commands, menu actions, callbacks and
// free-text inputs.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/internal/i18n"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events. payload is the callback
// data after the tag.
type CallbackHandler func(c telebot.Context, payload string) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Triggers arms and cancels per-chat delivery triggers.
type Triggers interface {
	SetInterval(chatID int64, period time.Duration) error
	ClearInterval(chatID int64) bool
	Interval(chatID int64) (time.Duration, bool)
	SetSchedule(chatID int64, spec domain.ScheduleSpec) error
	ClearSchedule(chatID int64) bool
	NextRun(chatID int64) (time.Time, bool)
}

// Coins is the cached coin catalogue.
type Coins interface {
	TopCoins(ctx context.Context) []domain.CoinRef
	AllCoins(ctx context.Context) []domain.CoinRef
	Lookup(id string) (domain.CoinRef, bool)
}

type History interface {
	History(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error)
}

type ChartRenderer interface {
	RenderHistory(points []domain.PricePoint, days int, seriesName string) ([]byte, error)
}

type Deliverer interface {
	DeliverNow(ctx context.Context, chatID int64, source string) error
}

// MarkupEditor replaces the inline keyboard of a sent message.
type MarkupEditor interface {
	EditReplyMarkup(msg telebot.Editable, markup *telebot.ReplyMarkup) (*telebot.Message, error)
}

// Deps are the collaborators shared by every handler.
type Deps struct {
	State       state.StateMachine
	Triggers    Triggers
	Coins       Coins
	History     History
	Charts      ChartRenderer
	Delivery    Deliverer
	Editor      MarkupEditor
	Keyboards   *keyboard.Builder
	T           i18n.Translator
	Views       *cache.Cache
	PageSize    int
	SearchLimit int
	Location    *time.Location
	Log         *slog.Logger
}

// Handlers exposes the bot's handlers as methods over shared Deps.
type Handlers struct {
	Deps
}

// ViewTTL bounds how long a picker's coin list is kept for paging and toggles.
const ViewTTL = 30 * time.Minute

func New(deps Deps) *Handlers {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Views == nil {
		deps.Views = cache.New(ViewTTL, 10*time.Minute)
	}
	if deps.PageSize <= 0 {
		deps.PageSize = 10
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Handlers{Deps: deps}
}

// ContextKey is where middlewares store the update's context.Context on telebot.Context.
const ContextKey = "coinpulse.ctx"

// RequestContext returns the context attached to the update, or Background.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(ContextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

func chatID(c telebot.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

// formatPeriod renders a duration as HH:MM:SS, hours unbounded.
func formatPeriod(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

func (h *Handlers) alert(c telebot.Context, text string) error {
	return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
}

func (h *Handlers) ack(c telebot.Context, text string) error {
	return c.Respond(&telebot.CallbackResponse{Text: text})
}

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/handlers"
	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	errors "github.com/Proton-105/coinpulse-bot/internal/errors"
	"github.com/Proton-105/coinpulse-bot/internal/i18n"
	"github.com/Proton-105/coinpulse-bot/internal/idempotency"
	"github.com/Proton-105/coinpulse-bot/internal/middleware"
	"github.com/Proton-105/coinpulse-bot/internal/state"
	"github.com/Proton-105/coinpulse-bot/pkg/config"
)

// Options are the collaborators the Bot wires into its router.
type Options struct {
	Log          *slog.Logger
	FSM          state.StateMachine
	Handlers     *handlers.Handlers
	Translations *i18n.Manager
	ErrHandler   *errors.Handler
	Idempotency  idempotency.Manager
	RateLimit    *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot     *telebot.Bot
	webhook     *telebot.Webhook
	log         *slog.Logger
	fsm         state.StateMachine
	handlers    *handlers.Handlers
	i18n        *i18n.Manager
	rateLimitMw *middleware.RateLimitMiddleware
	router      *Router
	dispatcher  *Dispatcher
	errHandler  *errors.Handler
	idempotency idempotency.Manager
}

// NewTelebot creates the Telegram client. A configured webhook URL selects
// push delivery through Bot.WebhookHandler; otherwise updates are long-polled.
func NewTelebot(cfg config.BotConfig, log *slog.Logger) (*telebot.Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Token,
		OnError: func(err error, c telebot.Context) {
			attrs := []any{slog.Any("error", err)}
			if c != nil && c.Chat() != nil {
				attrs = append(attrs, slog.Int64("chat_id", c.Chat().ID))
			}
			log.Error("telegram error", attrs...)
		},
	}

	if cfg.UsesWebhook() {
		settings.Poller = &telebot.Webhook{
			Endpoint:       &telebot.WebhookEndpoint{PublicURL: cfg.PublicWebhookURL()},
			AllowedUpdates: []string{"message", "callback_query"},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout:        cfg.PollTimeout,
			AllowedUpdates: []string{"message", "callback_query"},
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}
	return tb, nil
}

// New builds the bot router on top of an initialized telebot client.
func New(tb *telebot.Bot, opts Options) (*Bot, error) {
	if tb == nil {
		return nil, fmt.Errorf("telebot client is required")
	}
	if opts.Handlers == nil || opts.FSM == nil {
		return nil, fmt.Errorf("handlers and state machine are required")
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	dispatcher := NewDispatcher(opts.FSM, log)
	b := &Bot{
		telebot:     tb,
		log:         log,
		fsm:         opts.FSM,
		handlers:    opts.Handlers,
		i18n:        opts.Translations,
		rateLimitMw: opts.RateLimit,
		router:      NewRouter(dispatcher, opts.FSM, log),
		dispatcher:  dispatcher,
		errHandler:  opts.ErrHandler,
		idempotency: opts.Idempotency,
	}
	if wh, ok := tb.Poller.(*telebot.Webhook); ok {
		b.webhook = wh
	}
	if b.errHandler == nil {
		b.errHandler = errors.NewHandler(log, false)
	}

	b.setupRouter()

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router returns the update router.
func (b *Bot) Router() *Router {
	return b.router
}

// WebhookHandler returns the handler receiving pushed updates, or nil when long polling.
func (b *Bot) WebhookHandler() http.Handler {
	if b.webhook == nil {
		return nil
	}
	return b.webhook
}

// Ping checks that the Telegram API accepts the bot token.
func (b *Bot) Ping(_ context.Context) error {
	if b.telebot == nil {
		return fmt.Errorf("telebot client is not initialized")
	}
	_, err := b.telebot.MyName("")
	return err
}

func (b *Bot) setupRouter() {
	h := b.handlers

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotency, b.log))
	b.router.Use(middleware.Metrics)

	b.router.RegisterCommand(CommandStart, h.Start)
	b.router.RegisterCommand(CommandHelp, h.Help)
	b.router.RegisterCommand(CommandCancel, h.Cancel)

	b.router.RegisterCallback(keyboard.TagCoin, h.ToggleCoin)
	b.router.RegisterCallback(keyboard.TagPage, h.TopPage)
	b.router.RegisterCallback(keyboard.TagSearchPage, h.SearchPage)
	b.router.RegisterCallback(keyboard.TagSearch, h.BeginSearch)
	b.router.RegisterCallback(keyboard.TagConfirm, h.Confirm)
	b.router.RegisterCallback(keyboard.TagInterval, h.IntervalAction)
	b.router.RegisterCallback(keyboard.TagSchedule, h.ScheduleAction)
	b.router.RegisterCallback(keyboard.TagDay, h.Day)
	b.router.RegisterCallback(keyboard.TagChartCoin, h.ChartCoin)
	b.router.RegisterCallback(keyboard.TagChart, h.Chart)
	b.router.RegisterCallback(keyboard.TagNoop, h.Noop)

	labels := map[string]handlers.Handler{
		keyboard.LabelNow:      h.ShowPrices,
		keyboard.LabelCoins:    h.OpenCoins,
		keyboard.LabelChart:    h.OpenChart,
		keyboard.LabelInterval: h.OpenInterval,
		keyboard.LabelSchedule: h.OpenSchedule,
	}
	for key, handler := range labels {
		for _, text := range b.labelVariants(key) {
			b.router.RegisterLabel(text, handler)
		}
	}

	b.dispatcher.RegisterStateHandler(state.StateSettingInterval, h.IntervalInput)
	b.dispatcher.RegisterStateHandler(state.StateSettingScheduleTime, h.ScheduleTimeInput)
	b.dispatcher.RegisterStateHandler(state.StateSearching, h.SearchInput)
}

// labelVariants lists the label text in every loaded language so a chat
// keeps working with a keyboard sent before a language switch.
func (b *Bot) labelVariants(key string) []string {
	if b.i18n != nil {
		if variants := b.i18n.Variants(key); len(variants) > 0 {
			return variants
		}
	}
	if b.handlers.T != nil {
		return []string{b.handlers.T.T(key)}
	}
	return nil
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}

// ChatSender delivers plain text messages to chats.
type ChatSender struct {
	bot *telebot.Bot
}

func NewChatSender(tb *telebot.Bot) *ChatSender {
	return &ChatSender{bot: tb}
}

// SendText sends text to chatID.
func (s *ChatSender) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.bot.Send(&telebot.Chat{ID: chatID}, text)
	return err
}

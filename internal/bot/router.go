package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/handlers"
	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

// Router dispatches commands, callbacks, menu labels and input-mode text.
//
// Text is resolved in order: commands, a pending search query, menu labels,
// then the handler of the chat's input mode. Anything else is ignored.
type Router struct {
	mu          sync.RWMutex
	commands    map[string]handlers.Handler
	callbacks   map[string]handlers.CallbackHandler
	labels      map[string]handlers.Handler
	dispatcher  *Dispatcher
	fsm         state.StateMachine
	middlewares []handlers.Middleware
	log         *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(dispatcher *Dispatcher, fsm state.StateMachine, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		labels:      make(map[string]handlers.Handler),
		dispatcher:  dispatcher,
		fsm:         fsm,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a bot command.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[normalizeCommand(cmd)] = h
}

// RegisterCallback registers a handler for a callback tag.
func (r *Router) RegisterCallback(tag string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[tag] = h
}

// RegisterLabel registers a handler for the exact text of a reply keyboard
// button. Every translation of a label should be registered.
func (r *Router) RegisterLabel(text string, h handlers.Handler) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[text] = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}

	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	tag, payload, err := keyboard.DecodeCallback(data)
	if err != nil {
		return c.Respond()
	}

	handler := r.getCallbackHandler(tag)
	if handler == nil {
		r.log.Debug("ignoring unknown callback", slog.String("data", data))
		return c.Respond()
	}

	exec := handlers.Handler(func(ctx telebot.Context) error {
		return handler(ctx, payload)
	})

	return r.executeHandler(exec, c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	text := strings.TrimSpace(c.Text())

	if strings.HasPrefix(text, "/") {
		if handler := r.getCommandHandler(normalizeCommand(text)); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	// A pending search consumes the next text whatever it says.
	if r.dispatcher != nil && r.dispatcher.Current(c) == state.StateSearching {
		if handler := r.dispatcher.Handler(c); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	if handler := r.getLabelHandler(text); handler != nil {
		return r.executeHandler(r.resetInput(handler), c)
	}

	if r.dispatcher != nil {
		if handler := r.dispatcher.Handler(c); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	r.log.Debug("ignoring text outside any input mode", slog.Int64("chat_id", chatIDOf(c)))
	return nil
}

// resetInput clears any pending input mode before a menu action runs.
func (r *Router) resetInput(h handlers.Handler) handlers.Handler {
	return func(c telebot.Context) error {
		if r.fsm != nil {
			if id := chatIDOf(c); id != 0 {
				r.fsm.ResetInput(id)
			}
		}
		return h(c)
	}
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCallbackHandler(tag string) handlers.CallbackHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbacks[tag]
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getLabelHandler(text string) handlers.Handler {
	r.mu.RLock()
	handler := r.labels[text]
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}

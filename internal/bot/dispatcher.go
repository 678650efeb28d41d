package bot

import (
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/handlers"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

// Dispatcher routes free text to the handler of the chat's pending input mode.
type Dispatcher struct {
	fsm           state.StateMachine
	stateHandlers map[state.State]handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with an empty handlers registry.
func NewDispatcher(fsm state.StateMachine, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		fsm:           fsm,
		stateHandlers: make(map[state.State]handlers.Handler),
		log:           log,
	}
}

// RegisterStateHandler registers a handler for the provided input mode.
func (d *Dispatcher) RegisterStateHandler(s state.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Current returns the input mode of the chat the update came from.
func (d *Dispatcher) Current(c telebot.Context) state.State {
	if c == nil || d.fsm == nil {
		return state.StateIdle
	}

	id := chatIDOf(c)
	if id == 0 {
		return state.StateIdle
	}
	return d.fsm.Input(id)
}

// Handler returns the handler bound to the chat's input mode, or nil.
func (d *Dispatcher) Handler(c telebot.Context) handlers.Handler {
	current := d.Current(c)
	handler := d.getHandler(current)
	if handler == nil && current != state.StateIdle {
		d.log.Info("no handler registered for state", slog.String("state", string(current)), slog.Int64("chat_id", chatIDOf(c)))
	}
	return handler
}

func (d *Dispatcher) getHandler(s state.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}

func chatIDOf(c telebot.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

// Package state keeps per-chat selection, schedule dialog and input-mode state.
package state

import (
	"sync"
	"time"
)

// Store is the in-process table of chat states. Each chat has its own lock,
// so handlers for different chats never contend.
type Store struct {
	mu    sync.Mutex
	chats map[int64]*chatSlot
	now   func() time.Time
}

type chatSlot struct {
	mu    sync.Mutex
	state *ChatState
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		chats: make(map[int64]*chatSlot),
		now:   time.Now,
	}
}

// Get returns a copy of the chat state, creating it lazily.
func (s *Store) Get(chatID int64) ChatState {
	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.state.clone()
}

// Update applies fn to the chat state under the chat lock.
func (s *Store) Update(chatID int64, fn func(st *ChatState) error) error {
	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if err := fn(slot.state); err != nil {
		return err
	}
	slot.state.UpdatedAt = s.now().UTC()
	return nil
}

// GetAllStates returns copies of every known chat state.
func (s *Store) GetAllStates() []ChatState {
	s.mu.Lock()
	slots := make([]*chatSlot, 0, len(s.chats))
	for _, slot := range s.chats {
		slots = append(slots, slot)
	}
	s.mu.Unlock()

	out := make([]ChatState, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		out = append(out, slot.state.clone())
		slot.mu.Unlock()
	}
	return out
}

func (s *Store) slot(chatID int64) *chatSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.chats[chatID]
	if !ok {
		slot = &chatSlot{state: newChatState(chatID)}
		s.chats[chatID] = slot
	}
	return slot
}

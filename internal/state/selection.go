package state

// BeginSelection opens a selection dialog seeded from the confirmed set and
// returns the working copy.
func (s *Store) BeginSelection(chatID int64) []string {
	var view []string
	_ = s.Update(chatID, func(st *ChatState) error {
		st.Pending = st.Confirmed.Clone()
		view = st.Pending.IDs()
		return nil
	})
	return view
}

// ToggleCoin flips coinID in the working copy and reports whether it is now selected.
// Without an open dialog a new one is started from an empty set.
func (s *Store) ToggleCoin(chatID int64, coinID string) bool {
	var selected bool
	_ = s.Update(chatID, func(st *ChatState) error {
		if st.Pending == nil {
			st.Pending = NewCoinSet()
		}
		selected = st.Pending.Toggle(coinID)
		return nil
	})
	return selected
}

// ConfirmSelection replaces the confirmed set with the working copy and closes the dialog.
func (s *Store) ConfirmSelection(chatID int64) ([]string, error) {
	var confirmed []string
	err := s.Update(chatID, func(st *ChatState) error {
		if st.Pending == nil {
			return ErrNothingToConfirm
		}
		if st.Pending.Len() == 0 {
			return ErrEmptySelection
		}

		st.Confirmed = st.Pending
		st.Pending = nil
		confirmed = st.Confirmed.IDs()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// CurrentView returns the working copy while a dialog is open, otherwise the confirmed set.
func (s *Store) CurrentView(chatID int64) *CoinSet {
	st := s.Get(chatID)
	if st.Pending != nil {
		return st.Pending
	}
	return st.Confirmed
}

// Confirmed returns the confirmed coin ids in selection order.
func (s *Store) Confirmed(chatID int64) []string {
	return s.Get(chatID).Confirmed.IDs()
}

package state

// CoinSet is an insertion-ordered set of coin ids.
type CoinSet struct {
	ids []string
}

// NewCoinSet builds a set from ids, dropping duplicates and empty values.
func NewCoinSet(ids ...string) *CoinSet {
	s := &CoinSet{ids: make([]string, 0, len(ids))}
	for _, id := range ids {
		if id != "" && !s.Has(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Has reports whether id is in the set.
func (s *CoinSet) Has(id string) bool {
	if s == nil {
		return false
	}
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle flips membership of id and reports whether it is now present.
func (s *CoinSet) Toggle(id string) bool {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

// IDs returns a copy of the members in insertion order.
func (s *CoinSet) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.ids...)
}

// Len returns the number of members.
func (s *CoinSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Clone returns an independent copy.
func (s *CoinSet) Clone() *CoinSet {
	if s == nil {
		return NewCoinSet()
	}
	return &CoinSet{ids: s.IDs()}
}

package state

// Page is a fixed-size window over an ordered candidate list.
type Page[T any] struct {
	Items   []T
	Index   int
	Total   int
	HasPrev bool
	HasNext bool
}

// Paginate slices items into pages of size and returns the requested page.
// Out-of-range indexes are clamped. The input slice is never modified.
func Paginate[T any](items []T, index, size int) Page[T] {
	if size <= 0 {
		size = 1
	}

	total := (len(items) + size - 1) / size
	if total == 0 {
		total = 1
	}
	if index < 0 {
		index = 0
	}
	if index >= total {
		index = total - 1
	}

	start := index * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	window := make([]T, 0, end-start)
	if start < end {
		window = append(window, items[start:end]...)
	}

	return Page[T]{
		Items:   window,
		Index:   index,
		Total:   total,
		HasPrev: index > 0,
		HasNext: index < total-1,
	}
}

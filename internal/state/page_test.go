package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	testCases := []struct {
		name     string
		index    int
		want     []int
		wantPrev bool
		wantNext bool
	}{
		{name: "first page", index: 0, want: []int{1, 2, 3}, wantNext: true},
		{name: "middle page", index: 1, want: []int{4, 5, 6}, wantPrev: true, wantNext: true},
		{name: "last partial page", index: 2, want: []int{7}, wantPrev: true},
		{name: "index past end is clamped", index: 9, want: []int{7}, wantPrev: true},
		{name: "negative index is clamped", index: -1, want: []int{1, 2, 3}, wantNext: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			page := Paginate(items, tc.index, 3)
			assert.Equal(t, tc.want, page.Items)
			assert.Equal(t, 3, page.Total)
			assert.Equal(t, tc.wantPrev, page.HasPrev)
			assert.Equal(t, tc.wantNext, page.HasNext)
		})
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, items)
}

func TestPaginate_Empty(t *testing.T) {
	page := Paginate([]string{}, 0, 5)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
}

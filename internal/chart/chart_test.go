package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(640, 320, 5, nil)

	img, err := r.Render([]string{"01.01", "02.01", "03.01"}, []float64{1, 3, 2}, "bitcoin")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestRenderer_RenderRejectsBadInput(t *testing.T) {
	r := NewRenderer(640, 320, 5, nil)

	_, err := r.Render([]string{"a"}, []float64{1}, "x")
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = r.Render([]string{"a", "b"}, []float64{1}, "x")
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestRenderer_Ticks(t *testing.T) {
	r := NewRenderer(640, 320, 3, nil)

	labels := []string{"a", "b", "c", "d", "e"}
	ticks := r.ticks(labels)
	require.Len(t, ticks, 3)
	assert.Equal(t, "a", ticks[0].Label)
	assert.Equal(t, "c", ticks[1].Label)
	assert.Equal(t, "e", ticks[2].Label)

	ticks = r.ticks([]string{"a", "b"})
	assert.Len(t, ticks, 2)
}

func TestRenderer_RenderHistory(t *testing.T) {
	r := NewRenderer(640, 320, 4, time.UTC)
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	points := []domain.PricePoint{
		{At: start, Price: 100},
		{At: start.Add(time.Hour), Price: 110},
		{At: start.Add(2 * time.Hour), Price: 105},
	}

	img, err := r.RenderHistory(points, 1, "bitcoin")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestCaption(t *testing.T) {
	points := []domain.PricePoint{{Price: 100}, {Price: 1250.5}, {Price: 110}}

	caption := Caption("Bitcoin", 7, points)
	assert.Contains(t, caption, "Bitcoin, 7 дн.")
	assert.Contains(t, caption, "мін: 100$")
	assert.Contains(t, caption, "макс: 1,250.5$")
	assert.Contains(t, caption, "зміна: 10.00%")
}

package market

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

func TestSearch(t *testing.T) {
	coins := []domain.CoinRef{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		{ID: "bitcoin-cash", Symbol: "bch", Name: "Bitcoin Cash"},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
		{ID: "wrapped-bitcoin", Symbol: "wbtc", Name: "Wrapped Bitcoin"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "BIT", want: []string{"bitcoin", "bitcoin-cash", "wrapped-bitcoin"}},
		{query: "btc", want: []string{"bitcoin", "wrapped-bitcoin"}},
		{query: "  eth ", want: []string{"ethereum"}},
		{query: "doge", want: []string{}},
		{query: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Search(coins, tt.query, 0)
			ids := make([]string, 0, len(got))
			for _, coin := range got {
				ids = append(ids, coin.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSearch_CapsResults(t *testing.T) {
	coins := make([]domain.CoinRef, 0, 30)
	for i := range 30 {
		coins = append(coins, domain.CoinRef{ID: fmt.Sprintf("token-%d", i), Symbol: "tok", Name: "Token"})
	}

	got := Search(coins, "tok", DefaultSearchLimit)
	assert.Len(t, got, 20)
	assert.Equal(t, "token-0", got[0].ID)
}

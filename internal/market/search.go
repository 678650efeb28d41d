package market

import (
	"strings"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

// DefaultSearchLimit caps the number of search results.
const DefaultSearchLimit = 20

// Search returns coins whose symbol or name contains query, ignoring case, in
// catalogue order and capped at limit.
func Search(coins []domain.CoinRef, query string, limit int) []domain.CoinRef {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []domain.CoinRef{}
	}

	results := make([]domain.CoinRef, 0, limit)
	for _, coin := range coins {
		if strings.Contains(strings.ToLower(coin.Symbol), needle) ||
			strings.Contains(strings.ToLower(coin.Name), needle) {
			results = append(results, coin)
			if len(results) == limit {
				break
			}
		}
	}
	return results
}

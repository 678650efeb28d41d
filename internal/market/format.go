package market

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

// FormatQuotes renders one line per coin in ids order, e.g.
// "BITCOIN: 50000$ (2.34% за 24г)". Coins without a quote are skipped and an
// empty string is returned when none has one.
func FormatQuotes(ids []string, quotes map[string]domain.Quote) string {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		quote, ok := quotes[id]
		if !ok {
			continue
		}
		lines = append(lines, FormatQuote(id, quote))
	}
	return strings.Join(lines, "\n")
}

func FormatQuote(id string, quote domain.Quote) string {
	return fmt.Sprintf("%s: %s$ (%.2f%% за 24г)",
		strings.ToUpper(id),
		strconv.FormatFloat(quote.Price, 'f', -1, 64),
		quote.Change24h,
	)
}

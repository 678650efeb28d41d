package keyboard

import (
	"fmt"
	"strconv"

	"github.com/Proton-105/coinpulse-bot/internal/i18n"
)

// PaginationButtons returns prev, position and next buttons for a zero-based
// page index. Navigation buttons carry the target index under action; the
// position button is inert. A single page yields no buttons.
func PaginationButtons(t i18n.Translator, action string, index, totalPages int) []InlineButton {
	if totalPages <= 1 {
		return nil
	}
	index = max(0, min(index, totalPages-1))

	buttons := make([]InlineButton, 0, 3)

	if index > 0 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "coins.prev_button", "⬅️"),
			Unique: action,
			Data:   strconv.Itoa(index - 1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   fmt.Sprintf("%d/%d", index+1, totalPages),
		Unique: TagNoop,
	})

	if index < totalPages-1 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "coins.next_button", "➡️"),
			Unique: action,
			Data:   strconv.Itoa(index + 1),
		})
	}

	return buttons
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := t.T(key)
	if text == "" || text == key {
		return fallback
	}

	return text
}

package keyboard

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/internal/i18n"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

// ChartPeriods are the history lengths, in days, offered by the chart picker.
var ChartPeriods = []int{1, 7, 30, 90, 365}

const (
	coinsPerRow = 2
	daysPerRow  = 4
)

// Builder creates the bot's inline keyboards.
type Builder struct {
	t   i18n.Translator
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(t i18n.Translator, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{t: t, log: log}
}

// CoinPicker renders one page of coins with a check mark on selected ones,
// navigation under pageTag, and the search and confirm actions.
func (b *Builder) CoinPicker(page state.Page[domain.CoinRef], selected func(id string) bool, pageTag string) (*telebot.ReplyMarkup, error) {
	buttons := make([]InlineButton, 0, len(page.Items))
	for _, coin := range page.Items {
		if !Fits(TagCoin, coin.ID) {
			b.log.Warn("coin id too long for callback data", slog.String("coin_id", coin.ID))
			continue
		}

		label := CoinLabel(coin)
		if selected != nil && selected(coin.ID) {
			label = "✅ " + label
		}
		buttons = append(buttons, InlineButton{Text: label, Unique: TagCoin, Data: coin.ID})
	}

	kb := NewInlineKeyboard().AddGrid(coinsPerRow, buttons...)
	kb.AddRow(PaginationButtons(b.t, pageTag, page.Index, page.Total)...)
	kb.AddRow(
		InlineButton{Text: translated(b.t, "coins.search_button", "🔍"), Unique: TagSearch},
		InlineButton{Text: translated(b.t, "coins.confirm_button", "✔️"), Unique: TagConfirm},
	)

	return kb.Build()
}

// IntervalMenu offers to set or stop the interval trigger.
func (b *Builder) IntervalMenu() (*telebot.ReplyMarkup, error) {
	return NewInlineKeyboard().AddRow(
		InlineButton{Text: translated(b.t, "interval.set_button", "Set"), Unique: TagInterval, Data: ActionSet},
		InlineButton{Text: translated(b.t, "interval.stop_button", "Stop"), Unique: TagInterval, Data: ActionStop},
	).Build()
}

// ScheduleMenu offers the schedule kinds and clearing.
func (b *Builder) ScheduleMenu() (*telebot.ReplyMarkup, error) {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: translated(b.t, "schedule.daily_button", "Daily"), Unique: TagSchedule, Data: ActionDaily},
			InlineButton{Text: translated(b.t, "schedule.days_button", "Days"), Unique: TagSchedule, Data: ActionDays},
		).
		AddRow(
			InlineButton{Text: translated(b.t, "schedule.clear_button", "Clear"), Unique: TagSchedule, Data: ActionClear},
		).
		Build()
}

// DayPicker renders Monday-first weekday toggles and the done action.
func (b *Builder) DayPicker(chosen map[domain.Weekday]bool) (*telebot.ReplyMarkup, error) {
	buttons := make([]InlineButton, 0, len(domain.AllWeekdays))
	for _, day := range domain.AllWeekdays {
		label := b.DayName(day)
		if chosen[day] {
			label = "✅ " + label
		}
		buttons = append(buttons, InlineButton{Text: label, Unique: TagDay, Data: strconv.Itoa(int(day))})
	}

	return NewInlineKeyboard().
		AddGrid(daysPerRow, buttons...).
		AddRow(InlineButton{Text: translated(b.t, "schedule.done_button", "Done"), Unique: TagSchedule, Data: ActionDone}).
		Build()
}

// ChartCoins lists coins to chart.
func (b *Builder) ChartCoins(coins []domain.CoinRef) (*telebot.ReplyMarkup, error) {
	buttons := make([]InlineButton, 0, len(coins))
	for _, coin := range coins {
		if !Fits(TagChart, coin.ID+CallbackDataSeparator+"365") {
			b.log.Warn("coin id too long for callback data", slog.String("coin_id", coin.ID))
			continue
		}
		buttons = append(buttons, InlineButton{Text: CoinLabel(coin), Unique: TagChartCoin, Data: coin.ID})
	}

	return NewInlineKeyboard().AddGrid(coinsPerRow, buttons...).Build()
}

// ChartPeriodPicker lists the history lengths for coinID.
func (b *Builder) ChartPeriodPicker(coinID string) (*telebot.ReplyMarkup, error) {
	buttons := make([]InlineButton, 0, len(ChartPeriods))
	for _, days := range ChartPeriods {
		buttons = append(buttons, InlineButton{
			Text:   translated(b.t, fmt.Sprintf("chart.period.d%d", days), strconv.Itoa(days)),
			Unique: TagChart,
			Data:   coinID + CallbackDataSeparator + strconv.Itoa(days),
		})
	}

	return NewInlineKeyboard().AddGrid(3, buttons...).Build()
}

// DayName returns the localized short weekday name.
func (b *Builder) DayName(day domain.Weekday) string {
	return translated(b.t, "day."+strconv.Itoa(int(day)), strconv.Itoa(int(day)))
}

// CoinLabel renders "BTC · Bitcoin", falling back to the id when the symbol is unknown.
func CoinLabel(coin domain.CoinRef) string {
	if coin.Symbol == "" {
		return strings.ToUpper(coin.ID)
	}
	if coin.Name == "" {
		return strings.ToUpper(coin.Symbol)
	}
	return strings.ToUpper(coin.Symbol) + " · " + coin.Name
}

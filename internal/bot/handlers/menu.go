package handlers

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/delivery"
	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

// ShowPrices delivers the confirmed coins' prices right away.
func (h *Handlers) ShowPrices(c telebot.Context) error {
	return h.Delivery.DeliverNow(RequestContext(c), chatID(c), delivery.SourceOnDemand)
}

// OpenInterval shows the current interval and the interval actions.
func (h *Handlers) OpenInterval(c telebot.Context) error {
	markup, err := h.Keyboards.IntervalMenu()
	if err != nil {
		return err
	}
	return c.Send(h.intervalStatus(chatID(c)), markup)
}

// OpenSchedule shows the current schedule, interval and next run with the schedule actions.
func (h *Handlers) OpenSchedule(c telebot.Context) error {
	id := chatID(c)

	text := h.T.Tf("schedule.menu", h.scheduleStatus(id), h.intervalStatus(id))
	if next, ok := h.Triggers.NextRun(id); ok {
		text += "\n" + h.T.Tf("schedule.next_run", next.In(h.Location).Format("02.01.2006 15:04:05"))
	}

	markup, err := h.Keyboards.ScheduleMenu()
	if err != nil {
		return err
	}
	return c.Send(text, markup)
}

// OpenChart lists the confirmed coins to chart.
func (h *Handlers) OpenChart(c telebot.Context) error {
	ids := h.State.Confirmed(chatID(c))
	if len(ids) == 0 {
		return c.Send(h.T.T("delivery.no_coins"))
	}

	coins := make([]domain.CoinRef, 0, len(ids))
	for _, id := range ids {
		coin, ok := h.Coins.Lookup(id)
		if !ok {
			coin = domain.CoinRef{ID: id}
		}
		coins = append(coins, coin)
	}

	markup, err := h.Keyboards.ChartCoins(coins)
	if err != nil {
		return err
	}
	return c.Send(h.T.T("chart.pick_coin"), markup)
}

// Noop answers callbacks of decorative buttons such as the page counter.
func (h *Handlers) Noop(c telebot.Context, _ string) error {
	return c.Respond()
}

func (h *Handlers) intervalStatus(chatID int64) string {
	period, ok := h.Triggers.Interval(chatID)
	if !ok {
		return h.T.T("interval.status_none")
	}
	return h.T.Tf("interval.status", formatPeriod(period))
}

func (h *Handlers) scheduleStatus(chatID int64) string {
	spec, ok := h.State.Schedule(chatID)
	if !ok {
		return h.T.T("schedule.none")
	}
	return h.describeSchedule(spec)
}

// describeSchedule renders a schedule with weekdays listed Monday first.
func (h *Handlers) describeSchedule(spec domain.ScheduleSpec) string {
	if spec.Kind != domain.ScheduleSpecificDays {
		return h.T.Tf("schedule.every_day", spec.Time.String())
	}

	chosen := make(map[domain.Weekday]bool, len(spec.Days))
	for _, day := range spec.Days {
		chosen[day] = true
	}

	names := make([]string, 0, len(spec.Days))
	for _, day := range domain.AllWeekdays {
		if chosen[day] {
			names = append(names, h.Keyboards.DayName(day))
		}
	}
	return h.T.Tf("schedule.specific_days", strings.Join(names, ", "), spec.Time.String())
}

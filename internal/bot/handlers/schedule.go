package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

// ScheduleAction handles sched:daily, sched:days, sched:done and sched:clear.
func (h *Handlers) ScheduleAction(c telebot.Context, payload string) error {
	switch payload {
	case keyboard.ActionDaily:
		return h.chooseDaily(c)
	case keyboard.ActionDays:
		return h.chooseDays(c)
	case keyboard.ActionDone:
		return h.finishDays(c)
	case keyboard.ActionClear:
		return h.clearSchedule(c)
	}
	return c.Respond()
}

func (h *Handlers) chooseDaily(c telebot.Context) error {
	id := chatID(c)
	if _, err := h.State.ChooseScheduleKind(id, domain.ScheduleEveryDay); err != nil {
		return err
	}

	h.respond(c, id)
	return c.Send(h.T.T("schedule.time_prompt"))
}

func (h *Handlers) chooseDays(c telebot.Context) error {
	id := chatID(c)
	if _, err := h.State.ChooseScheduleKind(id, domain.ScheduleSpecificDays); err != nil {
		return err
	}

	markup, err := h.Keyboards.DayPicker(h.State.DraftDays(id))
	if err != nil {
		return err
	}

	h.respond(c, id)
	return c.Send(h.T.T("schedule.days_prompt"), markup)
}

func (h *Handlers) finishDays(c telebot.Context) error {
	id := chatID(c)

	err := h.State.FinishScheduleDays(id)
	switch {
	case errors.Is(err, state.ErrNoDays):
		return h.alert(c, h.T.T("schedule.no_days"))
	case errors.Is(err, state.ErrNoDraft), errors.Is(err, state.ErrInvalidTransition):
		return h.alert(c, h.T.T("schedule.no_draft"))
	case err != nil:
		return err
	}

	h.respond(c, id)
	return c.Send(h.T.T("schedule.time_prompt"))
}

// clearSchedule drops the committed schedule, any draft and the armed cron trigger.
func (h *Handlers) clearSchedule(c telebot.Context) error {
	id := chatID(c)

	hadState := h.State.ClearSchedule(id)
	hadTrigger := h.Triggers.ClearSchedule(id)
	if !hadState && !hadTrigger {
		return h.alert(c, h.T.T("schedule.nothing_to_clear"))
	}

	h.respond(c, id)
	return c.Send(h.T.T("schedule.cleared"))
}

// Day toggles a weekday in the specific-days draft and redraws the day picker.
func (h *Handlers) Day(c telebot.Context, payload string) error {
	id := chatID(c)

	n, err := strconv.Atoi(payload)
	if err != nil || !domain.Weekday(n).Valid() {
		return c.Respond()
	}
	day := domain.Weekday(n)

	chosen, err := h.State.ToggleScheduleDay(id, day)
	if errors.Is(err, state.ErrNoDraft) || errors.Is(err, state.ErrInvalidTransition) {
		return h.alert(c, h.T.T("schedule.no_draft"))
	}
	if err != nil {
		return err
	}

	if msg := c.Message(); msg != nil && h.Editor != nil {
		markup, err := h.Keyboards.DayPicker(h.State.DraftDays(id))
		if err != nil {
			return err
		}
		if _, err := h.Editor.EditReplyMarkup(msg, markup); err != nil && !errors.Is(err, telebot.ErrSameMessageContent) {
			h.Log.Warn("failed to redraw day picker", slog.Int64("chat_id", id), slog.Any("error", err))
		}
	}

	if chosen {
		return h.ack(c, h.T.Tf("day.added", h.Keyboards.DayName(day)))
	}
	return h.ack(c, h.T.Tf("day.removed", h.Keyboards.DayName(day)))
}

// ScheduleTimeInput completes the draft with the entered time and arms the
// cron trigger. Invalid input keeps the chat waiting for the time.
func (h *Handlers) ScheduleTimeInput(c telebot.Context) error {
	id := chatID(c)

	t, err := domain.ParseTimeOfDay(c.Text())
	if err != nil {
		return c.Send(h.T.T("time.invalid"))
	}

	spec, err := h.State.SubmitScheduleTime(id, t)
	switch {
	case errors.Is(err, state.ErrNoDraft), errors.Is(err, state.ErrInvalidTransition):
		return c.Send(h.T.T("schedule.no_draft"), keyboard.MainMenu(h.T))
	case errors.Is(err, state.ErrNoDays):
		return c.Send(h.T.T("schedule.no_days"))
	case err != nil:
		return err
	}

	if err := h.Triggers.SetSchedule(id, spec); err != nil {
		h.Log.Error("failed to arm schedule", slog.Int64("chat_id", id), slog.String("cron", spec.CronExpr()), slog.Any("error", err))
		h.State.ClearSchedule(id)
		return c.Send(h.T.T("schedule.failed"), keyboard.MainMenu(h.T))
	}

	text := h.T.Tf("schedule.armed", h.describeSchedule(spec))
	if next, ok := h.Triggers.NextRun(id); ok {
		text += "\n" + h.T.Tf("schedule.next_run", next.In(h.Location).Format("02.01.2006 15:04:05"))
	}

	h.Log.Info("schedule armed", slog.Int64("chat_id", id), slog.String("cron", spec.CronExpr()))
	return c.Send(text, keyboard.MainMenu(h.T))
}

func (h *Handlers) respond(c telebot.Context, chatID int64) {
	if err := c.Respond(); err != nil {
		h.Log.Warn("failed to answer callback", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

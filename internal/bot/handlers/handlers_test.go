package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/handlers"
	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/delivery"
	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

const testChat int64 = 42

type keyTranslator struct{}

func (keyTranslator) T(key string) string { return key }

func (keyTranslator) Tf(key string, args ...any) string {
	return key + " " + fmt.Sprint(args...)
}

func (keyTranslator) Lang() string { return "uk" }

type fakeContext struct {
	telebot.Context

	text      string
	message   *telebot.Message
	sent      []any
	responses []*telebot.CallbackResponse
	values    map[string]any
}

func newFakeContext(text string) *fakeContext {
	return &fakeContext{
		text:    text,
		message: &telebot.Message{ID: 7, Chat: &telebot.Chat{ID: testChat}},
		values:  make(map[string]any),
	}
}

func (c *fakeContext) Chat() *telebot.Chat       { return &telebot.Chat{ID: testChat} }
func (c *fakeContext) Sender() *telebot.User     { return &telebot.User{ID: testChat} }
func (c *fakeContext) Text() string              { return c.text }
func (c *fakeContext) Message() *telebot.Message { return c.message }
func (c *fakeContext) Get(key string) interface{} {
	return c.values[key]
}
func (c *fakeContext) Set(key string, val interface{}) { c.values[key] = val }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	if len(resp) == 0 {
		c.responses = append(c.responses, &telebot.CallbackResponse{})
		return nil
	}
	c.responses = append(c.responses, resp...)
	return nil
}

func (c *fakeContext) lastText() string {
	if len(c.sent) == 0 {
		return ""
	}
	text, _ := c.sent[len(c.sent)-1].(string)
	return text
}

func (c *fakeContext) lastResponse() *telebot.CallbackResponse {
	if len(c.responses) == 0 {
		return nil
	}
	return c.responses[len(c.responses)-1]
}

type mockTriggers struct{ mock.Mock }

func (m *mockTriggers) SetInterval(chatID int64, period time.Duration) error {
	return m.Called(chatID, period).Error(0)
}

func (m *mockTriggers) ClearInterval(chatID int64) bool {
	return m.Called(chatID).Bool(0)
}

func (m *mockTriggers) Interval(chatID int64) (time.Duration, bool) {
	args := m.Called(chatID)
	return args.Get(0).(time.Duration), args.Bool(1)
}

func (m *mockTriggers) SetSchedule(chatID int64, spec domain.ScheduleSpec) error {
	return m.Called(chatID, spec).Error(0)
}

func (m *mockTriggers) ClearSchedule(chatID int64) bool {
	return m.Called(chatID).Bool(0)
}

func (m *mockTriggers) NextRun(chatID int64) (time.Time, bool) {
	args := m.Called(chatID)
	return args.Get(0).(time.Time), args.Bool(1)
}

type mockCoins struct{ mock.Mock }

func (m *mockCoins) TopCoins(ctx context.Context) []domain.CoinRef {
	return m.Called(ctx).Get(0).([]domain.CoinRef)
}

func (m *mockCoins) AllCoins(ctx context.Context) []domain.CoinRef {
	return m.Called(ctx).Get(0).([]domain.CoinRef)
}

func (m *mockCoins) Lookup(id string) (domain.CoinRef, bool) {
	args := m.Called(id)
	return args.Get(0).(domain.CoinRef), args.Bool(1)
}

type mockHistory struct{ mock.Mock }

func (m *mockHistory) History(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	args := m.Called(ctx, coinID, days)
	points, _ := args.Get(0).([]domain.PricePoint)
	return points, args.Error(1)
}

type mockRenderer struct{ mock.Mock }

func (m *mockRenderer) RenderHistory(points []domain.PricePoint, days int, name string) ([]byte, error) {
	args := m.Called(points, days, name)
	img, _ := args.Get(0).([]byte)
	return img, args.Error(1)
}

type mockDeliverer struct{ mock.Mock }

func (m *mockDeliverer) DeliverNow(ctx context.Context, chatID int64, source string) error {
	return m.Called(ctx, chatID, source).Error(0)
}

type mockEditor struct{ mock.Mock }

func (m *mockEditor) EditReplyMarkup(msg telebot.Editable, markup *telebot.ReplyMarkup) (*telebot.Message, error) {
	args := m.Called(msg, markup)
	return nil, args.Error(1)
}

type fixture struct {
	h        *handlers.Handlers
	store    *state.Store
	triggers *mockTriggers
	coins    *mockCoins
	history  *mockHistory
	renderer *mockRenderer
	delivery *mockDeliverer
	editor   *mockEditor
}

var testCoins = []domain.CoinRef{
	{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
	{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
	{ID: "solana", Symbol: "sol", Name: "Solana"},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		store:    state.NewStore(),
		triggers: &mockTriggers{},
		coins:    &mockCoins{},
		history:  &mockHistory{},
		renderer: &mockRenderer{},
		delivery: &mockDeliverer{},
		editor:   &mockEditor{},
	}

	f.coins.On("Lookup", mock.Anything).Return(domain.CoinRef{}, false).Maybe()
	f.editor.On("EditReplyMarkup", mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	tr := keyTranslator{}
	f.h = handlers.New(handlers.Deps{
		State:       f.store,
		Triggers:    f.triggers,
		Coins:       f.coins,
		History:     f.history,
		Charts:      f.renderer,
		Delivery:    f.delivery,
		Editor:      f.editor,
		Keyboards:   keyboard.NewBuilder(tr, log),
		T:           tr,
		PageSize:    2,
		SearchLimit: 20,
		Location:    time.UTC,
		Log:         log,
	})

	t.Cleanup(func() {
		f.triggers.AssertExpectations(t)
		f.coins.AssertExpectations(t)
		f.delivery.AssertExpectations(t)
	})
	return f
}

func TestConfirmEmptySelectionKeepsState(t *testing.T) {
	f := newFixture(t)
	f.coins.On("TopCoins", mock.Anything).Return(testCoins).Once()

	require.NoError(t, f.h.OpenCoins(newFakeContext("")))

	c := newFakeContext("")
	require.NoError(t, f.h.Confirm(c, ""))

	resp := c.lastResponse()
	require.NotNil(t, resp)
	assert.True(t, resp.ShowAlert)
	assert.Equal(t, "coins.empty_selection", resp.Text)
	assert.NotNil(t, f.store.GetState(testChat).Pending)
	assert.Empty(t, f.store.Confirmed(testChat))
}

func TestConfirmWithoutDialog(t *testing.T) {
	f := newFixture(t)

	c := newFakeContext("")
	require.NoError(t, f.h.Confirm(c, ""))

	require.NotNil(t, c.lastResponse())
	assert.Equal(t, "coins.no_dialog", c.lastResponse().Text)
}

func TestToggleAndConfirmDelivers(t *testing.T) {
	f := newFixture(t)
	f.coins.On("TopCoins", mock.Anything).Return(testCoins).Once()
	f.delivery.On("DeliverNow", mock.Anything, testChat, delivery.SourceConfirm).Return(nil).Once()

	require.NoError(t, f.h.OpenCoins(newFakeContext("")))

	toggle := newFakeContext("")
	require.NoError(t, f.h.ToggleCoin(toggle, "ethereum"))
	assert.Equal(t, "coins.added ETHEREUM", toggle.lastResponse().Text)
	require.NoError(t, f.h.ToggleCoin(newFakeContext(""), "bitcoin"))

	c := newFakeContext("")
	require.NoError(t, f.h.Confirm(c, ""))

	assert.Equal(t, []string{"ethereum", "bitcoin"}, f.store.Confirmed(testChat))
	assert.Nil(t, f.store.GetState(testChat).Pending)
	assert.Equal(t, "coins.confirmed ETHEREUM, BITCOIN", c.lastText())
}

func TestOpenCoinsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.coins.On("TopCoins", mock.Anything).Return([]domain.CoinRef{}).Once()

	c := newFakeContext("")
	require.NoError(t, f.h.OpenCoins(c))

	assert.Equal(t, "coins.unavailable", c.lastText())
	assert.Nil(t, f.store.GetState(testChat).Pending)
}

func TestSearchFlow(t *testing.T) {
	f := newFixture(t)
	f.coins.On("AllCoins", mock.Anything).Return(testCoins).Once()

	begin := newFakeContext("")
	require.NoError(t, f.h.BeginSearch(begin, ""))
	assert.Equal(t, state.StateSearching, f.store.Input(testChat))
	assert.Equal(t, "search.prompt", begin.lastText())

	input := newFakeContext("ETH")
	require.NoError(t, f.h.SearchInput(input))

	assert.Equal(t, state.StateIdle, f.store.Input(testChat))
	assert.Equal(t, "search.results ETH", input.lastText())
	assert.NotNil(t, f.store.GetState(testChat).Pending)

	page := newFakeContext("")
	require.NoError(t, f.h.SearchPage(page, "0"))
	require.NotNil(t, page.lastResponse())
	assert.False(t, page.lastResponse().ShowAlert)
}

func TestSearchNoResults(t *testing.T) {
	f := newFixture(t)
	f.coins.On("AllCoins", mock.Anything).Return(testCoins).Once()

	f.store.SetInput(testChat, state.StateSearching)
	c := newFakeContext("dogecoin")
	require.NoError(t, f.h.SearchInput(c))

	assert.Equal(t, "search.no_results dogecoin", c.lastText())
	assert.Equal(t, state.StateIdle, f.store.Input(testChat))
}

func TestSearchPageExpired(t *testing.T) {
	f := newFixture(t)

	c := newFakeContext("")
	require.NoError(t, f.h.SearchPage(c, "1"))

	require.NotNil(t, c.lastResponse())
	assert.True(t, c.lastResponse().ShowAlert)
	assert.Equal(t, "search.expired", c.lastResponse().Text)
}

func TestIntervalInput(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		arm       time.Duration
		wantText  string
		wantInput state.State
	}{
		{name: "valid", text: "01:30:00", arm: 90 * time.Minute, wantText: "interval.armed 01:30:00", wantInput: state.StateIdle},
		{name: "hour out of range", text: "24:00:00", wantText: "time.invalid", wantInput: state.StateSettingInterval},
		{name: "garbage", text: "soon", wantText: "time.invalid", wantInput: state.StateSettingInterval},
		{name: "zero", text: "00:00:00", wantText: "interval.zero", wantInput: state.StateSettingInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.arm > 0 {
				f.triggers.On("SetInterval", testChat, tt.arm).Return(nil).Once()
			}

			f.store.SetInput(testChat, state.StateSettingInterval)
			c := newFakeContext(tt.text)
			require.NoError(t, f.h.IntervalInput(c))

			assert.Equal(t, tt.wantText, c.lastText())
			assert.Equal(t, tt.wantInput, f.store.Input(testChat))
		})
	}
}

func TestIntervalStop(t *testing.T) {
	f := newFixture(t)
	f.triggers.On("ClearInterval", testChat).Return(false).Once()
	f.triggers.On("ClearInterval", testChat).Return(true).Once()

	missing := newFakeContext("")
	require.NoError(t, f.h.IntervalAction(missing, keyboard.ActionStop))
	assert.Equal(t, "interval.nothing_to_stop", missing.lastResponse().Text)

	stopped := newFakeContext("")
	require.NoError(t, f.h.IntervalAction(stopped, keyboard.ActionStop))
	assert.Equal(t, "interval.stopped", stopped.lastText())
}

func TestScheduleSpecificDaysFlow(t *testing.T) {
	f := newFixture(t)

	want := domain.ScheduleSpec{
		Kind: domain.ScheduleSpecificDays,
		Days: []domain.Weekday{1, 3},
		Time: domain.TimeOfDay{Hour: 9, Minute: 30},
	}
	f.triggers.On("SetSchedule", testChat, want).Return(nil).Once()
	f.triggers.On("NextRun", testChat).Return(time.Time{}, false).Once()

	require.NoError(t, f.h.ScheduleAction(newFakeContext(""), keyboard.ActionDays))
	assert.Equal(t, state.PhaseKindChosen, f.store.GetState(testChat).Phase)

	empty := newFakeContext("")
	require.NoError(t, f.h.ScheduleAction(empty, keyboard.ActionDone))
	assert.Equal(t, "schedule.no_days", empty.lastResponse().Text)
	assert.Equal(t, state.PhaseKindChosen, f.store.GetState(testChat).Phase)

	for _, day := range []string{"3", "1", "5", "5"} {
		require.NoError(t, f.h.Day(newFakeContext(""), day))
	}

	require.NoError(t, f.h.ScheduleAction(newFakeContext(""), keyboard.ActionDone))
	assert.Equal(t, state.PhaseTimePending, f.store.GetState(testChat).Phase)
	assert.Equal(t, state.StateSettingScheduleTime, f.store.Input(testChat))

	bad := newFakeContext("9:30")
	require.NoError(t, f.h.ScheduleTimeInput(bad))
	assert.Equal(t, "time.invalid", bad.lastText())
	assert.Equal(t, state.StateSettingScheduleTime, f.store.Input(testChat))

	ok := newFakeContext("09:30:00")
	require.NoError(t, f.h.ScheduleTimeInput(ok))

	assert.Equal(t, state.PhaseCommitted, f.store.GetState(testChat).Phase)
	assert.Equal(t, state.StateIdle, f.store.Input(testChat))
	assert.Equal(t, "schedule.armed schedule.specific_days 1, 309:30:00", ok.lastText())

	spec, found := f.store.Schedule(testChat)
	require.True(t, found)
	assert.Equal(t, "0 30 9 * * 1,3", spec.CronExpr())
}

func TestScheduleTimeOutOfRangeKeepsDraft(t *testing.T) {
	for _, text := range []string{"25:00:00", "24:00:00", "12:60:00", "7:05:30"} {
		t.Run(text, func(t *testing.T) {
			f := newFixture(t)

			require.NoError(t, f.h.ScheduleAction(newFakeContext(""), keyboard.ActionDaily))
			require.Equal(t, state.PhaseTimePending, f.store.GetState(testChat).Phase)

			c := newFakeContext(text)
			require.NoError(t, f.h.ScheduleTimeInput(c))

			assert.Equal(t, "time.invalid", c.lastText())
			assert.Equal(t, state.StateSettingScheduleTime, f.store.Input(testChat))
			assert.Equal(t, state.PhaseTimePending, f.store.GetState(testChat).Phase)
			f.triggers.AssertNotCalled(t, "SetSchedule", mock.Anything, mock.Anything)
		})
	}
}

func TestScheduleArmFailureClearsState(t *testing.T) {
	f := newFixture(t)
	f.triggers.On("SetSchedule", testChat, mock.Anything).Return(errors.New("cron rejected")).Once()

	require.NoError(t, f.h.ScheduleAction(newFakeContext(""), keyboard.ActionDaily))

	c := newFakeContext("08:00:00")
	require.NoError(t, f.h.ScheduleTimeInput(c))

	assert.Equal(t, "schedule.failed", c.lastText())
	_, found := f.store.Schedule(testChat)
	assert.False(t, found)
	assert.Equal(t, state.PhaseNoSchedule, f.store.GetState(testChat).Phase)
}

func TestScheduleClear(t *testing.T) {
	f := newFixture(t)
	f.triggers.On("ClearSchedule", testChat).Return(false).Once()

	c := newFakeContext("")
	require.NoError(t, f.h.ScheduleAction(c, keyboard.ActionClear))

	require.NotNil(t, c.lastResponse())
	assert.True(t, c.lastResponse().ShowAlert)
	assert.Equal(t, "schedule.nothing_to_clear", c.lastResponse().Text)
}

func TestDayWithoutDraft(t *testing.T) {
	f := newFixture(t)

	c := newFakeContext("")
	require.NoError(t, f.h.Day(c, "2"))

	assert.Equal(t, "schedule.no_draft", c.lastResponse().Text)
}

func TestOpenChartWithoutCoins(t *testing.T) {
	f := newFixture(t)

	c := newFakeContext("")
	require.NoError(t, f.h.OpenChart(c))

	assert.Equal(t, "delivery.no_coins", c.lastText())
}

func TestChartHistoryFailure(t *testing.T) {
	f := newFixture(t)
	f.history.On("History", mock.Anything, "bitcoin", 7).Return(nil, errors.New("upstream down")).Once()

	c := newFakeContext("")
	require.NoError(t, f.h.Chart(c, "bitcoin:7"))

	assert.Equal(t, "chart.rendering", c.lastResponse().Text)
	assert.Equal(t, "chart.unavailable", c.lastText())
	f.renderer.AssertNotCalled(t, "RenderHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestChartSendsPhoto(t *testing.T) {
	f := newFixture(t)
	points := []domain.PricePoint{
		{At: time.Unix(0, 0), Price: 100},
		{At: time.Unix(3600, 0), Price: 110},
	}
	f.history.On("History", mock.Anything, "bitcoin", 1).Return(points, nil).Once()
	f.renderer.On("RenderHistory", points, 1, "BITCOIN").Return([]byte{0x89, 'P', 'N', 'G'}, nil).Once()

	c := newFakeContext("")
	require.NoError(t, f.h.Chart(c, "bitcoin:1"))

	require.Len(t, c.sent, 1)
	photo, ok := c.sent[0].(*telebot.Photo)
	require.True(t, ok)
	assert.Contains(t, photo.Caption, "BITCOIN")
}

func TestShowPricesDeliversOnDemand(t *testing.T) {
	f := newFixture(t)
	f.delivery.On("DeliverNow", mock.Anything, testChat, delivery.SourceOnDemand).Return(nil).Once()

	require.NoError(t, f.h.ShowPrices(newFakeContext("")))
}

package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/patrickmn/go-cache"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinpulse-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinpulse-bot/internal/delivery"
	"github.com/Proton-105/coinpulse-bot/internal/domain"
	"github.com/Proton-105/coinpulse-bot/internal/market"
	"github.com/Proton-105/coinpulse-bot/internal/state"
)

// pickerView is the list a chat is currently paging through.
type pickerView struct {
	Coins []domain.CoinRef
	Index int
	Tag   string
}

func viewKey(chatID int64) string {
	return "view:" + strconv.FormatInt(chatID, 10)
}

func (h *Handlers) loadView(chatID int64) (pickerView, bool) {
	raw, ok := h.Views.Get(viewKey(chatID))
	if !ok {
		return pickerView{}, false
	}
	view, ok := raw.(pickerView)
	return view, ok
}

func (h *Handlers) storeView(chatID int64, view pickerView) {
	h.Views.Set(viewKey(chatID), view, cache.DefaultExpiration)
}

func (h *Handlers) pickerMarkup(chatID int64, view pickerView) (*telebot.ReplyMarkup, error) {
	page := state.Paginate(view.Coins, view.Index, h.PageSize)
	selected := h.State.CurrentView(chatID)
	return h.Keyboards.CoinPicker(page, selected.Has, view.Tag)
}

// OpenCoins starts a selection dialog over the top coins.
func (h *Handlers) OpenCoins(c telebot.Context) error {
	ctx := RequestContext(c)
	id := chatID(c)

	coins := h.Coins.TopCoins(ctx)
	if len(coins) == 0 {
		return c.Send(h.T.T("coins.unavailable"))
	}

	h.State.BeginSelection(id)
	view := pickerView{Coins: coins, Tag: keyboard.TagPage}
	h.storeView(id, view)

	markup, err := h.pickerMarkup(id, view)
	if err != nil {
		return err
	}
	return c.Send(h.T.T("coins.prompt"), markup)
}

// ToggleCoin flips a coin in the open selection and redraws the picker.
func (h *Handlers) ToggleCoin(c telebot.Context, coinID string) error {
	id := chatID(c)
	if coinID == "" {
		return c.Respond()
	}

	selected := h.State.ToggleCoin(id, coinID)

	label := strings.ToUpper(coinID)
	if coin, ok := h.Coins.Lookup(coinID); ok {
		label = keyboard.CoinLabel(coin)
	}

	if view, ok := h.loadView(id); ok {
		if err := h.redraw(c, id, view); err != nil {
			return err
		}
	}

	if selected {
		return h.ack(c, h.T.Tf("coins.added", label))
	}
	return h.ack(c, h.T.Tf("coins.removed", label))
}

// TopPage shows another page of the top coins picker.
func (h *Handlers) TopPage(c telebot.Context, payload string) error {
	index, err := strconv.Atoi(payload)
	if err != nil {
		return c.Respond()
	}

	id := chatID(c)
	view, ok := h.loadView(id)
	if !ok || view.Tag != keyboard.TagPage {
		view = pickerView{Coins: h.Coins.TopCoins(RequestContext(c)), Tag: keyboard.TagPage}
	}
	view.Index = index
	h.storeView(id, view)

	if err := h.redraw(c, id, view); err != nil {
		return err
	}
	return c.Respond()
}

// SearchPage shows another page of the last search results.
func (h *Handlers) SearchPage(c telebot.Context, payload string) error {
	index, err := strconv.Atoi(payload)
	if err != nil {
		return c.Respond()
	}

	id := chatID(c)
	view, ok := h.loadView(id)
	if !ok || view.Tag != keyboard.TagSearchPage {
		return h.alert(c, h.T.T("search.expired"))
	}
	view.Index = index
	h.storeView(id, view)

	if err := h.redraw(c, id, view); err != nil {
		return err
	}
	return c.Respond()
}

// BeginSearch arms the search input mode; the next text is the query.
func (h *Handlers) BeginSearch(c telebot.Context, _ string) error {
	h.State.SetInput(chatID(c), state.StateSearching)
	if err := c.Respond(); err != nil {
		return err
	}
	return c.Send(h.T.T("search.prompt"))
}

// SearchInput consumes text as a search query against the full coin list.
func (h *Handlers) SearchInput(c telebot.Context) error {
	ctx := RequestContext(c)
	id := chatID(c)
	query := strings.TrimSpace(c.Text())

	h.State.ResetInput(id)

	results := market.Search(h.Coins.AllCoins(ctx), query, h.SearchLimit)
	if len(results) == 0 {
		return c.Send(h.T.Tf("search.no_results", query))
	}

	if h.State.GetState(id).Pending == nil {
		h.State.BeginSelection(id)
	}

	view := pickerView{Coins: results, Tag: keyboard.TagSearchPage}
	h.storeView(id, view)

	markup, err := h.pickerMarkup(id, view)
	if err != nil {
		return err
	}
	return c.Send(h.T.Tf("search.results", query), markup)
}

// Confirm commits the open selection and delivers prices right away.
func (h *Handlers) Confirm(c telebot.Context, _ string) error {
	ctx := RequestContext(c)
	id := chatID(c)

	ids, err := h.State.ConfirmSelection(id)
	switch {
	case errors.Is(err, state.ErrEmptySelection):
		return h.alert(c, h.T.T("coins.empty_selection"))
	case errors.Is(err, state.ErrNothingToConfirm):
		return h.alert(c, h.T.T("coins.no_dialog"))
	case err != nil:
		return err
	}

	h.Views.Delete(viewKey(id))
	h.respond(c, id)

	if err := c.Send(h.T.Tf("coins.confirmed", h.coinNames(ids)), keyboard.MainMenu(h.T)); err != nil {
		return err
	}
	return h.Delivery.DeliverNow(ctx, id, delivery.SourceConfirm)
}

func (h *Handlers) redraw(c telebot.Context, chatID int64, view pickerView) error {
	msg := c.Message()
	if msg == nil || h.Editor == nil {
		return nil
	}

	markup, err := h.pickerMarkup(chatID, view)
	if err != nil {
		return err
	}

	if _, err := h.Editor.EditReplyMarkup(msg, markup); err != nil && !errors.Is(err, telebot.ErrSameMessageContent) {
		h.Log.Warn("failed to redraw picker", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	return nil
}

func (h *Handlers) coinNames(ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if coin, ok := h.Coins.Lookup(id); ok && coin.Symbol != "" {
			names = append(names, strings.ToUpper(coin.Symbol))
			continue
		}
		names = append(names, strings.ToUpper(id))
	}
	return strings.Join(names, ", ")
}

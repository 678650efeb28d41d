// Package market fetches coin listings and prices from CoinGecko and caches them.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
	apperrors "github.com/Proton-105/coinpulse-bot/internal/errors"
	"github.com/Proton-105/coinpulse-bot/pkg/metrics"
)

const apiName = "coingecko"

// ClientConfig configures the CoinGecko HTTP client.
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Currency          string
	RequestsPerMinute int
	Timeout           time.Duration
	Retry             apperrors.RetryPolicy
	Breaker           apperrors.BreakerConfig
}

// Client talks to the CoinGecko public API. Calls are rate limited, retried on
// transient failures and guarded by a circuit breaker.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	currency string
	limiter  *rate.Limiter
	breaker  *apperrors.CircuitBreaker
	retry    apperrors.RetryPolicy
	log      *slog.Logger
}

func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
		burst = max(1, cfg.RequestsPerMinute/10)
	}

	if cfg.Retry == (apperrors.RetryPolicy{}) {
		cfg.Retry = apperrors.DefaultRetryPolicy
	}
	if cfg.Breaker == (apperrors.BreakerConfig{}) {
		cfg.Breaker = apperrors.DefaultBreakerConfig
	}

	breaker := apperrors.NewCircuitBreaker(cfg.Breaker)
	breaker.OnStateChange(func(from, to apperrors.BreakerState) {
		log.Warn("market circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		currency: currency,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  breaker,
		retry:    cfg.Retry,
		log:      log.With(slog.String("component", "market_client")),
	}
}

type marketCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// TopCoins returns up to limit coins ordered by market capitalisation.
func (c *Client) TopCoins(ctx context.Context, limit int) ([]domain.CoinRef, error) {
	q := url.Values{}
	q.Set("vs_currency", c.currency)
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("page", "1")

	var coins []marketCoin
	if err := c.get(ctx, "markets", "/coins/markets", q, &coins); err != nil {
		return nil, err
	}

	return toRefs(coins), nil
}

// AllCoins returns every coin CoinGecko lists.
func (c *Client) AllCoins(ctx context.Context) ([]domain.CoinRef, error) {
	var coins []marketCoin
	if err := c.get(ctx, "list", "/coins/list", nil, &coins); err != nil {
		return nil, err
	}

	return toRefs(coins), nil
}

// Prices returns quotes keyed by coin id. Coins the provider has no price for are absent.
func (c *Client) Prices(ctx context.Context, ids []string) (map[string]domain.Quote, error) {
	if len(ids) == 0 {
		return map[string]domain.Quote{}, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", c.currency)
	q.Set("include_24hr_change", "true")

	var raw map[string]map[string]*float64
	if err := c.get(ctx, "simple_price", "/simple/price", q, &raw); err != nil {
		return nil, err
	}

	changeKey := c.currency + "_24h_change"
	quotes := make(map[string]domain.Quote, len(raw))
	for id, fields := range raw {
		price := fields[c.currency]
		if price == nil {
			continue
		}

		quote := domain.Quote{CoinID: id, Price: *price}
		if change := fields[changeKey]; change != nil {
			quote.Change24h = *change
		}
		quotes[id] = quote
	}

	return quotes, nil
}

// History returns the price series of a coin over the last days days.
func (c *Client) History(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("vs_currency", c.currency)
	q.Set("days", strconv.Itoa(days))

	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	path := "/coins/" + url.PathEscape(coinID) + "/market_chart"
	if err := c.get(ctx, "market_chart", path, q, &raw); err != nil {
		return nil, err
	}

	points := make([]domain.PricePoint, 0, len(raw.Prices))
	for _, sample := range raw.Prices {
		if len(sample) < 2 {
			return nil, apperrors.NewPermanentAPIError(apiName, fmt.Errorf("malformed price sample of length %d", len(sample)))
		}
		points = append(points, domain.PricePoint{
			At:    time.UnixMilli(int64(sample[0])),
			Price: sample[1],
		})
	}

	return points, nil
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]any
	return c.do(ctx, "ping", "/ping", nil, &out)
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	return apperrors.WithRetry(ctx, c.retry, func(ctx context.Context) error {
		err := c.breaker.Call(func() error {
			return c.do(ctx, endpoint, path, q, out)
		})
		if errors.Is(err, apperrors.ErrCircuitOpen) {
			return apperrors.NewPermanentAPIError(apiName, err)
		}
		return err
	})
}

func (c *Client) do(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return apperrors.NewPermanentAPIError(apiName, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordMarketRequest(endpoint, "transport_error")
		return apperrors.NewExternalAPIError(apiName, err)
	}
	defer resp.Body.Close()

	metrics.RecordMarketRequest(endpoint, strconv.Itoa(resp.StatusCode))
	c.log.Debug("market request",
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return apperrors.NewExternalAPIError(apiName, statusErr)
		}
		return apperrors.NewPermanentAPIError(apiName, statusErr)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewPermanentAPIError(apiName, fmt.Errorf("decode %s: %w", endpoint, err))
	}

	return nil
}

func toRefs(coins []marketCoin) []domain.CoinRef {
	refs := make([]domain.CoinRef, 0, len(coins))
	for _, coin := range coins {
		if coin.ID == "" {
			continue
		}
		refs = append(refs, domain.CoinRef{ID: coin.ID, Symbol: coin.Symbol, Name: coin.Name})
	}
	return refs
}

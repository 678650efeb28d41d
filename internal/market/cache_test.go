package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/coinpulse-bot/internal/domain"
)

type mockListSource struct {
	mock.Mock
}

func (m *mockListSource) TopCoins(ctx context.Context, limit int) ([]domain.CoinRef, error) {
	args := m.Called(ctx, limit)
	coins, _ := args.Get(0).([]domain.CoinRef)
	return coins, args.Error(1)
}

func (m *mockListSource) AllCoins(ctx context.Context) ([]domain.CoinRef, error) {
	args := m.Called(ctx)
	coins, _ := args.Get(0).([]domain.CoinRef)
	return coins, args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(src ListSource) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(src, CacheConfig{TopLimit: 10}, nil)
	cache.top.now = clock.Now
	cache.all.now = clock.Now
	return cache, clock
}

var (
	btc = domain.CoinRef{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}
	eth = domain.CoinRef{ID: "ethereum", Symbol: "eth", Name: "Ethereum"}
)

func TestCache_TopCoinsWithinTTLFetchesOnce(t *testing.T) {
	src := &mockListSource{}
	src.On("TopCoins", mock.Anything, 10).Return([]domain.CoinRef{btc, eth}, nil).Once()

	cache, clock := newTestCache(src)
	ctx := context.Background()

	first := cache.TopCoins(ctx)
	clock.Advance(29 * time.Minute)
	second := cache.TopCoins(ctx)

	assert.Equal(t, first, second)
	src.AssertNumberOfCalls(t, "TopCoins", 1)
}

func TestCache_EmptyResultIsRefetched(t *testing.T) {
	src := &mockListSource{}
	src.On("AllCoins", mock.Anything).Return([]domain.CoinRef{}, nil).Once()
	src.On("AllCoins", mock.Anything).Return([]domain.CoinRef{btc, eth}, nil).Once()

	cache, clock := newTestCache(src)
	ctx := context.Background()

	assert.Empty(t, cache.AllCoins(ctx))
	clock.Advance(time.Minute)
	assert.Equal(t, []domain.CoinRef{btc, eth}, cache.AllCoins(ctx))

	src.AssertNumberOfCalls(t, "AllCoins", 2)
}

func TestCache_TopCoinsRefreshesAfterTTL(t *testing.T) {
	src := &mockListSource{}
	src.On("TopCoins", mock.Anything, 10).Return([]domain.CoinRef{btc}, nil).Once()
	src.On("TopCoins", mock.Anything, 10).Return([]domain.CoinRef{btc, eth}, nil).Once()

	cache, clock := newTestCache(src)
	ctx := context.Background()

	require.Len(t, cache.TopCoins(ctx), 1)
	clock.Advance(31 * time.Minute)
	assert.Len(t, cache.TopCoins(ctx), 2)
	src.AssertNumberOfCalls(t, "TopCoins", 2)
}

func TestCache_ServesStaleOnError(t *testing.T) {
	src := &mockListSource{}
	src.On("AllCoins", mock.Anything).Return([]domain.CoinRef{btc, eth}, nil).Once()
	src.On("AllCoins", mock.Anything).Return(nil, errors.New("upstream down"))

	cache, clock := newTestCache(src)
	ctx := context.Background()

	fresh := cache.AllCoins(ctx)
	clock.Advance(7 * time.Hour)
	stale := cache.AllCoins(ctx)

	assert.Equal(t, fresh, stale)
	src.AssertNumberOfCalls(t, "AllCoins", 2)

	// a failed refresh leaves the old fetch time, so the next read retries
	_ = cache.AllCoins(ctx)
	src.AssertNumberOfCalls(t, "AllCoins", 3)
}

func TestCache_EmptyWhenNeverLoaded(t *testing.T) {
	src := &mockListSource{}
	src.On("TopCoins", mock.Anything, 10).Return(nil, errors.New("upstream down"))

	cache, _ := newTestCache(src)

	coins := cache.TopCoins(context.Background())
	assert.NotNil(t, coins)
	assert.Empty(t, coins)
}

func TestCache_ListsAreIndependent(t *testing.T) {
	src := &mockListSource{}
	src.On("TopCoins", mock.Anything, 10).Return([]domain.CoinRef{btc}, nil).Once()
	src.On("AllCoins", mock.Anything).Return([]domain.CoinRef{btc, eth}, nil).Once()

	cache, clock := newTestCache(src)
	ctx := context.Background()

	cache.TopCoins(ctx)
	cache.AllCoins(ctx)
	clock.Advance(time.Hour)
	src.On("TopCoins", mock.Anything, 10).Return([]domain.CoinRef{eth}, nil).Once()
	cache.TopCoins(ctx)
	cache.AllCoins(ctx)

	src.AssertNumberOfCalls(t, "TopCoins", 2)
	src.AssertNumberOfCalls(t, "AllCoins", 1)
}

func TestCache_Lookup(t *testing.T) {
	src := &mockListSource{}
	src.On("AllCoins", mock.Anything).Return([]domain.CoinRef{btc, eth}, nil).Once()

	cache, _ := newTestCache(src)

	_, ok := cache.Lookup("ethereum")
	assert.False(t, ok)

	cache.AllCoins(context.Background())
	coin, ok := cache.Lookup("ethereum")
	require.True(t, ok)
	assert.Equal(t, "Ethereum", coin.Name)
}

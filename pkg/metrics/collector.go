package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/coinpulse-bot/internal/state"
)

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of bot updates handled labeled by action and status",
		},
		[]string{"action", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	scheduleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_transitions_total",
			Help: "Total number of schedule dialog phase transitions",
		},
		[]string{"from", "to"},
	)
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_deliveries_total",
			Help: "Price deliveries split by trigger source and outcome",
		},
		[]string{"source", "outcome"},
	)
	marketCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_lookups_total",
			Help: "Market data cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)
	marketRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_requests_total",
			Help: "Requests sent to the market data provider by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
	armedTriggers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "armed_triggers",
			Help: "Number of armed delivery triggers by kind",
		},
		[]string{"kind"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	activeChats = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_chats",
			Help: "Number of chats with in-memory state",
		},
	)
	chatsByInput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chats_by_input_mode",
			Help: "Number of chats per pending input mode",
		},
		[]string{"mode"},
	)
)

var trackedInputs = []state.State{
	state.StateIdle,
	state.StateSettingInterval,
	state.StateSettingScheduleTime,
	state.StateSearching,
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(action, status string, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botUpdatesTotal.WithLabelValues(action, status).Inc()
	updateDurationSeconds.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordScheduleTransition tracks schedule dialog transitions.
func RecordScheduleTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	scheduleTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordDelivery counts a price delivery attempt.
func RecordDelivery(source, outcome string) {
	deliveriesTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCacheLookup counts a market cache lookup; result is hit, refresh or stale.
func RecordCacheLookup(cache, result string) {
	marketCacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// RecordMarketRequest counts a provider request.
func RecordMarketRequest(endpoint, status string) {
	marketRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// SetArmedTriggers updates the armed trigger gauge for kind.
func SetArmedTriggers(kind string, count int) {
	armedTriggers.WithLabelValues(kind).Set(float64(count))
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// StateSource is the subset of the state store the collector reads.
type StateSource interface {
	GetAllStates() []state.ChatState
}

// StateCollector periodically gathers chat state counts and emits gauge metrics.
type StateCollector struct {
	source   StateSource
	interval time.Duration
}

// NewStateCollector builds a metrics collector bound to the provided store.
func NewStateCollector(source StateSource, interval time.Duration) *StateCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &StateCollector{source: source, interval: interval}
}

// Run polls the store every interval until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *StateCollector) collect() {
	states := c.source.GetAllStates()
	activeChats.Set(float64(len(states)))

	counts := make(map[state.State]int, len(trackedInputs))
	for _, st := range states {
		counts[st.Input]++
	}

	chatsByInput.Reset()
	for _, mode := range trackedInputs {
		chatsByInput.WithLabelValues(string(mode)).Set(float64(counts[mode]))
	}
}

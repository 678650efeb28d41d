package lifecycle

import "context"

// Stage orders shutdown hooks. Hooks of one stage run concurrently and the
// next stage starts only after the previous one finished.
type Stage int

const (
	// StageIngress stops accepting new work: the Telegram poller and the triggers.
	StageIngress Stage = iota
	// StageDrain waits for queued deliveries and in-flight HTTP requests.
	StageDrain
	// StageFlush releases clients and flushes telemetry.
	StageFlush
)

// Hook describes a named shutdown hook.
type Hook struct {
	Name  string
	Stage Stage
	Fn    func(ctx context.Context) error
}

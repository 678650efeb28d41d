package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/coinpulse-bot/pkg/metrics"
)

const (
	defaultConcurrency = 10
	defaultQueueSize   = 256
	defaultTaskTimeout = 30 * time.Second
)

// Worker executes delivery tasks on a fixed number of goroutines so trigger
// callbacks never block on the network.
type Worker struct {
	deliver     DeliverFunc
	tasks       chan Task
	concurrency int
	timeout     time.Duration
	log         *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker constructs a Worker. Non-positive sizes fall back to defaults.
func NewWorker(deliver DeliverFunc, concurrency, queueSize int, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Worker{
		deliver:     deliver,
		tasks:       make(chan Task, queueSize),
		concurrency: concurrency,
		timeout:     defaultTaskTimeout,
		log:         log.With(slog.String("component", "jobs_worker")),
	}
}

// Run starts the processing goroutines and returns immediately.
func (w *Worker) Run(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.log.InfoContext(ctx, "jobs worker: starting", slog.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
}

// Submit queues a task without blocking. It reports false when the queue is full.
func (w *Worker) Submit(task Task) bool {
	select {
	case w.tasks <- task:
		return true
	default:
		metrics.RecordDelivery(string(task.Source), "dropped")
		w.log.Warn("jobs worker: queue full, dropping task",
			slog.Int64("chat_id", task.ChatID),
			slog.String("source", string(task.Source)),
		)
		return false
	}
}

// Shutdown stops the goroutines and waits for in-flight deliveries.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Info("jobs worker: stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.tasks:
			w.process(ctx, task)
		}
	}
}

func (w *Worker) process(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("jobs worker: delivery panicked",
				slog.Int64("chat_id", task.ChatID),
				slog.Any("panic", r),
			)
		}
	}()

	taskCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.deliver(taskCtx, task.ChatID, task.Source); err != nil {
		w.log.ErrorContext(taskCtx, "jobs worker: delivery failed",
			slog.Int64("chat_id", task.ChatID),
			slog.String("source", string(task.Source)),
			slog.String("error", err.Error()),
		)
	}
}

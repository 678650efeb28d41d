// Package jobs arms per-chat interval and calendar triggers and runs the
// resulting deliveries on a bounded worker pool.
package jobs

import (
	"context"
	"errors"
)

// Source names what caused a delivery.
type Source string

const (
	SourceInterval Source = "interval"
	SourceSchedule Source = "schedule"
)

var (
	ErrInvalidPeriod = errors.New("interval must be at least one second")
	ErrStopped       = errors.New("scheduler is stopped")
)

// Task is one delivery request for a chat.
type Task struct {
	ChatID int64
	Source Source
}

// DeliverFunc sends the current price summary to a chat.
type DeliverFunc func(ctx context.Context, chatID int64, source Source) error

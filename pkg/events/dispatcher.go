package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-booking-api/pkg/jobs"
)

// Dispatcher hands events to a worker queue so publishing never blocks a request.
type Dispatcher struct {
	queue  *jobs.Queue[Event]
	logger *zap.Logger
}

// DispatcherConfig tunes the underlying worker queue.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

// NewDispatcher builds a dispatcher that delivers through publisher.
func NewDispatcher(publisher Publisher, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	handler := func(ctx context.Context, task jobs.Task[Event]) error {
		return publisher.Publish(ctx, task.Payload)
	}
	queue := jobs.New("events", handler, jobs.Config{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &Dispatcher{queue: queue, logger: logger}
}

// Start launches the workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes buffered events and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues an event. Events are best-effort: a full or stopped queue drops the event with a warning.
func (d *Dispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}
	err := d.queue.Offer(jobs.Task[Event]{Key: event.Type + "/" + event.ID, Payload: event})
	if err == nil {
		return
	}
	level := d.logger.Warn
	if errors.Is(err, jobs.ErrQueueFull) {
		level = d.logger.Error
	}
	level("event dropped", zap.String("type", event.Type), zap.String("event_id", event.ID), zap.Error(err))
}

// Stats exposes the queue counters for diagnostics.
func (d *Dispatcher) Stats() jobs.Stats {
	if d == nil {
		return jobs.Stats{}
	}
	return d.queue.Stats()
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Offer when every buffer slot is taken.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueClosed is returned once the queue has not started or has been stopped.
	ErrQueueClosed = errors.New("queue closed")
)

// Task wraps a typed payload with delivery bookkeeping.
type Task[T any] struct {
	Key      string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes one task. A non-nil error schedules a retry until attempts run out.
type Handler[T any] func(context.Context, Task[T]) error

// Config tunes the worker pool.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff step; each further attempt doubles it up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	// DrainTimeout bounds how long Stop keeps delivering buffered tasks.
	DrainTimeout time.Duration
	Logger       *zap.Logger
}

// Stats is a point-in-time view of the queue counters.
type Stats struct {
	Pending   int
	Delivered uint64
	Retried   uint64
	Abandoned uint64
}

// Queue fans typed tasks out to a fixed set of goroutines.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     Config
	logger  *zap.Logger

	tasks  chan Task[T]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	retry  sync.WaitGroup

	mu     sync.RWMutex
	state  int
	closed chan struct{}

	delivered atomic.Uint64
	retried   atomic.Uint64
	abandoned atomic.Uint64
}

const (
	stateIdle = iota
	stateRunning
	stateStopped
)

// New builds an idle queue. Call Start before offering tasks.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		tasks:   make(chan Task[T], cfg.BufferSize),
		closed:  make(chan struct{}),
	}
}

// Start launches the workers. Calls after the first are ignored.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(i + 1)
	}
	q.state = stateRunning
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new tasks, delivers what is already buffered within DrainTimeout
// and then waits for the workers to exit.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return
	}
	q.state = stateStopped
	close(q.closed)
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(q.cfg.DrainTimeout):
		q.logger.Warn("drain timed out", zap.Int("pending", len(q.tasks)))
		q.cancel()
		<-drained
	}
	q.cancel()
	q.retry.Wait()

	stats := q.Stats()
	q.logger.Info("queue stopped",
		zap.Uint64("delivered", stats.Delivered),
		zap.Uint64("abandoned", stats.Abandoned),
		zap.Int("pending", stats.Pending),
	)
}

// Offer buffers a task without blocking.
func (q *Queue[T]) Offer(task Task[T]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.state != stateRunning {
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Stats reports the queue counters.
func (q *Queue[T]) Stats() Stats {
	return Stats{
		Pending:   len(q.tasks),
		Delivered: q.delivered.Load(),
		Retried:   q.retried.Load(),
		Abandoned: q.abandoned.Load(),
	}
}

// Name returns the queue identifier used in logs.
func (q *Queue[T]) Name() string {
	return q.name
}

func (q *Queue[T]) work(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			q.handle(workerID, task)
		case <-q.closed:
			// Flush whatever is still buffered, then exit.
			for {
				select {
				case task := <-q.tasks:
					q.handle(workerID, task)
				case <-q.ctx.Done():
					return
				default:
					return
				}
			}
		}
	}
}

func (q *Queue[T]) handle(workerID int, task Task[T]) {
	err := q.handler(q.ctx, task)
	if err == nil {
		q.delivered.Add(1)
		return
	}

	task.Attempt++
	if task.Attempt > q.cfg.MaxRetries {
		q.abandoned.Add(1)
		q.logger.Error("task abandoned",
			zap.Int("worker", workerID),
			zap.String("key", task.Key),
			zap.Int("attempts", task.Attempt),
			zap.Error(err),
		)
		return
	}

	q.retried.Add(1)
	delay := q.backoff(task.Attempt)
	q.logger.Warn("task failed, retrying",
		zap.String("key", task.Key),
		zap.Int("attempt", task.Attempt),
		zap.Duration("delay", delay),
		zap.Error(err),
	)

	q.retry.Add(1)
	go func() {
		defer q.retry.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.abandoned.Add(1)
			return
		case <-q.closed:
			q.abandoned.Add(1)
			return
		case <-timer.C:
		}
		select {
		case q.tasks <- task:
		default:
			q.abandoned.Add(1)
			q.logger.Error("retry dropped, buffer full", zap.String("key", task.Key))
		}
	}()
}

func (q *Queue[T]) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.cfg.MaxRetryDelay {
			return q.cfg.MaxRetryDelay
		}
	}
	return delay
}

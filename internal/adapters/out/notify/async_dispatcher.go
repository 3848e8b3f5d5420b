// Package notify delivers order notifications. AsyncDispatcher decouples
// command handlers from the transports behind it: RabbitMQ for live sessions
// and push, and a MongoDB inbox that keeps a copy for every user.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/core/ports"
)

const (
	DefaultQueueSize       = 256
	DefaultDeliveryTimeout = 5 * time.Second
)

var ErrDispatcherClosed = errors.New("notify: dispatcher is closed")

type envelope struct {
	ctx context.Context
	n   ports.Notification
}

// AsyncDispatcher queues notifications for background workers. When the
// queue is full the notification is dropped with a warning; Notify never blocks.
type AsyncDispatcher struct {
	next    ports.Notifier
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan envelope

	wg      sync.WaitGroup
	dropped atomic.Int64
}

func NewAsyncDispatcher(next ports.Notifier, queueSize, workers int, timeout time.Duration, logger *slog.Logger) *AsyncDispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}

	d := &AsyncDispatcher{
		next:    next,
		timeout: timeout,
		logger:  logger.With("component", "notify_dispatcher"),
		queue:   make(chan envelope, queueSize),
	}

	d.wg.Add(workers)
	for range workers {
		go d.work()
	}
	return d
}

// Notify enqueues n. The caller's context values travel with it but its
// cancellation does not.
func (d *AsyncDispatcher) Notify(ctx context.Context, n ports.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- envelope{ctx: context.WithoutCancel(ctx), n: n}:
		return nil
	default:
		d.dropped.Add(1)
		d.logger.WarnContext(ctx, "notification queue full, dropping",
			"kind", string(n.Kind),
			"order_id", n.OrderID.String(),
			"user_id", n.RecipientUserID.String())
		return nil
	}
}

// Dropped counts notifications discarded because the queue was full.
func (d *AsyncDispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close stops accepting notifications and waits for queued ones to go out
// or ctx to end.
func (d *AsyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()

	for env := range d.queue {
		ctx, cancel := context.WithTimeout(env.ctx, d.timeout)
		if err := d.next.Notify(ctx, env.n); err != nil {
			d.logger.WarnContext(ctx, "notification delivery failed",
				"kind", string(env.n.Kind),
				"order_id", env.n.OrderID.String(),
				"user_id", env.n.RecipientUserID.String(),
				"error", err)
		}
		cancel()
	}
}

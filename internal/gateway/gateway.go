// Package gateway executes the side effects decided by the updater: scheduler requests and notifications.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"github.com/clambin/tank-monitor/internal/collector"
	"github.com/clambin/tank-monitor/internal/notifier"
	"github.com/clambin/tank-monitor/internal/scheduler"
	"github.com/clambin/tank-monitor/internal/tank"
	"log/slog"
	"time"
)

const (
	defaultQueueSize = 64
	defaultTimeout   = 30 * time.Second
)

// Gateway executes program actions against the scheduler and delivers notifications.
//
// Program actions are executed synchronously by Apply. Notifications are queued by Enqueue and delivered, in order,
// by Run: a slow or failing channel never blocks the caller.
type Gateway struct {
	scheduler scheduler.Scheduler
	notifiers notifier.Notifiers
	metrics   *collector.Metrics
	logger    *slog.Logger
	queue     chan notifier.Message
	timeout   time.Duration
}

type Option func(*Gateway)

// WithQueueSize sets the number of notifications that can wait for delivery. Further notifications are dropped.
func WithQueueSize(size int) Option {
	return func(g *Gateway) {
		if size > 0 {
			g.queue = make(chan notifier.Message, size)
		}
	}
}

// WithTimeout sets the maximum time to deliver a notification on one channel.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

func New(s scheduler.Scheduler, n notifier.Notifiers, m *collector.Metrics, logger *slog.Logger, opts ...Option) *Gateway {
	g := Gateway{
		scheduler: s,
		notifiers: n,
		metrics:   m,
		logger:    logger,
		queue:     make(chan notifier.Message, defaultQueueSize),
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(&g)
	}
	return &g
}

// Apply executes the program actions in order. A failing action does not prevent the next ones from executing.
// If any enabled flag was changed, the scheduler is asked to commit its programs.
func (g *Gateway) Apply(ctx context.Context, actions []tank.ProgramAction) error {
	var errs []error
	var changed bool
	for _, a := range actions {
		var err error
		switch a.Operation {
		case tank.RunOnce:
			err = g.scheduler.RunOnce(ctx, a.Program)
		case tank.Disable:
			err = g.scheduler.SetEnabled(ctx, a.Program, false)
		case tank.Enable:
			err = g.scheduler.SetEnabled(ctx, a.Program, true)
		default:
			err = fmt.Errorf("invalid operation %d", a.Operation)
		}
		if err == nil && a.Operation != tank.RunOnce {
			changed = true
		}
		g.metrics.Action(a.Operation.String(), result(err))
		if err != nil {
			g.logger.Warn("program action failed", "action", a, "err", err)
			errs = append(errs, fmt.Errorf("%s %s: %w", a.Operation, a.Program, err))
			continue
		}
		g.logger.Info("program action executed", "action", a)
	}
	if changed {
		err := g.scheduler.Commit(ctx)
		g.metrics.Action("commit", result(err))
		if err != nil {
			g.logger.Warn("scheduler commit failed", "err", err)
			errs = append(errs, fmt.Errorf("commit: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enqueue queues the messages for delivery. If the queue is full, the message is dropped.
func (g *Gateway) Enqueue(msgs ...notifier.Message) {
	for _, msg := range msgs {
		select {
		case g.queue <- msg:
		default:
			g.logger.Error("notification queue full. dropping notification", "msg", msg)
			g.metrics.Notification(string(msg.Event), "queue", "dropped")
		}
	}
}

// Run delivers queued notifications until the context is canceled.
func (g *Gateway) Run(ctx context.Context) error {
	g.logger.Debug("started")
	defer g.logger.Debug("stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-g.queue:
			g.deliver(ctx, msg)
		}
	}
}

func (g *Gateway) deliver(ctx context.Context, msg notifier.Message) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	for channel, err := range g.notifiers.Notify(ctx, msg) {
		switch {
		case errors.Is(err, notifier.ErrNoRecipients):
			g.metrics.Notification(string(msg.Event), channel, "skipped")
		case err != nil:
			g.logger.Warn("notification failed", "channel", channel, "msg", msg, "err", err)
			g.metrics.Notification(string(msg.Event), channel, "failed")
		default:
			g.metrics.Notification(string(msg.Event), channel, "ok")
		}
	}
}

func result(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

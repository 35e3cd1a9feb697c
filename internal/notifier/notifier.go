// Package notifier renders tank notifications and delivers them over the configured channels.
package notifier

import (
	"context"
	"errors"
	"github.com/clambin/tank-monitor/internal/tank"
	"log/slog"
	"maps"
	"slices"
)

// ErrNoRecipients is returned by a channel that has no recipients for a message.
var ErrNoRecipients = errors.New("no recipients")

// Message is a rendered notification.
type Message struct {
	Event      tank.Event
	TankID     string
	Title      string
	Text       string
	Recipients tank.Recipients
}

func (m Message) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("event", string(m.Event))}
	if m.TankID != "" {
		attrs = append(attrs, slog.String("tank", m.TankID))
	}
	attrs = append(attrs, slog.String("title", m.Title))
	return slog.GroupValue(attrs...)
}

//go:generate mockery --name Notifier --with-expecter

// A Notifier delivers a message over one channel.
type Notifier interface {
	Notify(context.Context, Message) error
}

// Notifiers maps channel names to their Notifier.
type Notifiers map[string]Notifier

// Notify sends the message on every channel, in channel name order, and returns the outcome per channel.
func (n Notifiers) Notify(ctx context.Context, msg Message) map[string]error {
	results := make(map[string]error, len(n))
	for _, name := range slices.Sorted(maps.Keys(n)) {
		results[name] = n[name].Notify(ctx, msg)
	}
	return results
}

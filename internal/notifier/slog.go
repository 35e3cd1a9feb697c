package notifier

import (
	"context"
	"log/slog"
)

type SLogNotifier struct {
	Logger *slog.Logger
}

var _ Notifier = SLogNotifier{}

func (s SLogNotifier) Notify(_ context.Context, msg Message) error {
	s.Logger.Info(msg.Title, "event", msg.Event, "tank", msg.TankID, "text", msg.Text)
	return nil
}

package collector

import (
	"context"
	"github.com/clambin/tank-monitor/internal/snapshot"
	"log/slog"
)

type Publisher interface {
	Subscribe() <-chan snapshot.Snapshot
	Unsubscribe(<-chan snapshot.Snapshot)
}

// Collector sets the tank gauges from every published snapshot.
type Collector struct {
	Publisher Publisher
	Metrics   *Metrics
	Logger    *slog.Logger
}

func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	ch := c.Publisher.Subscribe()
	defer c.Publisher.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-ch:
			c.process(s)
		}
	}
}

func (c *Collector) process(s snapshot.Snapshot) {
	c.Metrics.level.Reset()
	c.Metrics.state.Reset()
	c.Metrics.invalid.Reset()

	for _, e := range s {
		if e.Percentage != nil {
			c.Metrics.level.WithLabelValues(e.ID, e.Label).Set(float64(*e.Percentage))
		}
		c.Metrics.state.WithLabelValues(e.ID, e.State.String()).Set(1)
		var invalid float64
		if e.Invalid {
			invalid = 1
		}
		c.Metrics.invalid.WithLabelValues(e.ID).Set(invalid)
	}
}

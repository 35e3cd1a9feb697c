package broker

import (
	"context"
	"encoding/json"
	"github.com/clambin/tank-monitor/internal/snapshot"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, retained bool, payload []byte) error
}

// SnapshotPublisher publishes snapshots as a retained message, so new clients receive the last one on subscribing.
type SnapshotPublisher struct {
	Publisher Publisher
	Topic     string
}

func (p SnapshotPublisher) PublishSnapshot(ctx context.Context, s snapshot.Snapshot) error {
	if p.Topic == "" {
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.Publisher.Publish(ctx, p.Topic, true, payload)
}

package broker

import (
	"context"
	"errors"
	"github.com/clambin/go-common/set"
	"github.com/clambin/tank-monitor/internal/tank"
	"log/slog"
	"sync"
)

// Updater processes the messages received by the Router.
type Updater interface {
	Topics() []string
	Handle(ctx context.Context, topic string, readings []tank.Reading) error
	Unrecognized(ctx context.Context, topic string, payload []byte, reason error)
	PublishSnapshot(ctx context.Context) error
}

type Subscriber interface {
	Subscribe(topic string, handler Handler) error
	Unsubscribe(topics ...string) error
}

// Router subscribes to the sensor topics of all tanks, and to the data request topic, and passes the received
// messages to the Updater.
//
// Handlers only queue the messages. Run processes them one at a time, in the order they were received, so a
// handler never blocks the client while the Updater talks to the broker.
type Router struct {
	Subscriber   Subscriber
	Updater      Updater
	RequestTopic string
	Logger       *slog.Logger
	lock         sync.Mutex
	topics       set.Set[string]
	queueLock    sync.Mutex
	queue        []received
	ready        chan struct{}
	once         sync.Once
}

type received struct {
	topic   string
	payload []byte
	request bool
}

// Run subscribes to all topics and processes messages until the context is canceled.
func (r *Router) Run(ctx context.Context) error {
	r.Logger.Debug("started")
	defer r.Logger.Debug("stopped")

	if r.RequestTopic != "" {
		if err := r.Subscriber.Subscribe(r.RequestTopic, r.onRequest); err != nil {
			return err
		}
	}
	if err := r.Refresh(ctx); err != nil {
		return err
	}

	r.work(ctx)

	r.lock.Lock()
	topics := r.topics.ListOrdered()
	r.lock.Unlock()
	if r.RequestTopic != "" {
		topics = append(topics, r.RequestTopic)
	}
	if err := r.Subscriber.Unsubscribe(topics...); err != nil {
		r.Logger.Warn("failed to unsubscribe", "err", err)
	}
	return nil
}

// Refresh aligns the sensor subscriptions with the current set of tanks.
func (r *Router) Refresh(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	current := r.topics
	if current == nil {
		current = set.New[string]()
	}
	wanted := set.New[string]()
	for _, topic := range r.Updater.Topics() {
		if topic != "" && topic != r.RequestTopic {
			wanted.Add(topic)
		}
	}

	var errs []error
	var removed []string
	for _, topic := range current.ListOrdered() {
		if !wanted.Contains(topic) {
			removed = append(removed, topic)
		}
	}
	if err := r.Subscriber.Unsubscribe(removed...); err != nil {
		errs = append(errs, err)
	}
	subscribed := set.New[string]()
	for _, topic := range wanted.ListOrdered() {
		if current.Contains(topic) {
			subscribed.Add(topic)
			continue
		}
		if err := r.Subscriber.Subscribe(topic, r.onReading); err != nil {
			errs = append(errs, err)
			continue
		}
		subscribed.Add(topic)
	}
	r.topics = subscribed
	r.Logger.Info("sensor subscriptions refreshed", "topics", subscribed.ListOrdered())
	return errors.Join(errs...)
}

func (r *Router) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.signal():
			for _, msg := range r.pop() {
				r.process(ctx, msg)
			}
		}
	}
}

func (r *Router) onReading(topic string, payload []byte) {
	r.push(received{topic: topic, payload: payload})
}

func (r *Router) onRequest(topic string, _ []byte) {
	r.push(received{topic: topic, request: true})
}

func (r *Router) signal() chan struct{} {
	r.once.Do(func() { r.ready = make(chan struct{}, 1) })
	return r.ready
}

func (r *Router) push(msg received) {
	r.queueLock.Lock()
	r.queue = append(r.queue, msg)
	r.queueLock.Unlock()
	select {
	case r.signal() <- struct{}{}:
	default:
	}
}

func (r *Router) pop() []received {
	r.queueLock.Lock()
	defer r.queueLock.Unlock()
	msgs := r.queue
	r.queue = nil
	return msgs
}

func (r *Router) process(ctx context.Context, msg received) {
	if msg.request {
		r.Logger.Debug("data request received", "topic", msg.topic)
		if err := r.Updater.PublishSnapshot(ctx); err != nil {
			r.Logger.Error("failed to publish snapshot", "err", err)
		}
		return
	}
	readings, rejected, err := Decode(msg.payload)
	if err != nil {
		r.Logger.Warn("unrecognized message", "topic", msg.topic, "err", err)
		r.Updater.Unrecognized(ctx, msg.topic, msg.payload, err)
		return
	}
	for _, reason := range rejected {
		r.Updater.Unrecognized(ctx, msg.topic, msg.payload, reason)
	}
	if len(readings) == 0 {
		return
	}
	if err = r.Updater.Handle(ctx, msg.topic, readings); err != nil {
		r.Logger.Error("failed to process readings", "topic", msg.topic, "err", err)
	}
}

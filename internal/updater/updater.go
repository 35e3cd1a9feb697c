// Package updater processes sensor readings: it updates the matching tanks, persists them and dispatches the
// resulting program actions, notifications and snapshot.
package updater

import (
	"cmp"
	"context"
	"fmt"
	"github.com/clambin/go-common/set"
	"github.com/clambin/tank-monitor/internal/collector"
	"github.com/clambin/tank-monitor/internal/notifier"
	"github.com/clambin/tank-monitor/internal/scheduler"
	"github.com/clambin/tank-monitor/internal/snapshot"
	"github.com/clambin/tank-monitor/internal/store"
	"github.com/clambin/tank-monitor/internal/tank"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"
)

//go:generate mockery --name Store --with-expecter
type Store interface {
	Load() (store.Document, error)
	Save(store.Document) error
}

// Gateway executes the side effects of an update.
type Gateway interface {
	Apply(ctx context.Context, actions []tank.ProgramAction) error
	Enqueue(msgs ...notifier.Message)
}

type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, s snapshot.Snapshot) error
}

// Updater owns the tank collection. Updates are processed one at a time: an update decides the new state of all
// matching tanks, persists it, executes program actions, publishes the snapshot and queues the notifications
// before the next update starts. Readers of the tank collection only wait for the document to be swapped.
type Updater struct {
	store      Store
	scheduler  scheduler.Scheduler
	gateway    Gateway
	publisher  SnapshotPublisher
	logger     *slog.Logger
	metrics    *collector.Metrics
	observers  []func(snapshot.Snapshot)
	repeatLoss bool
	now        func() time.Time

	// updating serializes updates and reloads. doc and templates are written holding both locks.
	updating  sync.Mutex
	lock      sync.Mutex
	doc       store.Document
	templates notifier.Templates
}

type Option func(*Updater)

// WithRepeatLoss reports water loss on every decreasing reading, instead of once per draining run.
func WithRepeatLoss(repeat bool) Option {
	return func(u *Updater) {
		u.repeatLoss = repeat
	}
}

// WithMetrics counts the processed readings.
func WithMetrics(m *collector.Metrics) Option {
	return func(u *Updater) {
		u.metrics = m
	}
}

// WithObserver calls f with every published snapshot.
func WithObserver(f func(snapshot.Snapshot)) Option {
	return func(u *Updater) {
		u.observers = append(u.observers, f)
	}
}

// WithClock sets the function that timestamps readings.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		u.now = now
	}
}

func New(st Store, s scheduler.Scheduler, g Gateway, p SnapshotPublisher, logger *slog.Logger, opts ...Option) *Updater {
	u := Updater{
		store:     st,
		scheduler: s,
		gateway:   g,
		publisher: p,
		logger:    logger,
		now:       time.Now,
		doc:       store.Document{Tanks: make(map[string]tank.Tank)},
		templates: notifier.Defaults,
	}
	for _, opt := range opts {
		opt(&u)
	}
	return &u
}

// Load reads the document from the store. If it cannot be read, or any tank is invalid, the current document is kept.
func (u *Updater) Load() error {
	u.updating.Lock()
	defer u.updating.Unlock()

	doc, err := u.store.Load()
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err = doc.Validate(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	templates, err := notifier.NewTemplates(doc.Settings.Templates)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	u.lock.Lock()
	u.doc = doc
	u.templates = templates
	u.lock.Unlock()
	u.logger.Info("tanks loaded", "tanks", len(doc.Tanks))
	return nil
}

// Topics returns the sensor topics of all enabled tanks.
func (u *Updater) Topics() []string {
	u.lock.Lock()
	defer u.lock.Unlock()
	topics := set.New[string]()
	for _, t := range u.doc.Tanks {
		if !t.Disabled && t.SensorTopic != "" {
			topics.Add(t.SensorTopic)
		}
	}
	return topics.ListOrdered()
}

// Tanks returns a copy of the tanks, in display order.
func (u *Updater) Tanks() []tank.Tank {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.doc.Clone().Sorted()
}

// Handle processes the readings received in one message on topic. All tanks updated by the message are persisted
// together: if the store fails, none of them change, no side effects are executed and the error is returned.
func (u *Updater) Handle(ctx context.Context, topic string, readings []tank.Reading) error {
	u.updating.Lock()
	defer u.updating.Unlock()

	r, err := u.update(ctx, topic, readings)
	if err != nil {
		u.metrics.Update("failed")
		return err
	}
	if len(r.actions) > 0 {
		if err = u.gateway.Apply(ctx, r.actions); err != nil {
			u.logger.Warn("not all program actions succeeded", "err", err)
		}
	}
	if r.updated {
		if err = u.publish(ctx, r.snapshot); err != nil {
			u.logger.Warn("failed to publish snapshot", "err", err)
		}
	}
	u.gateway.Enqueue(r.messages...)
	return nil
}

type update struct {
	updated  bool
	actions  []tank.ProgramAction
	snapshot snapshot.Snapshot
	messages []notifier.Message
}

// update decides and persists the new state of the tanks. The caller must hold u.updating.
func (u *Updater) update(ctx context.Context, topic string, readings []tank.Reading) (update, error) {
	now := u.now()
	doc := u.doc.Clone()
	var r update
	var decisions []tank.Decision
	var programs map[string]bool
	var active bool

	for _, reading := range readings {
		ids := matching(doc, reading.SensorID)
		if len(ids) == 0 {
			u.logger.Warn("no tank uses this sensor", "reading", reading, "topic", topic)
			u.metrics.Update("unassociated")
			r.messages = u.appendMessage(r.messages, tank.UnassociatedEvent, notifier.TemplateData{
				SensorID:    reading.SensorID,
				Measurement: formatFloat(reading.Measurement),
				Timestamp:   now.Format(snapshot.TimestampFormat),
				Topic:       topic,
			}, doc.Settings.Unassociated)
			continue
		}
		if programs == nil {
			programs, active = u.programState(ctx)
		}
		for _, id := range ids {
			d := tank.Apply(doc.Tanks[id], tank.Input{
				Measurement:    reading.Measurement,
				Time:           now,
				Programs:       programs,
				ConsumerActive: active,
				RepeatLoss:     u.repeatLoss,
			})
			doc.Tanks[id] = d.Tank
			// later tanks in the same update see the flags as changed by this one
			for _, a := range d.Actions {
				switch a.Operation {
				case tank.Disable:
					programs[a.Program] = false
				case tank.Enable:
					programs[a.Program] = true
				}
			}
			decisions = append(decisions, d)
			r.actions = append(r.actions, d.Actions...)
			r.messages = u.appendDecision(r.messages, d, topic, now, doc.Settings)
		}
	}
	if len(decisions) == 0 {
		return r, nil
	}

	if err := u.store.Save(doc); err != nil {
		return update{}, fmt.Errorf("save: %w", err)
	}
	u.lock.Lock()
	u.doc = doc
	u.lock.Unlock()
	for _, d := range decisions {
		u.logger.Info("tank updated", "decision", d)
		if d.Outcome.Valid() {
			u.metrics.Update("ok")
		} else {
			u.metrics.Update("invalid")
		}
	}
	r.updated = true
	r.snapshot = snapshot.New(doc.Sorted())
	return r, nil
}

// matching returns the IDs of the enabled tanks using the sensor, in display order.
func matching(doc store.Document, sensorID string) []string {
	var tanks []tank.Tank
	for _, t := range doc.Tanks {
		if !t.Disabled && sensorID != "" && t.SensorID == sensorID {
			tanks = append(tanks, t)
		}
	}
	slices.SortFunc(tanks, func(a, b tank.Tank) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	ids := make([]string, len(tanks))
	for i, t := range tanks {
		ids[i] = t.ID
	}
	return ids
}

// programState returns the enabled flag of the scheduler's programs and whether any program is running.
// If the scheduler cannot be reached, no programs are known and a consumer is assumed to be active,
// so no water loss is reported.
func (u *Updater) programState(ctx context.Context) (map[string]bool, bool) {
	programs := make(map[string]bool)
	if p, err := u.scheduler.Programs(ctx); err != nil {
		u.logger.Warn("failed to get programs", "err", err)
	} else {
		programs = scheduler.Enabled(p)
	}
	active, err := u.scheduler.Active(ctx)
	if err != nil {
		u.logger.Warn("failed to get scheduler status", "err", err)
		active = true
	}
	return programs, active
}

func (u *Updater) appendDecision(msgs []notifier.Message, d tank.Decision, topic string, now time.Time, settings store.Settings) []notifier.Message {
	data := notifier.TemplateData{
		TankID:      d.Tank.ID,
		Label:       d.Tank.Label,
		SensorID:    d.Tank.SensorID,
		Percentage:  formatInt(d.Tank.Percentage),
		Previous:    formatInt(d.Previous),
		Measurement: formatFloat(*d.Tank.Measurement),
		Timestamp:   now.Format(snapshot.TimestampFormat),
		Topic:       topic,
	}
	if d.Outcome.Valid() {
		data.Info = fmt.Sprintf("depth %.3f out of %.3f", d.Outcome.Depth, d.Tank.Dimensions.Full(d.Tank.Shape))
	} else {
		data.Info = d.Outcome.Err.Error()
	}
	for _, event := range d.Events {
		var recipients tank.Recipients
		switch event {
		case tank.OverflowEvent, tank.WarningEvent, tank.CriticalEvent:
			recipients = d.Tank.Threshold(d.Activated).Notify
		case tank.LossEvent:
			recipients = d.Tank.Loss
		case tank.InvalidEvent:
			recipients = settings.Invalid
		}
		msgs = u.appendMessage(msgs, event, data, recipients)
	}
	return msgs
}

func (u *Updater) appendMessage(msgs []notifier.Message, event tank.Event, data notifier.TemplateData, recipients tank.Recipients) []notifier.Message {
	msg, err := u.templates.Render(event, data)
	if err != nil {
		u.logger.Error("failed to render notification", "event", event, "err", err)
		return msgs
	}
	msg.Recipients = recipients
	return append(msgs, msg)
}

const maxPayload = 256

// Unrecognized reports a message that could not be decoded.
func (u *Updater) Unrecognized(_ context.Context, topic string, payload []byte, reason error) {
	u.lock.Lock()
	if len(payload) > maxPayload {
		payload = payload[:maxPayload]
	}
	msgs := u.appendMessage(nil, tank.UnrecognizedEvent, notifier.TemplateData{
		Timestamp: u.now().Format(snapshot.TimestampFormat),
		Topic:     topic,
		Info:      fmt.Sprintf("%v: %q", reason, payload),
	}, u.doc.Settings.Unrecognized)
	u.lock.Unlock()

	u.metrics.Update("unrecognized")
	u.gateway.Enqueue(msgs...)
}

// PublishSnapshot publishes the current state of all tanks.
func (u *Updater) PublishSnapshot(ctx context.Context) error {
	u.lock.Lock()
	s := snapshot.New(u.doc.Sorted())
	u.lock.Unlock()
	return u.publish(ctx, s)
}

func (u *Updater) publish(ctx context.Context, s snapshot.Snapshot) error {
	for _, f := range u.observers {
		f(s)
	}
	if u.publisher == nil {
		return nil
	}
	if err := u.publisher.PublishSnapshot(ctx, s); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

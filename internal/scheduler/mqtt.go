package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
)

// Transport publishes and receives messages on a broker.
type Transport interface {
	Publish(ctx context.Context, topic string, retained bool, payload []byte) error
	Subscribe(topic string, handler func(topic string, payload []byte)) error
}

// Command is a request sent to the scheduler.
type Command struct {
	Action  string `json:"action"`
	Program string `json:"program,omitempty"`
}

// Status is published by the scheduler whenever a program starts or stops drawing water.
type Status struct {
	Active bool `json:"active"`
}

var _ Scheduler = &MQTT{}

// MQTT controls a scheduler over a broker. The scheduler publishes its program table and status as retained
// messages and accepts commands on a separate topic.
type MQTT struct {
	Transport     Transport
	CommandTopic  string
	ProgramsTopic string
	StatusTopic   string
	Logger        *slog.Logger
	lock          sync.RWMutex
	programs      map[string]Program
	active        bool
}

// Start subscribes to the program table and status topics.
func (m *MQTT) Start() error {
	if err := m.Transport.Subscribe(m.ProgramsTopic, m.onPrograms); err != nil {
		return fmt.Errorf("subscribe %s: %w", m.ProgramsTopic, err)
	}
	if err := m.Transport.Subscribe(m.StatusTopic, m.onStatus); err != nil {
		return fmt.Errorf("subscribe %s: %w", m.StatusTopic, err)
	}
	return nil
}

func (m *MQTT) onPrograms(_ string, payload []byte) {
	var programs []Program
	if err := json.Unmarshal(payload, &programs); err != nil {
		m.Logger.Warn("invalid program table received", "err", err)
		return
	}
	table := make(map[string]Program, len(programs))
	for _, p := range programs {
		table[p.ID] = p
	}
	m.lock.Lock()
	m.programs = table
	m.lock.Unlock()
	m.Logger.Debug("program table received", "programs", len(table))
}

func (m *MQTT) onStatus(_ string, payload []byte) {
	var status Status
	if err := json.Unmarshal(payload, &status); err != nil {
		m.Logger.Warn("invalid status received", "err", err)
		return
	}
	m.lock.Lock()
	m.active = status.Active
	m.lock.Unlock()
}

func (m *MQTT) Programs(_ context.Context) (map[string]Program, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.programs == nil {
		return nil, ErrUnavailable
	}
	return maps.Clone(m.programs), nil
}

func (m *MQTT) Active(_ context.Context) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.active, nil
}

func (m *MQTT) RunOnce(ctx context.Context, id string) error {
	if err := m.known(id); err != nil {
		return err
	}
	return m.send(ctx, Command{Action: "run", Program: id})
}

// SetEnabled also updates the local program table, so the change is visible before the scheduler republishes it.
func (m *MQTT) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := m.known(id); err != nil {
		return err
	}
	action := "disable"
	if enabled {
		action = "enable"
	}
	if err := m.send(ctx, Command{Action: action, Program: id}); err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if p, ok := m.programs[id]; ok {
		p.Enabled = enabled
		m.programs[id] = p
	}
	return nil
}

func (m *MQTT) Commit(ctx context.Context) error {
	return m.send(ctx, Command{Action: "commit"})
}

func (m *MQTT) known(id string) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.programs == nil {
		return ErrUnavailable
	}
	if _, ok := m.programs[id]; !ok {
		return &ErrUnknownProgram{ID: id}
	}
	return nil
}

func (m *MQTT) send(ctx context.Context, cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	m.Logger.Debug("sending scheduler command", "action", cmd.Action, "program", cmd.Program)
	if err = m.Transport.Publish(ctx, m.CommandTopic, false, payload); err != nil {
		return fmt.Errorf("publish %s: %w", m.CommandTopic, err)
	}
	return nil
}

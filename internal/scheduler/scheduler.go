// Package scheduler controls the programs of the irrigation scheduler that draws from the tanks.
package scheduler

import (
	"context"
	"maps"
	"sync"
)

// Program is an irrigation program known to the scheduler.
type Program struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

//go:generate mockery --name Scheduler --with-expecter

// A Scheduler runs, enables and disables programs. Changes to the enabled flags only persist on the
// scheduler's side after Commit.
type Scheduler interface {
	Programs(ctx context.Context) (map[string]Program, error)
	Active(ctx context.Context) (bool, error)
	RunOnce(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Commit(ctx context.Context) error
}

// Enabled returns the enabled flag of every program.
func Enabled(programs map[string]Program) map[string]bool {
	enabled := make(map[string]bool, len(programs))
	for id, p := range programs {
		enabled[id] = p.Enabled
	}
	return enabled
}

var _ Scheduler = &Memory{}

// Memory is a Scheduler that only keeps programs in memory. It records the requests it receives.
type Memory struct {
	programs map[string]Program
	active   bool
	runs     []string
	commits  int
	lock     sync.Mutex
}

func NewMemory(programs ...Program) *Memory {
	m := Memory{programs: make(map[string]Program, len(programs))}
	for _, p := range programs {
		m.programs[p.ID] = p
	}
	return &m
}

func (m *Memory) Programs(_ context.Context) (map[string]Program, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return maps.Clone(m.programs), nil
}

func (m *Memory) Active(_ context.Context) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.active, nil
}

// SetActive marks whether a program is currently drawing from the tanks.
func (m *Memory) SetActive(active bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.active = active
}

func (m *Memory) RunOnce(_ context.Context, id string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.programs[id]; !ok {
		return &ErrUnknownProgram{ID: id}
	}
	m.runs = append(m.runs, id)
	return nil
}

func (m *Memory) SetEnabled(_ context.Context, id string, enabled bool) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	p, ok := m.programs[id]
	if !ok {
		return &ErrUnknownProgram{ID: id}
	}
	p.Enabled = enabled
	m.programs[id] = p
	return nil
}

func (m *Memory) Commit(_ context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.commits++
	return nil
}

// Runs returns the programs that were asked to run.
func (m *Memory) Runs() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]string(nil), m.runs...)
}

// Commits returns the number of Commit calls.
func (m *Memory) Commits() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.commits
}

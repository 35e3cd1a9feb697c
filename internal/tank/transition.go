package tank

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
	"time"
)

// Event is a condition that should be notified.
type Event string

const (
	OverflowEvent     Event = "overflow"
	WarningEvent      Event = "warning"
	CriticalEvent     Event = "critical"
	InvalidEvent      Event = "invalid_measurement"
	UnassociatedEvent Event = "unassociated_sensor"
	LossEvent         Event = "water_loss"
	UnrecognizedEvent Event = "unrecognized_message"
)

// Events lists all events, in the order they are reported when raised by the same update.
var Events = []Event{OverflowEvent, CriticalEvent, WarningEvent, InvalidEvent, LossEvent, UnassociatedEvent, UnrecognizedEvent}

func (e Event) priority() int {
	return slices.Index(Events, e)
}

func bandEvent(b Band) Event {
	switch b {
	case OverflowBand:
		return OverflowEvent
	case WarningBand:
		return WarningEvent
	case CriticalBand:
		return CriticalEvent
	}
	return ""
}

// Operation is a request to the program scheduler.
type Operation int

const (
	RunOnce Operation = iota
	Disable
	Enable
)

var operationNames = []string{"run", "disable", "enable"}

func (o Operation) String() string {
	if o >= 0 && int(o) < len(operationNames) {
		return operationNames[o]
	}
	return "unknown"
}

// ProgramAction is a scheduler request decided by a state transition.
type ProgramAction struct {
	Program   string
	Operation Operation
	Band      Band
	Revert    bool
}

func (a ProgramAction) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("program", a.Program),
		slog.String("op", a.Operation.String()),
		slog.String("band", string(a.Band)),
		slog.Bool("revert", a.Revert),
	)
}

// Input holds everything besides the tank itself that is needed to process a measurement.
type Input struct {
	Measurement float64
	Time        time.Time
	// Programs maps program IDs to their current enabled flag. Programs missing from the map are considered unknown.
	Programs map[string]bool
	// ConsumerActive is true if a program is currently drawing from the tanks.
	ConsumerActive bool
	// RepeatLoss reports water loss on every decreasing reading, rather than once per draining run.
	RepeatLoss bool
}

// Decision is the outcome of processing a measurement: the updated tank and the side effects to perform.
type Decision struct {
	Tank      Tank
	Outcome   Outcome
	Previous  *int
	From      State
	To        State
	Activated Band
	Reverted  Band
	Actions   []ProgramAction
	Events    []Event
}

func (d Decision) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("tank", d.Tank.ID),
		slog.String("from", d.From.String()),
		slog.String("to", d.To.String()),
	}
	if d.Tank.Percentage != nil {
		attrs = append(attrs, slog.Int("percentage", *d.Tank.Percentage))
	}
	if !d.Outcome.Valid() {
		attrs = append(attrs, slog.String("err", d.Outcome.Err.Error()))
	}
	if len(d.Actions) > 0 {
		attrs = append(attrs, slog.Int("actions", len(d.Actions)))
	}
	if len(d.Events) > 0 {
		events := make([]string, len(d.Events))
		for i, e := range d.Events {
			events[i] = string(e)
		}
		attrs = append(attrs, slog.Any("events", events))
	}
	return slog.GroupValue(attrs...)
}

// Changed reports whether the decision requires any side effects.
func (d Decision) Changed() bool {
	return len(d.Actions) > 0 || len(d.Events) > 0
}

// Apply processes a measurement for a tank. It returns the updated tank (leaving the original untouched)
// and the program actions and notifications the update requires.
//
// Program actions are tied to the band the tank is engaged in, rather than to its state: moving between a
// trigger state and its unsafe variant never activates or reverts programs, and an invalid measurement
// (which leaves the state undefined) does not lose track of programs that still need to be reverted.
func Apply(current Tank, in Input) Decision {
	t := current.Clone()
	d := Decision{
		Previous: clonePtr(current.Percentage),
		From:     current.State,
	}

	m := in.Measurement
	t.LastUpdated = &in.Time
	t.Measurement = &m
	d.Outcome = t.Evaluate(m)

	if !d.Outcome.Valid() {
		t.Invalid = true
		t.Percentage = nil
		t.State = Undefined
		d.To = Undefined
		d.Events = []Event{InvalidEvent}
		d.Tank = t
		return d
	}

	p := d.Outcome.Percentage
	t.Invalid = false
	t.Percentage = &p
	next := Next(current.State, &p, t.Levels())

	programs := maps.Clone(in.Programs)
	band := next.Band()
	if band != t.Engaged && t.Engaged != NoBand {
		d.Reverted = t.Engaged
	}
	// reverts that could not be executed earlier stay pending until the program is known
	for _, b := range []Band{OverflowBand, WarningBand, CriticalBand} {
		if b != band {
			d.Actions = append(d.Actions, revert(t.Threshold(b), b, programs)...)
		}
	}
	if band != t.Engaged && band != NoBand {
		d.Activated = band
		d.Actions = append(d.Actions, activate(t.Threshold(band), band, programs)...)
		d.Events = append(d.Events, bandEvent(band))
	}
	t.Engaged = band
	t.State = next
	d.To = next

	if d.Previous != nil && p < *d.Previous && !in.ConsumerActive {
		if in.RepeatLoss || !t.LossNotified {
			d.Events = append(d.Events, LossEvent)
		}
		t.LossNotified = true
	} else if d.Previous != nil {
		t.LossNotified = false
	}

	slices.SortStableFunc(d.Events, func(a, b Event) int { return cmp.Compare(a.priority(), b.priority()) })
	d.Tank = t
	return d
}

// revert restores every program that was changed when the tank entered the band. A program missing from
// programs keeps its prior flag, so it is restored once the scheduler reports it again.
func revert(th *Threshold, band Band, programs map[string]bool) []ProgramAction {
	var actions []ProgramAction
	for _, id := range slices.Sorted(maps.Keys(th.Programs)) {
		b := th.Programs[id]
		if b.PriorEnabled == nil {
			continue
		}
		enabled, ok := programs[id]
		if !ok {
			continue
		}
		if prior := *b.PriorEnabled; enabled != prior {
			op := Disable
			if prior {
				op = Enable
			}
			actions = append(actions, ProgramAction{Program: id, Operation: op, Band: band, Revert: true})
			programs[id] = prior
		}
		b.PriorEnabled = nil
		th.Programs[id] = b
	}
	return actions
}

// activate runs, suspends or enables the programs bound to the band, remembering the flags it changes.
func activate(th *Threshold, band Band, programs map[string]bool) []ProgramAction {
	var actions []ProgramAction
	for _, id := range slices.Sorted(maps.Keys(th.Programs)) {
		b := th.Programs[id]
		if b.RunOnce {
			actions = append(actions, ProgramAction{Program: id, Operation: RunOnce, Band: band})
		}
		enabled, known := programs[id]
		switch {
		case b.Suspend && known && enabled:
			if b.PriorEnabled == nil {
				b.PriorEnabled = &enabled
			}
			programs[id] = false
			actions = append(actions, ProgramAction{Program: id, Operation: Disable, Band: band})
		case b.Enable && known && !enabled:
			if b.PriorEnabled == nil {
				b.PriorEnabled = &enabled
			}
			programs[id] = true
			actions = append(actions, ProgramAction{Program: id, Operation: Enable, Band: band})
		}
		th.Programs[id] = b
	}
	return actions
}

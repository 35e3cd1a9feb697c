package tank

import (
	"encoding/json"
)

// State is the alarm state of a tank. The zero value means no valid percentage is known.
type State string

const (
	Undefined      State = ""
	Normal         State = "NORMAL"
	Overflow       State = "OVERFLOW"
	OverflowUnsafe State = "OVERFLOW_UNSAFE"
	Warning        State = "WARNING"
	WarningUnsafe  State = "WARNING_UNSAFE"
	Critical       State = "CRITICAL"
	CriticalUnsafe State = "CRITICAL_UNSAFE"
)

func (s State) String() string {
	if s == Undefined {
		return "UNDEFINED"
	}
	return string(s)
}

// Band returns the threshold band a state belongs to. A trigger state and its unsafe variant share the same band.
func (s State) Band() Band {
	switch s {
	case Overflow, OverflowUnsafe:
		return OverflowBand
	case Warning, WarningUnsafe:
		return WarningBand
	case Critical, CriticalUnsafe:
		return CriticalBand
	}
	return NoBand
}

func (s State) MarshalJSON() ([]byte, error) {
	if s == Undefined {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *State) UnmarshalJSON(data []byte) error {
	var value *string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*s = Undefined
	if value != nil {
		*s = State(*value)
	}
	return nil
}

// Band identifies one of the configured thresholds.
type Band string

const (
	NoBand       Band = ""
	OverflowBand Band = "overflow"
	WarningBand  Band = "warning"
	CriticalBand Band = "critical"
)

// Levels are the threshold percentages of a tank. A nil level disables that check.
type Levels struct {
	Overflow     *float64
	OverflowSafe *float64
	Warning      *float64
	WarningSafe  *float64
	Critical     *float64
	CriticalSafe *float64
}

// Next determines the alarm state for a percentage, given the current state. Rules are evaluated in a fixed order:
// the first match wins. An unsafe state can only be reached from its own band, which creates a hysteresis band
// between the trigger level and the safe level.
func Next(current State, percentage *int, levels Levels) State {
	if percentage == nil {
		return Undefined
	}
	p := float64(*percentage)
	band := current.Band()

	switch {
	case levels.Overflow != nil && p >= *levels.Overflow:
		return Overflow
	case band == OverflowBand && levels.Overflow != nil && levels.OverflowSafe != nil && p >= *levels.OverflowSafe && p < *levels.Overflow:
		return OverflowUnsafe
	case levels.Critical != nil && p <= *levels.Critical:
		return Critical
	case band == CriticalBand && levels.Critical != nil && levels.CriticalSafe != nil && p > *levels.Critical && p <= *levels.CriticalSafe:
		return CriticalUnsafe
	case levels.Warning != nil && p <= *levels.Warning:
		return Warning
	case band == WarningBand && levels.Warning != nil && levels.WarningSafe != nil && p > *levels.Warning && p <= *levels.WarningSafe:
		return WarningUnsafe
	}
	return Normal
}

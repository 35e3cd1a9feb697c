// Package tank implements the level estimation and alarm state machine for a monitored tank.
// It performs no I/O: callers provide the measurement, the time and the state of the scheduler's programs.
package tank

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"
)

// Reading is a single measurement reported by a sensor.
type Reading struct {
	SensorID    string
	Measurement float64
}

func (r Reading) LogValue() slog.Value {
	return slog.GroupValue(slog.String("sensor", r.SensorID), slog.Float64("measurement", r.Measurement))
}

// Recipients lists where a notification is sent. An empty list disables that channel.
type Recipients struct {
	Email []string `json:"email,omitempty" yaml:"email,omitempty"`
	Slack []string `json:"slack,omitempty" yaml:"slack,omitempty"`
}

func (r Recipients) IsEmpty() bool {
	return len(r.Email) == 0 && len(r.Slack) == 0
}

// Binding determines what happens to a scheduler program when a tank enters a band.
// PriorEnabled remembers the program's enabled flag before it was changed, so it can be restored when the tank leaves the band.
type Binding struct {
	RunOnce      bool  `json:"run_once,omitempty" yaml:"run_once,omitempty"`
	Suspend      bool  `json:"suspend,omitempty" yaml:"suspend,omitempty"`
	Enable       bool  `json:"enable,omitempty" yaml:"enable,omitempty"`
	PriorEnabled *bool `json:"prior_enabled,omitempty" yaml:"-"`
}

// Threshold configures one band.
type Threshold struct {
	Level     *float64           `json:"level" yaml:"level"`
	SafeLevel *float64           `json:"safe_level" yaml:"safe_level"`
	Notify    Recipients         `json:"notify" yaml:"notify"`
	Programs  map[string]Binding `json:"programs,omitempty" yaml:"programs,omitempty"`
}

func (t Threshold) clone() Threshold {
	t.Programs = maps.Clone(t.Programs)
	for id, b := range t.Programs {
		if b.PriorEnabled != nil {
			v := *b.PriorEnabled
			b.PriorEnabled = &v
			t.Programs[id] = b
		}
	}
	t.Notify.Email = append([]string(nil), t.Notify.Email...)
	t.Notify.Slack = append([]string(nil), t.Notify.Slack...)
	return t
}

// Tank is a monitored vessel: its configuration, last reading and alarm state.
type Tank struct {
	ID         string     `json:"id" yaml:"id"`
	Label      string     `json:"label" yaml:"label"`
	Shape      Shape      `json:"type" yaml:"type"`
	Dimensions `yaml:",inline"`
	Order      int        `json:"order" yaml:"order"`
	Disabled   bool       `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	SensorID       string   `json:"sensor_id" yaml:"sensor_id"`
	SensorTopic    string   `json:"sensor_mqtt_topic" yaml:"sensor_topic"`
	SensorOffset   float64  `json:"sensor_offset_from_top" yaml:"sensor_offset"`
	MinMeasurement *float64 `json:"min_valid_sensor_measurement" yaml:"min_measurement"`
	MaxMeasurement *float64 `json:"max_valid_sensor_measurement" yaml:"max_measurement"`

	Overflow Threshold  `json:"overflow" yaml:"overflow"`
	Warning  Threshold  `json:"warning" yaml:"warning"`
	Critical Threshold  `json:"critical" yaml:"critical"`
	Loss     Recipients `json:"loss" yaml:"loss"`

	LastUpdated  *time.Time `json:"last_updated" yaml:"-"`
	Measurement  *float64   `json:"sensor_measurement" yaml:"-"`
	Percentage   *int       `json:"percentage" yaml:"-"`
	Invalid      bool       `json:"invalid_sensor_measurement" yaml:"-"`
	State        State      `json:"state" yaml:"-"`
	Engaged      Band       `json:"engaged_band,omitempty" yaml:"-"`
	LossNotified bool       `json:"loss_notified,omitempty" yaml:"-"`
}

func (t Tank) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", t.ID),
		slog.String("shape", t.Shape.String()),
		slog.String("state", t.State.String()),
	}
	if t.Percentage != nil {
		attrs = append(attrs, slog.Int("percentage", *t.Percentage))
	}
	if t.Invalid {
		attrs = append(attrs, slog.Bool("invalid", true))
	}
	return slog.GroupValue(attrs...)
}

// Clone returns a deep copy of the tank, so the copy can be modified without affecting the original.
func (t Tank) Clone() Tank {
	t.Overflow = t.Overflow.clone()
	t.Warning = t.Warning.clone()
	t.Critical = t.Critical.clone()
	t.Loss.Email = append([]string(nil), t.Loss.Email...)
	t.Loss.Slack = append([]string(nil), t.Loss.Slack...)
	t.MinMeasurement = clonePtr(t.MinMeasurement)
	t.MaxMeasurement = clonePtr(t.MaxMeasurement)
	t.LastUpdated = clonePtr(t.LastUpdated)
	t.Measurement = clonePtr(t.Measurement)
	t.Percentage = clonePtr(t.Percentage)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Levels returns the configured threshold levels.
func (t Tank) Levels() Levels {
	return Levels{
		Overflow:     t.Overflow.Level,
		OverflowSafe: t.Overflow.SafeLevel,
		Warning:      t.Warning.Level,
		WarningSafe:  t.Warning.SafeLevel,
		Critical:     t.Critical.Level,
		CriticalSafe: t.Critical.SafeLevel,
	}
}

// Threshold returns the configuration of a band.
func (t *Tank) Threshold(b Band) *Threshold {
	switch b {
	case OverflowBand:
		return &t.Overflow
	case WarningBand:
		return &t.Warning
	case CriticalBand:
		return &t.Critical
	}
	return nil
}

// Evaluate checks the measurement against the sensor's valid range and converts it into a fill percentage.
func (t Tank) Evaluate(measurement float64) Outcome {
	if t.MinMeasurement != nil && measurement < *t.MinMeasurement {
		return invalid(fmt.Errorf("%w: %v < %v", ErrSensorBounds, measurement, *t.MinMeasurement))
	}
	if t.MaxMeasurement != nil && measurement > *t.MaxMeasurement {
		return invalid(fmt.Errorf("%w: %v > %v", ErrSensorBounds, measurement, *t.MaxMeasurement))
	}
	return Evaluate(t.Shape, t.Dimensions, t.SensorOffset, measurement)
}

// Validate checks the tank's configuration.
func (t Tank) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if required := t.Dimensions.required(t.Shape); required == nil {
		errs = append(errs, ErrUnknownShape)
	} else {
		for name, value := range required {
			if !(value > 0) {
				errs = append(errs, fmt.Errorf("%s must be positive", name))
			}
		}
	}
	if t.MinMeasurement != nil && t.MaxMeasurement != nil && *t.MinMeasurement > *t.MaxMeasurement {
		errs = append(errs, errors.New("min_measurement exceeds max_measurement"))
	}
	for _, b := range []Band{OverflowBand, WarningBand, CriticalBand} {
		th := t.Threshold(b)
		for _, level := range []*float64{th.Level, th.SafeLevel} {
			if level != nil && (*level < 0 || *level > 100) {
				errs = append(errs, fmt.Errorf("%s: level %v outside [0,100]", b, *level))
			}
		}
		if th.SafeLevel == nil {
			continue
		}
		if th.Level == nil {
			errs = append(errs, fmt.Errorf("%s: safe level without level", b))
			continue
		}
		if b == OverflowBand && *th.SafeLevel >= *th.Level {
			errs = append(errs, fmt.Errorf("%s: safe level must be below %v", b, *th.Level))
		}
		if b != OverflowBand && *th.SafeLevel <= *th.Level {
			errs = append(errs, fmt.Errorf("%s: safe level must be above %v", b, *th.Level))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("tank %q: %w", t.ID, err)
	}
	return nil
}

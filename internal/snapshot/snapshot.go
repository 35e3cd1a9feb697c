// Package snapshot defines the list of tanks published whenever a tank is updated or a client requests the data.
package snapshot

import (
	"github.com/clambin/tank-monitor/internal/tank"
)

// TimestampFormat is the layout of LastUpdated.
const TimestampFormat = "2006-01-02 15:04"

// Entry is the published state of one tank.
type Entry struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Type  tank.Shape `json:"type"`
	tank.Dimensions
	Order       int        `json:"order"`
	SensorID    string     `json:"sensor_id,omitempty"`
	Measurement *float64   `json:"sensor_measurement"`
	Percentage  *int       `json:"percentage"`
	Invalid     bool       `json:"invalid_sensor_measurement"`
	LastUpdated *string    `json:"last_updated"`
	State       tank.State `json:"state"`
}

// Snapshot lists the tanks in display order.
type Snapshot []Entry

// New builds a snapshot. The tanks must already be sorted in display order.
func New(tanks []tank.Tank) Snapshot {
	s := make(Snapshot, 0, len(tanks))
	for _, t := range tanks {
		e := Entry{
			ID:          t.ID,
			Label:       t.Label,
			Type:        t.Shape,
			Dimensions:  t.Dimensions,
			Order:       t.Order,
			SensorID:    t.SensorID,
			Measurement: t.Measurement,
			Percentage:  t.Percentage,
			Invalid:     t.Invalid,
			State:       t.State,
		}
		if t.LastUpdated != nil {
			ts := t.LastUpdated.Format(TimestampFormat)
			e.LastUpdated = &ts
		}
		s = append(s, e)
	}
	return s
}

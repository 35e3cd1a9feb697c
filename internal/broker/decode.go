package broker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/clambin/tank-monitor/internal/tank"
)

var ErrUnrecognized = errors.New("unrecognized message")

type reading struct {
	SensorID    string   `json:"sensor_id"`
	ID          string   `json:"id"`
	Measurement *float64 `json:"measurement"`
}

func (r reading) toReading() (tank.Reading, error) {
	id := r.SensorID
	if id == "" {
		id = r.ID
	}
	if id == "" {
		return tank.Reading{}, fmt.Errorf("%w: missing sensor_id", ErrUnrecognized)
	}
	if r.Measurement == nil {
		return tank.Reading{}, fmt.Errorf("%w: missing measurement", ErrUnrecognized)
	}
	return tank.Reading{SensorID: id, Measurement: *r.Measurement}, nil
}

// Decode parses a sensor message: a single reading or a list of readings. The key "id" is accepted instead of
// "sensor_id". For a list, Decode returns the valid readings, and an error for each entry it could not decode.
// An error wrapping ErrUnrecognized is returned if the message is not a reading or a list.
func Decode(payload []byte) ([]tank.Reading, []error, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) > 0 && payload[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrUnrecognized, err)
		}
		readings := make([]tank.Reading, 0, len(items))
		var rejected []error
		for i, item := range items {
			r, err := decodeOne(item)
			if err != nil {
				rejected = append(rejected, fmt.Errorf("entry %d: %w", i, err))
				continue
			}
			readings = append(readings, r)
		}
		return readings, rejected, nil
	}
	r, err := decodeOne(payload)
	if err != nil {
		return nil, nil, err
	}
	return []tank.Reading{r}, nil, nil
}

func decodeOne(payload []byte) (tank.Reading, error) {
	var r reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return tank.Reading{}, fmt.Errorf("%w: %w", ErrUnrecognized, err)
	}
	return r.toReading()
}

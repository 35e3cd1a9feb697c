package notifier

import (
	"bytes"
	"fmt"
	"github.com/clambin/tank-monitor/internal/tank"
	"text/template"
)

// DefaultTemplates holds the message text of each event, unless overridden in the settings.
var DefaultTemplates = map[tank.Event]string{
	tank.OverflowEvent:     `Tank {{.Label}} reached its overflow level: {{.Percentage}}% full (sensor {{.SensorID}}, measurement {{.Measurement}}) at {{.Timestamp}}.`,
	tank.WarningEvent:      `Tank {{.Label}} reached its warning level: {{.Percentage}}% full (sensor {{.SensorID}}, measurement {{.Measurement}}) at {{.Timestamp}}.`,
	tank.CriticalEvent:     `Tank {{.Label}} reached its critical level: {{.Percentage}}% full (sensor {{.SensorID}}, measurement {{.Measurement}}) at {{.Timestamp}}.`,
	tank.InvalidEvent:      `Sensor {{.SensorID}} reported an invalid measurement {{.Measurement}} for tank {{.Label}} at {{.Timestamp}}: {{.Info}}.`,
	tank.LossEvent:         `Tank {{.Label}} is losing water: {{.Previous}}% to {{.Percentage}}% (sensor {{.SensorID}}) while no program is running, at {{.Timestamp}}.`,
	tank.UnassociatedEvent: `Sensor {{.SensorID}} reported measurement {{.Measurement}} on {{.Topic}} at {{.Timestamp}}, but no tank uses this sensor.`,
	tank.UnrecognizedEvent: `Unrecognized message received on {{.Topic}} at {{.Timestamp}}: {{.Info}}`,
}

var titles = map[tank.Event]string{
	tank.OverflowEvent:     "overflow level",
	tank.WarningEvent:      "warning level",
	tank.CriticalEvent:     "critical level",
	tank.InvalidEvent:      "invalid measurement",
	tank.LossEvent:         "water loss",
	tank.UnassociatedEvent: "unassociated sensor",
	tank.UnrecognizedEvent: "unrecognized message",
}

// TemplateData provides the fields that can be used in a message template.
type TemplateData struct {
	Event       string
	TankID      string
	Label       string
	SensorID    string
	Percentage  string
	Previous    string
	Measurement string
	Timestamp   string
	Topic       string
	Info        string
}

// Templates renders the messages of all events.
type Templates struct {
	templates map[tank.Event]*template.Template
}

// Defaults renders every event with DefaultTemplates.
var Defaults = mustTemplates(NewTemplates(nil))

func mustTemplates(t Templates, err error) Templates {
	if err != nil {
		panic(err)
	}
	return t
}

// NewTemplates parses the message templates. Events without an override use DefaultTemplates.
func NewTemplates(overrides map[tank.Event]string) (Templates, error) {
	t := Templates{templates: make(map[tank.Event]*template.Template, len(DefaultTemplates))}
	for event, text := range DefaultTemplates {
		if override, ok := overrides[event]; ok && override != "" {
			text = override
		}
		parsed, err := template.New(string(event)).Parse(text)
		if err != nil {
			return Templates{}, fmt.Errorf("template %s: %w", event, err)
		}
		t.templates[event] = parsed
	}
	return t, nil
}

// Render builds the message for an event. The recipients are left for the caller to fill in.
func (t Templates) Render(event tank.Event, data TemplateData) (Message, error) {
	tpl, ok := t.templates[event]
	if !ok {
		return Message{}, fmt.Errorf("no template for event %q", event)
	}
	data.Event = string(event)
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("template %s: %w", event, err)
	}
	title := titles[event]
	if name := data.Label; name != "" || data.TankID != "" {
		if name == "" {
			name = data.TankID
		}
		title = name + ": " + title
	}
	return Message{
		Event:  event,
		TankID: data.TankID,
		Title:  title,
		Text:   buf.String(),
	}, nil
}

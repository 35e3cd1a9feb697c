// Package configuration loads tank definitions from YAML.
package configuration

import (
	"fmt"
	"github.com/clambin/go-common/set"
	"github.com/clambin/tank-monitor/internal/store"
	"github.com/clambin/tank-monitor/internal/tank"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"strings"
)

// Configuration is the content of a tank definition file.
type Configuration struct {
	Templates    map[tank.Event]string `yaml:"templates"`
	Invalid      tank.Recipients       `yaml:"invalid"`
	Unassociated tank.Recipients       `yaml:"unassociated"`
	Unrecognized tank.Recipients       `yaml:"unrecognized"`
	Tanks        []tank.Tank           `yaml:"tanks"`
}

// Load reads and validates a tank definition file.
func Load(r io.Reader, l *slog.Logger) (Configuration, error) {
	var cfg Configuration
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return Configuration{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	for _, t := range cfg.Tanks {
		l.Info("tank found",
			slog.String("tank", t.ID),
			slog.String("shape", t.Shape.String()),
			slog.String("sensor", t.SensorID),
			slog.String("thresholds", strings.Join(thresholds(t), ",")),
		)
	}
	return cfg, nil
}

// Validate checks every tank, as well as the uniqueness of tank IDs and the template event names.
func (c Configuration) Validate() error {
	ids := set.New[string]()
	for _, t := range c.Tanks {
		if err := t.Validate(); err != nil {
			return err
		}
		if ids.Contains(t.ID) {
			return fmt.Errorf("tank %q: duplicate id", t.ID)
		}
		ids.Add(t.ID)
	}
	for event := range c.Templates {
		if !isEvent(event) {
			return fmt.Errorf("template: invalid event %q", event)
		}
	}
	return nil
}

// Document converts the configuration into a new store document.
func (c Configuration) Document() store.Document {
	doc := store.Document{
		Settings: store.Settings{
			Templates:    c.Templates,
			Invalid:      c.Invalid,
			Unassociated: c.Unassociated,
			Unrecognized: c.Unrecognized,
		},
		Tanks: make(map[string]tank.Tank, len(c.Tanks)),
	}
	for _, t := range c.Tanks {
		doc.Tanks[t.ID] = t.Clone()
	}
	return doc
}

func isEvent(e tank.Event) bool {
	for _, event := range tank.Events {
		if e == event {
			return true
		}
	}
	return false
}

func thresholds(t tank.Tank) []string {
	var configured []string
	for _, b := range []tank.Band{tank.OverflowBand, tank.WarningBand, tank.CriticalBand} {
		if t.Threshold(b).Level != nil {
			configured = append(configured, string(b))
		}
	}
	return configured
}

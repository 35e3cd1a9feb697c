// Package store persists the monitor's document: global settings and the tank records.
package store

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/clambin/tank-monitor/internal/tank"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// Settings holds the global notification settings.
type Settings struct {
	// Templates overrides the default message template of an event.
	Templates    map[tank.Event]string `json:"templates,omitempty"`
	Invalid      tank.Recipients       `json:"invalid_measurement"`
	Unassociated tank.Recipients       `json:"unassociated_sensor"`
	Unrecognized tank.Recipients       `json:"unrecognized_message"`
}

// Document is the persisted state of the monitor.
type Document struct {
	Settings Settings             `json:"settings"`
	Tanks    map[string]tank.Tank `json:"water_tanks"`
}

// Sorted returns the tanks in display order. Tanks with the same order are sorted by ID.
func (d Document) Sorted() []tank.Tank {
	tanks := slices.Collect(maps.Values(d.Tanks))
	slices.SortFunc(tanks, func(a, b tank.Tank) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return tanks
}

// Validate checks every tank, and that each tank is stored under its own ID.
func (d Document) Validate() error {
	var errs []error
	for _, t := range d.Sorted() {
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(d.Tanks)) {
		if d.Tanks[id].ID != id {
			errs = append(errs, fmt.Errorf("tank %q: stored as %q", d.Tanks[id].ID, id))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	c := Document{
		Settings: Settings{
			Templates:    maps.Clone(d.Settings.Templates),
			Invalid:      cloneRecipients(d.Settings.Invalid),
			Unassociated: cloneRecipients(d.Settings.Unassociated),
			Unrecognized: cloneRecipients(d.Settings.Unrecognized),
		},
		Tanks: make(map[string]tank.Tank, len(d.Tanks)),
	}
	for id, t := range d.Tanks {
		c.Tanks[id] = t.Clone()
	}
	return c
}

func cloneRecipients(r tank.Recipients) tank.Recipients {
	return tank.Recipients{
		Email: slices.Clone(r.Email),
		Slack: slices.Clone(r.Slack),
	}
}

// FileStore keeps the document in a single JSON file.
type FileStore struct {
	Path string
}

// Load reads the document. If the file does not exist, the returned error wraps os.ErrNotExist.
func (s FileStore) Load() (Document, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return Document{}, err
	}
	defer func() { _ = f.Close() }()

	var doc Document
	if err = json.NewDecoder(f).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	if doc.Tanks == nil {
		doc.Tanks = make(map[string]tank.Tank)
	}
	for id, t := range doc.Tanks {
		if t.ID == "" {
			t.ID = id
			doc.Tanks[id] = t
		}
	}
	return doc, nil
}

// Save replaces the document. The new content is written to a temporary file in the same directory,
// which is then renamed over the old file: a failed Save leaves the previous document intact.
func (s FileStore) Save(doc Document) (err error) {
	f, err := os.CreateTemp(filepath.Dir(s.Path), "."+filepath.Base(s.Path)+"-*")
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err = encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err = os.Rename(f.Name(), s.Path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Exists reports whether the store already holds a document.
func (s FileStore) Exists() (bool, error) {
	_, err := os.Stat(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

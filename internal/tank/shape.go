package tank

import (
	"encoding/json"
	"fmt"
	"gopkg.in/yaml.v3"
	"strconv"
)

// Shape is the geometry of a tank. The numeric values match the legacy data file.
type Shape int

const (
	Unknown Shape = iota
	Rectangular
	HorizontalCylinder
	VerticalCylinder
	Elliptical
)

var shapeNames = []string{
	"unknown",
	"rectangular",
	"horizontalCylinder",
	"verticalCylinder",
	"elliptical",
}

func (s Shape) String() string {
	if s >= 0 && int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

func parseShape(value string) (Shape, error) {
	for i, name := range shapeNames {
		if i > 0 && name == value {
			return Shape(i), nil
		}
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 && n < len(shapeNames) {
		return Shape(n), nil
	}
	return Unknown, fmt.Errorf("invalid shape: %q", value)
}

func (s *Shape) UnmarshalYAML(node *yaml.Node) error {
	var err error
	*s, err = parseShape(node.Value)
	return err
}

func (s Shape) MarshalYAML() (interface{}, error) {
	if s <= Unknown || int(s) >= len(shapeNames) {
		return "", fmt.Errorf("invalid shape: %d", s)
	}
	return s.String(), nil
}

func (s *Shape) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var n int
		if err = json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid shape: %s", string(data))
		}
		name = strconv.Itoa(n)
	}
	var err error
	*s, err = parseShape(name)
	return err
}

func (s Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Dimensions holds the physical size of a tank, in the same unit as the sensor measurement.
// Which fields are used depends on the Shape.
type Dimensions struct {
	Width          float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Length         float64 `json:"length,omitempty" yaml:"length,omitempty"`
	Height         float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Diameter       float64 `json:"diameter,omitempty" yaml:"diameter,omitempty"`
	HorizontalAxis float64 `json:"horizontal_axis,omitempty" yaml:"horizontal_axis,omitempty"`
	VerticalAxis   float64 `json:"vertical_axis,omitempty" yaml:"vertical_axis,omitempty"`
}

// required returns the named dimensions a shape needs.
func (d Dimensions) required(s Shape) map[string]float64 {
	switch s {
	case Rectangular:
		return map[string]float64{"width": d.Width, "length": d.Length, "height": d.Height}
	case HorizontalCylinder:
		return map[string]float64{"diameter": d.Diameter, "length": d.Length}
	case VerticalCylinder:
		return map[string]float64{"diameter": d.Diameter, "height": d.Height}
	case Elliptical:
		return map[string]float64{"horizontal_axis": d.HorizontalAxis, "vertical_axis": d.VerticalAxis, "length": d.Length}
	}
	return nil
}

// Full returns the dimension a measurement is taken along, i.e. the distance from the top of the tank to its bottom.
func (d Dimensions) Full(s Shape) float64 {
	switch s {
	case Rectangular, VerticalCylinder:
		return d.Height
	case HorizontalCylinder:
		return d.Diameter
	case Elliptical:
		return d.VerticalAxis
	}
	return 0
}

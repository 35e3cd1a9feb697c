package tank

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrSensorBounds = errors.New("measurement outside valid sensor range")
	ErrGeometry     = errors.New("measurement outside tank")
	ErrDimensions   = errors.New("missing tank dimensions")
	ErrUnknownShape = errors.New("unknown tank shape")
)

// tolerance absorbs floating point noise when the liquid surface sits exactly at the top or bottom of the tank.
const tolerance = 1e-9

// Outcome is the result of evaluating a measurement. Percentage is only meaningful if Err is nil.
type Outcome struct {
	Percentage int
	Exact      float64
	Depth      float64
	Err        error
}

func (o Outcome) Valid() bool {
	return o.Err == nil
}

func invalid(err error) Outcome {
	return Outcome{Err: err}
}

// Evaluate converts a measurement (distance from the sensor to the liquid surface) into a fill percentage.
// A measurement that places the surface above the top or below the bottom of the tank is invalid.
func Evaluate(shape Shape, dim Dimensions, offset, measurement float64) Outcome {
	if math.IsNaN(measurement) || math.IsInf(measurement, 0) {
		return invalid(fmt.Errorf("%w: %v", ErrGeometry, measurement))
	}
	required := dim.required(shape)
	if required == nil {
		return invalid(ErrUnknownShape)
	}
	for name, value := range required {
		if !(value > 0) {
			return invalid(fmt.Errorf("%w: %s", ErrDimensions, name))
		}
	}

	full := dim.Full(shape)
	distance := measurement - offset
	switch {
	case distance < -tolerance:
		return invalid(fmt.Errorf("%w: surface %.3f above top", ErrGeometry, -distance))
	case distance > full+tolerance:
		return invalid(fmt.Errorf("%w: surface %.3f below bottom", ErrGeometry, distance-full))
	}
	depth := clamp(full-distance, 0, full)

	var exact float64
	switch shape {
	case Rectangular, VerticalCylinder:
		exact = 100 * depth / full
	case HorizontalCylinder:
		exact = 100 * circularSegment(dim.Diameter/2, depth) / (math.Pi * dim.Diameter * dim.Diameter / 4)
	case Elliptical:
		exact = 100 * ellipticalSegment(dim.VerticalAxis, dim.HorizontalAxis, depth) / (math.Pi * dim.VerticalAxis * dim.HorizontalAxis / 4)
	}
	if math.IsNaN(exact) || math.IsInf(exact, 0) {
		return invalid(fmt.Errorf("%w: no solution for depth %.3f", ErrGeometry, depth))
	}
	exact = clamp(exact, 0, 100)

	return Outcome{
		Percentage: int(math.Round(exact)),
		Exact:      exact,
		Depth:      depth,
	}
}

// circularSegment returns the area of a circle with radius r, filled up to height h.
func circularSegment(r, h float64) float64 {
	return math.Acos(clamp((r-h)/r, -1, 1))*r*r - (r-h)*math.Sqrt(math.Max(0, 2*r*h-h*h))
}

// ellipticalSegment returns the area of an ellipse with vertical axis a and horizontal axis b, filled up to height h.
func ellipticalSegment(a, b, h float64) float64 {
	x := clamp(1-2*h/a, -1, 1)
	return (a * b / 4) * (math.Acos(x) - x*math.Sqrt(math.Max(0, 4*h/a-4*h*h/(a*a))))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

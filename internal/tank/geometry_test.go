package tank

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

var shapes = map[Shape]Dimensions{
	Rectangular:        {Width: 2, Length: 5, Height: 2},
	VerticalCylinder:   {Diameter: 2, Height: 2},
	HorizontalCylinder: {Diameter: 1.5, Length: 3},
	Elliptical:         {HorizontalAxis: 1, VerticalAxis: 0.8, Length: 2},
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		shape       Shape
		dim         Dimensions
		offset      float64
		measurement float64
		want        int
		wantErr     error
	}{
		{name: "rectangular", shape: Rectangular, dim: shapes[Rectangular], measurement: 0.6, want: 70},
		{name: "rectangular with offset", shape: Rectangular, dim: shapes[Rectangular], offset: 0.2, measurement: 0.8, want: 70},
		{name: "rectangular below bottom", shape: Rectangular, dim: shapes[Rectangular], measurement: 2.5, wantErr: ErrGeometry},
		{name: "rectangular above top", shape: Rectangular, dim: shapes[Rectangular], offset: 0.3, measurement: 0.1, wantErr: ErrGeometry},
		{name: "vertical cylinder", shape: VerticalCylinder, dim: shapes[VerticalCylinder], measurement: 1.5, want: 25},
		{name: "horizontal cylinder half full", shape: HorizontalCylinder, dim: shapes[HorizontalCylinder], measurement: 0.75, want: 50},
		{name: "horizontal cylinder quarter depth", shape: HorizontalCylinder, dim: Dimensions{Diameter: 2, Length: 1}, measurement: 1.5, want: 20},
		{name: "horizontal cylinder below bottom", shape: HorizontalCylinder, dim: shapes[HorizontalCylinder], measurement: 1.6, wantErr: ErrGeometry},
		{name: "elliptical half full", shape: Elliptical, dim: shapes[Elliptical], measurement: 0.4, want: 50},
		{name: "elliptical", shape: Elliptical, dim: shapes[Elliptical], measurement: 0.6, want: 20},
		{name: "missing dimension", shape: Rectangular, dim: Dimensions{Width: 1, Length: 1}, measurement: 0.5, wantErr: ErrDimensions},
		{name: "unknown shape", shape: Unknown, dim: shapes[Rectangular], measurement: 0.5, wantErr: ErrUnknownShape},
		{name: "not a number", shape: Rectangular, dim: shapes[Rectangular], measurement: math.NaN(), wantErr: ErrGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := Evaluate(tt.shape, tt.dim, tt.offset, tt.measurement)
			if tt.wantErr != nil {
				assert.ErrorIs(t, out.Err, tt.wantErr)
				assert.False(t, out.Valid())
				return
			}
			require.NoError(t, out.Err)
			assert.Equal(t, tt.want, out.Percentage)
		})
	}
}

func TestEvaluate_Boundaries(t *testing.T) {
	for shape, dim := range shapes {
		t.Run(shape.String(), func(t *testing.T) {
			full := dim.Full(shape)

			out := Evaluate(shape, dim, 0.1, 0.1)
			require.NoError(t, out.Err)
			assert.Equal(t, 100, out.Percentage)

			out = Evaluate(shape, dim, 0.1, 0.1+full)
			require.NoError(t, out.Err)
			assert.Equal(t, 0, out.Percentage)

			// floating point noise at the boundaries is absorbed
			out = Evaluate(shape, dim, 0, full+1e-12)
			require.NoError(t, out.Err)
			assert.Equal(t, 0, out.Percentage)
			out = Evaluate(shape, dim, 0, -1e-12)
			require.NoError(t, out.Err)
			assert.Equal(t, 100, out.Percentage)
		})
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	const steps = 200
	for shape, dim := range shapes {
		t.Run(shape.String(), func(t *testing.T) {
			full := dim.Full(shape)
			last := math.Inf(1)
			for i := range steps + 1 {
				out := Evaluate(shape, dim, 0, full*float64(i)/steps)
				require.NoError(t, out.Err, i)
				assert.LessOrEqual(t, out.Exact, last, i)
				assert.GreaterOrEqual(t, out.Exact, 0.0)
				assert.LessOrEqual(t, out.Exact, 100.0)
				last = out.Exact
			}
		})
	}
}

func TestTank_Evaluate_SensorBounds(t *testing.T) {
	low, high := 0.2, 1.8
	tk := Tank{ID: "t", Shape: Rectangular, Dimensions: shapes[Rectangular], MinMeasurement: &low, MaxMeasurement: &high}

	assert.ErrorIs(t, tk.Evaluate(0.1).Err, ErrSensorBounds)
	assert.ErrorIs(t, tk.Evaluate(1.9).Err, ErrSensorBounds)

	out := tk.Evaluate(1)
	require.NoError(t, out.Err)
	assert.Equal(t, 50, out.Percentage)
}

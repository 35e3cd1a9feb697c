package tank

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func level(v float64) *float64 { return &v }

func percentage(v int) *int { return &v }

var testLevels = Levels{
	Overflow:     level(90),
	OverflowSafe: level(80),
	Warning:      level(30),
	WarningSafe:  level(40),
	Critical:     level(8),
	CriticalSafe: level(12),
}

func TestNext(t *testing.T) {
	tests := []struct {
		name       string
		current    State
		percentage *int
		levels     Levels
		want       State
	}{
		{name: "no percentage", current: Critical, percentage: nil, levels: testLevels, want: Undefined},
		{name: "normal", current: Normal, percentage: percentage(50), levels: testLevels, want: Normal},
		{name: "overflow at level", current: Normal, percentage: percentage(90), levels: testLevels, want: Overflow},
		{name: "no unsafe overflow from normal", current: Normal, percentage: percentage(85), levels: testLevels, want: Normal},
		{name: "overflow to unsafe", current: Overflow, percentage: percentage(85), levels: testLevels, want: OverflowUnsafe},
		{name: "unsafe overflow at safe level", current: OverflowUnsafe, percentage: percentage(80), levels: testLevels, want: OverflowUnsafe},
		{name: "unsafe overflow clears", current: OverflowUnsafe, percentage: percentage(79), levels: testLevels, want: Normal},
		{name: "unsafe overflow back to overflow", current: OverflowUnsafe, percentage: percentage(95), levels: testLevels, want: Overflow},
		{name: "overflow without safe level", current: Overflow, percentage: percentage(85), levels: Levels{Overflow: level(90)}, want: Normal},
		{name: "warning", current: Normal, percentage: percentage(30), levels: testLevels, want: Warning},
		{name: "no unsafe warning from normal", current: Normal, percentage: percentage(35), levels: testLevels, want: Normal},
		{name: "warning to unsafe", current: Warning, percentage: percentage(35), levels: testLevels, want: WarningUnsafe},
		{name: "unsafe warning clears", current: WarningUnsafe, percentage: percentage(41), levels: testLevels, want: Normal},
		{name: "critical", current: Warning, percentage: percentage(5), levels: testLevels, want: Critical},
		{name: "critical to unsafe", current: Critical, percentage: percentage(10), levels: testLevels, want: CriticalUnsafe},
		{name: "unsafe critical stays below warning level", current: CriticalUnsafe, percentage: percentage(12), levels: testLevels, want: CriticalUnsafe},
		{name: "unsafe critical to warning", current: CriticalUnsafe, percentage: percentage(13), levels: testLevels, want: Warning},
		{name: "warning to unsafe critical is not possible", current: Warning, percentage: percentage(10), levels: testLevels, want: Warning},
		{name: "undefined recovers", current: Undefined, percentage: percentage(85), levels: testLevels, want: Normal},
		{name: "no levels", current: Normal, percentage: percentage(0), levels: Levels{}, want: Normal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Next(tt.current, tt.percentage, tt.levels))
		})
	}
}

func TestState_JSON(t *testing.T) {
	body, err := json.Marshal(struct {
		A State `json:"a"`
		B State `json:"b"`
	}{A: Undefined, B: CriticalUnsafe})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":"CRITICAL_UNSAFE"}`, string(body))

	var s struct {
		A State `json:"a"`
		B State `json:"b"`
	}
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, Undefined, s.A)
	assert.Equal(t, CriticalUnsafe, s.B)
}

func TestShape_Unmarshal(t *testing.T) {
	var s Shape
	require.NoError(t, json.Unmarshal([]byte(`"horizontalCylinder"`), &s))
	assert.Equal(t, HorizontalCylinder, s)
	require.NoError(t, json.Unmarshal([]byte(`4`), &s))
	assert.Equal(t, Elliptical, s)
	assert.Error(t, json.Unmarshal([]byte(`"sphere"`), &s))
}

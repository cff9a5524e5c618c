package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleValidate(t *testing.T) {
	assert.NoError(t, Cycle{Duration: 90, Offset: -4}.Validate())
	assert.Error(t, Cycle{Duration: 0}.Validate())
	assert.Error(t, Cycle{Duration: -90}.Validate())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("red")
	require.NoError(t, err)
	assert.Equal(t, Red, c)
	_, err = ParseColor("amber")
	assert.Error(t, err)
}

func TestDurationCurveJSON(t *testing.T) {
	c := DurationCurve{Point(12), {}, Point(0)}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `[12,null,0]`, string(b))

	var back DurationCurve
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, c, back)
}

func TestDurationCurveSummary(t *testing.T) {
	s, ok := DurationCurve{Point(10), {}, Point(4), Point(7)}.Summary()
	require.True(t, ok)
	assert.Equal(t, CurveSummary{Min: 4, Max: 10, Mean: 7, Valid: 3}, s)

	_, ok = DurationCurve{{}, {}}.Summary()
	assert.False(t, ok)
}

package cycle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossing-simulator/internal/signal"
)

func referenceSnapshot() signal.Snapshot {
	return signal.Snapshot{
		JunctionID: "main-st",
		Cycle:      signal.Cycle{Duration: 90, Offset: 0},
		Crossings: []signal.Crossing{
			{ID: "x", Name: "north", WalkTime: signal.Sec(5)},
			{ID: "y", Name: "east"},
			{ID: "z", Name: "south", WalkTime: signal.Sec(7)},
		},
		Transitions: []signal.Transition{
			tr("x", signal.Green, 10), tr("x", signal.Green, 100), tr("x", signal.Green, 190),
			tr("x", signal.Red, 50), tr("x", signal.Red, 140),
			tr("y", signal.Green, 20), tr("y", signal.Red, 70),
			tr("z", signal.Green, 30),
		},
		JourneyText: "0\n0 1\n# comment\n0 2\n0 9\n",
	}
}

func TestAnalyze(t *testing.T) {
	r, err := Analyze(referenceSnapshot())
	require.NoError(t, err)

	require.NotEmpty(t, r.Suggestions)
	assert.Equal(t, signal.Suggestion{Duration: 90, ConflictCount: 0}, r.Suggestions[0])

	require.Len(t, r.Crossings, 3)
	x := r.Crossings[0]
	assert.Equal(t, referenceSegments, x.Segments)
	assert.Equal(t, 50, x.WaitCurve[50])
	assert.NotNil(t, r.Crossings[1].Segments)
	assert.Nil(t, r.Crossings[2].Segments, "z has no red observation")
	assert.Nil(t, r.Crossings[2].WaitCurve)

	require.Len(t, r.Journeys, 3)
	require.Len(t, r.JourneyErrors, 1)

	only := r.Journeys[0]
	require.Len(t, only.Curve, 91)
	assert.Equal(t, signal.Point(55), only.Curve[50])
	require.NotNil(t, only.Summary)
	assert.Equal(t, 5, only.Summary.Min)
	assert.Equal(t, 55, only.Summary.Max)

	// y has no walk time, z has no timeline.
	for _, j := range r.Journeys[1:] {
		assert.Nil(t, j.Summary)
		for _, p := range j.Curve {
			assert.False(t, p.Valid)
		}
	}
}

func TestAnalyze_InvalidCycle(t *testing.T) {
	s := referenceSnapshot()
	s.Cycle.Duration = 0
	_, err := Analyze(s)
	assert.Error(t, err)
}

func TestAnalyze_FoldOffsetDoesNotShiftDisplay(t *testing.T) {
	s := referenceSnapshot()
	for i := range s.Transitions {
		s.Transitions[i].At += 1000
	}
	s.FoldOffset = 1000
	r, err := Analyze(s)
	require.NoError(t, err)
	assert.Equal(t, referenceSegments, r.Crossings[0].Segments)

	s.Cycle.Offset = 30
	shifted, err := Analyze(s)
	require.NoError(t, err)
	assert.Equal(t, r.Crossings[0].WaitCurve, shifted.Crossings[0].WaitCurve)
	assert.NotEqual(t, r.Crossings[0].Projected, shifted.Crossings[0].Projected)
}

func TestReport_JSONEncodesMissingPointsAsNull(t *testing.T) {
	r, err := Analyze(referenceSnapshot())
	require.NoError(t, err)
	b, err := json.Marshal(r.Journeys[1].Curve[:2])
	require.NoError(t, err)
	assert.JSONEq(t, `[null,null]`, string(b))
}

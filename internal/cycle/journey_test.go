package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossing-simulator/internal/signal"
)

func referenceWaits() map[signal.CrossingID]signal.WaitCurve {
	return map[signal.CrossingID]signal.WaitCurve{"x": BuildWaitCurve(referenceSegments, 90)}
}

func TestSimulateJourney_SingleCrossing(t *testing.T) {
	waits := referenceWaits()
	walks := map[signal.CrossingID]int{"x": 5}
	curve := SimulateJourney(signal.Journey{"x"}, waits, walks, 90)
	require.Len(t, curve, 90)
	assert.Equal(t, signal.Point(55), curve[50])
	assert.Equal(t, signal.Point(5), curve[10])
	for i, p := range curve {
		assert.Equal(t, signal.Point(waits["x"][i]+5), p, "start %d", i)
	}
}

func TestSimulateJourney_ChainsArrivals(t *testing.T) {
	waits := map[signal.CrossingID]signal.WaitCurve{
		"x": BuildWaitCurve(referenceSegments, 90),
		// y is red for [0, 30) and green for [30, 90).
		"y": BuildWaitCurve([]signal.Segment{{Offset: 30, Duration: 60, Color: signal.Green}, {Offset: 0, Duration: 30, Color: signal.Red}}, 90),
	}
	walks := map[signal.CrossingID]int{"x": 5, "y": 8}
	curve := SimulateJourney(signal.Journey{"x", "y"}, waits, walks, 90)

	// start 10: x green, arrive y at 15 (wait 15), walk 8 -> 5+15+8.
	assert.Equal(t, signal.Point(28), curve[10])
	// start 80: wait 20 on x, walk 5, reach y at 105 mod 90 = 15.
	assert.Equal(t, signal.Point(20+5+15+8), curve[80])
	// start 40: x green, y reached at 45 which is green.
	assert.Equal(t, signal.Point(13), curve[40])
}

func TestSimulateJourney_RepeatedCrossing(t *testing.T) {
	waits := referenceWaits()
	walks := map[signal.CrossingID]int{"x": 5}
	curve := SimulateJourney(signal.Journey{"x", "x"}, waits, walks, 90)
	// start 45: x green, walk 5, arrive at 50 which is first red second.
	assert.Equal(t, signal.Point(5+50+5), curve[45])
}

func TestSimulateJourney_MissingDataInvalidatesEveryPoint(t *testing.T) {
	waits := referenceWaits()
	noWalk := SimulateJourney(signal.Journey{"x"}, waits, map[signal.CrossingID]int{}, 90)
	noWait := SimulateJourney(signal.Journey{"x", "z"}, waits, map[signal.CrossingID]int{"x": 5, "z": 3}, 90)
	for i := range noWalk {
		assert.False(t, noWalk[i].Valid)
		assert.False(t, noWait[i].Valid)
	}
}

func TestSimulateJourneyClosed(t *testing.T) {
	waits := referenceWaits()
	walks := map[signal.CrossingID]int{"x": 5}
	curve := SimulateJourneyClosed(signal.Journey{"x"}, waits, walks, 90)
	require.Len(t, curve, 91)
	assert.Equal(t, curve[0], curve[90])
	assert.Equal(t, signal.Point(15), curve[90])
}

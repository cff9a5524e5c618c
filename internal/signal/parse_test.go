package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJourneys(t *testing.T) {
	text := "0 1 2\n\n2,0\n1 -> 3 # to the island\n# header\n  3  \n"
	got, errs := ParseJourneys(text, 4)
	assert.Empty(t, errs)
	assert.Equal(t, [][]int{{0, 1, 2}, {2, 0}, {1, 3}, {3}}, got)
}

func TestParseJourneys_ExcludesInvalidLines(t *testing.T) {
	got, errs := ParseJourneys("0 1\n0 4\nx 1\n-1\n1 1", 4)
	assert.Equal(t, [][]int{{0, 1}, {1, 1}}, got)
	require.Len(t, errs, 3)

	var je *JourneyError
	require.True(t, errors.As(errs[0], &je))
	assert.Equal(t, 2, je.Line)
	assert.Equal(t, "0 4", je.Text)
	require.True(t, errors.As(errs[1], &je))
	assert.Equal(t, 3, je.Line)
	require.True(t, errors.As(errs[2], &je))
	assert.Equal(t, 4, je.Line)
}

func TestParseJourneys_NegativeIndexIsOutOfRange(t *testing.T) {
	got, errs := ParseJourneys("0 -1\n-2\n1 - 5\n0->2\n2 -> 1", 3)
	assert.Equal(t, [][]int{{0, 2}, {2, 1}}, got)
	require.Len(t, errs, 3)

	lines := make([]int, len(errs))
	for i, err := range errs {
		var je *JourneyError
		require.True(t, errors.As(err, &je))
		lines[i] = je.Line
	}
	assert.Equal(t, []int{1, 2, 3}, lines)
	assert.Contains(t, errs[0].Error(), "crossing index -1 out of range")
}

func TestParseJourneys_NoCrossings(t *testing.T) {
	got, errs := ParseJourneys("0", 0)
	assert.Empty(t, got)
	assert.Len(t, errs, 1)
}

func TestResolveJourney(t *testing.T) {
	crossings := []Crossing{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, Journey{"b", "a", "b"}, ResolveJourney([]int{1, 0, 1}, crossings))
}

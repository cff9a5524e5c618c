package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossing-simulator/internal/signal"
)

func TestBuildWaitCurve_ReferenceCrossing(t *testing.T) {
	wc := BuildWaitCurve(referenceSegments, 90)
	require.Len(t, wc, 90)
	assert.Equal(t, 50, wc[50])
	assert.Equal(t, 11, wc[89])
	assert.Equal(t, 10, wc[0])
	assert.Equal(t, 1, wc[9])
	assert.Equal(t, 0, wc[10])
}

func TestBuildWaitCurve_Properties(t *testing.T) {
	const d = 60
	segs, ok := CanonicalSegments(signal.Representative{Green: signal.Sec(45), Red: signal.Sec(5)}, d)
	require.True(t, ok)
	wc := BuildWaitCurve(segs, d)

	green, red := segs[0], segs[1]
	for k := 0; k < green.Duration; k++ {
		assert.Equal(t, 0, wc[Wrap(green.Offset+k, d)])
	}
	for k := 1; k < red.Duration; k++ {
		prev := wc[Wrap(red.Offset+k-1, d)]
		assert.Equal(t, prev-1, wc[Wrap(red.Offset+k, d)])
	}
	assert.Equal(t, 1, wc[Wrap(red.End()-1, d)])
	for _, v := range wc {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, d)
	}
}

func TestBuildWaitCurve_NoSegmentsIsAllGreen(t *testing.T) {
	assert.Equal(t, signal.WaitCurve{0, 0, 0}, BuildWaitCurve(nil, 3))
}

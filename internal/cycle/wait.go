package cycle

import "crossing-simulator/internal/signal"

// BuildWaitCurve returns, for each second of the cycle, the seconds left until
// the crossing turns green. Green seconds are 0; a red segment of length L
// counts down from L at its first second to 1 at its last.
func BuildWaitCurve(segments []signal.Segment, duration int) signal.WaitCurve {
	curve := make(signal.WaitCurve, duration)
	for _, s := range segments {
		if s.Color != signal.Red {
			continue
		}
		for k := 0; k < s.Duration; k++ {
			curve[Wrap(s.Offset+k, duration)] = s.Duration - k
		}
	}
	return curve
}

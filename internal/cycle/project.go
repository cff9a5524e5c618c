package cycle

import (
	"sort"

	"crossing-simulator/internal/signal"
)

// Project re-expresses canonical segments in a display window that starts at
// display.Offset. Segments crossing second 0 of the window are split in two.
// The result is for rendering only.
func Project(segments []signal.Segment, display signal.Cycle) []signal.Segment {
	n := display.Duration
	out := make([]signal.Segment, 0, len(segments)+1)
	for _, s := range segments {
		if s.Duration <= 0 {
			continue
		}
		start := Wrap(s.Offset-display.Offset, n)
		if start+s.Duration <= n {
			out = append(out, signal.Segment{Offset: start, Duration: s.Duration, Color: s.Color})
			continue
		}
		tail := n - start
		out = append(out,
			signal.Segment{Offset: start, Duration: tail, Color: s.Color},
			signal.Segment{Offset: 0, Duration: s.Duration - tail, Color: s.Color},
		)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

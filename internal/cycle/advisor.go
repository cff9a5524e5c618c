package cycle

import (
	"sort"

	"crossing-simulator/internal/signal"
)

type eventKey struct {
	crossing signal.CrossingID
	color    signal.Color
}

// groupTransitions buckets timestamps by (crossing, color), keeping the order in
// which groups are first seen.
func groupTransitions(transitions []signal.Transition) [][]int {
	index := make(map[eventKey]int)
	var groups [][]int
	for _, t := range transitions {
		k := eventKey{t.Crossing, t.Color}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t.At)
	}
	return groups
}

// SuggestDurations proposes cycle lengths taken from the gaps between repeated
// observations of the same event, ranked by ConflictCount. Ties keep discovery
// order.
func SuggestDurations(transitions []signal.Transition) []signal.Suggestion {
	groups := groupTransitions(transitions)
	for _, g := range groups {
		sort.Ints(g)
	}

	seen := make(map[int]bool)
	var candidates []int
	for _, g := range groups {
		for i := 1; i < len(g); i++ {
			d := g[i] - g[i-1]
			if d <= 0 || seen[d] {
				continue
			}
			seen[d] = true
			candidates = append(candidates, d)
		}
	}

	out := make([]signal.Suggestion, len(candidates))
	for i, d := range candidates {
		out[i] = signal.Suggestion{Duration: d, ConflictCount: conflicts(groups, d)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ConflictCount < out[j].ConflictCount })
	return out
}

// ConflictCount sums, over every (crossing, color) group, the number of
// distinct folded timestamps minus one. Zero means every repeated observation
// lines up under the given duration.
func ConflictCount(transitions []signal.Transition, duration int) int {
	return conflicts(groupTransitions(transitions), duration)
}

func conflicts(groups [][]int, duration int) int {
	total := 0
	for _, g := range groups {
		folded := make(map[int]struct{}, len(g))
		for _, at := range g {
			folded[Wrap(at, duration)] = struct{}{}
		}
		total += len(folded) - 1
	}
	return total
}

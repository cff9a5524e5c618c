package cycle

import "crossing-simulator/internal/signal"

// CanonicalSegments builds the repeating timeline of one crossing from its
// green and red representatives, both already folded into [0, duration).
// It returns false when either representative is missing.
func CanonicalSegments(rep signal.Representative, duration int) ([]signal.Segment, bool) {
	if rep.Green == nil || rep.Red == nil {
		return nil, false
	}
	g, r := *rep.Green, *rep.Red
	return []signal.Segment{
		{Offset: g, Duration: Wrap(r-g, duration), Color: signal.Green},
		{Offset: r, Duration: Wrap(g-r, duration), Color: signal.Red},
	}, true
}

// ResolveRepresentatives fills in the representative of every crossing event
// that has no explicit choice, using the most frequent folded timestamp among
// its transitions. Ties go to the value seen first. foldOffset is the recording
// second treated as the canonical zero.
func ResolveRepresentatives(crossings []signal.Crossing, transitions []signal.Transition, duration, foldOffset int) map[signal.CrossingID]signal.Representative {
	votes := make(map[eventKey]*plurality)
	for _, t := range transitions {
		k := eventKey{t.Crossing, t.Color}
		p := votes[k]
		if p == nil {
			p = &plurality{counts: make(map[int]int)}
			votes[k] = p
		}
		p.add(Wrap(t.At-foldOffset, duration))
	}

	out := make(map[signal.CrossingID]signal.Representative, len(crossings))
	for _, c := range crossings {
		rep := signal.Representative{}
		if c.Chosen.Green != nil {
			rep.Green = signal.Sec(Wrap(*c.Chosen.Green, duration))
		} else if p := votes[eventKey{c.ID, signal.Green}]; p != nil {
			rep.Green = signal.Sec(p.winner())
		}
		if c.Chosen.Red != nil {
			rep.Red = signal.Sec(Wrap(*c.Chosen.Red, duration))
		} else if p := votes[eventKey{c.ID, signal.Red}]; p != nil {
			rep.Red = signal.Sec(p.winner())
		}
		out[c.ID] = rep
	}
	return out
}

type plurality struct {
	order  []int
	counts map[int]int
}

func (p *plurality) add(v int) {
	if _, ok := p.counts[v]; !ok {
		p.order = append(p.order, v)
	}
	p.counts[v]++
}

func (p *plurality) winner() int {
	best := p.order[0]
	for _, v := range p.order[1:] {
		if p.counts[v] > p.counts[best] {
			best = v
		}
	}
	return best
}

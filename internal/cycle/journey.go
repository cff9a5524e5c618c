package cycle

import "crossing-simulator/internal/signal"

// SimulateJourney computes the total journey time for every start second in
// [0, duration). Crossings are assumed adjacent: only waiting and walking take
// time. A point is invalid when any crossing lacks a wait curve or walk time.
func SimulateJourney(j signal.Journey, waits map[signal.CrossingID]signal.WaitCurve, walks map[signal.CrossingID]int, duration int) signal.DurationCurve {
	return simulate(j, waits, walks, duration, duration)
}

// SimulateJourneyClosed samples the closed interval [0, duration], giving
// duration+1 points for charting.
func SimulateJourneyClosed(j signal.Journey, waits map[signal.CrossingID]signal.WaitCurve, walks map[signal.CrossingID]int, duration int) signal.DurationCurve {
	return simulate(j, waits, walks, duration, duration+1)
}

func simulate(j signal.Journey, waits map[signal.CrossingID]signal.WaitCurve, walks map[signal.CrossingID]int, duration, points int) signal.DurationCurve {
	curve := make(signal.DurationCurve, points)
	for t := range curve {
		curve[t] = journeyFrom(t, j, waits, walks, duration)
	}
	return curve
}

func journeyFrom(t int, j signal.Journey, waits map[signal.CrossingID]signal.WaitCurve, walks map[signal.CrossingID]int, duration int) signal.CurvePoint {
	acc := 0
	for _, id := range j {
		wc, ok := waits[id]
		if !ok || len(wc) != duration {
			return signal.CurvePoint{}
		}
		walk, ok := walks[id]
		if !ok {
			return signal.CurvePoint{}
		}
		acc += wc[Wrap(t+acc, duration)] + walk
	}
	return signal.Point(acc)
}

package cycle

import (
	"fmt"

	"crossing-simulator/internal/signal"
)

type CrossingReport struct {
	ID             signal.CrossingID     `json:"id"`
	Name           string                `json:"name"`
	Representative signal.Representative `json:"representative"`
	// Segments and Projected are nil when the crossing has insufficient data.
	Segments  []signal.Segment `json:"segments"`
	Projected []signal.Segment `json:"projected"`
	WaitCurve signal.WaitCurve `json:"waitCurve,omitempty"`
	WalkTime  *int             `json:"walkTime,omitempty"`
}

type JourneyReport struct {
	Indices   []int                `json:"indices"`
	Crossings signal.Journey       `json:"crossings"`
	Curve     signal.DurationCurve `json:"curve"`
	Summary   *signal.CurveSummary `json:"summary,omitempty"`
}

type Report struct {
	JunctionID  string              `json:"junctionId"`
	Cycle       signal.Cycle        `json:"cycle"`
	Suggestions []signal.Suggestion `json:"suggestions"`
	Crossings   []CrossingReport    `json:"crossings"`
	Journeys    []JourneyReport     `json:"journeys"`
	// JourneyErrors lists journey lines that were excluded.
	JourneyErrors []string `json:"journeyErrors,omitempty"`
}

// Analyze runs the whole pipeline over a snapshot. Only an invalid cycle is an
// error; missing data shows up as absent segments and invalid curve points.
func Analyze(s signal.Snapshot) (*Report, error) {
	if err := s.Cycle.Validate(); err != nil {
		return nil, fmt.Errorf("junction %s: %w", s.JunctionID, err)
	}
	d := s.Cycle.Duration

	r := &Report{
		JunctionID:  s.JunctionID,
		Cycle:       s.Cycle,
		Suggestions: SuggestDurations(s.Transitions),
		Crossings:   make([]CrossingReport, 0, len(s.Crossings)),
	}

	reps := ResolveRepresentatives(s.Crossings, s.Transitions, d, s.FoldOffset)
	waits := make(map[signal.CrossingID]signal.WaitCurve, len(s.Crossings))
	walks := make(map[signal.CrossingID]int, len(s.Crossings))
	for _, c := range s.Crossings {
		cr := CrossingReport{ID: c.ID, Name: c.Name, Representative: reps[c.ID], WalkTime: c.WalkTime}
		if segs, ok := CanonicalSegments(reps[c.ID], d); ok {
			cr.Segments = segs
			cr.Projected = Project(segs, s.Cycle)
			cr.WaitCurve = BuildWaitCurve(segs, d)
			waits[c.ID] = cr.WaitCurve
		}
		if c.WalkTime != nil {
			walks[c.ID] = *c.WalkTime
		}
		r.Crossings = append(r.Crossings, cr)
	}

	indices, errs := signal.ParseJourneys(s.JourneyText, len(s.Crossings))
	for _, err := range errs {
		r.JourneyErrors = append(r.JourneyErrors, err.Error())
	}
	r.Journeys = make([]JourneyReport, 0, len(indices))
	for _, idx := range indices {
		j := signal.ResolveJourney(idx, s.Crossings)
		jr := JourneyReport{Indices: idx, Crossings: j, Curve: SimulateJourneyClosed(j, waits, walks, d)}
		if sum, ok := jr.Curve.Summary(); ok {
			jr.Summary = &sum
		}
		r.Journeys = append(r.Journeys, jr)
	}
	return r, nil
}

package signal

import (
	"encoding/json"
	"fmt"
)

type CrossingID string

type Color string

const (
	Green Color = "green"
	Red   Color = "red"
)

func ParseColor(s string) (Color, error) {
	switch Color(s) {
	case Green, Red:
		return Color(s), nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// Transition is one observed change of a crossing's signal. At is an absolute
// second within a single recording.
type Transition struct {
	Crossing CrossingID `json:"crossing"`
	Color    Color      `json:"color"`
	At       int        `json:"at"`
}

// Cycle is the repeating signal period. Offset only positions a timeline for
// display and never changes wait times.
type Cycle struct {
	Duration int `json:"duration"`
	Offset   int `json:"offset"`
}

func (c Cycle) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("cycle duration must be positive, got %d", c.Duration)
	}
	return nil
}

type Segment struct {
	Offset   int   `json:"offset"`
	Duration int   `json:"duration"`
	Color    Color `json:"color"`
}

// End is the exclusive end of the segment, which may exceed the cycle length
// when the segment wraps.
func (s Segment) End() int { return s.Offset + s.Duration }

// Representative holds at most one folded second per event for a crossing.
// A nil field means the event has not been resolved.
type Representative struct {
	Green *int `json:"green,omitempty"`
	Red   *int `json:"red,omitempty"`
}

// Sec returns a pointer to s, for building Representatives.
func Sec(s int) *int { return &s }

// WaitCurve maps an arrival second within the cycle to the seconds left until
// green.
type WaitCurve []int

type Journey []CrossingID

type Suggestion struct {
	Duration      int `json:"duration"`
	ConflictCount int `json:"conflictCount"`
}

// CurvePoint is one sample of a DurationCurve. Valid is false when some input
// needed for that start second was missing.
type CurvePoint struct {
	Seconds int
	Valid   bool
}

func Point(seconds int) CurvePoint { return CurvePoint{Seconds: seconds, Valid: true} }

func (p CurvePoint) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Seconds)
}

func (p *CurvePoint) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = CurvePoint{}
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Point(v)
	return nil
}

// DurationCurve maps a journey start second to the total journey time.
type DurationCurve []CurvePoint

type CurveSummary struct {
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Mean  float64 `json:"mean"`
	Valid int     `json:"valid"`
}

// Summary aggregates the valid points of the curve. ok is false when the curve
// has no valid point.
func (c DurationCurve) Summary() (s CurveSummary, ok bool) {
	total := 0
	for _, p := range c {
		if !p.Valid {
			continue
		}
		if s.Valid == 0 || p.Seconds < s.Min {
			s.Min = p.Seconds
		}
		if s.Valid == 0 || p.Seconds > s.Max {
			s.Max = p.Seconds
		}
		total += p.Seconds
		s.Valid++
	}
	if s.Valid == 0 {
		return CurveSummary{}, false
	}
	s.Mean = float64(total) / float64(s.Valid)
	return s, true
}

// Crossing is one configured crossing of a junction, in display order.
type Crossing struct {
	ID   CrossingID `json:"id"`
	Name string     `json:"name"`
	// WalkTime is nil when no walk time has been configured.
	WalkTime *int           `json:"walkTime,omitempty"`
	Chosen   Representative `json:"chosen"`
}

// Snapshot is an immutable view of everything recorded for one junction.
type Snapshot struct {
	JunctionID  string
	Name        string
	Cycle       Cycle
	FoldOffset  int // folds raw transition seconds into the canonical cycle
	Crossings   []Crossing
	Transitions []Transition
	JourneyText string
}

package signal

import (
	"fmt"
	"strconv"
	"strings"
)

// JourneyError describes a journey line that was excluded.
type JourneyError struct {
	Line int
	Text string
	Err  error
}

func (e *JourneyError) Error() string {
	return fmt.Sprintf("journey line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *JourneyError) Unwrap() error { return e.Err }

// ParseJourneys reads one journey per line as 0-based crossing indices
// separated by spaces, commas or "->". Blank lines and '#' comments are
// skipped. Lines with an unparsable or out-of-range index are left out of the
// result and reported in errs.
func ParseJourneys(text string, crossingCount int) (journeys [][]int, errs []error) {
	for i, raw := range strings.Split(text, "\n") {
		line := raw
		if j := strings.IndexByte(line, '#'); j >= 0 {
			line = line[:j]
		}
		// "->" is an arrow between indices; a bare '-' stays on its token so
		// negative indices fail the range check.
		line = strings.ReplaceAll(line, "->", " ")
		fields := strings.FieldsFunc(line, func(r rune) bool {
			switch r {
			case ' ', '\t', '\r', ',':
				return true
			}
			return false
		})
		if len(fields) == 0 {
			continue
		}
		idx := make([]int, 0, len(fields))
		var lineErr error
		for _, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				lineErr = fmt.Errorf("invalid crossing index %q", f)
				break
			}
			if n < 0 || n >= crossingCount {
				lineErr = fmt.Errorf("crossing index %d out of range [0,%d)", n, crossingCount)
				break
			}
			idx = append(idx, n)
		}
		if lineErr != nil {
			errs = append(errs, &JourneyError{Line: i + 1, Text: strings.TrimSpace(raw), Err: lineErr})
			continue
		}
		journeys = append(journeys, idx)
	}
	return journeys, errs
}

// ResolveJourney maps crossing indices onto the crossing list.
func ResolveJourney(indices []int, crossings []Crossing) Journey {
	j := make(Journey, len(indices))
	for i, n := range indices {
		j[i] = crossings[n].ID
	}
	return j
}

package recognition

import "math"

// Candidate is one enrolled employee's reference descriptor as seen by
// the matcher.
type Candidate struct {
	EmployeeID string
	Name       string
	Descriptor []float32
}

// MatchResult is the transient outcome of matching one live descriptor.
// Confidence is 1 - Distance and is not clamped; distances above 1 yield
// negative confidence.
type MatchResult struct {
	EmployeeID string
	Name       string
	Distance   float64
	Confidence float64
}

// Matcher performs nearest-neighbour matching of live descriptors against
// enrolled reference descriptors. The scan is linear: enrolled sets are
// tens to low thousands, so an index would not pay for itself. An ANN
// index can replace this behind the same contract if that changes.
type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Match returns the closest candidate within the threshold, or nil when
// no candidate qualifies. Candidates whose descriptor length differs from
// the live descriptor are skipped. Ties on distance break toward the
// smaller employee id, so the result never depends on candidate order.
func (m *Matcher) Match(live []float32, candidates []Candidate) *MatchResult {
	if len(live) == 0 || len(candidates) == 0 {
		return nil
	}

	var best *Candidate
	bestDist := math.Inf(1)

	for i := range candidates {
		c := &candidates[i]
		if len(c.Descriptor) != len(live) {
			continue
		}
		d := euclideanDistance(live, c.Descriptor)
		if d < bestDist || (d == bestDist && best != nil && c.EmployeeID < best.EmployeeID) {
			best = c
			bestDist = d
		}
	}

	if best == nil || bestDist > m.threshold {
		return nil
	}

	return &MatchResult{
		EmployeeID: best.EmployeeID,
		Name:       best.Name,
		Distance:   bestDist,
		Confidence: 1 - bestDist,
	}
}

func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

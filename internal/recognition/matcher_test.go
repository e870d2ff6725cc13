package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNearestWithinThreshold(t *testing.T) {
	m := NewMatcher(0.6)
	candidates := []Candidate{
		{EmployeeID: "emp-1", Name: "Alice", Descriptor: []float32{0, 0, 0}},
		{EmployeeID: "emp-2", Name: "Bob", Descriptor: []float32{1, 0, 0}},
	}

	result := m.Match([]float32{0.9, 0, 0}, candidates)
	require.NotNil(t, result)
	assert.Equal(t, "emp-2", result.EmployeeID)
	assert.Equal(t, "Bob", result.Name)
	assert.InDelta(t, 0.1, result.Distance, 1e-9)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
}

func TestMatchRejectsBeyondThreshold(t *testing.T) {
	m := NewMatcher(0.6)
	candidates := []Candidate{
		{EmployeeID: "emp-1", Descriptor: []float32{0, 0, 0}},
	}

	assert.Nil(t, m.Match([]float32{0.7, 0, 0}, candidates))

	// Exactly at the threshold still matches.
	result := m.Match([]float32{0.6, 0, 0}, candidates)
	require.NotNil(t, result)
	assert.InDelta(t, 0.6, result.Distance, 1e-9)
}

func TestMatchSkipsDimensionMismatch(t *testing.T) {
	m := NewMatcher(0.6)
	candidates := []Candidate{
		{EmployeeID: "emp-1", Descriptor: []float32{0, 0}},
		{EmployeeID: "emp-2", Descriptor: []float32{0.1, 0, 0}},
	}

	result := m.Match([]float32{0, 0, 0}, candidates)
	require.NotNil(t, result)
	assert.Equal(t, "emp-2", result.EmployeeID)

	// All candidates mismatched: no result.
	assert.Nil(t, m.Match([]float32{0, 0, 0, 0}, candidates))
}

func TestMatchTieBreaksOnEmployeeID(t *testing.T) {
	m := NewMatcher(0.6)
	live := []float32{0, 0, 0}
	a := Candidate{EmployeeID: "emp-1", Descriptor: []float32{0.3, 0, 0}}
	b := Candidate{EmployeeID: "emp-2", Descriptor: []float32{0, 0.3, 0}}

	for _, candidates := range [][]Candidate{{a, b}, {b, a}} {
		result := m.Match(live, candidates)
		require.NotNil(t, result)
		assert.Equal(t, "emp-1", result.EmployeeID)
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	m := NewMatcher(0.6)
	assert.Nil(t, m.Match(nil, []Candidate{{EmployeeID: "emp-1", Descriptor: []float32{0}}}))
	assert.Nil(t, m.Match([]float32{0}, nil))
}

func TestMatchConfidenceUnclamped(t *testing.T) {
	m := NewMatcher(2.0)
	candidates := []Candidate{
		{EmployeeID: "emp-1", Descriptor: []float32{0, 0, 0}},
	}

	result := m.Match([]float32{1.5, 0, 0}, candidates)
	require.NotNil(t, result)
	assert.InDelta(t, -0.5, result.Confidence, 1e-9)
}

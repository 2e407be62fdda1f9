// Package markov models next-day flavor transitions,
// P(flavor tomorrow | flavor today), built from exact consecutive-day
// pairs within each store's sequence.
package markov

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"fotd/domain/flavor"
)

// TransitionCounts is the N×N raw transition count matrix over the
// global sorted flavor vocabulary, with labels aligned to both axes.
type TransitionCounts struct {
	Labels []string
	index  map[string]int
	counts *mat.Dense
}

// TransitionMatrix is the row-normalized probability form of
// TransitionCounts. Rows with no observed transitions stay all-zero.
type TransitionMatrix struct {
	Labels []string
	index  map[string]int
	probs  *mat.Dense
}

// Transition is one ranked next-flavor probability.
type Transition struct {
	Flavor      string
	Probability float64
}

// SelfRate is one flavor's probability of repeating the next day.
type SelfRate struct {
	Flavor string
	Rate   float64
}

// BuildTransitionCounts counts (today, tomorrow) flavor pairs across all
// stores. A pair contributes only when the two observations are exactly
// one calendar day apart; gaps never count as transitions. The matrix is
// indexed by the sorted vocabulary of the whole dataset.
func BuildTransitionCounts(ds *flavor.Dataset) *TransitionCounts {
	labels := ds.Flavors()
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	// gonum rejects zero-sized matrices; the 1x1 placeholder is never
	// addressed because the label index is empty
	n := len(labels)
	counts := mat.NewDense(maxInt(n, 1), maxInt(n, 1), nil)

	for _, store := range ds.Stores() {
		seq := ds.Store(store)
		for i := 1; i < len(seq); i++ {
			if flavor.DaysBetween(seq[i-1].Date, seq[i].Date) != 1 {
				continue
			}
			from := index[seq[i-1].Title]
			to := index[seq[i].Title]
			counts.Set(from, to, counts.At(from, to)+1)
		}
	}

	return &TransitionCounts{Labels: labels, index: index, counts: counts}
}

// Count returns the raw transition count from one flavor to another,
// 0 for unknown flavors.
func (tc *TransitionCounts) Count(from, to string) int {
	i, okFrom := tc.index[from]
	j, okTo := tc.index[to]
	if !okFrom || !okTo {
		return 0
	}
	return int(tc.counts.At(i, j))
}

// Normalize row-normalizes the counts into probabilities. Zero row sums
// are replaced with 1 before dividing, so flavors without outgoing
// transitions keep an all-zero row instead of NaN.
func (tc *TransitionCounts) Normalize() *TransitionMatrix {
	n := len(tc.Labels)
	probs := mat.NewDense(maxInt(n, 1), maxInt(n, 1), nil)
	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			rowSum += tc.counts.At(i, j)
		}
		for j := 0; j < n; j++ {
			probs.Set(i, j, flavor.SafeDiv(tc.counts.At(i, j), rowSum))
		}
	}
	return &TransitionMatrix{Labels: tc.Labels, index: tc.index, probs: probs}
}

// NewTransitionMatrix builds the row-normalized transition matrix for a
// dataset in one step.
func NewTransitionMatrix(ds *flavor.Dataset) *TransitionMatrix {
	return BuildTransitionCounts(ds).Normalize()
}

// Prob returns P(to | from), 0 for unknown flavors.
func (tm *TransitionMatrix) Prob(from, to string) float64 {
	i, okFrom := tm.index[from]
	j, okTo := tm.index[to]
	if !okFrom || !okTo {
		return 0
	}
	return tm.probs.At(i, j)
}

// Row returns the next-day distribution for a flavor, aligned to Labels.
// The second return is false for an unknown flavor.
func (tm *TransitionMatrix) Row(from string) ([]float64, bool) {
	i, ok := tm.index[from]
	if !ok {
		return nil, false
	}
	row := make([]float64, len(tm.Labels))
	mat.Row(row, i, tm.probs)
	return row, true
}

// TopTransitions returns the n most likely next flavors after the given
// one, descending, excluding zero-probability entries. Unknown flavors
// yield an empty slice.
func (tm *TransitionMatrix) TopTransitions(from string, n int) []Transition {
	row, ok := tm.Row(from)
	if !ok {
		return []Transition{}
	}
	out := make([]Transition, 0, n)
	for j, p := range row {
		if p > 0 {
			out = append(out, Transition{Flavor: tm.Labels[j], Probability: p})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Flavor < out[j].Flavor
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// SelfTransitionRates returns the matrix diagonal — each flavor's
// probability of repeating the next day — sorted descending.
func (tm *TransitionMatrix) SelfTransitionRates() []SelfRate {
	out := make([]SelfRate, len(tm.Labels))
	for i, l := range tm.Labels {
		out[i] = SelfRate{Flavor: l, Rate: tm.probs.At(i, i)}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].Flavor < out[j].Flavor
	})
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package flavor

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Ranked is one entry of a probability ranking.
type Ranked struct {
	Title       string
	Probability float64
}

// Distribution is a probability distribution over a flavor vocabulary,
// keeping labels and values aligned. The zero value is an empty
// distribution.
type Distribution struct {
	labels []string
	probs  []float64
	index  map[string]int
}

// NewDistribution pairs labels with probabilities. Inputs are copied.
// Panics if lengths differ — that is a programming error, not a data
// condition.
func NewDistribution(labels []string, probs []float64) Distribution {
	if len(labels) != len(probs) {
		panic("flavor: distribution labels and probabilities differ in length")
	}
	d := Distribution{
		labels: append([]string(nil), labels...),
		probs:  append([]float64(nil), probs...),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range d.labels {
		d.index[l] = i
	}
	return d
}

// Len returns the vocabulary size.
func (d Distribution) Len() int { return len(d.labels) }

// Labels returns the vocabulary in construction order. Read-only.
func (d Distribution) Labels() []string { return d.labels }

// Probs returns the probability vector aligned to Labels. Read-only.
func (d Distribution) Probs() []float64 { return d.probs }

// Prob returns the probability assigned to a flavor, 0 when the flavor
// is not in the vocabulary.
func (d Distribution) Prob(title string) float64 {
	if i, ok := d.index[title]; ok {
		return d.probs[i]
	}
	return 0
}

// Sum returns the probability mass, 1.0 for a well-formed distribution.
func (d Distribution) Sum() float64 {
	return floats.Sum(d.probs)
}

// ArgMax returns the most probable flavor, breaking ties on the title so
// results are stable. Empty string for an empty distribution.
func (d Distribution) ArgMax() string {
	top := d.Top(1)
	if len(top) == 0 {
		return ""
	}
	return top[0].Title
}

// Top returns the n most probable flavors, descending, ties broken on
// title ascending. Returns fewer entries when the vocabulary is smaller
// than n.
func (d Distribution) Top(n int) []Ranked {
	ranked := make([]Ranked, len(d.labels))
	for i, l := range d.labels {
		ranked[i] = Ranked{Title: l, Probability: d.probs[i]}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Probability != ranked[j].Probability {
			return ranked[i].Probability > ranked[j].Probability
		}
		return ranked[i].Title < ranked[j].Title
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

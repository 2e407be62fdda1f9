// Package metrics implements the descriptive flavor intelligence
// metrics: frequency, recency, diversity and surprise. Every function
// takes the dataset view and returns freshly computed values; a store
// argument of "" means the whole dataset.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"fotd/domain/flavor"
)

// FlavorCount is one row of a frequency table.
type FlavorCount struct {
	Title string
	Count int
}

// FlavorShare is one row of a normalized frequency table.
type FlavorShare struct {
	Title       string
	Probability float64
}

// Recency reports how many days ago a flavor was last served.
type Recency struct {
	Title     string
	DaysSince int
}

// Overdue is a flavor whose current gap exceeds its historical rhythm.
type Overdue struct {
	Title     string
	DaysSince int
	AvgGap    float64
	Ratio     float64
}

// Summary bundles the per-store metrics into one read-only view.
type Summary struct {
	Store         string
	UniqueFlavors int
	TotalDays     int
	Entropy       float64
	Evenness      float64
	TopFlavors    []FlavorCount
	OverdueCount  int
}

// OverdueThreshold is the default gap-to-average ratio above which a
// flavor counts as overdue.
const OverdueThreshold = 1.5

func scoped(ds *flavor.Dataset, store string) []flavor.Observation {
	if store == "" {
		return ds.Rows()
	}
	return ds.Store(store)
}

// FlavorFrequency counts each flavor's appearances, globally or for one
// store, sorted by count descending then title. Counts sum to the number
// of qualifying observations.
func FlavorFrequency(ds *flavor.Dataset, store string) []FlavorCount {
	counts := make(map[string]int)
	for _, o := range scoped(ds, store) {
		counts[o.Title]++
	}
	out := make([]FlavorCount, 0, len(counts))
	for title, n := range counts {
		out = append(out, FlavorCount{Title: title, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// FlavorProbability is FlavorFrequency normalized to sum to 1.0. Zero
// observations yield an empty table.
func FlavorProbability(ds *flavor.Dataset, store string) []FlavorShare {
	freq := FlavorFrequency(ds, store)
	total := 0
	for _, f := range freq {
		total += f.Count
	}
	out := make([]FlavorShare, len(freq))
	for i, f := range freq {
		out[i] = FlavorShare{
			Title:       f.Title,
			Probability: flavor.SafeDiv(float64(f.Count), float64(total)),
		}
	}
	return out
}

// DaysSinceLast reports, for every flavor the store has served, the day
// gap between asOf and its most recent serving, sorted by gap descending.
// A zero asOf defaults to the dataset's max date. Flavors never served at
// the store are excluded.
func DaysSinceLast(ds *flavor.Dataset, store string, asOf time.Time) []Recency {
	if asOf.IsZero() {
		asOf = ds.MaxDate()
	}
	asOf = flavor.DateOnly(asOf)

	lastSeen := make(map[string]time.Time)
	for _, o := range ds.Store(store) {
		if o.Date.After(lastSeen[o.Title]) {
			lastSeen[o.Title] = o.Date
		}
	}

	out := make([]Recency, 0, len(lastSeen))
	for title, last := range lastSeen {
		out = append(out, Recency{Title: title, DaysSince: flavor.DaysBetween(last, asOf)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysSince != out[j].DaysSince {
			return out[i].DaysSince > out[j].DaysSince
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// averageGaps returns the mean day gap between consecutive servings per
// flavor at one store. Flavors with fewer than two servings have no gap
// and are absent from the result.
func averageGaps(ds *flavor.Dataset, store string) map[string]float64 {
	dates := make(map[string][]time.Time)
	for _, o := range ds.Store(store) { // already date-ordered
		dates[o.Title] = append(dates[o.Title], o.Date)
	}

	avg := make(map[string]float64)
	for title, ts := range dates {
		if len(ts) < 2 {
			continue
		}
		gaps := make([]float64, len(ts)-1)
		for i := 1; i < len(ts); i++ {
			gaps[i-1] = float64(flavor.DaysBetween(ts[i-1], ts[i]))
		}
		mean, err := stats.Mean(gaps)
		if err != nil {
			continue
		}
		avg[title] = mean
	}
	return avg
}

// OverdueFlavors lists flavors whose gap since their last serving is at
// least threshold times their historical average gap at the store,
// sorted by that ratio descending. Flavors with fewer than two prior
// servings, or a non-positive average gap, never qualify.
func OverdueFlavors(ds *flavor.Dataset, store string, threshold float64, asOf time.Time) []Overdue {
	recency := DaysSinceLast(ds, store, asOf)
	avg := averageGaps(ds, store)

	out := make([]Overdue, 0)
	for _, r := range recency {
		gap, ok := avg[r.Title]
		if !ok || gap <= 0 {
			continue
		}
		ratio := float64(r.DaysSince) / gap
		if ratio >= threshold {
			out = append(out, Overdue{
				Title:     r.Title,
				DaysSince: r.DaysSince,
				AvgGap:    gap,
				Ratio:     ratio,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ratio != out[j].Ratio {
			return out[i].Ratio > out[j].Ratio
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// ShannonEntropy returns the entropy H of the flavor distribution in
// bits. Higher means a more even rotation; the maximum is log2 of the
// flavor count.
func ShannonEntropy(ds *flavor.Dataset, store string) float64 {
	var h float64
	for _, s := range FlavorProbability(ds, store) {
		if s.Probability > 0 {
			h -= s.Probability * math.Log2(s.Probability)
		}
	}
	return h
}

// PielouEvenness normalizes entropy to [0, 1]. Defined as 0 when fewer
// than two flavors carry probability.
func PielouEvenness(ds *flavor.Dataset, store string) float64 {
	n := 0
	for _, s := range FlavorProbability(ds, store) {
		if s.Probability > 0 {
			n++
		}
	}
	if n <= 1 {
		return 0.0
	}
	return ShannonEntropy(ds, store) / math.Log2(float64(n))
}

// SurpriseScore is the pointwise surprise -log2(P(flavor|store)) in
// bits. Returns +Inf when the flavor has never appeared at the store;
// callers must treat that as the "never observed" sentinel, not an
// error.
func SurpriseScore(ds *flavor.Dataset, store, title string) float64 {
	var p float64
	for _, s := range FlavorProbability(ds, store) {
		if s.Title == title {
			p = s.Probability
			break
		}
	}
	if p <= 0 {
		return math.Inf(1)
	}
	return -math.Log2(p)
}

// StoreSummary aggregates the per-store metrics. It computes nothing new
// beyond the functions above. A zero asOf defaults to the dataset's max
// date.
func StoreSummary(ds *flavor.Dataset, store string, asOf time.Time) Summary {
	freq := FlavorFrequency(ds, store)
	top := freq
	if len(top) > 5 {
		top = top[:5]
	}
	return Summary{
		Store:         store,
		UniqueFlavors: len(freq),
		TotalDays:     len(ds.Store(store)),
		Entropy:       ShannonEntropy(ds, store),
		Evenness:      PielouEvenness(ds, store),
		TopFlavors:    top,
		OverdueCount:  len(OverdueFlavors(ds, store, OverdueThreshold, asOf)),
	}
}

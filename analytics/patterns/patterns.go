// Package patterns detects scheduling structure in flavor rotations:
// day-of-week bias, recurrence intervals and seasonal concentration.
package patterns

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"fotd/domain/flavor"
)

var dowNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// DowRow is one flavor's Monday-first day-of-week frequency profile.
type DowRow struct {
	Title  string
	Counts [7]int
}

// DowBias is a chi-squared test result for one flavor's day-of-week
// scheduling bias.
type DowBias struct {
	Title    string
	Chi2     float64
	PValue   float64
	PeakDow  int
	PeakName string
}

// IntervalStats summarizes the day gaps between consecutive servings of
// one flavor.
type IntervalStats struct {
	Title      string
	MeanGap    float64
	MedianGap  float64
	StdGap     float64
	MinGap     int
	MaxGap     int
	NIntervals int
}

// MonthRow is one flavor's January-first monthly frequency profile.
type MonthRow struct {
	Title  string
	Counts [12]int
}

// Seasonal flags a flavor whose appearances concentrate in a three-month
// window.
type Seasonal struct {
	Title         string
	PeakMonths    [3]string
	Concentration float64
	TotalCount    int
}

// DowFrequencyMatrix builds the flavor × day-of-week count matrix,
// rows sorted by title. All seven days are always present.
func DowFrequencyMatrix(ds *flavor.Dataset) []DowRow {
	byTitle := make(map[string]*DowRow)
	for _, o := range ds.Rows() {
		row, ok := byTitle[o.Title]
		if !ok {
			row = &DowRow{Title: o.Title}
			byTitle[o.Title] = row
		}
		row.Counts[flavor.DowIndex(o.Date)]++
	}
	out := make([]DowRow, 0, len(byTitle))
	for _, row := range byTitle {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// DowChiSquared tests, per flavor, the hypothesis that the flavor is
// equally likely on all seven days. Flavors with fewer than minCount
// appearances are skipped. Results are sorted by p-value ascending.
func DowChiSquared(ds *flavor.Dataset, minCount int) []DowBias {
	chi2dist := distuv.ChiSquared{K: 6}

	out := make([]DowBias, 0)
	for _, row := range DowFrequencyMatrix(ds) {
		total := 0
		for _, c := range row.Counts {
			total += c
		}
		if total < minCount {
			continue
		}

		expected := float64(total) / 7.0
		var chi2 float64
		peak := 0
		for d, c := range row.Counts {
			diff := float64(c) - expected
			chi2 += diff * diff / expected
			if c > row.Counts[peak] {
				peak = d
			}
		}

		out = append(out, DowBias{
			Title:    row.Title,
			Chi2:     chi2,
			PValue:   chi2dist.Survival(chi2),
			PeakDow:  peak,
			PeakName: dowNames[peak],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PValue != out[j].PValue {
			return out[i].PValue < out[j].PValue
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// RecurrenceIntervals summarizes repeat intervals per flavor: day gaps
// between consecutive servings of the same flavor at the same store,
// aggregated across stores unless scoped to one. Flavors with fewer than
// two servings anywhere in scope are absent. Sorted by mean gap
// ascending.
func RecurrenceIntervals(ds *flavor.Dataset, store string) []IntervalStats {
	gapsByTitle := make(map[string][]float64)
	stores := ds.Stores()
	if store != "" {
		stores = []string{store}
	}
	for _, slug := range stores {
		seq := ds.Store(slug)
		dates := make(map[string][]int) // title -> serving row indices, date order
		for i, o := range seq {
			dates[o.Title] = append(dates[o.Title], i)
		}
		for title, idx := range dates {
			for i := 1; i < len(idx); i++ {
				gap := flavor.DaysBetween(seq[idx[i-1]].Date, seq[idx[i]].Date)
				gapsByTitle[title] = append(gapsByTitle[title], float64(gap))
			}
		}
	}

	out := make([]IntervalStats, 0, len(gapsByTitle))
	for title, gaps := range gapsByTitle {
		if len(gaps) == 0 {
			continue
		}
		mean, _ := stats.Mean(gaps)
		median, _ := stats.Median(gaps)
		std, _ := stats.StandardDeviationPopulation(gaps)
		min, _ := stats.Min(gaps)
		max, _ := stats.Max(gaps)
		out = append(out, IntervalStats{
			Title:      title,
			MeanGap:    mean,
			MedianGap:  median,
			StdGap:     std,
			MinGap:     int(min),
			MaxGap:     int(max),
			NIntervals: len(gaps),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanGap != out[j].MeanGap {
			return out[i].MeanGap < out[j].MeanGap
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// SeasonalHeatmap builds the flavor × month count matrix, rows sorted by
// title. All twelve months are always present.
func SeasonalHeatmap(ds *flavor.Dataset) []MonthRow {
	byTitle := make(map[string]*MonthRow)
	for _, o := range ds.Rows() {
		row, ok := byTitle[o.Title]
		if !ok {
			row = &MonthRow{Title: o.Title}
			byTitle[o.Title] = row
		}
		row.Counts[int(o.Date.Month())-1]++
	}
	out := make([]MonthRow, 0, len(byTitle))
	for _, row := range byTitle {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// SeasonalFlavors identifies flavors whose appearances concentrate in a
// single three-month window (wrapping December into January). A flavor
// qualifies when it has at least 20 appearances and the best window
// holds at least the threshold share of them. Sorted by concentration
// descending.
func SeasonalFlavors(ds *flavor.Dataset, concentrationThreshold float64) []Seasonal {
	const minTotal = 20

	out := make([]Seasonal, 0)
	for _, row := range SeasonalHeatmap(ds) {
		total := 0
		for _, c := range row.Counts {
			total += c
		}
		if total < minTotal {
			continue
		}

		bestStart, bestSum := 0, 0
		for start := 0; start < 12; start++ {
			sum := 0
			for i := 0; i < 3; i++ {
				sum += row.Counts[(start+i)%12]
			}
			if sum > bestSum {
				bestSum, bestStart = sum, start
			}
		}

		concentration := float64(bestSum) / float64(total)
		if concentration >= concentrationThreshold {
			var peak [3]string
			for i := 0; i < 3; i++ {
				peak[i] = monthNames[(bestStart+i)%12]
			}
			out = append(out, Seasonal{
				Title:         row.Title,
				PeakMonths:    peak,
				Concentration: concentration,
				TotalCount:    total,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Concentration != out[j].Concentration {
			return out[i].Concentration > out[j].Concentration
		}
		return out[i].Title < out[j].Title
	})
	return out
}

package metrics

import (
	"math"
	"testing"
	"time"

	"fotd/domain/flavor"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustDataset(t *testing.T, obs []flavor.Observation) *flavor.Dataset {
	t.Helper()
	ds, err := flavor.NewDataset(obs)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}

// fixture: madison rotates two flavors, verona always serves Turtle
func fixture(t *testing.T) *flavor.Dataset {
	return mustDataset(t, []flavor.Observation{
		{Store: "madison", Date: day("2026-01-01"), Title: "Turtle"},
		{Store: "madison", Date: day("2026-01-02"), Title: "Mint Cookie"},
		{Store: "madison", Date: day("2026-01-03"), Title: "Turtle"},
		{Store: "madison", Date: day("2026-01-04"), Title: "Mint Cookie"},
		{Store: "verona", Date: day("2026-01-01"), Title: "Turtle"},
		{Store: "verona", Date: day("2026-01-02"), Title: "Turtle"},
	})
}

func TestFlavorFrequency(t *testing.T) {
	ds := fixture(t)

	t.Run("global counts sum to observation count", func(t *testing.T) {
		freq := FlavorFrequency(ds, "")
		total := 0
		for _, f := range freq {
			total += f.Count
		}
		if total != ds.Len() {
			t.Errorf("counts sum to %d, want %d", total, ds.Len())
		}
		if freq[0].Title != "Turtle" || freq[0].Count != 4 {
			t.Errorf("top flavor = %+v, want Turtle x4", freq[0])
		}
	})

	t.Run("store scoped", func(t *testing.T) {
		freq := FlavorFrequency(ds, "verona")
		if len(freq) != 1 || freq[0].Count != 2 {
			t.Errorf("verona frequency = %v", freq)
		}
	})

	t.Run("unknown store is empty", func(t *testing.T) {
		if got := FlavorFrequency(ds, "nowhere"); len(got) != 0 {
			t.Errorf("frequency for unknown store = %v", got)
		}
	})
}

func TestFlavorProbability(t *testing.T) {
	ds := fixture(t)

	var sum float64
	for _, s := range FlavorProbability(ds, "madison") {
		if s.Probability < 0 {
			t.Errorf("negative probability: %+v", s)
		}
		sum += s.Probability
	}
	if math.Abs(sum-1.0) > 1e-10 {
		t.Errorf("probabilities sum to %v", sum)
	}

	if got := FlavorProbability(ds, "nowhere"); len(got) != 0 {
		t.Errorf("probability for unknown store = %v", got)
	}
}

func TestDaysSinceLast(t *testing.T) {
	ds := fixture(t)

	recency := DaysSinceLast(ds, "madison", day("2026-01-10"))
	if len(recency) != 2 {
		t.Fatalf("recency rows = %d, want 2", len(recency))
	}
	// Turtle last on 01-03, Mint Cookie last on 01-04
	if recency[0].Title != "Turtle" || recency[0].DaysSince != 7 {
		t.Errorf("recency[0] = %+v, want Turtle 7", recency[0])
	}
	if recency[1].Title != "Mint Cookie" || recency[1].DaysSince != 6 {
		t.Errorf("recency[1] = %+v, want Mint Cookie 6", recency[1])
	}

	t.Run("zero asOf defaults to dataset max date", func(t *testing.T) {
		recency := DaysSinceLast(ds, "madison", time.Time{})
		for _, r := range recency {
			if r.Title == "Mint Cookie" && r.DaysSince != 0 {
				t.Errorf("Mint Cookie days since = %d, want 0", r.DaysSince)
			}
		}
	})
}

func TestOverdueFlavors(t *testing.T) {
	t.Run("flavor with a single serving never qualifies", func(t *testing.T) {
		ds := mustDataset(t, []flavor.Observation{
			{Store: "madison", Date: day("2026-01-01"), Title: "Mint Cookie"},
			{Store: "madison", Date: day("2026-01-02"), Title: "Turtle"},
			{Store: "madison", Date: day("2026-01-05"), Title: "Turtle"},
		})
		overdue := OverdueFlavors(ds, "madison", 1.5, day("2026-03-01"))
		for _, o := range overdue {
			if o.Title == "Mint Cookie" {
				t.Errorf("single-serving flavor qualified as overdue: %+v", o)
			}
		}
	})

	t.Run("ratio threshold", func(t *testing.T) {
		// Turtle every 3 days historically, then absent for 9 days: ratio 3.0
		ds := mustDataset(t, []flavor.Observation{
			{Store: "madison", Date: day("2026-01-01"), Title: "Turtle"},
			{Store: "madison", Date: day("2026-01-04"), Title: "Turtle"},
			{Store: "madison", Date: day("2026-01-07"), Title: "Turtle"},
		})
		overdue := OverdueFlavors(ds, "madison", 1.5, day("2026-01-16"))
		if len(overdue) != 1 {
			t.Fatalf("overdue = %v, want a single row", overdue)
		}
		o := overdue[0]
		if o.AvgGap != 3.0 || o.DaysSince != 9 || math.Abs(o.Ratio-3.0) > 1e-12 {
			t.Errorf("overdue row = %+v", o)
		}

		// Below threshold: nothing qualifies
		if got := OverdueFlavors(ds, "madison", 1.5, day("2026-01-08")); len(got) != 0 {
			t.Errorf("overdue below threshold = %v", got)
		}
	})

	t.Run("empty store yields empty table", func(t *testing.T) {
		ds := fixture(t)
		if got := OverdueFlavors(ds, "nowhere", 1.5, time.Time{}); len(got) != 0 {
			t.Errorf("overdue for unknown store = %v", got)
		}
	})
}

func TestDiversity(t *testing.T) {
	ds := fixture(t)

	t.Run("entropy bounds", func(t *testing.T) {
		h := ShannonEntropy(ds, "madison")
		if h < 0 || h > math.Log2(2)+1e-12 {
			t.Errorf("entropy = %v outside [0, log2(2)]", h)
		}
		// two equally likely flavors: exactly 1 bit
		if math.Abs(h-1.0) > 1e-10 {
			t.Errorf("entropy = %v, want 1.0", h)
		}
	})

	t.Run("entropy zero iff single flavor", func(t *testing.T) {
		if h := ShannonEntropy(ds, "verona"); h != 0 {
			t.Errorf("single-flavor entropy = %v, want 0", h)
		}
	})

	t.Run("evenness", func(t *testing.T) {
		if j := PielouEvenness(ds, "madison"); math.Abs(j-1.0) > 1e-10 {
			t.Errorf("evenness of even rotation = %v, want 1.0", j)
		}
		if j := PielouEvenness(ds, "verona"); j != 0.0 {
			t.Errorf("evenness with one flavor = %v, want 0", j)
		}
		if j := PielouEvenness(ds, "nowhere"); j != 0.0 {
			t.Errorf("evenness with no data = %v, want 0", j)
		}
	})
}

func TestSurpriseScore(t *testing.T) {
	ds := fixture(t)

	if s := SurpriseScore(ds, "madison", "Turtle"); math.Abs(s-1.0) > 1e-10 {
		t.Errorf("surprise of p=0.5 flavor = %v, want 1 bit", s)
	}
	if s := SurpriseScore(ds, "verona", "Mint Cookie"); !math.IsInf(s, 1) {
		t.Errorf("surprise of never-served flavor = %v, want +Inf", s)
	}
}

func TestStoreSummary(t *testing.T) {
	ds := fixture(t)

	s := StoreSummary(ds, "madison", time.Time{})
	if s.UniqueFlavors != 2 || s.TotalDays != 4 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.TopFlavors) != 2 {
		t.Errorf("top flavors = %v", s.TopFlavors)
	}

	empty := StoreSummary(ds, "nowhere", time.Time{})
	if empty.UniqueFlavors != 0 || empty.TotalDays != 0 || empty.Entropy != 0 {
		t.Errorf("summary for unknown store = %+v", empty)
	}
}

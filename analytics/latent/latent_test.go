package latent

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"fotd/domain/flavor"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// fixture: two mint-leaning stores and two turtle-leaning stores.
func fixtureDataset(t *testing.T) *flavor.Dataset {
	t.Helper()
	var obs []flavor.Observation
	add := func(store, title string, days ...int) {
		for _, d := range days {
			obs = append(obs, flavor.Observation{
				Store: store, Date: day("2026-01-01").AddDate(0, 0, d), Title: title,
			})
		}
	}
	add("madison", "Turtle", 0, 1, 2, 3)
	add("madison", "Mint Explosion", 4)
	add("verona", "Turtle", 0, 1, 2)
	add("verona", "Caramel Pecan", 3, 4)
	add("monona", "Mint Explosion", 0, 1, 2, 3)
	add("monona", "Turtle", 4)
	add("sunprairie", "Mint Explosion", 0, 1, 2)
	add("sunprairie", "Caramel Pecan", 3, 4)

	ds, err := flavor.NewDataset(obs)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}

func TestStoreFlavorMatrix(t *testing.T) {
	ds := fixtureDataset(t)

	t.Run("raw counts", func(t *testing.T) {
		m := StoreFlavorMatrix(ds, false)
		if m.Rows() != 4 || m.Cols() != 3 {
			t.Fatalf("dims = %d×%d", m.Rows(), m.Cols())
		}
		// rows and cols are sorted: madison row 0, Turtle col 2
		if got := m.At(0, 2); got != 4 {
			t.Errorf("madison Turtle count = %v, want 4", got)
		}
		var total float64
		for i := 0; i < m.Rows(); i++ {
			for j := 0; j < m.Cols(); j++ {
				total += m.At(i, j)
			}
		}
		if total != float64(ds.Len()) {
			t.Errorf("counts sum to %v, want %d", total, ds.Len())
		}
	})

	t.Run("normalized rows sum to one", func(t *testing.T) {
		m := StoreFlavorMatrix(ds, true)
		for i := 0; i < m.Rows(); i++ {
			var sum float64
			for _, v := range m.Row(i) {
				sum += v
			}
			if math.Abs(sum-1.0) > 1e-10 {
				t.Errorf("row %d sums to %v", i, sum)
			}
		}
	})

	t.Run("empty dataset", func(t *testing.T) {
		empty, err := flavor.NewDataset(nil)
		if err != nil {
			t.Fatal(err)
		}
		m := StoreFlavorMatrix(empty, true)
		if m.Rows() != 0 || m.Cols() != 0 || m.Data != nil {
			t.Errorf("empty matrix = %+v", m)
		}
	})
}

func TestNMFDecompose(t *testing.T) {
	m := StoreFlavorMatrix(fixtureDataset(t), true)
	w, h := NMFDecompose(m, 2)

	t.Run("shapes and labels", func(t *testing.T) {
		if w.Rows() != 4 || w.Cols() != 2 {
			t.Errorf("W dims = %d×%d", w.Rows(), w.Cols())
		}
		if h.Rows() != 2 || h.Cols() != 3 {
			t.Errorf("H dims = %d×%d", h.Rows(), h.Cols())
		}
		if w.ColLabels[0] != "factor_0" || h.RowLabels[1] != "factor_1" {
			t.Errorf("factor labels = %v / %v", w.ColLabels, h.RowLabels)
		}
	})

	t.Run("factors are non-negative", func(t *testing.T) {
		for _, lm := range []*LabeledMatrix{w, h} {
			for i := 0; i < lm.Rows(); i++ {
				for j := 0; j < lm.Cols(); j++ {
					if lm.At(i, j) < 0 {
						t.Fatalf("negative factor entry %v at (%d,%d)", lm.At(i, j), i, j)
					}
				}
			}
		}
	})

	t.Run("reconstruction approximates the input", func(t *testing.T) {
		var wh mat.Dense
		wh.Mul(w.Data, h.Data)
		var residual mat.Dense
		residual.Sub(&wh, m.Data)
		rel := mat.Norm(&residual, 2) / mat.Norm(m.Data, 2)
		if rel > 0.5 {
			t.Errorf("relative reconstruction error = %v", rel)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		w2, h2 := NMFDecompose(m, 2)
		if !mat.Equal(w.Data, w2.Data) || !mat.Equal(h.Data, h2.Data) {
			t.Error("repeated decompositions differ")
		}
	})

	t.Run("empty matrix", func(t *testing.T) {
		ew, eh := NMFDecompose(&LabeledMatrix{}, 2)
		if ew.Data != nil || eh.Data != nil {
			t.Error("empty input produced data")
		}
	})
}

func TestFactorTopFlavors(t *testing.T) {
	h := &LabeledMatrix{
		RowLabels: []string{"factor_0", "factor_1"},
		ColLabels: []string{"Caramel Pecan", "Mint Explosion", "Turtle"},
		Data: mat.NewDense(2, 3, []float64{
			0.1, 0.2, 0.9,
			0.8, 0.3, 0.0,
		}),
	}
	top := FactorTopFlavors(h, 2)
	if got := top["factor_0"]; len(got) != 2 || got[0] != "Turtle" {
		t.Errorf("factor_0 top = %v", got)
	}
	if got := top["factor_1"]; got[0] != "Caramel Pecan" || got[1] != "Mint Explosion" {
		t.Errorf("factor_1 top = %v", got)
	}
}

func TestClusterStores(t *testing.T) {
	m := StoreFlavorMatrix(fixtureDataset(t), true)

	t.Run("one label per store in range", func(t *testing.T) {
		c := ClusterStores(m, 2)
		if len(c.Labels) != len(c.Stores) || len(c.Stores) != 4 {
			t.Fatalf("clustering = %+v", c)
		}
		for _, l := range c.Labels {
			if l < 0 || l >= 2 {
				t.Errorf("label %d out of range", l)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := ClusterStores(m, 2)
		b := ClusterStores(m, 2)
		for i := range a.Labels {
			if a.Labels[i] != b.Labels[i] {
				t.Fatal("repeated clusterings differ")
			}
		}
	})

	t.Run("fewer rows than clusters", func(t *testing.T) {
		c := ClusterStores(m, 10)
		for i, l := range c.Labels {
			if l != i {
				t.Errorf("label[%d] = %d, want own cluster", i, l)
			}
		}
	})

	t.Run("map covers every store", func(t *testing.T) {
		c := ClusterStores(m, 2)
		byStore := c.Map()
		if len(byStore) != 4 {
			t.Errorf("Map = %v", byStore)
		}
	})
}

func TestClusterSummary(t *testing.T) {
	ds := fixtureDataset(t)
	c := &Clustering{
		Stores: ds.Stores(),
		Labels: []int{0, 1, 0, 1},
	}
	summary := ClusterSummary(ds, c, 2)
	if len(summary) != 2 {
		t.Fatalf("summary = %v", summary)
	}
	sizes := 0
	for _, info := range summary {
		sizes += info.Size
		if len(info.TopFlavors) == 0 || len(info.TopFlavors) > 2 {
			t.Errorf("top flavors = %v", info.TopFlavors)
		}
		if len(info.ExampleStores) != info.Size {
			t.Errorf("examples = %v for size %d", info.ExampleStores, info.Size)
		}
	}
	if sizes != 4 {
		t.Errorf("cluster sizes sum to %d", sizes)
	}
}

func TestSilhouette(t *testing.T) {
	t.Run("separated clusters score high", func(t *testing.T) {
		rows := [][]float64{{0, 0}, {0.1, 0}, {5, 5}, {5.1, 5}}
		s := Silhouette(rows, []int{0, 0, 1, 1})
		if s < 0.9 {
			t.Errorf("silhouette = %v, want near 1", s)
		}
	})

	t.Run("single cluster scores zero", func(t *testing.T) {
		rows := [][]float64{{0, 0}, {1, 1}, {2, 2}}
		if s := Silhouette(rows, []int{0, 0, 0}); s != 0 {
			t.Errorf("silhouette = %v", s)
		}
	})

	t.Run("fewer than two rows", func(t *testing.T) {
		if s := Silhouette([][]float64{{1}}, []int{0}); s != 0 {
			t.Errorf("silhouette = %v", s)
		}
	})
}

func TestPCADecompose(t *testing.T) {
	m := StoreFlavorMatrix(fixtureDataset(t), true)

	result, err := PCADecompose(m, 2, true)
	if err != nil {
		t.Fatalf("PCADecompose: %v", err)
	}

	t.Run("shapes and labels", func(t *testing.T) {
		if result.Scores.Rows() != 4 || result.Scores.Cols() != 2 {
			t.Errorf("scores dims = %d×%d", result.Scores.Rows(), result.Scores.Cols())
		}
		if result.Loadings.Rows() != 2 || result.Loadings.Cols() != 3 {
			t.Errorf("loadings dims = %d×%d", result.Loadings.Rows(), result.Loadings.Cols())
		}
		if result.Scores.ColLabels[0] != "PC1" || result.Loadings.RowLabels[1] != "PC2" {
			t.Errorf("component labels = %v", result.Scores.ColLabels)
		}
	})

	t.Run("variance ratios are a valid share", func(t *testing.T) {
		var sum float64
		for _, r := range result.VarianceRatio {
			if r < 0 || r > 1 {
				t.Errorf("ratio %v out of range", r)
			}
			sum += r
		}
		if sum > 1+1e-10 {
			t.Errorf("ratios sum to %v", sum)
		}
		if len(result.VarianceRatio) >= 2 && result.VarianceRatio[0] < result.VarianceRatio[1] {
			t.Errorf("ratios not descending: %v", result.VarianceRatio)
		}
	})

	t.Run("components clamped to matrix rank bound", func(t *testing.T) {
		clamped, err := PCADecompose(m, 50, false)
		if err != nil {
			t.Fatal(err)
		}
		if clamped.Scores.Cols() != 3 {
			t.Errorf("retained %d components, want min(n,d)=3", clamped.Scores.Cols())
		}
	})

	t.Run("cumulative report is non-decreasing", func(t *testing.T) {
		report := ExplainedVarianceReport(result)
		if len(report) != 2 {
			t.Fatalf("report = %v", report)
		}
		for i := 1; i < len(report); i++ {
			if report[i].Cumulative < report[i-1].Cumulative {
				t.Errorf("cumulative decreases at %d: %v", i, report)
			}
		}
		if report[0].Component != "PC1" {
			t.Errorf("report labels = %v", report)
		}
	})

	t.Run("empty matrix", func(t *testing.T) {
		result, err := PCADecompose(&LabeledMatrix{}, 2, true)
		if err != nil || result.Scores.Data != nil {
			t.Errorf("empty input: %v %+v", err, result)
		}
	})
}

func TestTopLoadingFlavors(t *testing.T) {
	// negative loading with the largest magnitude must rank first
	loadings := &LabeledMatrix{
		RowLabels: []string{"PC1"},
		ColLabels: []string{"Caramel Pecan", "Mint Explosion", "Turtle"},
		Data:      mat.NewDense(1, 3, []float64{-0.9, 0.5, 0.1}),
	}
	top := TopLoadingFlavors(loadings, 2)
	got := top["PC1"]
	if len(got) != 2 || got[0] != "Caramel Pecan" || got[1] != "Mint Explosion" {
		t.Errorf("top loadings = %v", got)
	}
}

func TestGroupAlignmentScore(t *testing.T) {
	t.Run("identical vectors align perfectly", func(t *testing.T) {
		loadings := &LabeledMatrix{
			RowLabels: []string{"factor_0", "factor_1"},
			ColLabels: []string{"Mint Explosion", "Mint Oreo", "Turtle"},
			Data: mat.NewDense(2, 3, []float64{
				1, 1, 0,
				2, 2, 5,
			}),
		}
		groups := map[string][]string{"mint": {"Mint Explosion", "Mint Oreo"}}
		if got := GroupAlignmentScore(loadings, groups); math.Abs(got-1.0) > 1e-12 {
			t.Errorf("alignment = %v, want 1", got)
		}
	})

	t.Run("zero-norm members are excluded", func(t *testing.T) {
		loadings := &LabeledMatrix{
			RowLabels: []string{"factor_0"},
			ColLabels: []string{"Mint Explosion", "Mint Oreo"},
			Data:      mat.NewDense(1, 2, []float64{1, 0}),
		}
		groups := map[string][]string{"mint": {"Mint Explosion", "Mint Oreo"}}
		if got := GroupAlignmentScore(loadings, groups); got != 0 {
			t.Errorf("alignment = %v, want 0 when the group degrades below two members", got)
		}
	})

	t.Run("missing flavors are skipped", func(t *testing.T) {
		loadings := &LabeledMatrix{
			RowLabels: []string{"factor_0"},
			ColLabels: []string{"Turtle"},
			Data:      mat.NewDense(1, 1, []float64{1}),
		}
		if got := GroupAlignmentScore(loadings, DefaultSimilarityGroups); got != 0 {
			t.Errorf("alignment = %v", got)
		}
	})
}

func TestComparePCAvsNMF(t *testing.T) {
	m := StoreFlavorMatrix(fixtureDataset(t), true)
	cmp, err := ComparePCAvsNMF(m, 2, 2)
	if err != nil {
		t.Fatalf("ComparePCAvsNMF: %v", err)
	}

	if cmp.Recommendation != "pca" && cmp.Recommendation != "nmf" {
		t.Errorf("recommendation = %q", cmp.Recommendation)
	}
	if cmp.Stores != 4 || cmp.Flavors != 3 || cmp.Components != 2 {
		t.Errorf("dims = %+v", cmp)
	}
	if math.Abs(cmp.SilhouetteDelta-(cmp.PCASilhouette-cmp.NMFSilhouette)) > 1e-12 {
		t.Errorf("silhouette delta inconsistent: %+v", cmp)
	}
	if math.Abs(cmp.AlignmentDelta-(cmp.PCAAlignment-cmp.NMFAlignment)) > 1e-12 {
		t.Errorf("alignment delta inconsistent: %+v", cmp)
	}
	if cmp.PCASilhouette < -1 || cmp.PCASilhouette > 1 || cmp.NMFSilhouette < -1 || cmp.NMFSilhouette > 1 {
		t.Errorf("silhouettes out of range: %+v", cmp)
	}
}

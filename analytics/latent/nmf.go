package latent

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// NMF solver constants. The seed is fixed so decompositions are
// reproducible; multiplicative updates keep W and H non-negative by
// construction, so no post-hoc clipping happens anywhere.
const (
	nmfSeed    = 42
	nmfMaxIter = 300
	nmfEpsilon = 1e-9
)

// NMFDecompose factorizes a non-negative store × flavor matrix into
// store latent profiles W (stores × k) and flavor latent profiles H
// (k × flavors) using Lee-Seung multiplicative updates with a seeded
// uniform initialization. Component labels are factor_0..factor_{k-1}.
// An empty matrix yields empty factors.
func NMFDecompose(m *LabeledMatrix, nComponents int) (w, h *LabeledMatrix) {
	factors := factorLabels(nComponents)
	w = newLabeledMatrix(m.RowLabels, factors)
	h = newLabeledMatrix(factors, m.ColLabels)
	if m.Data == nil || nComponents < 1 {
		return w, h
	}

	n, d := m.Rows(), m.Cols()
	k := nComponents

	rng := rand.New(rand.NewSource(nmfSeed))
	wData := randomPositive(rng, n*k)
	hData := randomPositive(rng, k*d)
	W := mat.NewDense(n, k, wData)
	H := mat.NewDense(k, d, hData)

	var (
		wtv, wtwh mat.Dense // k×d numerator / denominator for H
		vht, whht mat.Dense // n×k numerator / denominator for W
		wh        mat.Dense
	)
	for iter := 0; iter < nmfMaxIter; iter++ {
		// H <- H .* (Wt V) ./ (Wt W H)
		wtv.Mul(W.T(), m.Data)
		wh.Mul(W, H)
		wtwh.Mul(W.T(), &wh)
		updateInPlace(H, &wtv, &wtwh)

		// W <- W .* (V Ht) ./ (W H Ht)
		vht.Mul(m.Data, H.T())
		wh.Mul(W, H)
		whht.Mul(&wh, H.T())
		updateInPlace(W, &vht, &whht)
	}

	w.Data.Copy(W)
	h.Data.Copy(H)
	return w, h
}

// updateInPlace applies x <- x * num / (den + eps) elementwise.
func updateInPlace(x, num, den *mat.Dense) {
	r, c := x.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x.Set(i, j, x.At(i, j)*num.At(i, j)/(den.At(i, j)+nmfEpsilon))
		}
	}
}

func randomPositive(rng *rand.Rand, n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.Float64() + nmfEpsilon
	}
	return data
}

// FactorTopFlavors lists the n highest-weight flavors per latent factor,
// revealing what each factor captures. Keyed by factor label.
func FactorTopFlavors(h *LabeledMatrix, n int) map[string][]string {
	out := make(map[string][]string, h.Rows())
	for i, label := range h.RowLabels {
		out[label] = topColumns(h.Row(i), h.ColLabels, n, false)
	}
	return out
}

// topColumns ranks column labels by row value (or absolute value),
// descending, ties broken on label.
func topColumns(row []float64, labels []string, n int, absolute bool) []string {
	type scored struct {
		label string
		value float64
	}
	ranked := make([]scored, len(labels))
	for j, l := range labels {
		v := row[j]
		if absolute && v < 0 {
			v = -v
		}
		ranked[j] = scored{label: l, value: v}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].label < ranked[j].label
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.label
	}
	return out
}

// Package latent discovers structure in store rotation behavior:
// store × flavor matrix construction, NMF and PCA decomposition,
// K-Means clustering and validation against hand-labeled flavor groups.
package latent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"fotd/domain/flavor"
)

// LabeledMatrix is a dense matrix whose rows and columns stay traceable
// to store identifiers, flavor titles or factor names. Label alignment
// is a correctness requirement for every result in this package.
type LabeledMatrix struct {
	RowLabels []string
	ColLabels []string
	Data      *mat.Dense // nil when either dimension is zero
}

// Rows returns the row count.
func (m *LabeledMatrix) Rows() int { return len(m.RowLabels) }

// Cols returns the column count.
func (m *LabeledMatrix) Cols() int { return len(m.ColLabels) }

// At returns the value at (i, j).
func (m *LabeledMatrix) At(i, j int) float64 { return m.Data.At(i, j) }

// Row copies row i into a new slice.
func (m *LabeledMatrix) Row(i int) []float64 {
	out := make([]float64, m.Cols())
	mat.Row(out, i, m.Data)
	return out
}

// Col copies column j into a new slice.
func (m *LabeledMatrix) Col(j int) []float64 {
	out := make([]float64, m.Rows())
	mat.Col(out, j, m.Data)
	return out
}

func newLabeledMatrix(rowLabels, colLabels []string) *LabeledMatrix {
	lm := &LabeledMatrix{RowLabels: rowLabels, ColLabels: colLabels}
	if len(rowLabels) > 0 && len(colLabels) > 0 {
		lm.Data = mat.NewDense(len(rowLabels), len(colLabels), nil)
	}
	return lm
}

// StoreFlavorMatrix cross-tabulates store × flavor appearance counts.
// When normalizeRows is set, each row is L1-normalized so stores with
// longer histories do not dominate; all-zero rows stay all-zero.
func StoreFlavorMatrix(ds *flavor.Dataset, normalizeRows bool) *LabeledMatrix {
	lm := newLabeledMatrix(ds.Stores(), ds.Flavors())
	if lm.Data == nil {
		return lm
	}

	colIndex := make(map[string]int, len(lm.ColLabels))
	for j, f := range lm.ColLabels {
		colIndex[f] = j
	}
	for i, store := range lm.RowLabels {
		for _, o := range ds.Store(store) {
			j := colIndex[o.Title]
			lm.Data.Set(i, j, lm.Data.At(i, j)+1)
		}
		if normalizeRows {
			lm.Data.SetRow(i, flavor.NormalizeL1(lm.Row(i)))
		}
	}
	return lm
}

// factorLabels builds the stable component labels factor_0..factor_{k-1}.
func factorLabels(k int) []string {
	labels := make([]string, k)
	for i := range labels {
		labels[i] = fmt.Sprintf("factor_%d", i)
	}
	return labels
}

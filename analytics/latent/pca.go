package latent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"fotd/domain/flavor"
	"fotd/internal/errors"
)

// PCAResult holds a principal-component decomposition of the
// store × flavor matrix with labels preserved.
type PCAResult struct {
	Scores        *LabeledMatrix // stores × components (projections)
	Loadings      *LabeledMatrix // components × flavors
	VarianceRatio []float64      // per retained component
}

// ComponentVariance is one row of the explained-variance report.
type ComponentVariance struct {
	Component  string
	Ratio      float64
	Cumulative float64
}

// PCADecompose projects the store × flavor matrix onto its principal
// components, optionally standardizing each flavor column first.
// nComponents is clamped to what the matrix supports. Component labels
// are PC1..PCk.
func PCADecompose(m *LabeledMatrix, nComponents int, scale bool) (*PCAResult, error) {
	if m.Data == nil || nComponents < 1 {
		return &PCAResult{
			Scores:   newLabeledMatrix(m.RowLabels, nil),
			Loadings: newLabeledMatrix(nil, m.ColLabels),
		}, nil
	}

	n, d := m.Rows(), m.Cols()
	centered := standardize(m.Data, scale)

	var pc stat.PC
	if ok := pc.PrincipalComponents(centered, nil); !ok {
		return nil, errors.InvalidDataset("principal component decomposition failed")
	}

	available := minInt(n, d)
	k := minInt(nComponents, available)
	labels := pcLabels(k)

	var vectors mat.Dense
	pc.VectorsTo(&vectors) // d × available
	variances := pc.VarsTo(nil)

	// Projection onto the first k components
	scores := newLabeledMatrix(m.RowLabels, labels)
	scores.Data.Mul(centered, vectors.Slice(0, d, 0, k))

	// Loadings are the transposed component vectors
	loadings := newLabeledMatrix(labels, m.ColLabels)
	for c := 0; c < k; c++ {
		for j := 0; j < d; j++ {
			loadings.Data.Set(c, j, vectors.At(j, c))
		}
	}

	var total float64
	for _, v := range variances {
		total += v
	}
	ratio := make([]float64, k)
	for c := 0; c < k; c++ {
		ratio[c] = flavor.SafeDiv(variances[c], total)
	}

	return &PCAResult{Scores: scores, Loadings: loadings, VarianceRatio: ratio}, nil
}

// ExplainedVarianceReport tabulates per-component and cumulative
// explained variance. The cumulative column is non-decreasing by
// construction.
func ExplainedVarianceReport(result *PCAResult) []ComponentVariance {
	out := make([]ComponentVariance, len(result.VarianceRatio))
	var cum float64
	for i, r := range result.VarianceRatio {
		cum += r
		out[i] = ComponentVariance{
			Component:  result.Scores.ColLabels[i],
			Ratio:      r,
			Cumulative: cum,
		}
	}
	return out
}

// TopLoadingFlavors lists, per component, the n flavors with the
// highest-magnitude loadings. Keyed by component label.
func TopLoadingFlavors(loadings *LabeledMatrix, n int) map[string][]string {
	out := make(map[string][]string, loadings.Rows())
	for i, label := range loadings.RowLabels {
		out[label] = topColumns(loadings.Row(i), loadings.ColLabels, n, true)
	}
	return out
}

// standardize centers every column; when scale is set it also divides
// by the population standard deviation (zero-variance columns are left
// centered, not divided).
func standardize(x *mat.Dense, scale bool) *mat.Dense {
	n, d := x.Dims()
	out := mat.DenseCopyOf(x)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		std := stat.PopStdDev(col, nil)
		for i := 0; i < n; i++ {
			v := col[i] - mean
			if scale && std > 0 {
				v /= std
			}
			out.Set(i, j, v)
		}
	}
	return out
}

func pcLabels(k int) []string {
	labels := make([]string, k)
	for i := range labels {
		labels[i] = fmt.Sprintf("PC%d", i+1)
	}
	return labels
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

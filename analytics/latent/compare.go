package latent

import (
	"gonum.org/v1/gonum/floats"
)

// silhouetteMargin is how much better PCA's silhouette must be before
// the comparison recommends it over the established NMF pipeline.
const silhouetteMargin = 0.05

// LatentComparison reports PCA and NMF side by side over the same
// store × flavor matrix.
type LatentComparison struct {
	PCASilhouette   float64
	NMFSilhouette   float64
	SilhouetteDelta float64
	PCAAlignment    float64
	NMFAlignment    float64
	AlignmentDelta  float64
	Components      int
	Stores          int
	Flavors         int
	Recommendation  string // "pca" or "nmf"
}

// GroupAlignmentScore measures how well latent components keep
// hand-labeled flavor families together: for each group, the mean
// pairwise cosine similarity of the member flavors' loading vectors,
// averaged across groups. Flavors missing from the matrix or with
// near-zero-norm vectors are excluded; groups left with fewer than two
// members are skipped. Returns 0 when no group is scorable.
func GroupAlignmentScore(loadings *LabeledMatrix, groups map[string][]string) float64 {
	colIndex := make(map[string]int, loadings.Cols())
	for j, l := range loadings.ColLabels {
		colIndex[l] = j
	}

	var groupScores []float64
	for _, members := range groups {
		var vecs [][]float64
		for _, title := range members {
			j, ok := colIndex[title]
			if !ok {
				continue
			}
			v := loadings.Col(j)
			if floats.Norm(v, 2) > 1e-10 {
				vecs = append(vecs, v)
			}
		}
		if len(vecs) < 2 {
			continue
		}

		var sum float64
		var pairs int
		for a := 0; a < len(vecs); a++ {
			for b := a + 1; b < len(vecs); b++ {
				sum += cosineSimilarity(vecs[a], vecs[b])
				pairs++
			}
		}
		groupScores = append(groupScores, sum/float64(pairs))
	}

	if len(groupScores) == 0 {
		return 0.0
	}
	return floats.Sum(groupScores) / float64(len(groupScores))
}

func cosineSimilarity(a, b []float64) float64 {
	dot := floats.Dot(a, b)
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0.0
	}
	return dot / (na * nb)
}

// ComparePCAvsNMF runs both decompositions over the same matrix,
// compares clustering silhouette and group alignment against the
// default similarity groups, and recommends "pca" only when its
// silhouette beats NMF's by more than the margin AND its alignment is
// strictly higher. NMF is the conservative default.
func ComparePCAvsNMF(m *LabeledMatrix, nComponents, nClusters int) (*LatentComparison, error) {
	pca, err := PCADecompose(m, nComponents, true)
	if err != nil {
		return nil, err
	}
	_, pcaSilhouette := clusterAndSilhouette(pca.Scores, nClusters)
	pcaAlignment := GroupAlignmentScore(pca.Loadings, DefaultSimilarityGroups)

	w, h := NMFDecompose(m, nComponents)
	_, nmfSilhouette := clusterAndSilhouette(w, nClusters)
	nmfAlignment := GroupAlignmentScore(h, DefaultSimilarityGroups)

	return &LatentComparison{
		PCASilhouette:   pcaSilhouette,
		NMFSilhouette:   nmfSilhouette,
		SilhouetteDelta: pcaSilhouette - nmfSilhouette,
		PCAAlignment:    pcaAlignment,
		NMFAlignment:    nmfAlignment,
		AlignmentDelta:  pcaAlignment - nmfAlignment,
		Components:      nComponents,
		Stores:          m.Rows(),
		Flavors:         m.Cols(),
		Recommendation:  recommend(pcaSilhouette, nmfSilhouette, pcaAlignment, nmfAlignment),
	}, nil
}

func recommend(pcaSil, nmfSil, pcaAlign, nmfAlign float64) string {
	if pcaSil-nmfSil > silhouetteMargin && pcaAlign > nmfAlign {
		return "pca"
	}
	return "nmf"
}

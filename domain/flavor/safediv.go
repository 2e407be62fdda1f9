package flavor

// The zero-denominator guards the analyses need are centralized here so
// every module applies the same policy: substitute 1 for a zero
// denominator, leaving zero numerators at zero.

// SafeDiv divides num by den, treating a zero denominator as 1.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		den = 1
	}
	return num / den
}

// NormalizeL1 returns v scaled to unit L1 mass. A zero-sum input comes
// back as an all-zero copy rather than NaN.
func NormalizeL1(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = SafeDiv(x, sum)
	}
	return out
}

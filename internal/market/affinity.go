package market

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Affinity is a symmetric matrix of pairwise product scores in [0, 1],
// indexed by catalogue position. The diagonal is always 1: a product is
// perfectly correlated with itself.
type Affinity [][]float64

// Between returns the affinity score for two catalogue indices.
// Out-of-range indices score zero.
func (a Affinity) Between(i, j int) float64 {
	if i < 0 || j < 0 || i >= len(a) || j >= len(a[i]) {
		return 0
	}
	return a[i][j]
}

// Size returns the number of products the table covers.
func (a Affinity) Size() int {
	return len(a)
}

// GenerateAffinity builds a smooth affinity table for n products from
// opensimplex noise. Nearby catalogue indices get correlated scores, which
// gives scenario authors plausible bundles without hand-writing a matrix.
func GenerateAffinity(seed int64, n int) Affinity {
	noise := opensimplex.NewNormalized(seed)

	a := make(Affinity, n)
	for i := range a {
		a[i] = make([]float64, n)
		a[i][i] = 1
	}

	const frequency = 0.35
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := noise.Eval2(float64(i)*frequency, float64(j)*frequency)
			// Round to one decimal so tables read like hand-authored ones.
			v = math.Round(v*10) / 10
			a[i][j] = v
			a[j][i] = v
		}
	}
	return a
}

// AffinityFromRows builds a table from explicit scenario rows. Rows are
// used as-is; callers are responsible for symmetry.
func AffinityFromRows(rows [][]float64) Affinity {
	a := make(Affinity, len(rows))
	for i, row := range rows {
		a[i] = append([]float64(nil), row...)
	}
	return a
}

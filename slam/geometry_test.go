package slam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEigenSym3_IdentityHasUnitEigenvalues(t *testing.T) {
	d, ok := eigenSym3(identity3())
	require.True(t, ok)
	for _, v := range d.values {
		assert.InDelta(t, 1.0, v, 1e-9)
	}
}

func TestEigenSym3_ValuesDescending(t *testing.T) {
	m := mat3{{4, 0, 0}, {0, 2, 0}, {0, 0, 1}}
	d, ok := eigenSym3(m)
	require.True(t, ok)
	assert.InDelta(t, 4.0, d.values[0], 1e-9)
	assert.InDelta(t, 2.0, d.values[1], 1e-9)
	assert.InDelta(t, 1.0, d.values[2], 1e-9)
}

// TestCovarianceEigenvalues_LineIsDominatedByOneAxis checks a set of
// collinear points has one large eigenvalue and two near-zero ones, the
// signature used to classify edge keypoints.
func TestCovarianceEigenvalues_LineIsDominatedByOneAxis(t *testing.T) {
	var pts []Point3
	for i := -5; i <= 5; i++ {
		pts = append(pts, Point3{X: float64(i), Y: 0, Z: 0})
	}
	l1, l2, l3, ok := covarianceEigenvalues(pts)
	require.True(t, ok)
	assert.Greater(t, l1, l2*10)
	assert.InDelta(t, 0, l3, 1e-9)
}

// TestCovarianceEigenvalues_PlaneHasOneSmallAxis checks a flat point set has
// two comparable large eigenvalues and one near-zero eigenvalue, the
// signature used to classify planar keypoints.
func TestCovarianceEigenvalues_PlaneHasOneSmallAxis(t *testing.T) {
	var pts []Point3
	for x := -3.0; x <= 3; x++ {
		for y := -3.0; y <= 3; y++ {
			pts = append(pts, Point3{X: x, Y: y, Z: 0})
		}
	}
	l1, _, l3, ok := covarianceEigenvalues(pts)
	require.True(t, ok)
	assert.InDelta(t, 0, l3, 1e-9)
	assert.Greater(t, l1, 0.0)
}

func TestCovarianceEigenvalues_TooFewPointsReturnsFalse(t *testing.T) {
	_, _, _, ok := covarianceEigenvalues([]Point3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}})
	assert.False(t, ok)
}

func TestOuter_IsProjectionOntoNormal(t *testing.T) {
	n := Point3{X: 0, Y: 0, Z: 1}
	A := outer(n)
	v := Point3{X: 3, Y: 4, Z: 5}
	projected := A.apply(v)
	assert.InDelta(t, 0, projected.X, 1e-9)
	assert.InDelta(t, 0, projected.Y, 1e-9)
	assert.InDelta(t, 5, projected.Z, 1e-9)
}

func TestSub3_IsElementwiseDifference(t *testing.T) {
	a := identity3()
	b := outer(Point3{X: 1, Y: 0, Z: 0})
	r := sub3(a, b)
	assert.InDelta(t, 0, r[0][0], 1e-9)
	assert.InDelta(t, 1, r[1][1], 1e-9)
	assert.InDelta(t, 1, r[2][2], 1e-9)
}

func TestCovariance3_MeanMatchesCentroid(t *testing.T) {
	pts := []Point3{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}, {X: 1, Y: 3, Z: 0}}
	_, mean := covariance3(pts)
	assert.InDelta(t, 1.0, mean.X, 1e-9)
	assert.InDelta(t, 1.0, mean.Y, 1e-9)
}

package slam

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// eigenDecomp3 is the sorted (descending) eigenvalue/eigenvector
// decomposition of a 3x3 symmetric covariance matrix.
type eigenDecomp3 struct {
	values  [3]float64   // λ1 >= λ2 >= λ3
	vectors [3]Point3    // corresponding unit eigenvectors
}

// covariance3 computes the covariance matrix (scatter divided by n) of a
// point set about its centroid.
func covariance3(points []Point3) (mat3, Point3) {
	var sum Point3
	for _, p := range points {
		sum = sum.add(p)
	}
	n := float64(len(points))
	mean := sum.scale(1 / n)

	var cov mat3
	for _, p := range points {
		c := p.sub(mean)
		cov[0][0] += c.X * c.X
		cov[0][1] += c.X * c.Y
		cov[0][2] += c.X * c.Z
		cov[1][1] += c.Y * c.Y
		cov[1][2] += c.Y * c.Z
		cov[2][2] += c.Z * c.Z
	}
	cov[1][0] = cov[0][1]
	cov[2][0] = cov[0][2]
	cov[2][1] = cov[1][2]
	for i := range cov {
		for j := range cov[i] {
			cov[i][j] /= n
		}
	}
	return cov, mean
}

// eigenSym3 decomposes a 3x3 symmetric matrix via gonum's symmetric eigen
// solver, returning eigenvalues/vectors sorted descending.
func eigenSym3(m mat3) (eigenDecomp3, bool) {
	sym := mat.NewSymDense(3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return eigenDecomp3{}, false
	}

	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	type ev struct {
		val float64
		vec Point3
	}
	items := make([]ev, 3)
	for i := 0; i < 3; i++ {
		items[i] = ev{
			val: values[i],
			vec: Point3{X: vecs.At(0, i), Y: vecs.At(1, i), Z: vecs.At(2, i)},
		}
	}
	sort.Slice(items, func(a, b int) bool { return items[a].val > items[b].val })

	var d eigenDecomp3
	for i, it := range items {
		d.values[i] = it.val
		d.vectors[i] = it.vec
	}
	return d, true
}

// covarianceEigenvalues is a convenience wrapper used by the sphericity
// test: returns λ1 >= λ2 >= λ3 of the neighborhood's covariance.
func covarianceEigenvalues(points []Point3) (l1, l2, l3 float64, ok bool) {
	if len(points) < 3 {
		return 0, 0, 0, false
	}
	cov, _ := covariance3(points)
	d, ok := eigenSym3(cov)
	if !ok {
		return 0, 0, 0, false
	}
	return d.values[0], d.values[1], d.values[2], true
}

// outer returns n*n^T as a mat3.
func outer(n Point3) mat3 {
	return mat3{
		{n.X * n.X, n.X * n.Y, n.X * n.Z},
		{n.Y * n.X, n.Y * n.Y, n.Y * n.Z},
		{n.Z * n.X, n.Z * n.Y, n.Z * n.Z},
	}
}

func identity3() mat3 {
	return mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func sub3(a, b mat3) mat3 {
	var r mat3
	for i := range a {
		for j := range a[i] {
			r[i][j] = a[i][j] - b[i][j]
		}
	}
	return r
}

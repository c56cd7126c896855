package slam

import "math"

// ResidualTerm is one accumulated ICP correspondence (spec.md §3): a
// weighting matrix A, the matched point P on local line/plane geometry,
// the original sensor-frame keypoint X, a robust weight w, and X's
// sweep-relative time t (used for undistortion interpolation in the LM
// Jacobian).
type ResidualTerm struct {
	A mat3
	P Point3
	X Point3
	W float64
	T float64
}

// matchLine fits a line through candidate neighbors and builds the
// corresponding weighting matrix, or reports why it was rejected.
// Accept as a line when λ_max is much larger than λ_mid (elongated
// neighborhood): spec.md §4.4 step 2.
func matchLine(candidates []Point3, dp distanceParams) (ResidualTerm, RejectionCause, bool) {
	if len(candidates) < dp.lineMinNeighborRejection {
		return ResidualTerm{}, RejectInsufficientNeighbors, false
	}
	cov, mean := covariance3(candidates)
	eig, ok := eigenSym3(cov)
	if !ok || eig.values[0] < 1e-12 {
		return ResidualTerm{}, RejectNaNOrSingular, false
	}
	if eig.values[1] <= 1e-12 || eig.values[0] < dp.lineDistanceFactor*eig.values[1] {
		return ResidualTerm{}, RejectBadEigenRatio, false
	}

	n := eig.vectors[0] // direction of the line
	proj := outer(n)
	A := sub3(identity3(), proj)
	A = mat3Mul(A.transpose(), A)

	return ResidualTerm{A: A, P: mean, W: 1}, RejectOther, true
}

// matchPlane fits a plane through candidate neighbors: accept when
// λ_mid > factor2·λ_min and λ_max < factor1·λ_mid (spec.md §4.4 step 3).
// An exactly flat neighborhood (λ_min = 0) is accepted; one with no spread
// along a second axis (λ_mid ≈ 0) is rejected.
func matchPlane(candidates []Point3, dp distanceParams) (ResidualTerm, RejectionCause, bool) {
	if len(candidates) < 3 {
		return ResidualTerm{}, RejectInsufficientNeighbors, false
	}
	cov, mean := covariance3(candidates)
	eig, ok := eigenSym3(cov)
	if !ok {
		return ResidualTerm{}, RejectNaNOrSingular, false
	}
	if eig.values[1] <= 1e-12 || eig.values[1] <= dp.planeDistanceFactor2*eig.values[2] {
		return ResidualTerm{}, RejectBadEigenRatio, false
	}
	if eig.values[0] >= dp.planeDistanceFactor1*eig.values[1] {
		return ResidualTerm{}, RejectBadEigenRatio, false
	}

	n := eig.vectors[2] // normal: smallest-eigenvalue direction
	A := outer(n)
	return ResidualTerm{A: A, P: mean, W: 1}, RejectOther, true
}

// finalizeResidual attaches the transformed-space keypoint X, its sweep
// time t, and the robust weight w = exp(-||X-P||^2 / sigma^2), with sigma
// fixed at half the rejection distance maxDist, so matches near the
// acceptance boundary are down-weighted smoothly rather than contributing
// full weight right up to the cutoff. The matched neighborhood's own spread
// does not enter sigma.
func finalizeResidual(r ResidualTerm, xTransformed, xOriginal Point3, t float64, maxDist float64) (ResidualTerm, bool) {
	d := distance3(xTransformed, r.P)
	if d > maxDist {
		return r, false
	}
	sigma := maxDist / 2
	r.W = math.Exp(-(d * d) / (sigma * sigma))
	r.X = xOriginal
	r.T = t
	return r, true
}

func mat3Mul(a, b mat3) mat3 { return a.mul(b) }

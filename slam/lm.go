package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// lmResult is the outcome of one LM minimization pass.
type lmResult struct {
	pose      Pose
	converged bool
	diverged  bool
	iterations int
}

// effectiveTime returns the sweep-relative time used in the Jacobian and
// residual: the point's own time when undistortion is enabled, or 1.0
// (full transform applied uniformly) otherwise.
func effectiveTime(undistortion bool, t float64) float64 {
	if !undistortion {
		return 1.0
	}
	return t
}

// poseAtTime evaluates the time-scaled-angle transform used by the LM
// Jacobian: R(t) = Rz(t*rz)·Ry(t*ry)·Rx(t*rx), T(t) = t·(tx,ty,tz). This
// is the standard LOAM-style linearization of motion across a sweep
// (spec.md §9: "keep the same composition order ... analytic Jacobians"),
// distinct from the SLERP-based Interpolator used for the coarse
// correspondence search, which is smoother but not needed to be
// differentiated analytically.
func poseAtTime(p Pose, t float64) (mat3, Point3) {
	a, b, c := t*p.Rx, t*p.Ry, t*p.Rz
	r := rotZ(c).mul(rotY(b)).mul(rotX(a))
	return r, Point3{X: t * p.Tx, Y: t * p.Ty, Z: t * p.Tz}
}

// jacobianRow computes d(residual)/d(rx,ry,rz,tx,ty,tz) at point X with
// sweep time t, given the current pose estimate p.
func jacobianRow(p Pose, x Point3, t float64) [6]Point3 {
	a, b, c := t*p.Rx, t*p.Ry, t*p.Rz
	rx, ry, rz := rotX(a), rotY(b), rotZ(c)
	dRx := dRotX(a)
	dRy := dRotY(b)
	dRz := dRotZ(c)

	col := func(m mat3) Point3 { return m.apply(x).scale(t) }

	dRdrx := rz.mul(ry).mul(dRx)
	dRdry := rz.mul(dRy).mul(rx)
	dRdrz := dRz.mul(ry).mul(rx)

	return [6]Point3{
		col(dRdrx),
		col(dRdry),
		col(dRdrz),
		{X: t, Y: 0, Z: 0},
		{X: 0, Y: t, Z: 0},
		{X: 0, Y: 0, Z: t},
	}
}

func dRotX(a float64) mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return mat3{{0, 0, 0}, {0, -s, -c}, {0, c, -s}}
}

func dRotY(b float64) mat3 {
	c, s := math.Cos(b), math.Sin(b)
	return mat3{{-s, 0, c}, {0, 0, 0}, {-c, 0, -s}}
}

func dRotZ(c float64) mat3 {
	cc, ss := math.Cos(c), math.Sin(c)
	return mat3{{-ss, -cc, 0}, {cc, -ss, 0}, {0, 0, 0}}
}

// runLM minimizes Σ w·(R(t)X+T(t)-P)ᵀA(R(t)X+T(t)-P) over the 6-DoF pose,
// starting from initial, via Levenberg-Marquardt with a diagonal damping
// schedule. maxIter and undistortion come from the caller's step-specific
// parameters; maxTranslation is the divergence guard (spec.md §4.4
// "Divergence guard" / §7 "LM divergence"), applied to how far the
// candidate has moved from initial rather than to its absolute position —
// ego-motion's initial is already a per-frame relative pose so the two
// coincide there, but mapping's initial is an absolute Tworld estimate,
// and bounding its raw norm would spuriously flag divergence as soon as
// the sensor has travelled maxTranslation from the map origin.
func runLM(residuals []ResidualTerm, initial Pose, maxIter int, undistortion bool, maxTranslation float64) lmResult {
	p := initial
	lambda := 1e-3

	if len(residuals) == 0 {
		return lmResult{pose: p}
	}

	evalCost := func(p Pose) float64 {
		cost := 0.0
		for _, r := range residuals {
			t := effectiveTime(undistortion, r.T)
			rot, trans := poseAtTime(p, t)
			res := rot.apply(r.X).add(trans).sub(r.P)
			ar := r.A.apply(res)
			cost += r.W * dot(res, ar)
		}
		return cost
	}

	prevCost := evalCost(p)

	for iter := 0; iter < maxIter; iter++ {
		H := mat.NewDense(6, 6, nil)
		g := mat.NewVecDense(6, nil)

		for _, r := range residuals {
			t := effectiveTime(undistortion, r.T)
			rot, trans := poseAtTime(p, t)
			res := rot.apply(r.X).add(trans).sub(r.P)
			ar := r.A.apply(res)
			jac := jacobianRow(p, r.X, t)

			for a := 0; a < 6; a++ {
				ja := r.A.apply(jac[a])
				g.SetVec(a, g.AtVec(a)+r.W*dot(jac[a], ar))
				for b := 0; b < 6; b++ {
					H.Set(a, b, H.At(a, b)+r.W*dot(jac[b], ja))
				}
			}
		}

		// Levenberg-Marquardt damping: (H + lambda*diag(H)) dx = -g. The
		// +1e-9 floor keeps directions with zero Hessian contribution
		// (e.g. translation along an infinite plane with no gradient)
		// solvable rather than singular; their corresponding gradient
		// entry is zero too, so they simply don't move.
		damped := mat.NewDense(6, 6, nil)
		damped.Copy(H)
		for i := 0; i < 6; i++ {
			d := H.At(i, i)
			damped.Set(i, i, d+lambda*d+1e-9)
		}

		var dx mat.VecDense
		negG := mat.NewVecDense(6, nil)
		negG.ScaleVec(-1, g)
		if err := dx.SolveVec(damped, negG); err != nil {
			return lmResult{pose: p, diverged: true, iterations: iter}
		}

		candidate := Pose{
			Rx: p.Rx + dx.AtVec(0),
			Ry: p.Ry + dx.AtVec(1),
			Rz: p.Rz + dx.AtVec(2),
			Tx: p.Tx + dx.AtVec(3),
			Ty: p.Ty + dx.AtVec(4),
			Tz: p.Tz + dx.AtVec(5),
		}

		if distance3(candidate.translation(), initial.translation()) > maxTranslation {
			return lmResult{pose: initial, diverged: true, iterations: iter}
		}

		newCost := evalCost(candidate)
		if newCost > prevCost {
			lambda *= 10
			if lambda > 1e12 {
				return lmResult{pose: p, converged: true, iterations: iter}
			}
			continue
		}

		lambda = math.Max(lambda/10, 1e-12)
		stepNorm := math.Sqrt(dx.AtVec(0)*dx.AtVec(0) + dx.AtVec(1)*dx.AtVec(1) + dx.AtVec(2)*dx.AtVec(2) +
			dx.AtVec(3)*dx.AtVec(3) + dx.AtVec(4)*dx.AtVec(4) + dx.AtVec(5)*dx.AtVec(5))

		p = candidate
		improvement := prevCost - newCost
		prevCost = newCost

		if stepNorm < 1e-9 || improvement < 1e-9 {
			return lmResult{pose: p, converged: true, iterations: iter + 1}
		}
	}

	return lmResult{pose: p, converged: true, iterations: maxIter}
}

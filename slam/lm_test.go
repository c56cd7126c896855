package slam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRunLM_RecoversKnownTranslation builds planar residuals against
// three mutually orthogonal walls (so all three translation axes are
// constrained, the way a corridor's floor and two side walls jointly
// constrain a sensor's pose) for a ground-truth translation and checks
// LM converges back to it.
func TestRunLM_RecoversKnownTranslation(t *testing.T) {
	truth := Pose{Tx: 0.3, Ty: -0.1, Tz: 0.05}

	var residuals []ResidualTerm
	rng := []float64{-3, -2, -1, 0, 1, 2, 3}
	addWall := func(normal Point3, build func(a, b float64) Point3) {
		for _, a := range rng {
			for _, b := range rng {
				surface := build(a, b)
				sensorPoint := surface.sub(truth.translation())
				residuals = append(residuals, ResidualTerm{
					A: outer(normal), P: surface, X: sensorPoint, W: 1, T: 1,
				})
			}
		}
	}
	addWall(Point3{X: 0, Y: 0, Z: 1}, func(a, b float64) Point3 { return Point3{X: a, Y: b, Z: 0} })
	addWall(Point3{X: 1, Y: 0, Z: 0}, func(a, b float64) Point3 { return Point3{X: 5, Y: a, Z: b} })
	addWall(Point3{X: 0, Y: 1, Z: 0}, func(a, b float64) Point3 { return Point3{X: a, Y: 5, Z: b} })

	result := runLM(residuals, Identity(), 30, false, 10)
	assert.False(t, result.diverged)
	assert.InDelta(t, truth.Tx, result.pose.Tx, 1e-3)
	assert.InDelta(t, truth.Ty, result.pose.Ty, 1e-3)
	assert.InDelta(t, truth.Tz, result.pose.Tz, 1e-3)
}

func TestRunLM_DivergesBeyondMaxTranslation(t *testing.T) {
	residuals := []ResidualTerm{
		{A: outer(Point3{X: 0, Y: 0, Z: 1}), P: Point3{X: 100, Y: 100, Z: 100}, X: Point3{}, W: 1, T: 1},
	}
	result := runLM(residuals, Identity(), 10, false, 1.0)
	assert.True(t, result.diverged)
}

func TestRunLM_EmptyResidualsReturnsInitial(t *testing.T) {
	initial := Pose{Tx: 1, Ty: 2, Tz: 3}
	result := runLM(nil, initial, 10, false, 10)
	assert.Equal(t, initial, result.pose)
}

func TestJacobianRow_MatchesFiniteDifference(t *testing.T) {
	p := Pose{Rx: 0.1, Ry: -0.05, Rz: 0.2, Tx: 0.3, Ty: -0.1, Tz: 0.05}
	x := Point3{X: 1.5, Y: -2.0, Z: 0.5}
	const tTime = 0.7
	const h = 1e-6

	jac := jacobianRow(p, x, tTime)

	eval := func(pp Pose) Point3 {
		r, tr := poseAtTime(pp, tTime)
		return r.apply(x).add(tr)
	}

	perturb := func(field int, delta float64) Pose {
		pp := p
		switch field {
		case 0:
			pp.Rx += delta
		case 1:
			pp.Ry += delta
		case 2:
			pp.Rz += delta
		case 3:
			pp.Tx += delta
		case 4:
			pp.Ty += delta
		case 5:
			pp.Tz += delta
		}
		return pp
	}

	for i := 0; i < 6; i++ {
		plus := eval(perturb(i, h))
		minus := eval(perturb(i, -h))
		numeric := plus.sub(minus).scale(1 / (2 * h))
		assert.InDelta(t, numeric.X, jac[i].X, 1e-3)
		assert.InDelta(t, numeric.Y, jac[i].Y, 1e-3)
		assert.InDelta(t, numeric.Z, jac[i].Z, 1e-3)
	}
}

func TestPoseAtTime_ZeroTimeIsIdentity(t *testing.T) {
	p := Pose{Rx: 0.3, Ry: 0.2, Rz: 0.1, Tx: 5, Ty: 5, Tz: 5}
	r, tr := poseAtTime(p, 0)
	assert.InDelta(t, 1.0, r[0][0], 1e-9)
	assert.InDelta(t, 0.0, math.Abs(tr.X)+math.Abs(tr.Y)+math.Abs(tr.Z), 1e-9)
}

package adapters

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kwv/lidarslam/slam"
)

// TrajectorySmoother is a constant-velocity Kalman filter over committed
// sweep poses, the downstream non-core-contract component that smooths
// the raw ICP trajectory for export/visualization without feeding back
// into the core pipeline's own pose estimate.
//
// State is [x, y, z, vx, vy, vz]; rotation is passed through unsmoothed
// since orientation noise doesn't behave like a linear random walk the
// way position does.
type TrajectorySmoother struct {
	x  *mat.VecDense // state
	P  *mat.Dense    // covariance
	q  float64       // process noise
	r  float64       // measurement noise
	dt float64

	initialized bool
}

// NewTrajectorySmoother builds a smoother with process/measurement noise
// variances q and r, and a fixed per-sweep time step dt.
func NewTrajectorySmoother(q, r, dt float64) *TrajectorySmoother {
	return &TrajectorySmoother{q: q, r: r, dt: dt}
}

// Update feeds one raw committed pose through the filter and returns the
// smoothed position (vx, vy, vz untouched in the return, rotation passed
// through).
func (s *TrajectorySmoother) Update(raw slam.Pose) slam.Pose {
	z := mat.NewVecDense(3, []float64{raw.Tx, raw.Ty, raw.Tz})

	if !s.initialized {
		s.x = mat.NewVecDense(6, []float64{raw.Tx, raw.Ty, raw.Tz, 0, 0, 0})
		s.P = mat.NewDense(6, 6, nil)
		for i := 0; i < 6; i++ {
			s.P.Set(i, i, 1.0)
		}
		s.initialized = true
		return raw
	}

	F := s.transition()
	Q := s.processNoise()

	var xPred mat.VecDense
	xPred.MulVec(F, s.x)

	var PPred mat.Dense
	PPred.Mul(F, s.P)
	PPred.Mul(&PPred, F.T())
	PPred.Add(&PPred, Q)

	H := mat.NewDense(3, 6, []float64{
		1, 0, 0, 0, 0, 0,
		0, 1, 0, 0, 0, 0,
		0, 0, 1, 0, 0, 0,
	})

	var y mat.VecDense
	var Hx mat.VecDense
	Hx.MulVec(H, &xPred)
	y.SubVec(z, &Hx)

	R := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		R.Set(i, i, s.r)
	}

	var S mat.Dense
	var HP mat.Dense
	HP.Mul(H, &PPred)
	S.Mul(&HP, H.T())
	S.Add(&S, R)

	var Sinv mat.Dense
	if err := Sinv.Inverse(&S); err != nil {
		// Singular innovation covariance: fall back to the prediction.
		s.x = &xPred
		s.P = &PPred
		return poseWithPosition(raw, xPred.AtVec(0), xPred.AtVec(1), xPred.AtVec(2))
	}

	var PHt mat.Dense
	PHt.Mul(&PPred, H.T())
	var K mat.Dense
	K.Mul(&PHt, &Sinv)

	var correction mat.VecDense
	correction.MulVec(&K, &y)

	var xNew mat.VecDense
	xNew.AddVec(&xPred, &correction)

	var KH mat.Dense
	KH.Mul(&K, H)
	var I mat.Dense
	I.Mul(&KH, &PPred)
	var PNew mat.Dense
	PNew.Sub(&PPred, &I)

	s.x = &xNew
	s.P = &PNew

	return poseWithPosition(raw, xNew.AtVec(0), xNew.AtVec(1), xNew.AtVec(2))
}

func (s *TrajectorySmoother) transition() *mat.Dense {
	return mat.NewDense(6, 6, []float64{
		1, 0, 0, s.dt, 0, 0,
		0, 1, 0, 0, s.dt, 0,
		0, 0, 1, 0, 0, s.dt,
		0, 0, 0, 1, 0, 0,
		0, 0, 0, 0, 1, 0,
		0, 0, 0, 0, 0, 1,
	})
}

func (s *TrajectorySmoother) processNoise() *mat.Dense {
	Q := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		Q.Set(i, i, s.q)
	}
	return Q
}

func poseWithPosition(p slam.Pose, x, y, z float64) slam.Pose {
	out := p
	out.Tx, out.Ty, out.Tz = x, y, z
	return out
}

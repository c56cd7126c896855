package slam

import "math"

// Pose is the 6-DoF sensor pose: three ZYX Euler angles (radians) plus a
// translation. Rotation is applied as an intrinsic Z·Y·X composition:
// R = Rz(Rz)·Ry(Ry)·Rx(Rx), i.e. a point is rotated about X first, then Y,
// then Z (spec.md §3, convention fixed per SPEC_FULL.md §4).
type Pose struct {
	Rx, Ry, Rz float64
	Tx, Ty, Tz float64
}

// Identity returns the zero pose (no rotation, no translation).
func Identity() Pose { return Pose{} }

// mat3 is a row-major 3x3 matrix. Rotation composition and point transforms
// are hot-path per-point operations during ICP, so Pose works in plain
// float64 arrays rather than a general-purpose matrix type; gonum is
// reserved (in geometry.go and lm.go) for the eigen-decompositions and
// linear solves where a library actually earns its keep over hand code.
type mat3 [3][3]float64

func (m mat3) apply(p Point3) Point3 {
	return Point3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z,
	}
}

func (m mat3) mul(o mat3) mat3 {
	var r mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += m[i][k] * o[k][j]
			}
			r[i][j] = s
		}
	}
	return r
}

func (m mat3) transpose() mat3 {
	var r mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[j][i] = m[i][j]
		}
	}
	return r
}

func rotX(a float64) mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

func rotY(a float64) mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

func rotZ(a float64) mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return mat3{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

// rotationMatrix builds R = Rz*Ry*Rx for the pose's Euler angles.
func (p Pose) rotationMatrix() mat3 {
	return rotZ(p.Rz).mul(rotY(p.Ry)).mul(rotX(p.Rx))
}

func (p Pose) translation() Point3 { return Point3{X: p.Tx, Y: p.Ty, Z: p.Tz} }

// Transform applies the pose's rigid transform to a sensor-frame point:
// R·X + T.
func (p Pose) Transform(x Point3) Point3 {
	return p.rotationMatrix().apply(x).add(p.translation())
}

// Compose returns the pose equivalent to applying b first, then a:
// Compose(a, b).Transform(x) == a.Transform(b.Transform(x)).
func Compose(a, b Pose) Pose {
	ra := a.rotationMatrix()
	rb := b.rotationMatrix()
	r := ra.mul(rb)
	t := ra.apply(b.translation()).add(a.translation())
	rx, ry, rz := eulerZYX(r)
	return Pose{Rx: rx, Ry: ry, Rz: rz, Tx: t.X, Ty: t.Y, Tz: t.Z}
}

// Inverse returns the pose such that Compose(p, p.Inverse()) == Identity().
func (p Pose) Inverse() Pose {
	r := p.rotationMatrix().transpose()
	t := r.apply(p.translation()).scale(-1)
	rx, ry, rz := eulerZYX(r)
	return Pose{Rx: rx, Ry: ry, Rz: rz, Tx: t.X, Ty: t.Y, Tz: t.Z}
}

// eulerZYX extracts (rx, ry, rz) from R = Rz(rz)·Ry(ry)·Rx(rx).
// Standard decomposition; degenerates gracefully (rx pinned to 0) at the
// ry = ±90° gimbal-lock singularity, which the ICP step sizes used here
// never approach in practice.
func eulerZYX(r mat3) (rx, ry, rz float64) {
	ry = math.Asin(clamp(-r[2][0], -1, 1))
	cy := math.Cos(ry)
	if math.Abs(cy) > 1e-9 {
		rx = math.Atan2(r[2][1], r[2][2])
		rz = math.Atan2(r[1][0], r[0][0])
	} else {
		// Gimbal lock: rx and rz are coupled, pin rx to 0.
		rx = 0
		rz = math.Atan2(-r[0][1], r[1][1])
	}
	return rx, ry, rz
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TranslationNorm returns ||T|| for the divergence guard.
func (p Pose) TranslationNorm() float64 {
	return math.Sqrt(p.Tx*p.Tx + p.Ty*p.Ty + p.Tz*p.Tz)
}

// AsVector6 returns (tx, ty, tz, rx, ry, rz), the order GetWorldTransform
// exposes per SPEC_FULL.md §4.
func (p Pose) AsVector6() [6]float64 {
	return [6]float64{p.Tx, p.Ty, p.Tz, p.Rx, p.Ry, p.Rz}
}

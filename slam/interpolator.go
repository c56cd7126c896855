package slam

import "math"

// quaternion is a unit quaternion (w, x, y, z) used only internally by the
// interpolator for SLERP; the rest of the core stays in the ZYX Euler
// representation spec.md fixes for Pose.
type quaternion struct{ w, x, y, z float64 }

func quaternionFromRotation(r mat3) quaternion {
	tr := r[0][0] + r[1][1] + r[2][2]
	if tr > 0 {
		s := math.Sqrt(tr+1.0) * 2
		return quaternion{
			w: 0.25 * s,
			x: (r[2][1] - r[1][2]) / s,
			y: (r[0][2] - r[2][0]) / s,
			z: (r[1][0] - r[0][1]) / s,
		}
	}
	if r[0][0] > r[1][1] && r[0][0] > r[2][2] {
		s := math.Sqrt(1.0+r[0][0]-r[1][1]-r[2][2]) * 2
		return quaternion{
			w: (r[2][1] - r[1][2]) / s,
			x: 0.25 * s,
			y: (r[0][1] + r[1][0]) / s,
			z: (r[0][2] + r[2][0]) / s,
		}
	}
	if r[1][1] > r[2][2] {
		s := math.Sqrt(1.0+r[1][1]-r[0][0]-r[2][2]) * 2
		return quaternion{
			w: (r[0][2] - r[2][0]) / s,
			x: (r[0][1] + r[1][0]) / s,
			y: 0.25 * s,
			z: (r[1][2] + r[2][1]) / s,
		}
	}
	s := math.Sqrt(1.0+r[2][2]-r[0][0]-r[1][1]) * 2
	return quaternion{
		w: (r[1][0] - r[0][1]) / s,
		x: (r[0][2] + r[2][0]) / s,
		y: (r[1][2] + r[2][1]) / s,
		z: 0.25 * s,
	}
}

func (q quaternion) toRotation() mat3 {
	w, x, y, z := q.w, q.x, q.y, q.z
	return mat3{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

func (q quaternion) dot(o quaternion) float64 {
	return q.w*o.w + q.x*o.x + q.y*o.y + q.z*o.z
}

func (q quaternion) negate() quaternion {
	return quaternion{-q.w, -q.x, -q.y, -q.z}
}

// slerp spherically interpolates between two unit quaternions at t in [0,1].
func slerp(a, b quaternion, t float64) quaternion {
	d := a.dot(b)
	if d < 0 {
		b = b.negate()
		d = -d
	}
	const epsilon = 1e-6
	if d > 1-epsilon {
		// Nearly colinear: fall back to normalized lerp.
		return quaternion{
			w: a.w + t*(b.w-a.w),
			x: a.x + t*(b.x-a.x),
			y: a.y + t*(b.y-a.y),
			z: a.z + t*(b.z-a.z),
		}.normalize()
	}
	theta0 := math.Acos(clamp(d, -1, 1))
	theta := theta0 * t
	sinTheta0 := math.Sin(theta0)
	s0 := math.Cos(theta) - d*math.Sin(theta)/sinTheta0
	s1 := math.Sin(theta) / sinTheta0
	return quaternion{
		w: s0*a.w + s1*b.w,
		x: s0*a.x + s1*b.x,
		y: s0*a.y + s1*b.y,
		z: s0*a.z + s1*b.z,
	}
}

func (q quaternion) normalize() quaternion {
	n := math.Sqrt(q.w*q.w + q.x*q.x + q.y*q.y + q.z*q.z)
	if n < 1e-12 {
		return quaternion{w: 1}
	}
	return quaternion{q.w / n, q.x / n, q.y / n, q.z / n}
}

// Interpolator compensates for sensor motion across a sweep (spec.md §4.6).
// It holds the start and end poses of the interval being spanned (identity
// and Trelative during ego-motion, TworldPrev and the current Tworld
// estimate during mapping) and returns the time-interpolated rigid
// transform for any t in [0,1].
type Interpolator struct {
	start, end       Pose
	qStart, qEnd     quaternion
}

// NewInterpolator rebuilds the interpolator from the current estimate. It
// is cheap enough to reconstruct at the start of every ICP inner pass, as
// spec.md §4.6 requires when Undistortion is enabled.
func NewInterpolator(start, end Pose) *Interpolator {
	return &Interpolator{
		start:  start,
		end:    end,
		qStart: quaternionFromRotation(start.rotationMatrix()),
		qEnd:   quaternionFromRotation(end.rotationMatrix()),
	}
}

// PoseAt returns the rigid transform interpolated at sweep-relative time t.
func (ip *Interpolator) PoseAt(t float64) Pose {
	t = clamp(t, 0, 1)
	q := slerp(ip.qStart, ip.qEnd, t)
	r := q.toRotation()
	rx, ry, rz := eulerZYX(r)
	tx := ip.start.Tx + t*(ip.end.Tx-ip.start.Tx)
	ty := ip.start.Ty + t*(ip.end.Ty-ip.start.Ty)
	tz := ip.start.Tz + t*(ip.end.Tz-ip.start.Tz)
	return Pose{Rx: rx, Ry: ry, Rz: rz, Tx: tx, Ty: ty, Tz: tz}
}

// TransformAt applies the pose interpolated at t to a point.
func (ip *Interpolator) TransformAt(x Point3, t float64) Point3 {
	return ip.PoseAt(t).Transform(x)
}

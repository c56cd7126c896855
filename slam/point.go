package slam

import "math"

// Label tags a point with its role in the keypoint pipeline.
type Label int

const (
	LabelUnlabeled Label = iota
	LabelEdgeCandidate
	LabelEdgeSelected
	LabelPlanarCandidate
	LabelPlanarSelected
	LabelInvalid
)

// Point3 is a sensor-frame (or, once transformed, world-frame) point plus
// the three annotation channels the pipeline threads through every stage.
type Point3 struct {
	X, Y, Z   float64
	Intensity float64

	ScanLine int     // laser index, i
	Time     float64 // sweep-relative acquisition time in [0,1]
	Label    Label
}

// Range returns the point's distance from the sensor origin.
func (p Point3) Range() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

func (p Point3) sub(o Point3) Point3 {
	return Point3{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

func (p Point3) add(o Point3) Point3 {
	return Point3{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Point3) scale(s float64) Point3 {
	return Point3{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}

func dot(a, b Point3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func cross(a, b Point3) Point3 {
	return Point3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func norm(a Point3) float64 { return math.Sqrt(dot(a, a)) }

func distance3(a, b Point3) float64 { return norm(a.sub(b)) }

// ScanLine is the ordered sequence of points sharing one laser index,
// sorted by azimuth.
type ScanLine struct {
	Index  int
	Points []Point3
}

// PointCloud is an unordered bag of points, used for keypoint outputs and
// rolling-grid contents.
type PointCloud []Point3

// RawPoint is the external container's per-point representation, the
// input/output point-cloud container format spec.md §1 leaves to the
// caller. AddFrame accepts a slice of these.
type RawPoint struct {
	X, Y, Z   float64
	Intensity float64
	LaserID   int     // scan-line id as reported by the driver
	Azimuth   float64 // radians, used to order points within a line
	Time      float64 // sweep-relative time in [0,1]
}

package slam

// Params holds every tunable named in the Parameters table. It is
// instance-scoped: a Processor owns one Params value and there is no
// process-wide mutable state. The setters below are plain field writes
// with no synchronization, and the fields can also be assigned directly.
type Params struct {
	// General
	LeafSize                  float64
	AngleResolution           float64 // radians
	MaxDistBetweenTwoFrames   float64
	MaxDistanceForICPMatching float64
	FastSlam                  bool
	Undistortion              bool
	DisplayMode               bool

	// Keypoints
	NeighborWidth          int
	MaxEdgePerScanLine      int
	MaxPlanarsPerScanLine   int
	MinDistanceToSensor     float64
	EdgeSinAngleThreshold   float64
	PlaneSinAngleThreshold  float64
	EdgeDepthGapThreshold   float64
	UseBlob                 bool

	// Ego-motion
	EgoMotionLMMaxIter                    int
	EgoMotionICPMaxIter                   int
	EgoMotionLineDistanceNbrNeighbors     int
	EgoMotionMinimumLineNeighborRejection int
	EgoMotionMinimumTotalMatches          int
	EgoMotionLineDistancefactor           float64
	EgoMotionPlaneDistanceNbrNeighbors    int
	EgoMotionPlaneDistancefactor1         float64
	EgoMotionPlaneDistancefactor2         float64
	EgoMotionMaxLineDistance              float64
	EgoMotionMaxPlaneDistance             float64

	// Mapping (same shape as ego-motion)
	MappingLMMaxIter                    int
	MappingICPMaxIter                   int
	MappingLineDistanceNbrNeighbors     int
	MappingMinimumLineNeighborRejection int
	MappingMinimumTotalMatches          int
	MappingLineDistancefactor           float64
	MappingPlaneDistanceNbrNeighbors    int
	MappingPlaneDistancefactor1         float64
	MappingPlaneDistancefactor2         float64
	MappingMaxLineDistance              float64
	MappingMaxPlaneDistance             float64
	MappingLineMaxDistInlier            float64

	// Rolling grid dims
	GridVoxelSize float64
	GridDimsX     int
	GridDimsY     int
	GridDimsZ     int
}

// DefaultParams returns the defaults from the Parameters table.
func DefaultParams() Params {
	const degToRad = 3.14159265358979323846 / 180.0
	return Params{
		LeafSize:                   0.6,
		AngleResolution:            0.4 * degToRad,
		MaxDistBetweenTwoFrames:    (90.0 / 3.6) * 0.1, // 90km/h for 100ms
		MaxDistanceForICPMatching:  20.0,
		FastSlam:                   true,
		Undistortion:               false,
		DisplayMode:                false,

		NeighborWidth:          4,
		MaxEdgePerScanLine:     200,
		MaxPlanarsPerScanLine:  200,
		MinDistanceToSensor:    3.0,
		EdgeSinAngleThreshold:  0.86,
		PlaneSinAngleThreshold: 0.5,
		EdgeDepthGapThreshold:  0.15,
		UseBlob:                false,

		EgoMotionLMMaxIter:                    15,
		EgoMotionICPMaxIter:                   4,
		EgoMotionLineDistanceNbrNeighbors:     10,
		EgoMotionMinimumLineNeighborRejection: 4,
		EgoMotionMinimumTotalMatches:          20,
		EgoMotionLineDistancefactor:           5.0,
		EgoMotionPlaneDistanceNbrNeighbors:    5,
		EgoMotionPlaneDistancefactor1:         35,
		EgoMotionPlaneDistancefactor2:         8,
		EgoMotionMaxLineDistance:              0.10,
		EgoMotionMaxPlaneDistance:             0.20,

		MappingLMMaxIter:                    15,
		MappingICPMaxIter:                   3,
		MappingLineDistanceNbrNeighbors:     15,
		MappingMinimumLineNeighborRejection: 5,
		MappingMinimumTotalMatches:          20,
		MappingLineDistancefactor:           5.0,
		MappingPlaneDistanceNbrNeighbors:    5,
		MappingPlaneDistancefactor1:         35,
		MappingPlaneDistancefactor2:         8,
		MappingMaxLineDistance:              0.2,
		MappingMaxPlaneDistance:             0.2,
		MappingLineMaxDistInlier:            0.2,

		GridVoxelSize: 10.0,
		GridDimsX:     21,
		GridDimsY:     21,
		GridDimsZ:     7,
	}
}

// step selects between the ego-motion and mapping parameter packs. It
// replaces the source's string-discriminator dispatch (spec.md §9) with a
// small tagged type.
type step int

const (
	stepEgoMotion step = iota
	stepMapping
)

type distanceParams struct {
	lmMaxIter                int
	icpMaxIter               int
	lineNbrNeighbors         int
	lineMinNeighborRejection int
	minimumTotalMatches      int
	lineDistanceFactor       float64
	planeNbrNeighbors        int
	planeDistanceFactor1     float64
	planeDistanceFactor2     float64
	maxLineDistance          float64
	maxPlaneDistance         float64
}

func (p Params) distanceParams(s step) distanceParams {
	if s == stepEgoMotion {
		return distanceParams{
			lmMaxIter:                p.EgoMotionLMMaxIter,
			icpMaxIter:               p.EgoMotionICPMaxIter,
			lineNbrNeighbors:         p.EgoMotionLineDistanceNbrNeighbors,
			lineMinNeighborRejection: p.EgoMotionMinimumLineNeighborRejection,
			minimumTotalMatches:      p.EgoMotionMinimumTotalMatches,
			lineDistanceFactor:       p.EgoMotionLineDistancefactor,
			planeNbrNeighbors:        p.EgoMotionPlaneDistanceNbrNeighbors,
			planeDistanceFactor1:     p.EgoMotionPlaneDistancefactor1,
			planeDistanceFactor2:     p.EgoMotionPlaneDistancefactor2,
			maxLineDistance:          p.EgoMotionMaxLineDistance,
			maxPlaneDistance:         p.EgoMotionMaxPlaneDistance,
		}
	}
	return distanceParams{
		lmMaxIter:                p.MappingLMMaxIter,
		icpMaxIter:               p.MappingICPMaxIter,
		lineNbrNeighbors:         p.MappingLineDistanceNbrNeighbors,
		lineMinNeighborRejection: p.MappingMinimumLineNeighborRejection,
		minimumTotalMatches:      p.MappingMinimumTotalMatches,
		lineDistanceFactor:       p.MappingLineDistancefactor,
		planeNbrNeighbors:        p.MappingPlaneDistanceNbrNeighbors,
		planeDistanceFactor1:     p.MappingPlaneDistancefactor1,
		planeDistanceFactor2:     p.MappingPlaneDistancefactor2,
		maxLineDistance:          p.MappingMaxLineDistance,
		maxPlaneDistance:         p.MappingMaxPlaneDistance,
	}
}

// SetLeafSize mutates the rolling-grid leaf-filter voxel size live.
func (p *Params) SetLeafSize(v float64) { p.LeafSize = v }

// SetUndistortion toggles per-point motion compensation live.
func (p *Params) SetUndistortion(v bool) { p.Undistortion = v }

// SetMaxDistanceForICPMatching mutates the mapping radius-query cap live.
func (p *Params) SetMaxDistanceForICPMatching(v float64) { p.MaxDistanceForICPMatching = v }

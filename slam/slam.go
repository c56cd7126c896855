package slam

import (
	"fmt"
	"log"
)

// FrameResult reports what happened to one AddFrame call. Routine skip
// conditions are reported here rather than through the error return
// (spec.md §7): a sparse sweep or a divergent match is an expected runtime
// condition for a SLAM pipeline, not a programming error.
type FrameResult struct {
	Skipped       bool
	SkipReason    SkipReason
	Tworld        Pose
	Trelative     Pose
	EgoMotionRejections RejectionHistogram
	MappingRejections   RejectionHistogram
}

// Processor holds all persisted state for one continuous SLAM run: the
// previous sweep's keypoints, the rolling local map, and the accumulated
// trajectory (spec.md §4.7). A Processor is not safe for concurrent use by
// multiple goroutines calling AddFrame; one AddFrame call runs its steps
// sequentially.
type Processor struct {
	params Params

	ingestor *Ingestor

	tworld       Pose
	tworldPrev   Pose
	trelative    Pose
	tworldList   []Pose

	previousEdges   PointCloud
	previousPlanars PointCloud

	edgeGrid    *RollingGrid
	planarGrid  *RollingGrid
	blobGrid    *RollingGrid

	sweepCount int
}

// NewProcessor constructs a Processor with an empty map and identity pose.
func NewProcessor(p Params) *Processor {
	return &Processor{
		params:     p,
		ingestor:   NewIngestor(),
		tworld:     Identity(),
		tworldPrev: Identity(),
		trelative:  Identity(),
		edgeGrid:   NewRollingGrid(p.GridVoxelSize, p.LeafSize, p.GridDimsX, p.GridDimsY, p.GridDimsZ),
		planarGrid: NewRollingGrid(p.GridVoxelSize, p.LeafSize, p.GridDimsX, p.GridDimsY, p.GridDimsZ),
		blobGrid:   NewRollingGrid(p.GridVoxelSize, p.LeafSize, p.GridDimsX, p.GridDimsY, p.GridDimsZ),
	}
}

// Params returns the processor's current tunables.
func (pr *Processor) Params() Params { return pr.params }

// SetParams replaces the processor's tunables; in-flight sweeps are
// unaffected, only the next AddFrame call sees the change.
func (pr *Processor) SetParams(p Params) { pr.params = p }

// AddFrame runs one full sweep through the pipeline: ingest, extract
// keypoints, ego-motion, mapping, map update, pose commit (spec.md §4.7).
func (pr *Processor) AddFrame(raw []RawPoint) FrameResult {
	pr.sweepCount++

	lines, _ := pr.ingestor.Ingest(raw, pr.params.MinDistanceToSensor)
	keypoints := ExtractKeypoints(lines, pr.params)

	if len(keypoints.Edges) == 0 && len(keypoints.Planars) == 0 {
		return pr.commitSkip(SkipEmptySweep)
	}

	if pr.sweepCount == 1 {
		log.Printf("sweep %d: map reset, bootstrapping local map at identity pose", pr.sweepCount)
		pr.tworldPrev = pr.tworld
		pr.trelative = Identity()
		pr.updateMaps(keypoints)
		pr.advance(keypoints)
		pr.tworldList = append(pr.tworldList, pr.tworld)
		return FrameResult{Tworld: pr.tworld, Trelative: pr.trelative}
	}

	egoPose, egoHist, egoSkip := egoMotion(keypoints, pr.previousEdges, pr.previousPlanars, pr.trelative, pr.params)
	if egoSkip != SkipNone {
		return pr.commitSkip(egoSkip)
	}
	pr.trelative = egoPose

	mapInitial := Compose(pr.tworld, pr.trelative)
	mappingPlanars := keypoints.Planars
	if !pr.params.FastSlam {
		mappingPlanars = keypoints.AllValid
	}
	refinedWorld, mapHist, mapSkip := mapping(keypoints, mappingPlanars, pr.edgeGrid, pr.planarGrid, mapInitial, pr.params)
	if mapSkip != SkipNone {
		return pr.commitSkip(mapSkip)
	}

	pr.tworldPrev = pr.tworld
	pr.tworld = refinedWorld
	pr.updateMaps(keypoints)
	pr.advance(keypoints)
	pr.tworldList = append(pr.tworldList, pr.tworld)

	return FrameResult{
		Tworld:              pr.tworld,
		Trelative:           pr.trelative,
		EgoMotionRejections: egoHist,
		MappingRejections:   mapHist,
	}
}

// commitSkip extrapolates Trelative at constant velocity rather than
// holding the pose fixed (SPEC_FULL.md §4 S4 decision), so a single
// dropped sweep doesn't stall the trajectory, and still records exactly
// one TworldList entry for the sweep.
func (pr *Processor) commitSkip(reason SkipReason) FrameResult {
	log.Printf("sweep %d: skipped (%s), extrapolating trelative at constant velocity", pr.sweepCount, reason)
	pr.tworldPrev = pr.tworld
	pr.tworld = Compose(pr.tworld, pr.trelative)
	pr.tworldList = append(pr.tworldList, pr.tworld)
	return FrameResult{Skipped: true, SkipReason: reason, Tworld: pr.tworld, Trelative: pr.trelative}
}

func (pr *Processor) updateMaps(k KeypointSet) {
	edgesWorld := transformCloud(k.Edges, pr.tworld)
	planarsWorld := transformCloud(k.Planars, pr.tworld)

	pr.edgeGrid.Recenter(pr.tworld.translation())
	pr.planarGrid.Recenter(pr.tworld.translation())
	pr.edgeGrid.Insert(edgesWorld)
	pr.planarGrid.Insert(planarsWorld)

	if len(k.Blobs) > 0 {
		blobsWorld := transformCloud(k.Blobs, pr.tworld)
		pr.blobGrid.Recenter(pr.tworld.translation())
		pr.blobGrid.Insert(blobsWorld)
	}
}

func (pr *Processor) advance(k KeypointSet) {
	pr.previousEdges = k.Edges
	pr.previousPlanars = k.Planars
}

func transformCloud(pts PointCloud, pose Pose) PointCloud {
	out := make(PointCloud, len(pts))
	for i, p := range pts {
		out[i] = pose.Transform(p)
		out[i].ScanLine = p.ScanLine
		out[i].Label = p.Label
	}
	return out
}

// GetWorldTransform returns the current pose as (tx, ty, tz, rx, ry, rz).
func (pr *Processor) GetWorldTransform() [6]float64 { return pr.tworld.AsVector6() }

// Trajectory returns every committed world pose, one per processed sweep.
func (pr *Processor) Trajectory() []Pose {
	out := make([]Pose, len(pr.tworldList))
	copy(out, pr.tworldList)
	return out
}

// MapSize reports the point count currently held in each rolling grid,
// useful for diagnostics and the render/geojson adapters.
func (pr *Processor) MapSize() (edges, planars, blobs int) {
	return pr.edgeGrid.Size(), pr.planarGrid.Size(), pr.blobGrid.Size()
}

// EdgeMapPoints, PlanarMapPoints and BlobMapPoints expose a snapshot of the
// current rolling map for export (geojson/render adapters).
func (pr *Processor) EdgeMapPoints() []Point3   { return pr.edgeGrid.AllPoints() }
func (pr *Processor) PlanarMapPoints() []Point3 { return pr.planarGrid.AllPoints() }
func (pr *Processor) BlobMapPoints() []Point3   { return pr.blobGrid.AllPoints() }

func (pr *Processor) String() string {
	return fmt.Sprintf("Processor{sweeps=%d, tworld=%+v}", pr.sweepCount, pr.tworld)
}

package slam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEgoMotion_NoPreviousSweepReturnsInitialUnchanged(t *testing.T) {
	p := DefaultParams()
	initial := Pose{Tx: 1, Ty: 2, Tz: 3}
	current := KeypointSet{Edges: PointCloud{{X: 0, Y: 0, Z: 0}}}

	pose, hist, skip := egoMotion(current, nil, nil, initial, p)
	assert.Equal(t, SkipNone, skip)
	assert.Equal(t, initial, pose)
	assert.Equal(t, RejectionHistogram{}, hist)
}

func TestEgoMotion_ConvergesOnSimpleTranslation(t *testing.T) {
	p := DefaultParams()

	// Four scan lines all tracing the same physical edge, nearly
	// coincident in space (small per-line y/z jitter keeps the line's
	// covariance non-degenerate) and distinguished only by ScanLine, so
	// every local neighborhood trivially spans >=2 lines without
	// depending on exact KNN tuning.
	var previousEdges PointCloud
	for line := 0; line < 4; line++ {
		jy := float64(line%2) * 0.002
		jz := float64((line+1)%2) * 0.002
		for i := -10; i <= 10; i++ {
			previousEdges = append(previousEdges, Point3{X: float64(i), Y: jy, Z: jz, ScanLine: line})
		}
	}

	const shift = 0.2
	var currentEdges PointCloud
	for _, pt := range previousEdges {
		currentEdges = append(currentEdges, Point3{X: pt.X - shift, Y: pt.Y, Z: pt.Z, ScanLine: pt.ScanLine})
	}

	current := KeypointSet{Edges: currentEdges}
	pose, _, skip := egoMotion(current, previousEdges, nil, Identity(), p)
	assert.Equal(t, SkipNone, skip)
	assert.InDelta(t, shift, pose.Tx, 0.05)
}

func TestEgoMotion_FewMatchesReturnsInsufficientMatches(t *testing.T) {
	p := DefaultParams()

	previousEdges := PointCloud{
		{X: 0, Y: 0, Z: 0, ScanLine: 0},
		{X: 1, Y: 0, Z: 0, ScanLine: 1},
		{X: 2, Y: 0, Z: 0, ScanLine: 0},
	}
	current := KeypointSet{Edges: PointCloud{
		{X: 0.1, Y: 0, Z: 0, ScanLine: 0},
		{X: 1.1, Y: 0, Z: 0, ScanLine: 1},
	}}

	_, _, skip := egoMotion(current, previousEdges, nil, Identity(), p)
	assert.Equal(t, SkipInsufficientMatches, skip)
}

func TestBuildTreeIfAny_NilForEmptyCloud(t *testing.T) {
	assert.Nil(t, buildTreeIfAny(nil))
	assert.NotNil(t, buildTreeIfAny(PointCloud{{X: 0, Y: 0, Z: 0}}))
}

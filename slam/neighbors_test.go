package slam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEgoMotionLineNeighbors_RequiresTwoScanLines(t *testing.T) {
	singleLine := []Point3{
		{X: -1, Y: 0, Z: 0, ScanLine: 3},
		{X: 1, Y: 0, Z: 0, ScanLine: 3},
		{X: 0, Y: 0, Z: 0, ScanLine: 3},
	}
	tree := NewKDTree(singleLine)
	_, ok := egoMotionLineNeighbors(tree, Point3{}, 3, 5)
	assert.False(t, ok)

	multiLine := []Point3{
		{X: -1, Y: 0, Z: 0, ScanLine: 3},
		{X: 1, Y: 0, Z: 0, ScanLine: 4},
		{X: 0, Y: 0, Z: 0, ScanLine: 3},
	}
	tree2 := NewKDTree(multiLine)
	out, ok := egoMotionLineNeighbors(tree2, Point3{}, 3, 5)
	require.True(t, ok)
	assert.Len(t, out, 3)
}

func TestEgoMotionLineNeighbors_FiltersByMaxDist(t *testing.T) {
	pts := []Point3{
		{X: 0.1, Y: 0, Z: 0, ScanLine: 0},
		{X: 100, Y: 0, Z: 0, ScanLine: 1},
	}
	tree := NewKDTree(pts)
	out, ok := egoMotionLineNeighbors(tree, Point3{}, 2, 1.0)
	assert.False(t, ok) // the far point is dropped, leaving only one scan line
	assert.Empty(t, out)
}

func TestEgoMotionPlaneNeighbors_NoScanLineRequirement(t *testing.T) {
	pts := []Point3{
		{X: 0.1, Y: 0, Z: 0, ScanLine: 5},
		{X: 0.2, Y: 0, Z: 0, ScanLine: 5},
	}
	tree := NewKDTree(pts)
	out := egoMotionPlaneNeighbors(tree, Point3{}, 2, 1.0)
	assert.Len(t, out, 2)
}

func TestMappingLineNeighbors_PicksBestInlierLine(t *testing.T) {
	var candidates []Point3
	for i := -5; i <= 5; i++ {
		candidates = append(candidates, Point3{X: float64(i), Y: 0, Z: 0})
	}
	// Two outliers far from the line.
	candidates = append(candidates, Point3{X: 0, Y: 5, Z: 0}, Point3{X: 0, Y: -5, Z: 0})

	inliers, ok := mappingLineNeighbors(candidates, 0.1)
	require.True(t, ok)
	assert.Len(t, inliers, 11)
}

func TestMappingLineNeighbors_TooFewCandidatesRejects(t *testing.T) {
	_, ok := mappingLineNeighbors([]Point3{{X: 0, Y: 0, Z: 0}}, 0.1)
	assert.False(t, ok)
}

func TestMappingLineNeighbors_AllDuplicatePointsRejects(t *testing.T) {
	candidates := []Point3{{X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}}
	_, ok := mappingLineNeighbors(candidates, 0.1)
	assert.False(t, ok)
}

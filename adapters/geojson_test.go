package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwv/lidarslam/slam"
)

func TestExportTrajectory_WritesValidFeature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.geojson")
	trajectory := []slam.Pose{
		{Tx: 0, Ty: 0}, {Tx: 1, Ty: 0}, {Tx: 2, Ty: 0}, {Tx: 3, Ty: 0},
	}

	require.NoError(t, ExportTrajectory(path, trajectory, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Feature", decoded["type"])
	props := decoded["properties"].(map[string]interface{})
	assert.Equal(t, "trajectory", props["kind"])
	assert.EqualValues(t, 4, props["pointCount"])
}

func TestExportTrajectory_SimplificationReducesPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.geojson")

	// A perfectly straight line: Douglas-Peucker should collapse it to
	// its two endpoints at any positive tolerance.
	var trajectory []slam.Pose
	for i := 0; i < 50; i++ {
		trajectory = append(trajectory, slam.Pose{Tx: float64(i), Ty: 0})
	}
	require.NoError(t, ExportTrajectory(path, trajectory, 0.01))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Less(t, len(decoded.Geometry.Coordinates), 50)
}

func TestExportMapSnapshot_WritesBothClasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.geojson")
	edges := []slam.Point3{{X: 1, Y: 1, Z: 0}}
	planars := []slam.Point3{{X: 2, Y: 2, Z: 0}, {X: 3, Y: 3, Z: 0}}

	require.NoError(t, ExportMapSnapshot(path, edges, planars))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Features, 2)
	assert.Equal(t, "edges", decoded.Features[0].Properties["kind"])
	assert.EqualValues(t, 1, decoded.Features[0].Properties["count"])
	assert.Equal(t, "planars", decoded.Features[1].Properties["kind"])
	assert.EqualValues(t, 2, decoded.Features[1].Properties["count"])
}

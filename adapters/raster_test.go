package adapters

import (
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwv/lidarslam/slam"
)

func TestRasterRenderer_WritesDecodablePNG(t *testing.T) {
	edges := []slam.Point3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}}
	planars := []slam.Point3{{X: 0.5, Y: 0.5, Z: 0}}
	trajectory := []slam.Pose{{}, {Tx: 1, Ty: 1}}

	f, err := os.CreateTemp(t.TempDir(), "map-*.png")
	require.NoError(t, err)
	f.Close()

	r := NewRasterRenderer()
	require.NoError(t, r.RenderPNG(f.Name(), edges, planars, trajectory))

	out, err := os.Open(f.Name())
	require.NoError(t, err)
	defer out.Close()

	img, err := png.Decode(out)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}

func TestRasterRenderer_EmptyInputsStillRenderMinimalImage(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "map-*.png")
	require.NoError(t, err)
	f.Close()

	r := NewRasterRenderer()
	require.NoError(t, r.RenderPNG(f.Name(), nil, nil, nil))

	out, err := os.Open(f.Name())
	require.NoError(t, err)
	defer out.Close()
	_, err = png.Decode(out)
	assert.NoError(t, err)
}

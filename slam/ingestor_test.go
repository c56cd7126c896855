package slam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ringSweep(numLines, pointsPerLine int) []RawPoint {
	var raw []RawPoint
	for line := 0; line < numLines; line++ {
		elevation := (float64(line)/float64(numLines-1) - 0.5) * 0.2
		for i := 0; i < pointsPerLine; i++ {
			azimuth := 2 * math.Pi * float64(i) / float64(pointsPerLine)
			r := 10.0
			raw = append(raw, RawPoint{
				X: r * math.Cos(azimuth) * math.Cos(elevation),
				Y: r * math.Sin(azimuth) * math.Cos(elevation),
				Z: r * math.Sin(elevation),
				LaserID: line,
				Azimuth: azimuth,
				Time:    float64(i) / float64(pointsPerLine),
			})
		}
	}
	return raw
}

func TestIngestor_DiscoversLineCountOnFirstSweep(t *testing.T) {
	g := NewIngestor()
	lines, _ := g.Ingest(ringSweep(8, 50), 0)
	assert.Equal(t, 8, g.NumLines())
	assert.Len(t, lines, 8)
}

func TestIngestor_DropsTooCloseAndNaNPoints(t *testing.T) {
	g := NewIngestor()
	raw := []RawPoint{
		{X: 0, Y: 0, Z: 0, LaserID: 0}, // zero range, below threshold
		{X: math.NaN(), Y: 0, Z: 0, LaserID: 0},
		{X: 5, Y: 0, Z: 0, LaserID: 0, Azimuth: 0},
	}
	lines, index := g.Ingest(raw, 1.0)
	require.Len(t, lines, 1)
	assert.Len(t, lines[0].Points, 1)

	_, _, ok := index.Lookup(0)
	assert.False(t, ok)
	_, _, ok = index.Lookup(2)
	assert.True(t, ok)
}

func TestIngestor_SortsPointsByAzimuthPerLine(t *testing.T) {
	g := NewIngestor()
	raw := []RawPoint{
		{X: 1, Y: 1, Z: 0, LaserID: 0, Azimuth: 2.0},
		{X: 1, Y: 1, Z: 0, LaserID: 0, Azimuth: 0.5},
		{X: 1, Y: 1, Z: 0, LaserID: 0, Azimuth: 1.0},
	}
	_, index := g.Ingest(raw, 0)

	// Input index 1 has the smallest azimuth, so it must land at position 0.
	line, pos, ok := index.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, 0, line)
	assert.Equal(t, 0, pos)
}

func TestIngestor_IndexRoundTrips(t *testing.T) {
	g := NewIngestor()
	raw := ringSweep(4, 20)
	_, index := g.Ingest(raw, 0)

	for i := range raw {
		line, pos, ok := index.Lookup(i)
		require.True(t, ok)
		orig, ok := index.OriginalIndex(line, pos)
		require.True(t, ok)
		assert.Equal(t, i, orig)
	}
}

func TestIngestor_FreezesLineCountAfterFirstSweep(t *testing.T) {
	g := NewIngestor()
	g.Ingest(ringSweep(4, 20), 0)
	assert.Equal(t, 4, g.NumLines())

	// A second sweep introducing a brand-new laser id should be dropped,
	// not grow the line table.
	raw := ringSweep(4, 20)
	raw = append(raw, RawPoint{X: 5, Y: 0, Z: 0, LaserID: 99, Azimuth: 0})
	lines, _ := g.Ingest(raw, 0)
	assert.Equal(t, 4, g.NumLines())
	assert.Len(t, lines, 4)
}

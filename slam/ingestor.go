package slam

import (
	"math"
	"sort"
)

// IngestIndex is the two-way mapping between the external container's
// point ordering and the ingestor's (line, position) ordering. Only the
// forward direction (input index -> line/position) is stored; the reverse
// is derived on demand via Lookup, per spec.md §9's guidance to avoid
// keeping parallel index arrays that can drift out of sync.
type IngestIndex struct {
	// forward[i] is the (line, position) the i-th surviving input point
	// landed at. Points dropped during ingestion (NaN range, too close)
	// keep an entry whose line is -1.
	forward []lineSlot
	lines   [][]int // lines[line][position] = original input index
}

type lineSlot struct {
	line, position int
}

// Lookup returns the (line, position) a surviving input index was placed
// at, or ok=false if that input point was dropped.
func (idx *IngestIndex) Lookup(inputIndex int) (line, position int, ok bool) {
	if inputIndex < 0 || inputIndex >= len(idx.forward) {
		return 0, 0, false
	}
	s := idx.forward[inputIndex]
	if s.line < 0 {
		return 0, 0, false
	}
	return s.line, s.position, true
}

// OriginalIndex derives the reverse mapping on demand: which input index
// produced scan line `line` position `position`.
func (idx *IngestIndex) OriginalIndex(line, position int) (int, bool) {
	if line < 0 || line >= len(idx.lines) {
		return 0, false
	}
	if position < 0 || position >= len(idx.lines[line]) {
		return 0, false
	}
	return idx.lines[line][position], true
}

// Ingestor re-orders incoming points by scan line and azimuth. The number
// of scan lines L is discovered from the first sweep it sees and frozen
// thereafter (spec.md §9(c)).
type Ingestor struct {
	numLines   int
	discovered bool
	laserIDs   map[int]int // external laser id -> frozen line index [0, L)
}

// NewIngestor constructs an ingestor with no scan lines discovered yet.
func NewIngestor() *Ingestor {
	return &Ingestor{laserIDs: make(map[int]int)}
}

// NumLines returns L, or 0 if no sweep has been ingested yet.
func (g *Ingestor) NumLines() int { return g.numLines }

// Ingest reorders one sweep's raw points into scan lines sorted by azimuth,
// dropping NaN-range and too-close points (spec.md §4.1).
func (g *Ingestor) Ingest(raw []RawPoint, minDistanceToSensor float64) ([]ScanLine, *IngestIndex) {
	type kept struct {
		inputIndex int
		line       int
		p          Point3
		azimuth    float64
	}

	var survivors []kept
	for i, rp := range raw {
		r := math.Sqrt(rp.X*rp.X + rp.Y*rp.Y + rp.Z*rp.Z)
		if math.IsNaN(r) || r < minDistanceToSensor {
			continue
		}
		line, ok := g.lineFor(rp.LaserID)
		if !ok {
			continue // frozen line table doesn't recognize this id post-first-sweep
		}
		survivors = append(survivors, kept{
			inputIndex: i,
			line:       line,
			azimuth:    rp.Azimuth,
			p: Point3{
				X: rp.X, Y: rp.Y, Z: rp.Z,
				Intensity: rp.Intensity,
				ScanLine:  line,
				Time:      rp.Time,
				Label:     LabelUnlabeled,
			},
		})
	}

	if !g.discovered {
		g.discovered = true
	}

	byLine := make([][]kept, g.numLines)
	for _, k := range survivors {
		byLine[k.line] = append(byLine[k.line], k)
	}

	lines := make([]ScanLine, g.numLines)
	index := &IngestIndex{
		forward: make([]lineSlot, len(raw)),
		lines:   make([][]int, g.numLines),
	}
	for i := range index.forward {
		index.forward[i] = lineSlot{line: -1}
	}

	for l := 0; l < g.numLines; l++ {
		pts := byLine[l]
		sort.Slice(pts, func(a, b int) bool { return pts[a].azimuth < pts[b].azimuth })
		points := make([]Point3, len(pts))
		origIdx := make([]int, len(pts))
		for pos, k := range pts {
			points[pos] = k.p
			origIdx[pos] = k.inputIndex
			index.forward[k.inputIndex] = lineSlot{line: l, position: pos}
		}
		lines[l] = ScanLine{Index: l, Points: points}
		index.lines[l] = origIdx
	}

	return lines, index
}

// lineFor maps an external laser id to a frozen line index, discovering
// new ids only until the first sweep completes.
func (g *Ingestor) lineFor(laserID int) (int, bool) {
	if line, ok := g.laserIDs[laserID]; ok {
		return line, true
	}
	if g.discovered {
		return 0, false
	}
	line := g.numLines
	g.laserIDs[laserID] = line
	g.numLines++
	return line, true
}

package slam

import "math"

// voxelKey is an absolute integer voxel coordinate.
type voxelKey struct{ ix, iy, iz int }

// RollingGrid is the bounded voxel local map (spec.md §4.3). Cells are
// stored sparsely, keyed by absolute voxel coordinate; this makes
// Recenter a cheap bounds-check-and-purge rather than a physical shift of
// a dense array, and new leading-edge cells appear for free simply by not
// existing in the map yet until Insert populates them.
type RollingGrid struct {
	voxelSize float64
	leafSize  float64
	dimsX, dimsY, dimsZ int // grid extent in voxels, each dimension must be odd

	anchor voxelKey // the voxel the grid is currently centered on
	cells  map[voxelKey][]Point3
}

// NewRollingGrid constructs an empty grid. Panics on non-positive sizes or
// dimensions, per spec.md §7 "Programming preconditions ... fatal".
func NewRollingGrid(voxelSize, leafSize float64, dimsX, dimsY, dimsZ int) *RollingGrid {
	if voxelSize <= 0 || leafSize <= 0 {
		preconditionf("rolling grid: voxelSize and leafSize must be positive, got %v/%v", voxelSize, leafSize)
	}
	if dimsX <= 0 || dimsY <= 0 || dimsZ <= 0 {
		preconditionf("rolling grid: dims must be positive, got (%d,%d,%d)", dimsX, dimsY, dimsZ)
	}
	return &RollingGrid{
		voxelSize: voxelSize,
		leafSize:  leafSize,
		dimsX:     dimsX,
		dimsY:     dimsY,
		dimsZ:     dimsZ,
		cells:     make(map[voxelKey][]Point3),
	}
}

func (g *RollingGrid) keyOf(p Point3) voxelKey {
	return voxelKey{
		ix: int(math.Floor(p.X / g.voxelSize)),
		iy: int(math.Floor(p.Y / g.voxelSize)),
		iz: int(math.Floor(p.Z / g.voxelSize)),
	}
}

func (g *RollingGrid) inBounds(k voxelKey) bool {
	hx, hy, hz := g.dimsX/2, g.dimsY/2, g.dimsZ/2
	return abs(k.ix-g.anchor.ix) <= hx && abs(k.iy-g.anchor.iy) <= hy && abs(k.iz-g.anchor.iz) <= hz
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LeafSize returns the per-cell sub-voxel filter size.
func (g *RollingGrid) LeafSize() float64 { return g.leafSize }

// SetLeafSize updates the leaf-filter voxel size. Existing cell contents
// are left as-is; the new size applies to subsequent Insert calls.
func (g *RollingGrid) SetLeafSize(v float64) {
	if v <= 0 {
		preconditionf("rolling grid: leafSize must be positive, got %v", v)
	}
	g.leafSize = v
}

// VoxelSize returns the grid cell edge length.
func (g *RollingGrid) VoxelSize() float64 { return g.voxelSize }

// GridDims returns (Gx, Gy, Gz).
func (g *RollingGrid) GridDims() (int, int, int) { return g.dimsX, g.dimsY, g.dimsZ }

// SetGridDims changes the grid extent. Cells now outside the new bounds
// around the current anchor are dropped immediately.
func (g *RollingGrid) SetGridDims(x, y, z int) {
	if x <= 0 || y <= 0 || z <= 0 {
		preconditionf("rolling grid: dims must be positive, got (%d,%d,%d)", x, y, z)
	}
	g.dimsX, g.dimsY, g.dimsZ = x, y, z
	g.purgeOutOfBounds()
}

// Insert adds points to the appropriate cells, then re-applies the leaf
// voxel filter to every touched cell so cells stay subsampled (spec.md
// §4.3). Points landing outside the current grid bounds are dropped.
func (g *RollingGrid) Insert(points []Point3) {
	touched := make(map[voxelKey]bool)
	for _, p := range points {
		k := g.keyOf(p)
		if !g.inBounds(k) {
			continue
		}
		g.cells[k] = append(g.cells[k], p)
		touched[k] = true
	}
	for k := range touched {
		g.cells[k] = leafFilter(g.cells[k], g.leafSize)
	}
}

// leafFilter subsamples a cell's points with a voxel-grid leaf filter:
// points are bucketed into sub-voxels of size leafSize and each bucket is
// replaced by its centroid, bounding the point count per cell.
func leafFilter(points []Point3, leafSize float64) []Point3 {
	if leafSize <= 0 || len(points) == 0 {
		return points
	}
	type bucket struct {
		sum   Point3
		count int
	}
	buckets := make(map[voxelKey]*bucket)
	for _, p := range points {
		k := voxelKey{
			ix: int(math.Floor(p.X / leafSize)),
			iy: int(math.Floor(p.Y / leafSize)),
			iz: int(math.Floor(p.Z / leafSize)),
		}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.sum = b.sum.add(p)
		b.count++
	}
	out := make([]Point3, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.sum.scale(1/float64(b.count)))
	}
	return out
}

// QueryRadius returns every stored point within r of p. It expands the
// search across every cell whose bounding box intersects the query
// sphere (a halo around p's own cell) and exact-distance-filters the
// result, which is required for correctness at cell boundaries (spec.md
// §4.3 invariants) — a naive single-cell lookup would miss points just
// across a voxel boundary from p.
func (g *RollingGrid) QueryRadius(p Point3, r float64) []Point3 {
	if r < 0 {
		preconditionf("rolling grid: query radius must be non-negative, got %v", r)
	}
	cellRadius := int(math.Ceil(r/g.voxelSize)) + 1
	center := g.keyOf(p)
	r2 := r * r

	var out []Point3
	for dx := -cellRadius; dx <= cellRadius; dx++ {
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			for dz := -cellRadius; dz <= cellRadius; dz++ {
				k := voxelKey{ix: center.ix + dx, iy: center.iy + dy, iz: center.iz + dz}
				cell, ok := g.cells[k]
				if !ok {
					continue
				}
				for _, cp := range cell {
					if distSq(cp, p) <= r2 {
						out = append(out, cp)
					}
				}
			}
		}
	}
	return out
}

// Recenter shifts the grid so anchor lies at its center voxel. Cells that
// fall outside the new bounds are discarded; cells within remain
// untouched, and new leading-edge cells appear implicitly (they simply
// don't exist in the map until Insert populates them). Calling Recenter
// twice with the same anchor is a no-op after the first call (spec.md §8
// property 7).
func (g *RollingGrid) Recenter(anchor Point3) {
	g.anchor = g.keyOf(anchor)
	g.purgeOutOfBounds()
}

func (g *RollingGrid) purgeOutOfBounds() {
	for k := range g.cells {
		if !g.inBounds(k) {
			delete(g.cells, k)
		}
	}
}

// Size returns the total number of points currently stored across all cells.
func (g *RollingGrid) Size() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

// AllPoints returns every point currently stored, for snapshotting (e.g.
// the render/geojson adapters).
func (g *RollingGrid) AllPoints() []Point3 {
	out := make([]Point3, 0, g.Size())
	for _, c := range g.cells {
		out = append(out, c...)
	}
	return out
}

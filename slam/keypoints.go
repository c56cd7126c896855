package slam

import "sort"

// KeypointSet is the per-sweep output of the extractor (spec.md §4.2
// step 4): the selected edge, planar and blob clouds plus every
// non-invalidated point of the sweep.
type KeypointSet struct {
	Edges    PointCloud
	Planars  PointCloud
	Blobs    PointCloud
	AllValid PointCloud // every non-invalidated point, used by mapping when FastSlam is off
}

// minKeypointsFloor is the small floor below which a sweep's selection is
// considered empty (spec.md §4.2 "Failure semantics"): the sweep's set is
// empty when both its edge and its planar counts fall below it.
const minKeypointsFloor = 10

// ExtractKeypoints runs the per-line descriptor/invalidation/selection
// pipeline over every scan line and assembles the sweep's keypoint set.
// Per-line work is independent and safe to run concurrently (spec.md §5);
// callers needing that parallelism can fan out extractLine themselves.
// ExtractKeypoints itself processes the lines sequentially, as does the
// rest of AddFrame.
func ExtractKeypoints(lines []ScanLine, p Params) KeypointSet {
	var out KeypointSet
	for _, line := range lines {
		edges, planars, blobs, allValid := extractLine(line, p)
		out.Edges = append(out.Edges, edges...)
		out.Planars = append(out.Planars, planars...)
		out.Blobs = append(out.Blobs, blobs...)
		out.AllValid = append(out.AllValid, allValid...)
	}
	if len(out.Edges) < minKeypointsFloor && len(out.Planars) < minKeypointsFloor {
		return KeypointSet{}
	}
	return out
}

func extractLine(line ScanLine, p Params) (edges, planars, blobs, allValid PointCloud) {
	pts := make([]Point3, len(line.Points))
	copy(pts, line.Points)
	n := len(pts)
	if n < 2*p.NeighborWidth+1 {
		return nil, nil, nil, nil
	}

	d := computeDescriptors(pts, p.NeighborWidth, p.AngleResolution)
	invalidatePoints(pts, &d, p.NeighborWidth, p.EdgeDepthGapThreshold)

	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if d.valid[i] {
			order = append(order, i)
		}
	}

	// Edge selection: sharpest first, NMS-suppressing a W-wide window
	// around every selection.
	suppressed := make([]bool, n)
	descOrder := append([]int(nil), order...)
	sort.Slice(descOrder, func(a, b int) bool { return d.angleScore[descOrder[a]] > d.angleScore[descOrder[b]] })
	for _, i := range descOrder {
		if len(edges) >= p.MaxEdgePerScanLine {
			break
		}
		if suppressed[i] {
			continue
		}
		if d.angleScore[i] < p.EdgeSinAngleThreshold {
			break
		}
		pts[i].Label = LabelEdgeSelected
		edges = append(edges, pts[i])
		suppressWindow(suppressed, i, p.NeighborWidth)
	}

	// Planar selection: flattest first (ascending angle score), its own NMS.
	for i := range suppressed {
		suppressed[i] = false
	}
	for _, i := range order {
		if pts[i].Label == LabelEdgeSelected {
			suppressed[i] = true
		}
	}
	ascOrder := append([]int(nil), order...)
	sort.Slice(ascOrder, func(a, b int) bool { return d.angleScore[ascOrder[a]] < d.angleScore[ascOrder[b]] })
	for _, i := range ascOrder {
		if len(planars) >= p.MaxPlanarsPerScanLine {
			break
		}
		if suppressed[i] {
			continue
		}
		if d.angleScore[i] > p.PlaneSinAngleThreshold {
			break
		}
		pts[i].Label = LabelPlanarSelected
		planars = append(planars, pts[i])
		suppressWindow(suppressed, i, p.NeighborWidth)
	}

	for i := range pts {
		if pts[i].Label == LabelUnlabeled && !d.valid[i] {
			pts[i].Label = LabelInvalid
		}
		if pts[i].Label != LabelInvalid {
			allValid = append(allValid, pts[i])
		}
	}

	if p.UseBlob {
		blobs = selectBlobs(pts, p.NeighborWidth)
	}

	return edges, planars, blobs, allValid
}

// suppressWindow marks i-W..i+W (excluding out-of-range indices) as
// suppressed for future selection, enforcing the minimum index spacing
// invariant (spec.md §8 property 5).
func suppressWindow(suppressed []bool, i, w int) {
	lo, hi := i-w, i+w
	if lo < 0 {
		lo = 0
	}
	if hi >= len(suppressed) {
		hi = len(suppressed) - 1
	}
	for k := lo; k <= hi; k++ {
		suppressed[k] = true
	}
}

const sphericityThreshold = 0.6

// selectBlobs picks points whose local neighborhood covariance has
// eigenvalues λ1≈λ2≈λ3 (spec.md §4.2 step 4 sphericity test).
func selectBlobs(pts []Point3, w int) PointCloud {
	var blobs PointCloud
	n := len(pts)
	for i := w; i < n-w; i++ {
		if pts[i].Label == LabelInvalid {
			continue
		}
		neighborhood := make([]Point3, 0, 2*w+1)
		for k := -w; k <= w; k++ {
			neighborhood = append(neighborhood, pts[i+k])
		}
		l1, l2, l3, ok := covarianceEigenvalues(neighborhood)
		if !ok || l1 < 1e-12 {
			continue
		}
		if l3/l1 > sphericityThreshold && l2/l1 > sphericityThreshold {
			blobs = append(blobs, pts[i])
		}
	}
	return blobs
}

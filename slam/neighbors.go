package slam

// egoMotionLineNeighbors finds the k nearest previous-edge points to query
// within maxDist, requiring they span at least two distinct scan lines
// (spec.md §4.4 step 2: a line fit across a single scan line is just that
// line's own sampling arc, not a real edge).
func egoMotionLineNeighbors(tree *KDTree, query Point3, k int, maxDist float64) ([]Point3, bool) {
	neighbors := tree.KNearest(query, k)
	lines := make(map[int]bool)
	var out []Point3
	for _, n := range neighbors {
		if distance3(n.Point, query) > maxDist {
			continue
		}
		out = append(out, n.Point)
		lines[n.Point.ScanLine] = true
	}
	if len(lines) < 2 {
		return nil, false
	}
	return out, true
}

// egoMotionPlaneNeighbors finds the k nearest previous-planar points to
// query within maxDist, with no scan-line diversity requirement (planar
// patches legitimately live within one scan line's footprint).
func egoMotionPlaneNeighbors(tree *KDTree, query Point3, k int, maxDist float64) []Point3 {
	neighbors := tree.KNearest(query, k)
	var out []Point3
	for _, n := range neighbors {
		if distance3(n.Point, query) <= maxDist {
			out = append(out, n.Point)
		}
	}
	return out
}

// mappingLineNeighbors refines a radius-query candidate set into an
// inlier subset lying close to a common line, by a small sample-consensus
// search over candidate direction vectors (spec.md §4.5 step 3: the
// rolling map's local neighborhood is noisier than the previous sweep's
// keypoints alone, so a RANSAC-style inlier vote replaces the plain
// nearest-k selection ego-motion uses).
func mappingLineNeighbors(candidates []Point3, inlierMaxDist float64) ([]Point3, bool) {
	if len(candidates) < 2 {
		return nil, false
	}
	var bestInliers []Point3
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			dir := candidates[j].sub(candidates[i])
			dn := norm(dir)
			if dn < 1e-9 {
				continue
			}
			dir = dir.scale(1 / dn)
			var inliers []Point3
			for _, c := range candidates {
				w := c.sub(candidates[i])
				proj := dot(w, dir)
				closest := candidates[i].add(dir.scale(proj))
				if distance3(c, closest) <= inlierMaxDist {
					inliers = append(inliers, c)
				}
			}
			if len(inliers) > len(bestInliers) {
				bestInliers = inliers
			}
		}
	}
	if len(bestInliers) < 2 {
		return nil, false
	}
	return bestInliers, true
}

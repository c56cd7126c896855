package slam

import (
	"log"
	"sort"
)

// mapping refines Tworld_prev·Trelative against the accumulated local map
// (spec.md §4.5). Unlike ego-motion, correspondences come from radius
// queries against the rolling voxel grids rather than a kd-tree over a
// single previous sweep. A planar point's plane is fitted to the
// planeNbrNeighbors nearest points of its query, and edge neighborhoods are
// refined by a RANSAC inlier pass before fitting since the map neighborhood
// is noisier.
//
// planars is the point set mapping matches against planes: the capped
// per-scan-line planar selection (current.Planars) when FastSlam is on, or
// every non-invalidated point of the sweep (KeypointSet.AllValid, edge
// keypoints included) when it's off (spec.md §6 FastSlam).
func mapping(current KeypointSet, planars PointCloud, edgeGrid, planarGrid *RollingGrid, initial Pose, p Params) (Pose, RejectionHistogram, SkipReason) {
	dp := p.distanceParams(stepMapping)
	var hist RejectionHistogram

	pose := initial
	reason := SkipNone

	for outer := 0; outer < dp.icpMaxIter; outer++ {
		hist.reset()
		var residuals []ResidualTerm

		interp := NewInterpolator(initial, pose)

		for _, x := range current.Edges {
			t := effectiveTime(p.Undistortion, x.Time)
			xt := interp.TransformAt(x, t)

			raw := edgeGrid.QueryRadius(xt, p.MaxDistanceForICPMatching)
			if len(raw) < dp.lineMinNeighborRejection {
				hist.add(RejectNeighborhoodTooFar)
				continue
			}
			candidates, ok := mappingLineNeighbors(raw, p.MappingLineMaxDistInlier)
			if !ok || len(candidates) < dp.lineMinNeighborRejection {
				hist.add(RejectInsufficientNeighbors)
				continue
			}
			term, cause, ok := matchLine(candidates, dp)
			if !ok {
				hist.add(cause)
				continue
			}
			final, ok := finalizeResidual(term, xt, x, t, dp.maxLineDistance)
			if !ok {
				hist.add(RejectResidualTooLarge)
				continue
			}
			residuals = append(residuals, final)
		}

		for _, x := range planars {
			t := effectiveTime(p.Undistortion, x.Time)
			xt := interp.TransformAt(x, t)

			candidates := planarGrid.QueryRadius(xt, p.MaxDistanceForICPMatching)
			sort.Slice(candidates, func(a, b int) bool {
				return distance3(candidates[a], xt) < distance3(candidates[b], xt)
			})
			if len(candidates) > dp.planeNbrNeighbors {
				candidates = candidates[:dp.planeNbrNeighbors]
			}
			if len(candidates) < 3 {
				hist.add(RejectInsufficientNeighbors)
				continue
			}
			term, cause, ok := matchPlane(candidates, dp)
			if !ok {
				hist.add(cause)
				continue
			}
			final, ok := finalizeResidual(term, xt, x, t, dp.maxPlaneDistance)
			if !ok {
				hist.add(RejectResidualTooLarge)
				continue
			}
			residuals = append(residuals, final)
		}

		// spec.md §7: a minimum total-matches floor, distinct from the
		// per-correspondence lineMinNeighborRejection/planar "< 3" checks
		// above.
		if len(residuals) < dp.minimumTotalMatches {
			reason = SkipInsufficientMatches
			log.Printf("mapping: outer=%d matches=%d < minimum=%d, skipping", outer, len(residuals), dp.minimumTotalMatches)
			break
		}

		result := runLM(residuals, pose, dp.lmMaxIter, p.Undistortion, p.MaxDistBetweenTwoFrames)
		if result.diverged {
			reason = SkipDivergence
			log.Printf("mapping: outer=%d LM diverged after %d iterations, skipping", outer, result.iterations)
			break
		}
		pose = result.pose
	}

	if reason != SkipNone {
		return initial, hist, reason
	}
	return pose, hist, SkipNone
}

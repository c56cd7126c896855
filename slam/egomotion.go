package slam

import "log"

// egoMotion estimates Trelative, the rigid transform from the previous
// sweep's sensor frame to the current one, by ICP against the previous
// sweep's own edge and planar keypoints (spec.md §4.4). It returns the
// refined Trelative, the match-rejection histogram accumulated over the
// final ICP iteration, and the reason the sweep was skipped (SkipNone on
// success).
func egoMotion(current KeypointSet, previousEdges, previousPlanars PointCloud, initial Pose, p Params) (Pose, RejectionHistogram, SkipReason) {
	dp := p.distanceParams(stepEgoMotion)
	var hist RejectionHistogram

	if len(previousEdges) == 0 && len(previousPlanars) == 0 {
		return initial, hist, SkipNone
	}

	edgeTree := buildTreeIfAny(previousEdges)
	planeTree := buildTreeIfAny(previousPlanars)

	pose := initial
	reason := SkipNone

	for outer := 0; outer < dp.icpMaxIter; outer++ {
		hist.reset()
		var residuals []ResidualTerm

		if edgeTree != nil {
			interp := NewInterpolator(Identity(), pose)
			for _, x := range current.Edges {
				t := effectiveTime(p.Undistortion, x.Time)
				xt := interp.TransformAt(x, t)

				candidates, ok := egoMotionLineNeighbors(edgeTree, xt, dp.lineNbrNeighbors, dp.maxLineDistance)
				if !ok {
					hist.add(RejectNeighborhoodTooFar)
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
		}

		if planeTree != nil {
			interp := NewInterpolator(Identity(), pose)
			for _, x := range current.Planars {
				t := effectiveTime(p.Undistortion, x.Time)
				xt := interp.TransformAt(x, t)

				candidates := egoMotionPlaneNeighbors(planeTree, xt, dp.planeNbrNeighbors, dp.maxPlaneDistance)
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
		}

		// spec.md §7: a sweep whose ICP iteration can't assemble at least
		// minimumTotalMatches line+plane terms combined is under-matched,
		// distinct from lineMinNeighborRejection/planar's "< 3" checks
		// above, which reject a single correspondence's own neighborhood.
		if len(residuals) < dp.minimumTotalMatches {
			reason = SkipInsufficientMatches
			log.Printf("egoMotion: outer=%d matches=%d < minimum=%d, skipping", outer, len(residuals), dp.minimumTotalMatches)
			break
		}

		result := runLM(residuals, pose, dp.lmMaxIter, p.Undistortion, p.MaxDistBetweenTwoFrames)
		if result.diverged {
			reason = SkipDivergence
			log.Printf("egoMotion: outer=%d LM diverged after %d iterations, skipping", outer, result.iterations)
			break
		}
		pose = result.pose
	}

	if reason == SkipNone && pose.TranslationNorm() > p.MaxDistBetweenTwoFrames {
		reason = SkipDivergence
		log.Printf("egoMotion: translation norm=%.3f exceeds maxDistBetweenTwoFrames=%.3f, skipping", pose.TranslationNorm(), p.MaxDistBetweenTwoFrames)
	}
	if reason != SkipNone {
		return Identity(), hist, reason
	}
	return pose, hist, SkipNone
}

func buildTreeIfAny(points PointCloud) *KDTree {
	if len(points) == 0 {
		return nil
	}
	return NewKDTree(points)
}

package slam

import "math"

// descriptors holds the parallel per-point arrays for one scan line
// (spec.md §3 "Per-point descriptors").
type descriptors struct {
	angleScore       []float64
	depthGap         []float64
	lengthResolution []float64
	saliency         []float64
	valid            []bool
}

func newDescriptors(n int) descriptors {
	return descriptors{
		angleScore:       make([]float64, n),
		depthGap:         make([]float64, n),
		lengthResolution: make([]float64, n),
		saliency:         make([]float64, n),
		valid:            make([]bool, n),
	}
}

// computeDescriptors fills the parallel descriptor arrays for one scan
// line (spec.md §4.2 step 1). W is NeighborWidth.
func computeDescriptors(line []Point3, w int, angleResolution float64) descriptors {
	n := len(line)
	d := newDescriptors(n)
	for i := range d.valid {
		d.valid[i] = true
	}

	for i := w; i < n-w; i++ {
		p := line[i]

		var leftSum, rightSum Point3
		for k := 1; k <= w; k++ {
			leftSum = leftSum.add(line[i-k])
			rightSum = rightSum.add(line[i+k])
		}
		leftMean := leftSum.scale(1.0 / float64(w))
		rightMean := rightSum.scale(1.0 / float64(w))

		toLeft := p.sub(leftMean)
		toRight := rightMean.sub(p)
		cr := cross(toLeft, toRight)
		nl, nr := norm(toLeft), norm(toRight)
		if nl > 1e-9 && nr > 1e-9 {
			d.angleScore[i] = clamp(norm(cr)/(nl*nr), 0, 1)
		}

		rPrev := norm(line[i-1])
		rCur := norm(p)
		rNext := norm(line[i+1])
		gapPrev := math.Abs(rPrev - rCur)
		gapNext := math.Abs(rNext - rCur)
		if gapPrev > gapNext {
			d.depthGap[i] = gapPrev
			if rPrev < rCur {
				d.depthGap[i] = -gapPrev
			}
		} else {
			d.depthGap[i] = gapNext
			if rNext < rCur {
				d.depthGap[i] = -gapNext
			}
		}

		d.lengthResolution[i] = angleResolution * rCur

		second := line[i-1].add(line[i+1]).sub(p.scale(2))
		d.saliency[i] = norm(second)
	}

	return d
}

const (
	parallelBeamRangeRatio = 3.0
	saliencyNoiseFloor     = 1e-4
)

// invalidatePoints marks points invalid per spec.md §4.2 step 2: points
// within W of either end, beam-parallel surfaces, occlusion-boundary far
// sides, and points below the saliency noise floor.
func invalidatePoints(line []Point3, d *descriptors, w int, edgeDepthGapThreshold float64) {
	n := len(line)
	for i := 0; i < n; i++ {
		if i < w || i >= n-w {
			d.valid[i] = false
			line[i].Label = LabelInvalid
			continue
		}

		rPrev := norm(line[i-1])
		rCur := norm(line[i])
		rNext := norm(line[i+1])

		// (a) Beam-parallel surface: either neighbor's range is far out of
		// proportion to this point's range.
		if (rCur > 1e-9 && (rPrev/rCur > parallelBeamRangeRatio || rCur/rPrev > parallelBeamRangeRatio)) ||
			(rCur > 1e-9 && (rNext/rCur > parallelBeamRangeRatio || rCur/rNext > parallelBeamRangeRatio)) {
			d.valid[i] = false
			line[i].Label = LabelInvalid
			continue
		}

		// (b) Occlusion boundary: the far side of a depth step is
		// invalidated, the near side survives. depthGap is negative when
		// this point is the farther of the two (see computeDescriptors).
		if math.Abs(d.depthGap[i]) > edgeDepthGapThreshold && d.depthGap[i] < 0 {
			d.valid[i] = false
			line[i].Label = LabelInvalid
			continue
		}

		// (c) Saliency below noise floor.
		if d.saliency[i] < saliencyNoiseFloor {
			d.valid[i] = false
			line[i].Label = LabelInvalid
			continue
		}
	}
}

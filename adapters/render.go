package adapters

import (
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/kwv/lidarslam/slam"
)

// MapRenderer draws a top-down SVG snapshot of the rolling map and
// trajectory, generalized from the teacher's VectorRenderer (canvas.Path
// MoveTo/LineTo per feature, one style per layer).
type MapRenderer struct {
	Scale   float64 // canvas units per world unit (meter)
	Padding float64 // canvas-unit padding around the bounds
}

// NewMapRenderer returns a renderer with the teacher's default-ish framing.
func NewMapRenderer() *MapRenderer {
	return &MapRenderer{Scale: 1.0, Padding: 5.0}
}

// RenderToSVG writes an SVG showing the edge/planar map points (as dots)
// and the trajectory (as a polyline) to w.
func (r *MapRenderer) RenderToSVG(w io.Writer, edges, planars []slam.Point3, trajectory []slam.Pose) error {
	minX, minY, maxX, maxY := r.bounds(edges, planars, trajectory)
	width := (maxX-minX)*r.Scale + 2*r.Padding
	height := (maxY-minY)*r.Scale + 2*r.Padding
	if width <= 0 {
		width = 2 * r.Padding
	}
	if height <= 0 {
		height = 2 * r.Padding
	}

	svgRenderer := svg.New(w, width, height, nil)

	project := func(x, y float64) (float64, float64) {
		return (x-minX)*r.Scale + r.Padding, (y-minY)*r.Scale + r.Padding
	}

	planarStyle := canvas.DefaultStyle
	planarStyle.Fill = canvas.Paint{Color: canvas.Gray}
	planarStyle.Stroke = canvas.Paint{Color: canvas.Gray}
	planarStyle.StrokeWidth = 0.4
	for _, p := range planars {
		cx, cy := project(p.X, p.Y)
		dot := &canvas.Path{}
		dot.MoveTo(cx-0.2, cy)
		dot.LineTo(cx+0.2, cy)
		svgRenderer.RenderPath(dot, planarStyle, canvas.Identity)
	}

	edgeStyle := canvas.DefaultStyle
	edgeStyle.Fill = canvas.Paint{Color: canvas.Black}
	edgeStyle.Stroke = canvas.Paint{Color: canvas.Black}
	edgeStyle.StrokeWidth = 0.6
	for _, p := range edges {
		cx, cy := project(p.X, p.Y)
		dot := &canvas.Path{}
		dot.MoveTo(cx-0.3, cy)
		dot.LineTo(cx+0.3, cy)
		svgRenderer.RenderPath(dot, edgeStyle, canvas.Identity)
	}

	trajStyle := canvas.DefaultStyle
	trajStyle.Stroke = canvas.Paint{Color: canvas.Red}
	trajStyle.StrokeWidth = 1.0
	trajStyle.StrokeCapper = canvas.RoundCapper{}
	trajStyle.StrokeJoiner = canvas.RoundJoiner{}
	if len(trajectory) > 1 {
		path := &canvas.Path{}
		for i, pose := range trajectory {
			cx, cy := project(pose.Tx, pose.Ty)
			if i == 0 {
				path.MoveTo(cx, cy)
			} else {
				path.LineTo(cx, cy)
			}
		}
		svgRenderer.RenderPath(path, trajStyle, canvas.Identity)
	}

	return svgRenderer.Close()
}

func (r *MapRenderer) bounds(edges, planars []slam.Point3, trajectory []slam.Pose) (minX, minY, maxX, maxY float64) {
	first := true
	consider := func(x, y float64) {
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
			return
		}
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	for _, p := range edges {
		consider(p.X, p.Y)
	}
	for _, p := range planars {
		consider(p.X, p.Y)
	}
	for _, p := range trajectory {
		consider(p.Tx, p.Ty)
	}
	return
}

package adapters

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kwv/lidarslam/slam"
)

// RasterRenderer renders the accumulated map and trajectory to a PNG
// snapshot (grey map points, red trajectory), for operators who want a quick raster preview without an SVG
// viewer.
type RasterRenderer struct {
	Scale   float64
	Padding int
}

// NewRasterRenderer returns a renderer at 20 pixels per map unit with
// 20 pixels of padding.
func NewRasterRenderer() *RasterRenderer {
	return &RasterRenderer{Scale: 20, Padding: 20}
}

var (
	rasterBackground = color.RGBA{240, 240, 240, 255}
	rasterPlanar     = color.RGBA{200, 200, 200, 255}
	rasterEdge       = color.RGBA{60, 60, 60, 255}
	rasterTrajectory = color.RGBA{200, 30, 30, 255}
)

// RenderPNG rasterizes edges, planars, and the trajectory into an image and
// writes it to path as a PNG.
func (r *RasterRenderer) RenderPNG(path string, edges, planars []slam.Point3, trajectory []slam.Pose) error {
	minX, minY, maxX, maxY := bounds(edges, planars, trajectory)

	width := int((maxX-minX)*r.Scale) + 2*r.Padding
	height := int((maxY-minY)*r.Scale) + 2*r.Padding
	if width <= 0 {
		width = 2*r.Padding + 1
	}
	if height <= 0 {
		height = 2*r.Padding + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, rasterBackground)
		}
	}

	toImage := func(x, y float64) (int, int) {
		return int((x-minX)*r.Scale) + r.Padding, int((y-minY)*r.Scale) + r.Padding
	}

	for _, p := range planars {
		ix, iy := toImage(p.X, p.Y)
		setPixel(img, ix, iy, rasterPlanar)
	}
	for _, p := range edges {
		ix, iy := toImage(p.X, p.Y)
		drawDot(img, ix, iy, 1, rasterEdge)
	}
	for i := 1; i < len(trajectory); i++ {
		x0, y0 := toImage(trajectory[i-1].Tx, trajectory[i-1].Ty)
		x1, y1 := toImage(trajectory[i].Tx, trajectory[i].Ty)
		drawLine(img, x0, y0, x1, y1, rasterTrajectory)
	}

	drawLegend(img)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if x >= 0 && x < img.Bounds().Max.X && y >= 0 && y < img.Bounds().Max.Y {
		img.Set(x, y, c)
	}
}

func drawDot(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

// drawLine rasterizes a straight segment with Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := int(math.Abs(float64(x1 - x0)))
	dy := -int(math.Abs(float64(y1 - y0)))
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setPixel(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawLegend(img *image.RGBA) {
	face := basicfont.Face7x13
	draw := func(x, y int, text string, c color.RGBA) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
		}
		d.DrawString(text)
	}
	draw(10, 15, "edges", rasterEdge)
	draw(10, 30, "planars", rasterPlanar)
	draw(10, 45, "trajectory", rasterTrajectory)
}

func bounds(edges, planars []slam.Point3, trajectory []slam.Pose) (minX, minY, maxX, maxY float64) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64
	consider := func(x, y float64) {
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
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
	if minX > maxX {
		return 0, 0, 1, 1
	}
	return
}

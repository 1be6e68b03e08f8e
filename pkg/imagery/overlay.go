package imagery

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

const (
	panelW      = 18
	panelH      = 10
	panelGap    = 3
	outlineGap  = 12
	panelWatts  = 550.0
	markerR     = 8
	arrowInset  = 40
	legendInset = 30
)

var (
	panelFill    = color.NRGBA{R: 245, G: 158, B: 11, A: 100}
	panelEdge    = color.NRGBA{R: 245, G: 158, B: 11, A: 200}
	outlineColor = color.NRGBA{R: 245, G: 158, B: 11, A: 180}
	inverterFill = color.NRGBA{R: 34, G: 197, B: 94, A: 180}
	white        = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
)

// PanelCount is the number of 550 W panels needed for sizeKWp.
func PanelCount(sizeKWp float64) int {
	if sizeKWp <= 0 {
		return 0
	}
	return int(math.Ceil(sizeKWp * 1000 / panelWatts))
}

// GridShape returns the columns and rows of the centred panel grid. The grid
// is kept wider than it is tall.
func GridShape(panels int) (cols, rows int) {
	if panels <= 0 {
		return 0, 0
	}
	cols = int(math.Sqrt(float64(panels) * 1.5))
	if cols < 1 {
		cols = 1
	}
	rows = (panels + cols - 1) / cols
	return cols, rows
}

// Overlay returns a copy of img with the panel grid for sizeKWp, the usable
// area outline, an inverter marker, a north arrow and a legend swatch drawn
// over it.
func Overlay(img image.Image, sizeKWp float64) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	panels := PanelCount(sizeKWp)
	cols, rows := GridShape(panels)
	gridW := cols * (panelW + panelGap)
	gridH := rows * (panelH + panelGap)
	x0 := (b.Dx() - gridW) / 2
	y0 := (b.Dy() - gridH) / 2

	if panels > 0 {
		outline(dst, image.Rect(x0-outlineGap, y0-outlineGap, x0+gridW+outlineGap, y0+gridH+outlineGap), 2, outlineColor)
	}

	for i := 0; i < panels; i++ {
		x := x0 + (i%cols)*(panelW+panelGap)
		y := y0 + (i/cols)*(panelH+panelGap)
		panel(dst, image.Rect(x, y, x+panelW, y+panelH))
	}

	if panels > 0 {
		disc(dst, image.Pt(x0+gridW/2, y0+gridH+outlineGap+15), markerR, inverterFill)
	}

	northArrow(dst, image.Pt(b.Dx()-arrowInset, 30))

	ly := b.Dy() - legendInset
	panel(dst, image.Rect(10, ly-4, 10+panelW, ly+panelH-4))
	disc(dst, image.Pt(225, ly+3), 5, inverterFill)

	return dst
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func outline(dst draw.Image, r image.Rectangle, width int, c color.Color) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y+width, r.Min.X+width, r.Max.Y-width), c)
	fill(dst, image.Rect(r.Max.X-width, r.Min.Y+width, r.Max.X, r.Max.Y-width), c)
}

func panel(dst draw.Image, r image.Rectangle) {
	fill(dst, r.Inset(1), panelFill)
	outline(dst, r, 1, panelEdge)
}

func disc(dst draw.Image, c image.Point, radius int, col color.Color) {
	for dy := -radius; dy <= radius; dy++ {
		half := int(math.Sqrt(float64(radius*radius - dy*dy)))
		fill(dst, image.Rect(c.X-half, c.Y+dy, c.X+half+1, c.Y+dy+1), col)
	}
}

// northArrow draws an upward triangle with its apex 12px above c.
func northArrow(dst draw.Image, c image.Point) {
	const top, base, halfBase = 12, 6, 6
	height := top + base
	for dy := 0; dy <= height; dy++ {
		half := halfBase * dy / height
		y := c.Y - top + dy
		fill(dst, image.Rect(c.X-half, y, c.X+half+1, y+1), white)
	}
}

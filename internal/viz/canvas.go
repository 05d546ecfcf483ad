package viz

import (
	"math"
	"strings"

	"github.com/san-kum/linefollow/internal/track"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawPath connects consecutive points in track coordinates.
func (c *Canvas) DrawPath(v Viewport, pts []track.Point) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := v.Map(pts[i-1])
		x1, y1 := v.Map(pts[i])
		c.DrawLine(x0, y0, x1, y1)
	}
}

// DrawRobot draws the chassis as a short heading tick with a dot at the axle.
func (c *Canvas) DrawRobot(v Viewport, p track.Pose, length float64) {
	x0, y0 := v.Map(track.Point{X: p.X, Y: p.Y})
	x1, y1 := v.Map(track.Point{X: p.X + length*math.Cos(p.Heading), Y: p.Y + length*math.Sin(p.Heading)})
	c.DrawLine(x0, y0, x1, y1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			c.Set(x0+dx, y0+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps track coordinates in metres onto canvas sub-pixels with
// equal scale on both axes and y pointing up.
type Viewport struct {
	minX, minY float64
	scale      float64
	height     int
}

func FitViewport(c *Canvas, pts []track.Point, margin float64) Viewport {
	if len(pts) == 0 {
		return Viewport{scale: 1, height: c.Height * 4}
	}
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	minX, maxX = minX-margin, maxX+margin
	minY, maxY = minY-margin, maxY+margin

	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	scale := math.Min(w/math.Max(maxX-minX, 1e-9), h/math.Max(maxY-minY, 1e-9))

	// center the drawing
	minX -= (w/scale - (maxX - minX)) / 2
	minY -= (h/scale - (maxY - minY)) / 2
	return Viewport{minX: minX, minY: minY, scale: scale, height: c.Height * 4}
}

func (v Viewport) Map(p track.Point) (int, int) {
	x := int(math.Round((p.X - v.minX) * v.scale))
	y := v.height - 1 - int(math.Round((p.Y-v.minY)*v.scale))
	return x, y
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

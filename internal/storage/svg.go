package storage

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/linefollow/internal/sim"
	"github.com/san-kum/linefollow/internal/track"
)

// TrajectorySVG draws the track line, its right-side crossing marks and the
// recorded path of the robot.
func TrajectorySVG(w io.Writer, tr *track.Track, samples []sim.Sample, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("svg: invalid size %dx%d", width, height)
	}

	pts := tr.Points()
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	grow := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, p := range pts {
		grow(p.X, p.Y)
	}
	for _, s := range samples {
		grow(s.X, s.Y)
	}
	if math.IsInf(minX, 1) {
		return fmt.Errorf("svg: nothing to draw")
	}

	// Uniform scale so curves keep their shape.
	rangeX := math.Max(maxX-minX, 0.1)
	rangeY := math.Max(maxY-minY, 0.1)
	pad := 0.1 * math.Max(rangeX, rangeY)
	minX, minY = minX-pad, minY-pad
	rangeX, rangeY = rangeX+2*pad, rangeY+2*pad
	scale := math.Min(float64(width)/rangeX, float64(height)/rangeY)

	mx := func(x float64) float64 { return (x - minX) * scale }
	my := func(y float64) float64 { return float64(height) - (y-minY)*scale }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	fmt.Fprintf(&sb, `<path fill="none" stroke="#eeeeee" stroke-width="%.1f" d="`, math.Max(tr.LineWidth*scale, 1))
	for i, p := range pts {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, mx(p.X), my(p.Y))
	}
	sb.WriteString("\"/>\n")

	for _, s := range tr.RightMarks {
		pose := tr.At(s)
		// right of the heading
		dx, dy := math.Sin(pose.Heading), -math.Cos(pose.Heading)
		cx, cy := pose.X+dx*tr.MarkOffset, pose.Y+dy*tr.MarkOffset
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#ff5f87"/>
`, mx(cx), my(cy), math.Max(tr.MarkWidth*scale/2, 2))
	}

	if len(samples) > 1 {
		sb.WriteString(`<path fill="none" stroke="#00ff87" stroke-width="1.5" d="`)
		for i, s := range samples {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, mx(s.X), my(s.Y))
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

package track

import (
	"fmt"
	"math"
	"sort"
)

var registry = map[string]func() *Track{
	"straight": Straight,
	"gap":      Gap,
	"oval":     Oval,
	"scurve":   SCurve,
}

// Get builds a fresh copy of the named track.
func Get(name string) (*Track, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrack, name)
	}
	return fn(), nil
}

func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Straight is a 6 m line with start and finish marks.
func Straight() *Track {
	t := New("straight", []Point{{0, 0}, {6, 0}}, false)
	t.RightMarks = []float64{0.5, 5.0}
	return t
}

// Gap is a straight line with an unpainted stretch the robot has to bridge
// on the gyro.
func Gap() *Track {
	t := New("gap", []Point{{0, 0}, {6, 0}}, false)
	t.RightMarks = []float64{0.5, 5.0}
	t.Gaps = [][2]float64{{2.0, 2.35}}
	return t
}

// Oval is a closed loop; the single start/finish mark is crossed once at
// the start and once after a lap. Left marks flag the curve entries.
func Oval() *Track {
	const straight, r = 2.5, 0.6
	var pts []Point
	pts = append(pts, Point{0, 0}, Point{straight, 0})
	pts = append(pts, Arc(Point{straight, r}, r, -math.Pi/2, math.Pi/2, 24)[1:]...)
	pts = append(pts, Point{0, 2 * r})
	pts = append(pts, Arc(Point{0, r}, r, math.Pi/2, 3*math.Pi/2, 24)[1:]...)

	t := New("oval", pts[:len(pts)-1], true)
	t.RightMarks = []float64{0.3}
	t.LeftMarks = []float64{straight - 0.1, 2*straight + math.Pi*r - 0.1}
	return t
}

// SCurve is an open S bend between two straights.
func SCurve() *Track {
	const r = 0.8
	var pts []Point
	pts = append(pts, Point{0, 0}, Point{1, 0})
	pts = append(pts, Arc(Point{1, r}, r, -math.Pi/2, 0, 16)[1:]...)
	pts = append(pts, Arc(Point{1 + 2*r, r}, r, math.Pi, math.Pi/2, 16)[1:]...)
	end := pts[len(pts)-1]
	pts = append(pts, Point{end.X + 1.2, end.Y})

	t := New("scurve", pts, false)
	t.RightMarks = []float64{0.4, t.Length() - 0.4}
	return t
}

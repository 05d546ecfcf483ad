package track

import (
	"errors"
	"math"
)

var ErrUnknownTrack = errors.New("track: unknown track")

type Point struct {
	X, Y float64
}

type Pose struct {
	X, Y    float64
	Heading float64
}

// Projection locates a point relative to the line.
type Projection struct {
	S        float64 // arc length of the closest line point
	Lateral  float64 // signed offset, positive to the left of travel
	Distance float64
	Heading  float64 // line direction at S
}

// Track is a painted line described as a polyline, with crossing marks
// beside it. Marks on the right side end runs; left marks are decoration
// the robot must ignore.
type Track struct {
	Name   string
	Closed bool

	LineWidth float64

	RightMarks []float64 // arc positions
	LeftMarks  []float64
	MarkLength float64
	MarkOffset float64 // lateral distance of a mark's center from the line
	MarkWidth  float64

	Gaps [][2]float64 // unpainted arc ranges

	points []Point
	cum    []float64
}

func New(name string, points []Point, closed bool) *Track {
	t := &Track{
		Name:       name,
		Closed:     closed,
		LineWidth:  0.019,
		MarkLength: 0.02,
		MarkOffset: 0.05,
		MarkWidth:  0.03,
	}
	t.points = append(t.points, points...)
	if closed && len(points) > 1 && points[0] != points[len(points)-1] {
		t.points = append(t.points, points[0])
	}

	t.cum = make([]float64, len(t.points))
	for i := 1; i < len(t.points); i++ {
		t.cum[i] = t.cum[i-1] + dist(t.points[i-1], t.points[i])
	}
	return t
}

func (t *Track) Points() []Point { return t.points }

func (t *Track) Length() float64 {
	if len(t.cum) == 0 {
		return 0
	}
	return t.cum[len(t.cum)-1]
}

// Start places the robot on the line at arc 0, facing along it.
func (t *Track) Start() Pose {
	if len(t.points) < 2 {
		return Pose{}
	}
	a, b := t.points[0], t.points[1]
	return Pose{X: a.X, Y: a.Y, Heading: math.Atan2(b.Y-a.Y, b.X-a.X)}
}

// At returns the pose on the line at arc length s.
func (t *Track) At(s float64) Pose {
	if len(t.points) < 2 {
		return Pose{}
	}
	s = t.wrap(s)
	for i := 1; i < len(t.points); i++ {
		if s <= t.cum[i] || i == len(t.points)-1 {
			a, b := t.points[i-1], t.points[i]
			seg := t.cum[i] - t.cum[i-1]
			f := 0.0
			if seg > 0 {
				f = (s - t.cum[i-1]) / seg
			}
			return Pose{
				X:       a.X + f*(b.X-a.X),
				Y:       a.Y + f*(b.Y-a.Y),
				Heading: math.Atan2(b.Y-a.Y, b.X-a.X),
			}
		}
	}
	return Pose{}
}

func (t *Track) Project(p Point) Projection {
	best := Projection{Distance: math.Inf(1)}
	for i := 1; i < len(t.points); i++ {
		a, b := t.points[i-1], t.points[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		l2 := dx*dx + dy*dy
		if l2 == 0 {
			continue
		}
		f := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
		f = math.Max(0, math.Min(1, f))
		q := Point{a.X + f*dx, a.Y + f*dy}
		d := dist(p, q)
		if d >= best.Distance {
			continue
		}
		lateral := d
		if dx*(p.Y-a.Y)-dy*(p.X-a.X) < 0 {
			lateral = -d
		}
		best = Projection{
			S:        t.cum[i-1] + f*math.Sqrt(l2),
			Lateral:  lateral,
			Distance: d,
			Heading:  math.Atan2(dy, dx),
		}
	}
	return best
}

// OnLine reports whether p lies on painted line.
func (t *Track) OnLine(p Point) bool {
	pr := t.Project(p)
	if pr.Distance > t.LineWidth/2 {
		return false
	}
	for _, g := range t.Gaps {
		if pr.S >= g[0] && pr.S <= g[1] {
			return false
		}
	}
	return true
}

// OnMark reports whether p lies on a crossing mark on the given side,
// +1 for left and -1 for right.
func (t *Track) OnMark(p Point, side int) bool {
	marks := t.RightMarks
	if side > 0 {
		marks = t.LeftMarks
	}
	if len(marks) == 0 {
		return false
	}

	pr := t.Project(p)
	lat := pr.Lateral * float64(side)
	if math.Abs(lat-t.MarkOffset) > t.MarkWidth/2 {
		return false
	}
	for _, s := range marks {
		if math.Abs(t.arcDelta(pr.S, s)) <= t.MarkLength/2 {
			return true
		}
	}
	return false
}

func (t *Track) wrap(s float64) float64 {
	l := t.Length()
	if !t.Closed || l == 0 {
		return math.Max(0, math.Min(l, s))
	}
	s = math.Mod(s, l)
	if s < 0 {
		s += l
	}
	return s
}

func (t *Track) arcDelta(a, b float64) float64 {
	d := a - b
	if t.Closed {
		l := t.Length()
		d = math.Mod(d+l/2, l)
		if d < 0 {
			d += l
		}
		d -= l / 2
	}
	return d
}

func dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Arc samples a circular arc from angle a0 to a1 (radians) around c.
func Arc(c Point, radius, a0, a1 float64, n int) []Point {
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		a := a0 + (a1-a0)*float64(i)/float64(n)
		pts = append(pts, Point{c.X + radius*math.Cos(a), c.Y + radius*math.Sin(a)})
	}
	return pts
}

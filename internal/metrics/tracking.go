package metrics

import (
	"math"

	"github.com/san-kum/linefollow/internal/robot"
	"github.com/san-kum/linefollow/internal/sim"
)

// TrackingError is the RMS lateral offset from the line while driving.
type TrackingError struct {
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError { return &TrackingError{} }

func (e *TrackingError) Name() string { return "tracking_rms" }

func (e *TrackingError) Observe(s sim.Sample) {
	if !s.Active {
		return
	}
	e.sumSq += s.Offset * s.Offset
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() { *e = TrackingError{} }

type MaxOffset struct{ max float64 }

func NewMaxOffset() *MaxOffset { return &MaxOffset{} }

func (m *MaxOffset) Name() string { return "max_offset" }

func (m *MaxOffset) Observe(s sim.Sample) {
	if s.Active {
		m.max = math.Max(m.max, math.Abs(s.Offset))
	}
}

func (m *MaxOffset) Value() float64 { return m.max }
func (m *MaxOffset) Reset()         { m.max = 0 }

// GyroShare is the fraction of driving cycles steered by the gyro loop.
type GyroShare struct {
	gyro, samples int
}

func NewGyroShare() *GyroShare { return &GyroShare{} }

func (g *GyroShare) Name() string { return "gyro_share" }

func (g *GyroShare) Observe(s sim.Sample) {
	if !s.Active {
		return
	}
	g.samples++
	if s.Controller == robot.ControllerGyro {
		g.gyro++
	}
}

func (g *GyroShare) Value() float64 {
	if g.samples == 0 {
		return 0
	}
	return float64(g.gyro) / float64(g.samples)
}

func (g *GyroShare) Reset() { g.gyro, g.samples = 0, 0 }

// AverageSpeed is the distance driven divided by driving time.
type AverageSpeed struct {
	dist    float64
	x, y    float64
	t0, t   float64
	started bool
}

func NewAverageSpeed() *AverageSpeed { return &AverageSpeed{} }

func (a *AverageSpeed) Name() string { return "avg_speed" }

func (a *AverageSpeed) Observe(s sim.Sample) {
	if !s.Active {
		return
	}
	if !a.started {
		a.started = true
		a.t0 = s.T
	} else {
		a.dist += math.Hypot(s.X-a.x, s.Y-a.y)
	}
	a.x, a.y, a.t = s.X, s.Y, s.T
}

func (a *AverageSpeed) Value() float64 {
	if a.t <= a.t0 {
		return 0
	}
	return a.dist / (a.t - a.t0)
}

func (a *AverageSpeed) Reset() { *a = AverageSpeed{} }

// Standard returns the metrics recorded for every run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewTrackingError(),
		NewMaxOffset(),
		NewControlEffort(),
		NewGyroShare(),
		NewStability(0.02),
		NewAverageSpeed(),
		NewWeave(),
	}
}

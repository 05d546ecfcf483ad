package metrics

import "github.com/san-kum/linefollow/internal/sim"

const (
	weaveWindow     = 1 << 14
	weaveMinSamples = 32
)

// Weave is the dominant frequency, in Hz, of the lateral offset while the
// motors are active. A well-damped follower shows a low, weak peak.
type Weave struct {
	offsets []float64
	times   []float64
}

func NewWeave() *Weave { return &Weave{} }

func (w *Weave) Name() string { return "weave_hz" }

func (w *Weave) Observe(s sim.Sample) {
	if !s.Active {
		return
	}
	if len(w.offsets) == weaveWindow {
		w.offsets = w.offsets[1:]
		w.times = w.times[1:]
	}
	w.offsets = append(w.offsets, s.Offset)
	w.times = append(w.times, s.T)
}

func (w *Weave) Value() float64 {
	n := len(w.offsets)
	if n < weaveMinSamples {
		return 0
	}
	dt := (w.times[n-1] - w.times[0]) / float64(n-1)
	if dt <= 0 {
		return 0
	}

	ps, padded := powerSpectrum(w.offsets)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	return float64(peak) / (float64(padded) * dt)
}

func (w *Weave) Reset() { w.offsets, w.times = nil, nil }

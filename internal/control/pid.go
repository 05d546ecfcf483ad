package control

import (
	"fmt"
	"math"

	"github.com/san-kum/linefollow/internal/robot"
)

// PID is a discrete controller evaluated once per control cycle. The sample
// period is folded into the gains.
type PID struct {
	Kp float64
	Ki float64
	Kd float64

	// IntegralLimit and OutputLimit bound the accumulator and the result;
	// zero disables the bound.
	IntegralLimit float64
	OutputLimit   float64

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(g robot.Gains) *PID {
	return &PID{
		Kp:    g.Kp,
		Ki:    g.Ki,
		Kd:    g.Kd,
		first: true,
	}
}

func (p *PID) Compute(err float64) float64 {
	if p.first {
		p.prevErr = err
		p.first = false
	}

	p.integral = limit(p.integral+err, p.IntegralLimit)
	derivative := err - p.prevErr
	p.prevErr = err

	u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative
	return limit(u, p.OutputLimit)
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

func (p *PID) SetGains(g robot.Gains) {
	p.Kp, p.Ki, p.Kd = g.Kp, g.Ki, g.Kd
}

func (p *PID) Gains() robot.Gains {
	return robot.Gains{Kp: p.Kp, Ki: p.Ki, Kd: p.Kd}
}

// Integral exposes the accumulator for diagnostics.
func (p *PID) Integral() float64 { return p.integral }

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp": p.Kp,
		"ki": p.Ki,
		"kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s=%v", ErrBadTuning, name, value)
	}
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrBadTuning, name)
	}
	return nil
}

func limit(v, bound float64) float64 {
	if bound <= 0 {
		return v
	}
	return math.Max(-bound, math.Min(bound, v))
}

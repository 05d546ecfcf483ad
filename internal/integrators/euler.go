package integrators

import "github.com/san-kum/linefollow/internal/sim"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	return axpy(x, dt, dyn.Derivative(x, u, t))
}

// axpy returns x + a*y as a new state.
func axpy(x sim.State, a float64, y sim.State) sim.State {
	out := make(sim.State, len(x))
	for i := range x {
		out[i] = x[i] + a*y[i]
	}
	return out
}

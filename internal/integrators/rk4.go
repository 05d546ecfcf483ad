package integrators

import "github.com/san-kum/linefollow/internal/sim"

// RK4 is the classic fourth-order Runge-Kutta method. The chassis has
// strong coupling between heading and position, so it is the default.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t, dt float64) sim.State {
	half := dt / 2
	k1 := dyn.Derivative(x, u, t)
	k2 := dyn.Derivative(axpy(x, half, k1), u, t+half)
	k3 := dyn.Derivative(axpy(x, half, k2), u, t+half)
	k4 := dyn.Derivative(axpy(x, dt, k3), u, t+dt)

	out := make(sim.State, len(x))
	for i := range x {
		out[i] = x[i] + dt/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}

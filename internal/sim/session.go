package sim

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/linefollow/internal/follower"
	"github.com/san-kum/linefollow/internal/robot"
	"github.com/san-kum/linefollow/internal/track"
)

// Session is a running simulation advanced one control cycle at a time.
// Helper-sensor edges are delivered to the follower on a separate goroutine,
// the way hardware interrupts would be.
type Session struct {
	Follower *follower.Follower

	sim *Simulator
	cfg Config

	body    *body
	clock   *Clock
	sensors *SensorArray
	gyro    *Gyro
	motors  *Motors
	buttons *Buttons
	leds    *LEDs

	t       float64
	steps   int
	helpers [2]bool
	started bool
	reason  StopReason
	script  []Press

	edges  chan follower.Edge
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	closed bool
}

func (s *Session) serve(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.group, s.ctx = errgroup.WithContext(ctx)
	s.edges = make(chan follower.Edge)
	s.group.Go(func() error {
		return s.Follower.ServeInterrupts(s.ctx, s.edges)
	})
}

// place puts the robot at the track start, at rest.
func (s *Session) place() {
	start := s.body.track.Start()
	s.body.x = State{start.X, start.Y, start.Heading, 0, 0}
	s.helpers = [2]bool{s.helperOn(robot.Left), s.helperOn(robot.Right)}
}

// Step runs one control cycle and advances the chassis by Dt.
func (s *Session) Step() (Sample, error) {
	select {
	case <-s.ctx.Done():
		return Sample{}, s.ctx.Err()
	default:
	}

	for len(s.script) > 0 && s.script[0].At <= s.t+1e-9 {
		s.buttons.Press(s.script[0].Button)
		s.script = s.script[1:]
	}

	s.clock.set(s.t)
	s.Follower.Run()
	snap := s.Follower.Snapshot()

	u := s.motors.Command()
	s.body.x = s.sim.integrator.Step(s.body.chassis, s.body.x, u, s.t, s.cfg.Dt)
	s.t += s.cfg.Dt
	s.steps++
	// edges are stamped with the time of the pose that produced them
	s.clock.set(s.t)

	if err := s.pollHelpers(); err != nil {
		return Sample{}, err
	}

	sample := s.sample(snap)
	for _, m := range s.sim.metrics {
		m.Observe(sample)
	}
	for _, o := range s.sim.observers {
		o.OnStep(sample)
	}
	if !s.reason.Terminal() {
		s.reason = s.check(snap, sample)
	}
	return sample, nil
}

func (s *Session) sample(snap follower.Snapshot) Sample {
	x := s.body.x
	pr := s.body.track.Project(track.Point{X: x[StateX], Y: x[StateY]})
	return Sample{
		T:          s.t,
		X:          x[StateX],
		Y:          x[StateY],
		Heading:    x[StateHeading],
		Offset:     pr.Lateral,
		Progress:   pr.S,
		Input:      snap.SensorInput,
		PIDResult:  snap.PIDResult,
		Left:       snap.LeftOutput,
		Right:      snap.RightOutput,
		RotSpeed:   snap.RotSpeed,
		Controller: snap.Controller,
		Mode:       snap.Mode,
		Active:     snap.MotorsActive,
		Crossings:  snap.Crossings,
	}
}

func (s *Session) check(snap follower.Snapshot, sample Sample) StopReason {
	switch {
	case !s.body.x.IsValid():
		return StopInvalid
	case snap.MotorsActive:
		s.started = true
	case s.started:
		if snap.LastRunCrossings >= s.sim.robot.Crossing.TotalSignals {
			return StopCrossings
		}
		return StopManual
	}
	if s.cfg.LostDistance > 0 && math.Abs(sample.Offset) > s.cfg.LostDistance {
		return StopLost
	}
	if s.cfg.Duration > 0 && s.t >= s.cfg.Duration-1e-9 {
		return StopTimeout
	}
	return ""
}

func (s *Session) helperOn(side robot.Side) bool {
	sign := 1.0
	if side == robot.Right {
		sign = -1
	}
	ch := s.body.chassis
	p := s.body.local(ch.HelperAhead, sign*ch.HelperLateral)
	return s.body.track.OnMark(p, int(sign))
}

func (s *Session) pollHelpers() error {
	for i, side := range []robot.Side{robot.Left, robot.Right} {
		on := s.helperOn(side)
		if on == s.helpers[i] {
			continue
		}
		s.helpers[i] = on
		if err := s.interrupt(follower.Edge{Side: side, Rising: on}); err != nil {
			return err
		}
	}
	return nil
}

// interrupt hands an edge to the serving goroutine and waits until the
// detector has seen it, so edges land at the simulated time they occur.
func (s *Session) interrupt(e follower.Edge) error {
	handled := make(chan struct{})
	e.Handled = handled
	select {
	case s.edges <- e:
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
	select {
	case <-handled:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Reset puts the robot back at the start and clears the stop reason. An
// active run is ended first.
func (s *Session) Reset() {
	if s.Follower.Snapshot().MotorsActive {
		s.Follower.ToggleMotorsAreActive()
	}
	s.place()
	s.reason = ""
	s.started = false
	if s.cfg.AutoStart {
		s.buttons.Press(1)
	}
}

// Close stops the interrupt goroutine.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.edges)
	err := s.group.Wait()
	s.cancel()
	return err
}

// Done returns why the robot stopped, or "" while it is driving or waiting
// for the first start.
func (s *Session) Done() StopReason { return s.reason }

func (s *Session) Time() float64           { return s.t }
func (s *Session) Steps() int              { return s.steps }
func (s *Session) Track() *track.Track     { return s.body.track }
func (s *Session) Press(button int)        { s.buttons.Press(button) }
func (s *Session) LEDs() (bool, bool)      { return s.leds.State() }
func (s *Session) SensorCalibrations() int { return s.sensors.Calibrations() }

func (s *Session) Pose() track.Pose {
	x := s.body.x
	return track.Pose{X: x[StateX], Y: x[StateY], Heading: x[StateHeading]}
}

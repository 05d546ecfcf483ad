package follower

import (
	"sync"
	"time"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/control"
	"github.com/san-kum/linefollow/internal/robot"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSensors struct {
	readings     []bool
	calibrations int
}

func (s *fakeSensors) DigitalReadings() []bool { return s.readings }
func (s *fakeSensors) Calibrate()              { s.calibrations++ }

// set lights the given sensor indices on an 8-sensor array.
func (s *fakeSensors) set(active ...int) {
	s.readings = make([]bool, 8)
	for _, i := range active {
		s.readings[i] = true
	}
}

type fakeGyro struct {
	rate         float64
	calibrated   bool
	calibrations int
}

func (g *fakeGyro) Rate() float64      { return g.rate }
func (g *fakeGyro) IsCalibrated() bool { return g.calibrated }
func (g *fakeGyro) Calibrate() {
	g.calibrations++
	g.calibrated = true
}

type fakeMotors struct {
	left, right float64
	calls       int
}

func (m *fakeMotors) Drive(left, right float64) {
	m.left, m.right = left, right
	m.calls++
}

type fakeButtons struct{ b1, b2 bool }

func (b *fakeButtons) Read() (bool, bool) { return b.b1, b.b2 }

type fakeLEDs struct{ led1, led2 bool }

func (l *fakeLEDs) Show(led1, led2 bool) { l.led1, l.led2 = led1, led2 }

// spyPID records every error fed to a real PID.
type spyPID struct {
	*control.PID
	errs   []float64
	resets int
	gains  robot.Gains
}

func newSpyPID() *spyPID {
	return &spyPID{PID: control.NewPID(robot.Gains{})}
}

func (s *spyPID) Compute(err float64) float64 {
	s.errs = append(s.errs, err)
	return s.PID.Compute(err)
}

func (s *spyPID) Reset() {
	s.resets++
	s.PID.Reset()
}

func (s *spyPID) SetGains(g robot.Gains) {
	s.gains = g
	s.PID.SetGains(g)
}

func (s *spyPID) lastErr() float64 {
	if len(s.errs) == 0 {
		return 0
	}
	return s.errs[len(s.errs)-1]
}

type rig struct {
	f         *Follower
	cfg       *config.Config
	clock     *fakeClock
	sensors   *fakeSensors
	gyro      *fakeGyro
	motors    *fakeMotors
	buttons   *fakeButtons
	leds      *fakeLEDs
	sensorPID *spyPID
	gyroPID   *spyPID
}

func newRig(cfg *config.Config) (*rig, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r := &rig{
		cfg:       cfg,
		clock:     newFakeClock(),
		sensors:   &fakeSensors{},
		gyro:      &fakeGyro{},
		motors:    &fakeMotors{},
		buttons:   &fakeButtons{},
		leds:      &fakeLEDs{},
		sensorPID: newSpyPID(),
		gyroPID:   newSpyPID(),
	}
	r.sensors.set(3, 4)

	f, err := New(cfg, Devices{
		Sensors:    r.sensors,
		Gyro:       r.gyro,
		Motors:     r.motors,
		SensorPID:  r.sensorPID,
		GyroPID:    r.gyroPID,
		Buttons:    r.buttons,
		Indicators: r.leds,
	}, Options{Clock: r.clock})
	if err != nil {
		return nil, err
	}
	r.f = f
	f.Initialize()
	return r, nil
}

// step advances the clock and runs one cycle.
func (r *rig) step(d time.Duration) {
	r.clock.Advance(d)
	r.f.Run()
}

// press performs a full press-release of a button, one cycle each.
func (r *rig) press(button int) {
	if button == 1 {
		r.buttons.b1 = true
	} else {
		r.buttons.b2 = true
	}
	r.step(time.Millisecond)
	r.buttons.b1, r.buttons.b2 = false, false
	r.step(time.Millisecond)
}

package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/linefollow/internal/track"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock reports simulated time. It is read from interrupt goroutines.
type Clock struct {
	mu sync.Mutex
	t  float64
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return epoch.Add(time.Duration(c.t * float64(time.Second)))
}

func (c *Clock) set(t float64) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// body is the shared view of the robot on the track used by the devices.
type body struct {
	x       State
	chassis Chassis
	track   *track.Track
}

// local converts a point in the robot frame (ahead, left) to world frame.
func (b *body) local(ahead, left float64) track.Point {
	th := b.x[StateHeading]
	c, s := math.Cos(th), math.Sin(th)
	return track.Point{
		X: b.x[StateX] + ahead*c - left*s,
		Y: b.x[StateY] + ahead*s + left*c,
	}
}

// SensorArray is a bar of reflectance sensors, index 0 on the left.
type SensorArray struct {
	body         *body
	rng          *rand.Rand
	noise        float64
	calibrations int
}

func (a *SensorArray) DigitalReadings() []bool {
	n := a.body.chassis.Sensors
	mid := float64(n-1) / 2
	out := make([]bool, n)
	for i := range out {
		p := a.body.local(a.body.chassis.SensorAhead, (mid-float64(i))*a.body.chassis.SensorPitch)
		out[i] = a.body.track.OnLine(p)
		if a.noise > 0 && a.rng.Float64() < a.noise {
			out[i] = !out[i]
		}
	}
	return out
}

func (a *SensorArray) Calibrate() { a.calibrations++ }

func (a *SensorArray) Calibrations() int { return a.calibrations }

// Gyro reports yaw rate in deg/s with a bias that calibration removes.
type Gyro struct {
	body       *body
	rng        *rand.Rand
	noise      float64
	bias       float64
	calibrated bool
}

func (g *Gyro) Rate() float64 {
	r := g.body.chassis.YawRate(g.body.x)
	if !g.calibrated {
		r += g.bias
	}
	if g.noise > 0 {
		r += g.rng.NormFloat64() * g.noise
	}
	return r
}

func (g *Gyro) IsCalibrated() bool { return g.calibrated }
func (g *Gyro) Calibrate()         { g.calibrated = true }

type Motors struct {
	mu          sync.Mutex
	left, right float64
}

func (m *Motors) Drive(left, right float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.left, m.right = left, right
}

func (m *Motors) Command() Control {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Control{m.left, m.right}
}

// Buttons holds a press down for a few reads, then releases it.
type Buttons struct {
	mu   sync.Mutex
	held [2]int
}

const pressReads = 3

// Press queues a press of button 1 or 2.
func (b *Buttons) Press(n int) {
	if n < 1 || n > 2 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held[n-1] = pressReads
}

func (b *Buttons) Read() (bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b1, b2 := b.held[0] > 0, b.held[1] > 0
	for i := range b.held {
		if b.held[i] > 0 {
			b.held[i]--
		}
	}
	return b1, b2
}

type LEDs struct {
	mu         sync.Mutex
	led1, led2 bool
}

func (l *LEDs) Show(led1, led2 bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.led1, l.led2 = led1, led2
}

func (l *LEDs) State() (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.led1, l.led2
}

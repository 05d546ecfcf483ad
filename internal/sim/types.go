package sim

import (
	"math"

	"github.com/san-kum/linefollow/internal/robot"
)

// State of the chassis: x, y (m), heading (rad), left and right wheel speed (m/s).
type State []float64

const (
	StateX = iota
	StateY
	StateHeading
	StateVLeft
	StateVRight
)

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control holds the left and right motor commands in [-1, 1].
type Control []float64

type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}

// Sample is one recorded control cycle.
type Sample struct {
	T          float64
	X, Y       float64
	Heading    float64
	Offset     float64 // lateral distance from the line, positive left
	Progress   float64 // arc length along the line
	Input      float64
	PIDResult  float64
	Left       float64
	Right      float64
	RotSpeed   float64
	Controller robot.Controller
	Mode       robot.Mode
	Active     bool
	Crossings  uint
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type StopReason string

const (
	StopCrossings StopReason = "crossings"
	StopManual    StopReason = "manual"
	StopLost      StopReason = "lost"
	StopTimeout   StopReason = "timeout"
	StopInvalid   StopReason = "invalid"
)

// Terminal reasons end a session for good; a stopped run can be restarted.
func (r StopReason) Terminal() bool {
	return r == StopLost || r == StopTimeout || r == StopInvalid
}

type Config struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"` // zero runs until the robot stops
	Seed     int64   `yaml:"seed"`

	SensorNoise float64 `yaml:"sensor_noise"` // probability of a flipped reading
	GyroNoise   float64 `yaml:"gyro_noise"`   // deg/s standard deviation
	GyroBias    float64 `yaml:"gyro_bias"`    // deg/s until calibrated

	LostDistance float64 `yaml:"lost_distance"` // m from the line
	AutoStart    bool    `yaml:"auto_start"`
	RecordEvery  int     `yaml:"record_every"`

	Script []Press `yaml:"script"` // scripted button presses
}

// Press holds a button down at simulated time At.
type Press struct {
	At     float64 `yaml:"at"`
	Button int     `yaml:"button"`
}

func DefaultConfig() Config {
	return Config{
		Dt:           0.005,
		Duration:     30,
		Seed:         1,
		GyroBias:     1.5,
		LostDistance: 0.3,
		AutoStart:    true,
		RecordEvery:  1,
	}
}

type Result struct {
	Samples   []Sample
	Metrics   map[string]float64
	Reason    StopReason
	Crossings uint
	Handoffs  int
	Elapsed   float64
	Steps     int
}

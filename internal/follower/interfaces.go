package follower

import (
	"time"

	"github.com/san-kum/linefollow/internal/robot"
)

// SensorArray reports one boolean per line sensor, index 0 on the robot's
// left.
type SensorArray interface {
	DigitalReadings() []bool
	Calibrate()
}

// Gyro reports the heading rate; positive means turning left.
type Gyro interface {
	Rate() float64
	IsCalibrated() bool
	// Calibrate blocks until the gyro is zeroed.
	Calibrate()
}

// Motors accepts normalized drive commands in [-1, 1].
type Motors interface {
	Drive(left, right float64)
}

type PID interface {
	Compute(err float64) float64
	Reset()
	SetGains(g robot.Gains)
}

type Buttons interface {
	Read() (button1, button2 bool)
}

type Indicators interface {
	Show(led1, led2 bool)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

package robot

import (
	"fmt"
	"strings"
)

type Mode int

const (
	Slow Mode = iota
	Medium
	Fast
)

var modeNames = [...]string{"slow", "medium", "fast"}

// Modes lists every mode in cycle order.
func Modes() []Mode { return []Mode{Slow, Medium, Fast} }

func (m Mode) Valid() bool { return m >= Slow && m <= Fast }

// Next returns the mode that follows m in the SLOW → MEDIUM → FAST cycle.
func (m Mode) Next() Mode {
	if m == Fast {
		return Slow
	}
	return m + 1
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Controller selects the steering error source for a cycle.
type Controller int

const (
	ControllerSensor Controller = iota
	ControllerGyro
)

func (c Controller) String() string {
	switch c {
	case ControllerSensor:
		return "sensor"
	case ControllerGyro:
		return "gyro"
	}
	return fmt.Sprintf("controller(%d)", int(c))
}

func ParseController(s string) (Controller, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sensor":
		return ControllerSensor, nil
	case "gyro":
		return ControllerGyro, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownController, s)
}

type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

// Profile is the parameter bundle a mode carries. It is applied as a whole
// whenever the mode changes.
type Profile struct {
	SensorGains     Gains   `yaml:"sensor_pid"`
	GyroGains       Gains   `yaml:"gyro_pid"`
	MotorClamp      float64 `yaml:"motor_clamp"`
	MinMotorOffset  float64 `yaml:"min_motor_offset"`
	MaxMotorOffset  float64 `yaml:"max_motor_offset"`
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
}

// Validate checks that the bundle can drive the motors. mode is only used to
// label the returned error.
func (p Profile) Validate(mode Mode) error {
	switch {
	case p.MotorClamp <= 0 || p.MotorClamp > 1:
		return &ProfileError{Mode: mode, Field: "motor_clamp", Wrapped: ErrInvalidProfile}
	case p.MinMotorOffset > p.MaxMotorOffset:
		return &ProfileError{Mode: mode, Field: "min_motor_offset", Wrapped: ErrInvalidProfile}
	case p.MaxMotorOffset <= 0:
		return &ProfileError{Mode: mode, Field: "max_motor_offset", Wrapped: ErrInvalidProfile}
	case p.SpeedMultiplier <= 0:
		return &ProfileError{Mode: mode, Field: "speed_multiplier", Wrapped: ErrInvalidProfile}
	}
	return nil
}

package sim

import "math"

// Chassis is a differential-drive robot with first-order motor lag.
// Positive yaw is counter-clockwise.
type Chassis struct {
	TrackWidth float64 // m between wheels
	MaxSpeed   float64 // m/s at full command
	MotorLag   float64 // s

	SensorAhead float64 // m from axle to the sensor bar
	SensorPitch float64 // m between sensors
	Sensors     int

	HelperAhead   float64
	HelperLateral float64
}

func DefaultChassis() Chassis {
	return Chassis{
		TrackWidth:    0.12,
		MaxSpeed:      1.2,
		MotorLag:      0.05,
		SensorAhead:   0.07,
		SensorPitch:   0.008,
		Sensors:       8,
		HelperAhead:   0.03,
		HelperLateral: 0.05,
	}
}

func (c Chassis) StateDim() int   { return 5 }
func (c Chassis) ControlDim() int { return 2 }

func (c Chassis) Derivative(x State, u Control, t float64) State {
	vl, vr := x[StateVLeft], x[StateVRight]
	v := (vl + vr) / 2
	omega := (vr - vl) / c.TrackWidth
	th := x[StateHeading]

	var ul, ur float64
	if len(u) == 2 {
		ul, ur = u[0], u[1]
	}
	return State{
		v * math.Cos(th),
		v * math.Sin(th),
		omega,
		(ul*c.MaxSpeed - vl) / c.MotorLag,
		(ur*c.MaxSpeed - vr) / c.MotorLag,
	}
}

// YawRate returns the heading rate in deg/s.
func (c Chassis) YawRate(x State) float64 {
	return (x[StateVRight] - x[StateVLeft]) / c.TrackWidth * 180 / math.Pi
}

package follower

import "math"

// invertedMap linearly maps input from [inMin, inMax] onto [outMax, outMin],
// so larger inputs give smaller outputs, clamped to the output range.
func invertedMap(input, inMin, inMax, outMin, outMax float64) float64 {
	lo, hi := math.Min(outMin, outMax), math.Max(outMin, outMax)
	if inMax == inMin {
		return hi
	}
	v := outMax - (input-inMin)*(outMax-outMin)/(inMax-inMin)
	return clamp(v, lo, hi)
}

func (f *Follower) calculateMotorOffset() float64 {
	return invertedMap(math.Abs(f.pidResult), 0, f.cfg.PIDOutputRange,
		f.profile.MinMotorOffset, f.profile.MaxMotorOffset)
}

// getTurboOffset boosts offset while the robot is tracking straight. The
// boost never lowers the offset and stops at the motor clamp.
func (f *Follower) getTurboOffset(offset float64) float64 {
	if math.Abs(f.pidResult) >= f.cfg.Turbo.Threshold {
		return offset
	}
	return math.Max(offset, math.Min(offset*f.cfg.Turbo.Multiplier, f.profile.MotorClamp))
}

// updateMotors slows the inner wheel: a positive correction slows the left
// wheel, a negative one the right.
func (f *Follower) updateMotors() {
	if !f.motorsActive {
		f.leftMotorOutput, f.rightMotorOutput = 0, 0
		f.motors.Drive(0, 0)
		return
	}

	inner := f.getTurboOffset(f.calculateMotorOffset())
	outer := f.getTurboOffset(f.profile.MaxMotorOffset)

	left, right := outer, inner
	if f.pidResult > 0 {
		left, right = inner, outer
	}

	c := f.profile.MotorClamp
	f.leftMotorOutput = clamp(f.profile.SpeedMultiplier*left, -c, c)
	f.rightMotorOutput = clamp(f.profile.SpeedMultiplier*right, -c, c)
	f.motors.Drive(f.leftMotorOutput, f.rightMotorOutput)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

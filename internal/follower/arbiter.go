package follower

import (
	"math"
	"time"

	"github.com/san-kum/linefollow/internal/robot"
)

// calculateInput returns the mean index of the active sensors and true, or
// the last valid input and false when the line is lost.
func (f *Follower) calculateInput(readings []bool) (float64, bool) {
	f.sensorCount = len(readings)

	sum, active := 0, 0
	for i, on := range readings {
		if on {
			sum += i
			active++
		}
	}
	if active == 0 {
		return f.lastValidSensorInput, false
	}

	f.lastValidSensorInput = float64(sum) / float64(active)
	return f.lastValidSensorInput, true
}

func (f *Follower) updateController(now time.Time) {
	input, onLine := f.calculateInput(f.sensors.DigitalReadings())
	f.sensorInput = input

	if onLine {
		f.isOutOfLine = false
		if f.controller != robot.ControllerSensor {
			f.switchController(robot.ControllerSensor)
		}
		return
	}

	if !f.isOutOfLine {
		f.isOutOfLine = true
		f.outOfLineStartingTime = now
	}
	if f.controller == robot.ControllerSensor && f.cfg.Gyro.Enabled &&
		now.Sub(f.outOfLineStartingTime) > f.cfg.HandoffTimeout {
		f.switchController(robot.ControllerGyro)
	}
}

// switchController resets both PIDs so no accumulated state crosses over.
func (f *Follower) switchController(c robot.Controller) {
	f.logger.Debug("controller handoff", "from", f.controller, "to", c, "last_input", f.lastValidSensorInput)
	f.controller = c
	f.sensorPID.Reset()
	f.gyroPID.Reset()
	f.handoffs++
}

func (f *Follower) calculateSensorReadingError(err float64) float64 {
	return err * f.cfg.ErrorGain
}

// calculateTargetRotSpeed turns the last seen line offset into a heading
// rate that steers back toward it.
func (f *Follower) calculateTargetRotSpeed(err float64) float64 {
	half := math.Max(f.sensorTarget, float64(f.sensorCount-1)-f.sensorTarget)
	if half <= 0 {
		return 0
	}
	demand := math.Max(-1, math.Min(1, err/half))
	return demand * f.cfg.Gyro.RotSpeedLimit * f.cfg.Gyro.Scale
}

func (f *Follower) updateCorrection() {
	switch f.controller {
	case robot.ControllerSensor:
		err := f.calculateSensorReadingError(f.sensorTarget - f.sensorInput)
		f.pidResult = f.sensorPID.Compute(err)
	case robot.ControllerGyro:
		if !f.gyroWasCalibrated && !f.gyro.IsCalibrated() {
			// hold a straight course while the gyro zeroes
			f.pidResult = 0
			f.updateMotors()
			f.calibrateGyro()
			return
		}
		f.gyroWasCalibrated = true
		f.rotSpeed = f.gyro.Rate()
		f.rotSpeedTarget = f.calculateTargetRotSpeed(f.sensorTarget - f.lastValidSensorInput)
		f.pidResult = f.gyroPID.Compute(f.rotSpeedTarget - f.rotSpeed)
	}
}

func (f *Follower) calibrateGyro() {
	if f.gyroWasCalibrated {
		return
	}
	start := f.clock.Now()
	f.logger.Info("calibrating gyro")
	f.gyro.Calibrate()
	f.gyroWasCalibrated = true
	f.logger.Info("gyro calibrated", "took", f.clock.Now().Sub(start))
}

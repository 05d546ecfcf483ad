// Package follower is the control core of a line-following robot.
//
// A [Follower] owns the robot state and is driven by calling [Follower.Run]
// once per control cycle from a single goroutine. Each cycle it:
//
//  1. ends the run if the crossing detector reached its stop count
//  2. polls the buttons (run toggle, mode switch) through a shared debounce
//  3. applies a pending mode change
//  4. reads the line sensors and arbitrates between sensor and gyro steering
//  5. evaluates the active PID and shapes the result into wheel offsets
//  6. commands the motors, or zero when the run is not active
//
// Helper-sensor edges arrive asynchronously through
// [Follower.TriggeredInterruptRising] and [Follower.TriggeredInterruptFalling]
// (or an [Edge] channel passed to [Follower.ServeInterrupts]). They only touch
// the mutex-guarded [CrossingDetector].
package follower

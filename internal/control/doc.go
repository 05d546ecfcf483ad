// Package control provides the PID primitive used by the line follower.
//
//   - [PID]: discrete PID with explicit integral/derivative memory and Reset
//   - [RemotePID]: the same contract, retunable out of band from a line stream
//
// # Usage
//
//	pid := control.NewPID(robot.Gains{Kp: 30, Kd: 120})
//	out := pid.Compute(err) // once per control cycle
//	pid.Reset()             // on controller switch
//
// Both types implement GetParams/SetParam for live tuning.
package control

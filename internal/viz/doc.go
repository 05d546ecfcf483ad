// Package viz renders the robot and its telemetry in the terminal.
//
//   - [Model]: live Bubble Tea view of a running simulation session
//   - [Canvas]: Braille-based pixel canvas used to draw the track
//   - [Chart]: asciigraph line charts for recorded telemetry
//
// # Key Bindings
//
//	1     - Press button 1 (start/stop the run)
//	2     - Press button 2 (next mode)
//	Space - Pause/Resume simulation
//	R     - Put the robot back at the start
//	+/-   - Simulation speed
//	Q     - Quit
package viz

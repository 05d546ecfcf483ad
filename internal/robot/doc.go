// Package robot holds the vocabulary shared by the line follower core, its
// configuration and the simulation rig:
//
//   - [Mode]: discrete speed profile, cycled SLOW → MEDIUM → FAST → SLOW
//   - [Controller]: which steering source is authoritative (sensor or gyro)
//   - [Side]: helper sensor side for crossing interrupts
//   - [Profile]: the gain/clamp/offset bundle a mode carries
//
// Configuration and construction failures are reported with the sentinel
// errors in this package; match them with errors.Is.
package robot

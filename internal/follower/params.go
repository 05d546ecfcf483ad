package follower

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// Params returns every tunable parameter and the live control values.
func (f *Follower) Params() map[string]float64 {
	params := f.cfg.GetParams()
	params["mode"] = float64(f.mode)
	params["controller"] = float64(f.controller)
	params["motor_clamp"] = f.profile.MotorClamp
	params["min_motor_offset"] = f.profile.MinMotorOffset
	params["max_motor_offset"] = f.profile.MaxMotorOffset
	params["speed_multiplier"] = f.profile.SpeedMultiplier
	params["sensor_kp"] = f.profile.SensorGains.Kp
	params["sensor_ki"] = f.profile.SensorGains.Ki
	params["sensor_kd"] = f.profile.SensorGains.Kd
	params["gyro_kp"] = f.profile.GyroGains.Kp
	params["gyro_ki"] = f.profile.GyroGains.Ki
	params["gyro_kd"] = f.profile.GyroGains.Kd
	params["sensor_input"] = f.sensorInput
	params["rot_speed"] = f.rotSpeed
	params["rot_speed_target"] = f.rotSpeedTarget
	params["pid_result"] = f.pidResult
	params["left_output"] = f.leftMotorOutput
	params["right_output"] = f.rightMotorOutput
	params["crossings"] = float64(f.crossing.Count())
	params["rejected_edges"] = float64(f.crossing.Rejected())
	return params
}

// PrintAll writes the parameter dump as an aligned table.
func (f *Follower) PrintAll(w io.Writer) error {
	params := f.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "mode\t%s\n", f.mode)
	fmt.Fprintf(tw, "controller\t%s\n", f.controller)
	fmt.Fprintf(tw, "motors_active\t%t\n", f.motorsActive)
	for _, k := range keys {
		if k == "mode" || k == "controller" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.4f\n", k, params[k])
	}
	return tw.Flush()
}

package follower

import "github.com/san-kum/linefollow/internal/robot"

// ChangeMode applies the whole profile of m before the next PID evaluation.
func (f *Follower) ChangeMode(m robot.Mode) error {
	p, err := f.cfg.Modes.Profile(m)
	if err != nil {
		return err
	}
	prev := f.mode
	f.mode = m
	f.profile = p
	f.sensorPID.SetGains(p.SensorGains)
	f.gyroPID.SetGains(p.GyroGains)
	f.modeSwitchRequested = false
	if prev != m {
		f.logger.Info("mode changed", "from", prev, "to", m)
	}
	return nil
}

// SwitchMode advances to the next mode in the cycle.
func (f *Follower) SwitchMode() {
	if err := f.ChangeMode(f.mode.Next()); err != nil {
		f.logger.Error("mode switch failed", "mode", f.mode.String(), "err", err)
		f.modeSwitchRequested = false
	}
}

func (f *Follower) updateMode() {
	if f.modeSwitchRequested {
		f.SwitchMode()
	}
}

func (f *Follower) Mode() robot.Mode { return f.mode }

func (f *Follower) Profile() robot.Profile { return f.profile }

package follower

import "time"

// isButtonPressValid accepts a press once the debounce window since the last
// accepted press has passed. Both buttons share the window.
func (f *Follower) isButtonPressValid(now time.Time) bool {
	if !f.lastPressedButtonTime.IsZero() && now.Sub(f.lastPressedButtonTime) <= f.cfg.Debounce {
		return false
	}
	f.lastPressedButtonTime = now
	return true
}

func (f *Follower) updateButtons(now time.Time) {
	if f.buttons == nil {
		return
	}
	b1, b2 := f.buttons.Read()

	if b1 && !f.button1 && f.isButtonPressValid(now) {
		f.ToggleMotorsAreActive()
	}
	if b2 && !f.button2 && f.isButtonPressValid(now) {
		f.modeSwitchRequested = true
	}
	f.button1, f.button2 = b1, b2
}

package follower

import (
	"testing"
	"time"

	"github.com/san-kum/linefollow/internal/robot"
)

func TestButtonToggleDebounced(t *testing.T) {
	r := mustRig(t, nil)

	r.press(1)
	if !r.f.Snapshot().MotorsActive {
		t.Fatal("first valid press should activate motors")
	}

	r.clock.Advance(100 * time.Millisecond)
	r.press(1)
	if !r.f.Snapshot().MotorsActive {
		t.Error("second press inside the debounce window must be ignored")
	}

	r.clock.Advance(400 * time.Millisecond)
	r.press(1)
	if r.f.Snapshot().MotorsActive {
		t.Error("press after the debounce window should toggle motors off")
	}
}

func TestButtonHeldTriggersOnce(t *testing.T) {
	r := mustRig(t, nil)

	r.buttons.b1 = true
	for i := 0; i < 5; i++ {
		r.step(time.Second)
	}
	if !r.f.Snapshot().MotorsActive || r.f.Snapshot().Runs != 1 {
		t.Errorf("holding the button should toggle exactly once, runs=%d", r.f.Snapshot().Runs)
	}
}

func TestButtonHeldAtBootIgnored(t *testing.T) {
	r := mustRig(t, nil)
	r.buttons.b1 = true
	r.f.Initialize()

	r.step(time.Second)
	if r.f.Snapshot().MotorsActive {
		t.Error("a button held through Initialize must not count as a press")
	}
}

func TestButtonsShareDebounceWindow(t *testing.T) {
	r := mustRig(t, nil)

	r.press(1)
	r.clock.Advance(50 * time.Millisecond)
	r.press(2)

	if r.f.Mode() != robot.Medium {
		t.Errorf("mode press inside the shared window must be ignored, mode=%s", r.f.Mode())
	}

	r.clock.Advance(time.Second)
	r.press(2)
	if r.f.Mode() != robot.Fast {
		t.Errorf("expected fast after a valid mode press, got %s", r.f.Mode())
	}
}

func TestIsButtonPressValid(t *testing.T) {
	r := mustRig(t, nil)
	now := r.clock.Now()

	if !r.f.isButtonPressValid(now) {
		t.Fatal("first press should be valid")
	}
	if r.f.isButtonPressValid(now.Add(r.cfg.Debounce)) {
		t.Error("press exactly at the debounce interval should be rejected")
	}
	if !r.f.isButtonPressValid(now.Add(r.cfg.Debounce + time.Millisecond)) {
		t.Error("press after the debounce interval should be valid")
	}
}

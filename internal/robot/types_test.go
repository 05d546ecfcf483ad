package robot

import (
	"errors"
	"testing"
)

func TestModeCycle(t *testing.T) {
	tests := []struct {
		from, to Mode
	}{
		{Slow, Medium},
		{Medium, Fast},
		{Fast, Slow},
	}

	for _, tt := range tests {
		if got := tt.from.Next(); got != tt.to {
			t.Errorf("%s.Next() = %s, want %s", tt.from, got, tt.to)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("ParseMode(%q) = %s", m.String(), got)
		}
	}

	if _, err := ParseMode(" FAST "); err != nil {
		t.Errorf("expected case-insensitive parse, got %v", err)
	}

	_, err := ParseMode("ludicrous")
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestModeText(t *testing.T) {
	var m Mode
	if err := m.UnmarshalText([]byte("slow")); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if m != Slow {
		t.Errorf("expected slow, got %s", m)
	}

	if _, err := Mode(7).MarshalText(); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode for invalid mode, got %v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	good := Profile{MotorClamp: 1, MinMotorOffset: 0.7, MaxMotorOffset: 1, SpeedMultiplier: 1}
	if err := good.Validate(Medium); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		mut   func(p *Profile)
		field string
	}{
		{"zero clamp", func(p *Profile) { p.MotorClamp = 0 }, "motor_clamp"},
		{"clamp above one", func(p *Profile) { p.MotorClamp = 1.5 }, "motor_clamp"},
		{"inverted offsets", func(p *Profile) { p.MinMotorOffset = 1.2 }, "min_motor_offset"},
		{"zero speed", func(p *Profile) { p.SpeedMultiplier = 0 }, "speed_multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := good
			tt.mut(&p)
			err := p.Validate(Fast)
			if !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("expected ErrInvalidProfile, got %v", err)
			}
			var pe *ProfileError
			if !errors.As(err, &pe) || pe.Field != tt.field || pe.Mode != Fast {
				t.Errorf("unexpected profile error: %v", err)
			}
		})
	}
}

func TestParseController(t *testing.T) {
	for _, c := range []Controller{ControllerSensor, ControllerGyro} {
		got, err := ParseController(c.String())
		if err != nil || got != c {
			t.Errorf("ParseController(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseController("compass"); !errors.Is(err, ErrUnknownController) {
		t.Errorf("expected ErrUnknownController, got %v", err)
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/linefollow/internal/robot"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	mode, err := cfg.Mode()
	if err != nil || mode != robot.Medium {
		t.Errorf("expected medium start mode, got %v (%v)", mode, err)
	}
	if cfg.SensorTarget != 3.5 {
		t.Errorf("expected sensor target 3.5, got %f", cfg.SensorTarget)
	}
	if cfg.Crossing.TotalSignals != 2 {
		t.Errorf("expected 2 crossing signals, got %d", cfg.Crossing.TotalSignals)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	data := `
start_mode: fast
handoff_timeout: 250ms
crossing:
  threshold: 1s
  total_signals: 4
modes:
  fast:
    sensor_pid: {kp: 12, ki: 0, kd: 3}
    gyro_pid: {kp: 0.1}
    motor_clamp: 0.9
    min_motor_offset: 0.4
    max_motor_offset: 1.0
    speed_multiplier: 0.7
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HandoffTimeout != 250*time.Millisecond {
		t.Errorf("expected 250ms handoff, got %v", cfg.HandoffTimeout)
	}
	if cfg.Crossing.Threshold != time.Second || cfg.Crossing.TotalSignals != 4 {
		t.Errorf("crossing not loaded: %+v", cfg.Crossing)
	}
	if cfg.Modes.Fast.SensorGains.Kp != 12 || cfg.Modes.Fast.MotorClamp != 0.9 {
		t.Errorf("fast profile not loaded: %+v", cfg.Modes.Fast)
	}
	// untouched fields keep defaults
	if cfg.ErrorGain != DefaultErrorGain {
		t.Errorf("expected default error gain, got %f", cfg.ErrorGain)
	}
	if cfg.Modes.Slow != DefaultConfig().Modes.Slow {
		t.Error("slow profile should keep defaults")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown mode", "start_mode: warp\n", robot.ErrUnknownMode},
		{"zero signals", "crossing:\n  total_signals: 0\n", robot.ErrInvalidConfig},
		{"bad clamp", "modes:\n  slow:\n    motor_clamp: 2\n", robot.ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "robot.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	cfg := GetPreset("race")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.StartMode != "fast" || loaded.HandoffTimeout != cfg.HandoffTimeout {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestProfileLookup(t *testing.T) {
	cfg := DefaultConfig()
	p, err := cfg.Modes.Profile(robot.Fast)
	if err != nil {
		t.Fatal(err)
	}
	if p != cfg.Modes.Fast {
		t.Error("wrong profile returned for fast")
	}
	if _, err := cfg.Modes.Profile(robot.Mode(9)); !errors.Is(err, robot.ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("cautious")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.StartMode != "slow" || cfg.Gyro.Enabled {
		t.Errorf("unexpected cautious preset: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("cautious preset invalid: %v", err)
	}

	// presets hand out copies
	cfg.StartMode = "fast"
	if GetPreset("cautious").StartMode != "slow" {
		t.Error("preset was mutated through returned copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

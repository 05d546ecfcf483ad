package config

import (
	"sort"
	"time"
)

var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"cautious": func() *Config {
		cfg := DefaultConfig()
		cfg.StartMode = "slow"
		cfg.HandoffTimeout = 300 * time.Millisecond
		cfg.Turbo.Multiplier = 1.0
		cfg.Gyro.Enabled = false
		return cfg
	},
	"race": func() *Config {
		cfg := DefaultConfig()
		cfg.StartMode = "fast"
		cfg.HandoffTimeout = 80 * time.Millisecond
		cfg.Turbo.Threshold = 0.08
		cfg.Turbo.Multiplier = 1.25
		cfg.Gyro.CalibrateOnInit = true
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

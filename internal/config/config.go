package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/linefollow/internal/robot"
)

const (
	DefaultSensorTarget      = 3.5
	DefaultErrorGain         = 0.01
	DefaultPIDOutputRange    = 1.0
	DefaultHandoffTimeout    = 150 * time.Millisecond
	DefaultDebounce          = 300 * time.Millisecond
	DefaultCrossingThreshold = 500 * time.Millisecond
	DefaultTotalSignals      = 2
	DefaultRotSpeedThreshold = 90.0
	DefaultMinMotorOffset    = 0.7
	DefaultMaxMotorOffset    = 1.0
)

type Config struct {
	SensorTarget   float64        `yaml:"sensor_target"`
	ErrorGain      float64        `yaml:"error_gain"`
	PIDOutputRange float64        `yaml:"pid_output_range"`
	HandoffTimeout time.Duration  `yaml:"handoff_timeout"`
	Debounce       time.Duration  `yaml:"debounce"`
	StartMode      string         `yaml:"start_mode"`
	Crossing       CrossingConfig `yaml:"crossing"`
	Turbo          TurboConfig    `yaml:"turbo"`
	Gyro           GyroConfig     `yaml:"gyro"`
	Modes          ModeProfiles   `yaml:"modes"`
}

type CrossingConfig struct {
	Threshold    time.Duration `yaml:"threshold"`
	TotalSignals uint          `yaml:"total_signals"`
	MinPulse     time.Duration `yaml:"min_pulse"`
}

type TurboConfig struct {
	Threshold  float64 `yaml:"threshold"`
	Multiplier float64 `yaml:"multiplier"`
}

type GyroConfig struct {
	Enabled         bool    `yaml:"enabled"`
	CalibrateOnInit bool    `yaml:"calibrate_on_init"`
	RotSpeedLimit   float64 `yaml:"rot_speed_threshold"`
	// Scale converts the normalized turn demand into the gyro's rate units
	// and sign. Validate it against the real sensor.
	Scale float64 `yaml:"scale"`
}

type ModeProfiles struct {
	Slow   robot.Profile `yaml:"slow"`
	Medium robot.Profile `yaml:"medium"`
	Fast   robot.Profile `yaml:"fast"`
}

func (mp ModeProfiles) Profile(m robot.Mode) (robot.Profile, error) {
	switch m {
	case robot.Slow:
		return mp.Slow, nil
	case robot.Medium:
		return mp.Medium, nil
	case robot.Fast:
		return mp.Fast, nil
	}
	return robot.Profile{}, fmt.Errorf("%w: %d", robot.ErrUnknownMode, int(m))
}

func DefaultConfig() *Config {
	return &Config{
		SensorTarget:   DefaultSensorTarget,
		ErrorGain:      DefaultErrorGain,
		PIDOutputRange: DefaultPIDOutputRange,
		HandoffTimeout: DefaultHandoffTimeout,
		Debounce:       DefaultDebounce,
		StartMode:      robot.Medium.String(),
		Crossing: CrossingConfig{
			Threshold:    DefaultCrossingThreshold,
			TotalSignals: DefaultTotalSignals,
		},
		Turbo: TurboConfig{
			Threshold:  0.05,
			Multiplier: 1.15,
		},
		Gyro: GyroConfig{
			Enabled:       true,
			RotSpeedLimit: DefaultRotSpeedThreshold,
			Scale:         1.0,
		},
		Modes: ModeProfiles{
			Slow: robot.Profile{
				SensorGains:     robot.Gains{Kp: 40, Kd: 150},
				GyroGains:       robot.Gains{Kp: 0.01, Kd: 0.02},
				MotorClamp:      0.6,
				MinMotorOffset:  0.2,
				MaxMotorOffset:  DefaultMaxMotorOffset,
				SpeedMultiplier: 0.45,
			},
			Medium: robot.Profile{
				SensorGains:     robot.Gains{Kp: 35, Kd: 180},
				GyroGains:       robot.Gains{Kp: 0.008, Kd: 0.02},
				MotorClamp:      0.8,
				MinMotorOffset:  DefaultMinMotorOffset,
				MaxMotorOffset:  DefaultMaxMotorOffset,
				SpeedMultiplier: 0.6,
			},
			Fast: robot.Profile{
				SensorGains:     robot.Gains{Kp: 30, Kd: 220},
				GyroGains:       robot.Gains{Kp: 0.006, Kd: 0.02},
				MotorClamp:      1.0,
				MinMotorOffset:  0.5,
				MaxMotorOffset:  DefaultMaxMotorOffset,
				SpeedMultiplier: 0.8,
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Mode resolves StartMode.
func (c *Config) Mode() (robot.Mode, error) {
	return robot.ParseMode(c.StartMode)
}

func (c *Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.ErrorGain <= 0 {
		return fmt.Errorf("%w: error_gain must be positive, got %v", robot.ErrInvalidConfig, c.ErrorGain)
	}
	if c.PIDOutputRange <= 0 {
		return fmt.Errorf("%w: pid_output_range must be positive, got %v", robot.ErrInvalidConfig, c.PIDOutputRange)
	}
	if c.HandoffTimeout < 0 || c.Debounce < 0 || c.Crossing.Threshold < 0 || c.Crossing.MinPulse < 0 {
		return fmt.Errorf("%w: durations must not be negative", robot.ErrInvalidConfig)
	}
	if c.Crossing.TotalSignals == 0 {
		return fmt.Errorf("%w: crossing.total_signals must be at least 1", robot.ErrInvalidConfig)
	}
	if c.Turbo.Multiplier < 1 {
		return fmt.Errorf("%w: turbo.multiplier must be >= 1, got %v", robot.ErrInvalidConfig, c.Turbo.Multiplier)
	}
	for _, m := range robot.Modes() {
		p, _ := c.Modes.Profile(m)
		if err := p.Validate(m); err != nil {
			return err
		}
	}
	return nil
}

// GetParams flattens the scalar tuning values for diagnostics.
func (c *Config) GetParams() map[string]float64 {
	return map[string]float64{
		"sensor_target":       c.SensorTarget,
		"error_gain":          c.ErrorGain,
		"pid_output_range":    c.PIDOutputRange,
		"handoff_timeout_ms":  float64(c.HandoffTimeout.Milliseconds()),
		"debounce_ms":         float64(c.Debounce.Milliseconds()),
		"crossing_thresh_ms":  float64(c.Crossing.Threshold.Milliseconds()),
		"crossing_signals":    float64(c.Crossing.TotalSignals),
		"turbo_threshold":     c.Turbo.Threshold,
		"turbo_multiplier":    c.Turbo.Multiplier,
		"rot_speed_threshold": c.Gyro.RotSpeedLimit,
		"gyro_scale":          c.Gyro.Scale,
	}
}

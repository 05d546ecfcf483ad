package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/optim"
	"github.com/san-kum/linefollow/internal/sim"
	"github.com/san-kum/linefollow/internal/track"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Zero values fall back to the defaults of the
// robot and simulation configs.
type ScenarioStep struct {
	Track      string             `yaml:"track"`
	Preset     string             `yaml:"preset"`
	Mode       string             `yaml:"mode"`
	Integrator string             `yaml:"integrator"`
	Duration   float64            `yaml:"duration"`
	Dt         float64            `yaml:"dt"`
	Seed       int64              `yaml:"seed"`
	Params     map[string]float64 `yaml:"params"` // profile overrides for the start mode
	Sim        *sim.Config        `yaml:"sim"`
	Script     []sim.Press        `yaml:"script"`
	Expect     string             `yaml:"expect"` // required stop reason, if set
	SaveAs     string             `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Build turns a step into a ready simulator and its run config.
type Build func(step ScenarioStep, robotCfg *config.Config, tr *track.Track) (*sim.Simulator, error)

type StepResult struct {
	Step     ScenarioStep
	RobotCfg *config.Config
	Result   *sim.Result
	Passed   bool
}

// RunScenario executes the steps in order and stops at the first error.
// A step whose stop reason differs from Expect is reported as not passed.
func RunScenario(ctx context.Context, scenario *Scenario, build Build) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		robotCfg, cfg, tr, err := Resolve(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		s, err := build(step, robotCfg, tr)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := s.Run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{
			Step:     step,
			RobotCfg: robotCfg,
			Result:   result,
			Passed:   step.Expect == "" || sim.StopReason(step.Expect) == result.Reason,
		})
	}

	return results, nil
}

// Resolve applies a step's overrides to the default configs.
func Resolve(step ScenarioStep) (*config.Config, sim.Config, *track.Track, error) {
	cfg := sim.DefaultConfig()
	if step.Sim != nil {
		cfg = *step.Sim
	}
	if step.Dt > 0 {
		cfg.Dt = step.Dt
	}
	if step.Duration > 0 {
		cfg.Duration = step.Duration
	}
	if step.Seed != 0 {
		cfg.Seed = step.Seed
	}
	if len(step.Script) > 0 {
		cfg.Script = step.Script
		cfg.AutoStart = false
	}

	robotCfg := config.DefaultConfig()
	if step.Preset != "" {
		robotCfg = config.GetPreset(step.Preset)
		if robotCfg == nil {
			return nil, cfg, nil, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	}
	if step.Mode != "" {
		robotCfg.StartMode = step.Mode
	}
	if err := robotCfg.Validate(); err != nil {
		return nil, cfg, nil, err
	}
	if len(step.Params) > 0 {
		mode, _ := robotCfg.Mode()
		var err error
		if robotCfg, err = optim.Apply(robotCfg, mode, step.Params); err != nil {
			return nil, cfg, nil, err
		}
	}

	name := step.Track
	if name == "" {
		name = "oval"
	}
	tr, err := track.Get(name)
	if err != nil {
		return nil, cfg, nil, err
	}
	return robotCfg, cfg, tr, nil
}

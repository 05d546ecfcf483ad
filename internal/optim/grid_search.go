package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/robot"
	"github.com/san-kum/linefollow/internal/sim"
)

var ErrUnknownParam = errors.New("optim: unknown parameter")

// Trial is one evaluated point of the grid. Runs that did not finish by
// counting crossings score +Inf.
type Trial struct {
	Params map[string]float64
	Score  float64
	Reason sim.StopReason
}

type RunFunc func(ctx context.Context, params map[string]float64) (*sim.Result, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := setters[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search evaluates every grid point, lowest metric first. Trials run
// concurrently, so run must build its own simulator per call.
func (g *GridSearch) Search(ctx context.Context, run RunFunc, metricName string) ([]Trial, error) {
	var points []map[string]float64
	g.enumerate(0, map[string]float64{}, &points)

	trials := make([]Trial, len(points))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, params := range points {
		i, params := i, params
		eg.Go(func() error {
			result, err := run(ctx, params)
			if err != nil {
				return err
			}
			score := math.Inf(1)
			if result.Reason == sim.StopCrossings {
				if v, ok := result.Metrics[metricName]; ok {
					score = v
				}
			}
			trials[i] = Trial{Params: params, Score: score, Reason: result.Reason}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Score < trials[j].Score })
	return trials, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.enumerate(depth+1, next, out)
	}
}

var setters = map[string]func(p *robot.Profile, v float64){
	"sensor_kp":        func(p *robot.Profile, v float64) { p.SensorGains.Kp = v },
	"sensor_ki":        func(p *robot.Profile, v float64) { p.SensorGains.Ki = v },
	"sensor_kd":        func(p *robot.Profile, v float64) { p.SensorGains.Kd = v },
	"gyro_kp":          func(p *robot.Profile, v float64) { p.GyroGains.Kp = v },
	"gyro_ki":          func(p *robot.Profile, v float64) { p.GyroGains.Ki = v },
	"gyro_kd":          func(p *robot.Profile, v float64) { p.GyroGains.Kd = v },
	"motor_clamp":      func(p *robot.Profile, v float64) { p.MotorClamp = v },
	"min_motor_offset": func(p *robot.Profile, v float64) { p.MinMotorOffset = v },
	"max_motor_offset": func(p *robot.Profile, v float64) { p.MaxMotorOffset = v },
	"speed_multiplier": func(p *robot.Profile, v float64) { p.SpeedMultiplier = v },
}

// Params lists the profile fields a grid can sweep.
func Params() []string {
	names := make([]string, 0, len(setters))
	for k := range setters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of base with params written into the profile of mode.
func Apply(base *config.Config, mode robot.Mode, params map[string]float64) (*config.Config, error) {
	cfg := *base
	var p *robot.Profile
	switch mode {
	case robot.Slow:
		p = &cfg.Modes.Slow
	case robot.Medium:
		p = &cfg.Modes.Medium
	case robot.Fast:
		p = &cfg.Modes.Fast
	default:
		return nil, fmt.Errorf("%w: %d", robot.ErrUnknownMode, int(mode))
	}
	for name, v := range params {
		set, ok := setters[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
		}
		set(p, v)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

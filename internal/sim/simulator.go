package sim

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/follower"
	"github.com/san-kum/linefollow/internal/track"
)

// Simulator drives the follower core against a simulated chassis on a track.
type Simulator struct {
	robot      *config.Config
	track      *track.Track
	integrator Integrator
	chassis    Chassis
	logger     *log.Logger

	sensorPID follower.PID
	gyroPID   follower.PID

	metrics   []Metric
	observers []Observer
}

func New(robotCfg *config.Config, tr *track.Track, integrator Integrator) *Simulator {
	if robotCfg == nil {
		robotCfg = config.DefaultConfig()
	}
	return &Simulator{
		robot:      robotCfg,
		track:      tr,
		integrator: integrator,
		chassis:    DefaultChassis(),
		logger:     log.New(io.Discard),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *log.Logger) { s.logger = l }
func (s *Simulator) SetChassis(c Chassis)    { s.chassis = c }

// SetPIDs replaces the default loop controllers, e.g. with remotely tuned ones.
func (s *Simulator) SetPIDs(sensor, gyro follower.PID) {
	s.sensorPID, s.gyroPID = sensor, gyro
}

func (s *Simulator) Track() *track.Track { return s.track }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	sess, err := s.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{Metrics: make(map[string]float64)}
	for sess.Done() == "" {
		sample, err := sess.Step()
		if err != nil {
			sess.Close()
			return result, err
		}
		if cfg.RecordEvery > 0 && (sess.steps-1)%cfg.RecordEvery == 0 {
			result.Samples = append(result.Samples, sample)
		}
	}
	if err := sess.Close(); err != nil {
		return result, err
	}

	snap := sess.Follower.Snapshot()
	result.Reason = sess.Done()
	result.Crossings = snap.LastRunCrossings
	if snap.MotorsActive {
		result.Crossings = snap.Crossings
	}
	result.Handoffs = snap.Handoffs
	result.Elapsed = sess.t
	result.Steps = sess.steps
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Info("simulation finished", "track", s.track.Name, "reason", result.Reason,
		"crossings", result.Crossings, "elapsed", fmt.Sprintf("%.2fs", result.Elapsed))
	return result, nil
}

// Start builds the devices and the follower, and starts serving interrupt
// edges. The caller steps the session and must Close it.
func (s *Simulator) Start(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if s.track == nil || len(s.track.Points()) < 2 {
		return nil, fmt.Errorf("track needs at least two points")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	b := &body{chassis: s.chassis, track: s.track}
	sess := &Session{
		sim:     s,
		cfg:     cfg,
		body:    b,
		clock:   &Clock{},
		sensors: &SensorArray{body: b, rng: rng, noise: cfg.SensorNoise},
		gyro:    &Gyro{body: b, rng: rng, noise: cfg.GyroNoise, bias: cfg.GyroBias},
		motors:  &Motors{},
		buttons: &Buttons{},
		leds:    &LEDs{},
	}
	sess.place()
	if len(cfg.Script) > 0 {
		sess.script = append([]Press(nil), cfg.Script...)
		sort.SliceStable(sess.script, func(i, j int) bool { return sess.script[i].At < sess.script[j].At })
	}

	f, err := follower.New(s.robot, follower.Devices{
		Sensors:    sess.sensors,
		Gyro:       sess.gyro,
		Motors:     sess.motors,
		SensorPID:  s.sensorPID,
		GyroPID:    s.gyroPID,
		Buttons:    sess.buttons,
		Indicators: sess.leds,
	}, follower.Options{Clock: sess.clock, Logger: s.logger})
	if err != nil {
		return nil, err
	}
	sess.Follower = f
	f.Initialize()

	for _, m := range s.metrics {
		m.Reset()
	}
	sess.serve(ctx)
	if cfg.AutoStart {
		sess.buttons.Press(1)
	}
	return sess, nil
}

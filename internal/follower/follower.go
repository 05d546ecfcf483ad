package follower

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/control"
	"github.com/san-kum/linefollow/internal/robot"
)

// Devices are the collaborators the core drives. Sensors and Motors are
// required, Gyro only when the gyro path is enabled. Missing PIDs default to
// control.PID; Buttons and Indicators are optional.
type Devices struct {
	Sensors    SensorArray
	Gyro       Gyro
	Motors     Motors
	SensorPID  PID
	GyroPID    PID
	Buttons    Buttons
	Indicators Indicators
}

type Options struct {
	Clock  Clock
	Logger *log.Logger
}

type Follower struct {
	cfg    config.Config
	clock  Clock
	logger *log.Logger

	sensors    SensorArray
	gyro       Gyro
	motors     Motors
	sensorPID  PID
	gyroPID    PID
	buttons    Buttons
	indicators Indicators

	controller robot.Controller
	mode       robot.Mode
	profile    robot.Profile

	motorsActive bool

	sensorTarget         float64
	sensorInput          float64
	lastValidSensorInput float64
	sensorCount          int

	rotSpeed       float64
	rotSpeedTarget float64

	isOutOfLine           bool
	outOfLineStartingTime time.Time

	pidResult        float64
	leftMotorOutput  float64
	rightMotorOutput float64

	button1, button2      bool
	lastPressedButtonTime time.Time
	modeSwitchRequested   bool

	crossing          *CrossingDetector
	seenCrossings     uint
	gyroWasCalibrated bool

	runs             int
	runStartedAt     time.Time
	lastRunCrossings uint
	lastRunDuration  time.Duration
	handoffs         int
}

func New(cfg *config.Config, dev Devices, opts Options) (*Follower, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dev.Sensors == nil {
		return nil, fmt.Errorf("%w: sensor array", robot.ErrMissingDevice)
	}
	if dev.Motors == nil {
		return nil, fmt.Errorf("%w: motors", robot.ErrMissingDevice)
	}
	if cfg.Gyro.Enabled && dev.Gyro == nil {
		return nil, fmt.Errorf("%w: gyro (disable gyro.enabled to run without one)", robot.ErrMissingDevice)
	}
	if dev.SensorPID == nil {
		dev.SensorPID = control.NewPID(robot.Gains{})
	}
	if dev.GyroPID == nil {
		dev.GyroPID = control.NewPID(robot.Gains{})
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	mode, _ := cfg.Mode()
	f := &Follower{
		cfg:                  *cfg,
		clock:                opts.Clock,
		logger:               opts.Logger,
		sensors:              dev.Sensors,
		gyro:                 dev.Gyro,
		motors:               dev.Motors,
		sensorPID:            dev.SensorPID,
		gyroPID:              dev.GyroPID,
		buttons:              dev.Buttons,
		indicators:           dev.Indicators,
		controller:           robot.ControllerSensor,
		mode:                 mode,
		sensorTarget:         cfg.SensorTarget,
		sensorInput:          cfg.SensorTarget,
		lastValidSensorInput: cfg.SensorTarget,
		crossing:             NewCrossingDetector(opts.Clock, cfg.Crossing),
	}
	if err := f.ChangeMode(mode); err != nil {
		return nil, err
	}
	return f, nil
}

// Initialize readies the devices. Call it once before the first Run.
func (f *Follower) Initialize() {
	f.logger.Info("initializing", "mode", f.mode, "gyro", f.cfg.Gyro.Enabled)

	f.motors.Drive(0, 0)
	f.sensors.Calibrate()
	if f.cfg.Gyro.Enabled && f.cfg.Gyro.CalibrateOnInit {
		f.calibrateGyro()
	}
	if f.buttons != nil {
		// buttons held at boot must not register as presses
		f.button1, f.button2 = f.buttons.Read()
	}
	f.showMode()
}

// Run executes one control cycle.
func (f *Follower) Run() {
	now := f.clock.Now()

	if f.crossing.ConsumeStop() {
		f.endRun(now, "crossings")
		return
	}
	if n := f.crossing.Count(); n != f.seenCrossings {
		f.seenCrossings = n
		f.logger.Debug("crossing", "count", n, "of", f.crossing.Total())
	}

	f.updateButtons(now)
	f.updateMode()
	f.updateController(now)
	f.updateCorrection()
	f.updateMotors()
	f.showMode()
}

// ToggleMotorsAreActive starts a new run, or ends the current one.
func (f *Follower) ToggleMotorsAreActive() {
	now := f.clock.Now()
	if f.motorsActive {
		f.endRun(now, "manual")
		return
	}

	f.motorsActive = true
	f.crossing.Arm()
	f.seenCrossings = 0
	f.sensorPID.Reset()
	f.gyroPID.Reset()
	f.runs++
	f.runStartedAt = now
	f.logger.Info("run started", "run", f.runs, "mode", f.mode, "controller", f.controller)
}

func (f *Follower) endRun(now time.Time, reason string) {
	f.motorsActive = false
	f.leftMotorOutput, f.rightMotorOutput = 0, 0
	f.motors.Drive(0, 0)

	if f.runs > 0 {
		f.lastRunDuration = now.Sub(f.runStartedAt)
	}
	f.lastRunCrossings = f.crossing.Disarm()
	f.seenCrossings = 0
	f.logger.Info("run ended", "reason", reason, "crossings", f.lastRunCrossings, "elapsed", f.lastRunDuration)
}

func (f *Follower) showMode() {
	if f.indicators == nil {
		return
	}
	switch f.mode {
	case robot.Slow:
		f.indicators.Show(true, false)
	case robot.Medium:
		f.indicators.Show(false, true)
	case robot.Fast:
		f.indicators.Show(true, true)
	}
}

// Snapshot is a read-only view of the robot state.
type Snapshot struct {
	Controller           robot.Controller
	Mode                 robot.Mode
	MotorsActive         bool
	SensorTarget         float64
	SensorInput          float64
	LastValidSensorInput float64
	OutOfLine            bool
	RotSpeed             float64
	RotSpeedTarget       float64
	PIDResult            float64
	LeftOutput           float64
	RightOutput          float64
	Crossings            uint
	RejectedEdges        uint
	GyroCalibrated       bool
	Runs                 int
	LastRunCrossings     uint
	LastRunDuration      time.Duration
	Handoffs             int
}

func (f *Follower) Snapshot() Snapshot {
	return Snapshot{
		Controller:           f.controller,
		Mode:                 f.mode,
		MotorsActive:         f.motorsActive,
		SensorTarget:         f.sensorTarget,
		SensorInput:          f.sensorInput,
		LastValidSensorInput: f.lastValidSensorInput,
		OutOfLine:            f.isOutOfLine,
		RotSpeed:             f.rotSpeed,
		RotSpeedTarget:       f.rotSpeedTarget,
		PIDResult:            f.pidResult,
		LeftOutput:           f.leftMotorOutput,
		RightOutput:          f.rightMotorOutput,
		Crossings:            f.crossing.Count(),
		RejectedEdges:        f.crossing.Rejected(),
		GyroCalibrated:       f.gyroWasCalibrated,
		Runs:                 f.runs,
		LastRunCrossings:     f.lastRunCrossings,
		LastRunDuration:      f.lastRunDuration,
		Handoffs:             f.handoffs,
	}
}

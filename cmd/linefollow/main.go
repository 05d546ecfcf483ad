package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/integrators"
	"github.com/san-kum/linefollow/internal/metrics"
	"github.com/san-kum/linefollow/internal/sim"
	"github.com/san-kum/linefollow/internal/storage"
	"github.com/san-kum/linefollow/internal/track"
	"github.com/san-kum/linefollow/internal/viz"
)

var (
	dataDir string
	verbose bool

	integrator = "rk4"
	configFile string
	preset     string
	startMode  string

	dt          float64
	duration    float64
	seed        int64
	sensorNoise float64
	gyroNoise   float64
	gyroBias    float64
	recordEvery int
	numRuns     int
	noGyro      bool

	maxSpeed = sim.DefaultChassis().MaxSpeed
	motorLag = sim.DefaultChassis().MotorLag

	tunePort string
	tuneBaud int

	stepsPerFrame int
	manualStart   bool

	exportFormat string
	exportOut    string
	svgWidth     int
	svgHeight    int

	plotWidth  int
	plotHeight int
)

var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "linefollow"})

func main() {
	rootCmd := &cobra.Command{
		Use:   "linefollow",
		Short: "line-following robot control core and simulation rig",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".linefollow", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [track]",
		Short: "run the follower on a simulated track and store the telemetry",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "keep every nth sample")
	runCmd.Flags().IntVar(&numRuns, "runs", 1, "number of runs over consecutive seeds")

	liveCmd := &cobra.Command{
		Use:   "live [track]",
		Short: "run the follower with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps", 4, "simulation steps per frame")
	liveCmd.Flags().BoolVar(&manualStart, "manual", false, "wait for button 1 instead of starting right away")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot line offset and motor outputs of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json, csv or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json, csv or svg")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().IntVar(&svgWidth, "svg-width", 800, "svg width")
	exportCmd.Flags().IntVar(&svgHeight, "svg-height", 600, "svg height")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "print the follower parameters for a configuration",
		RunE:  printParams,
	}
	paramsCmd.Flags().StringVar(&configFile, "config", "", "robot config file (yaml)")
	paramsCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	paramsCmd.Flags().StringVar(&startMode, "mode", "", "start mode (slow, medium, fast)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list robot presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
		},
	}

	tracksCmd := &cobra.Command{
		Use:   "tracks",
		Short: "list built-in tracks",
		Run: func(cmd *cobra.Command, args []string) {
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tLENGTH\tCLOSED\tMARKS")
			for _, name := range track.List() {
				tr, _ := track.Get(name)
				fmt.Fprintf(tw, "%s\t%.2fm\t%t\t%d\n", name, tr.Length(), tr.Closed, len(tr.RightMarks))
			}
			tw.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default (or preset) robot config to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := robotConfig(cmd)
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	configCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, paramsCmd,
		presetsCmd, tracksCmd, configCmd, newSweepCmd(), newScenarioCmd(), newTuneCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	def := sim.DefaultConfig()
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator ("+strings.Join(integrators.List(), ", ")+")")
	cmd.Flags().StringVar(&configFile, "config", "", "robot config file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&startMode, "mode", "", "start mode (slow, medium, fast)")
	cmd.Flags().BoolVar(&noGyro, "no-gyro", false, "disable the gyro fallback")
	cmd.Flags().Float64Var(&dt, "dt", def.Dt, "timestep (s)")
	cmd.Flags().Float64Var(&duration, "time", def.Duration, "time limit (s), 0 for none")
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "random seed")
	cmd.Flags().Float64Var(&sensorNoise, "sensor-noise", def.SensorNoise, "probability of a flipped sensor reading")
	cmd.Flags().Float64Var(&gyroNoise, "gyro-noise", def.GyroNoise, "gyro noise (deg/s)")
	cmd.Flags().Float64Var(&gyroBias, "gyro-bias", def.GyroBias, "gyro bias before calibration (deg/s)")
	cmd.Flags().Float64Var(&maxSpeed, "max-speed", sim.DefaultChassis().MaxSpeed, "wheel speed at full command (m/s)")
	cmd.Flags().Float64Var(&motorLag, "motor-lag", sim.DefaultChassis().MotorLag, "motor time constant (s)")
	cmd.Flags().StringVar(&tunePort, "tune-port", "", "serial port for live PID tuning")
	cmd.Flags().IntVar(&tuneBaud, "tune-baud", 115200, "baud rate of the tuning port")
}

// robotConfig resolves preset, then config file, then flags.
func robotConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if f := cmd.Flags().Lookup("mode"); f != nil && f.Changed {
		cfg.StartMode = startMode
	}
	if f := cmd.Flags().Lookup("no-gyro"); f != nil && f.Changed {
		cfg.Gyro.Enabled = !noGyro
	}
	return cfg, cfg.Validate()
}

func simConfig(cmd *cobra.Command) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Dt = dt
	cfg.Duration = duration
	cfg.Seed = seed
	cfg.SensorNoise = sensorNoise
	cfg.GyroNoise = gyroNoise
	cfg.GyroBias = gyroBias
	if cmd.Flags().Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	return cfg
}

func trackArg(args []string) (*track.Track, error) {
	name := "oval"
	if len(args) > 0 {
		name = args[0]
	}
	return track.Get(name)
}

func newSimulator(robotCfg *config.Config, tr *track.Track) (*sim.Simulator, error) {
	integ, err := integrators.Get(integrator)
	if err != nil {
		return nil, err
	}
	if maxSpeed <= 0 || motorLag <= 0 {
		return nil, fmt.Errorf("max-speed and motor-lag must be positive")
	}
	chassis := sim.DefaultChassis()
	chassis.MaxSpeed = maxSpeed
	chassis.MotorLag = motorLag

	s := sim.New(robotCfg, tr, integ)
	s.SetChassis(chassis)
	s.SetLogger(logger)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	return s, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	robotCfg, err := robotConfig(cmd)
	if err != nil {
		return err
	}
	tr, err := trackArg(args)
	if err != nil {
		return err
	}
	cfg := simConfig(cmd)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if numRuns > 1 {
		if tunePort != "" {
			return fmt.Errorf("--tune-port needs a single run")
		}
		return runEnsemble(ctx, robotCfg, tr, cfg)
	}

	s, err := newSimulator(robotCfg, tr)
	if err != nil {
		return err
	}
	if tunePort != "" {
		stop, err := attachTuner(ctx, s, robotCfg)
		if err != nil {
			return err
		}
		defer stop()
	}

	fmt.Printf("running %s on %s...\n", robotCfg.StartMode, tr.Name)
	start := time.Now()
	result, err := s.Run(ctx, cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Track:      tr.Name,
		Preset:     preset,
		Mode:       robotCfg.StartMode,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: integrator,
	}, robotCfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	printResult(result)
	return nil
}

func printResult(r *sim.Result) {
	fmt.Printf("stop: %s after %.2fs (%d steps)\n", r.Reason, r.Elapsed, r.Steps)
	fmt.Printf("crossings: %d  handoffs: %d\n", r.Crossings, r.Handoffs)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, r.Metrics[name])
	}
}

func runEnsemble(ctx context.Context, robotCfg *config.Config, tr *track.Track, cfg sim.Config) error {
	ens := sim.NewEnsemble(func() (*sim.Simulator, error) {
		s, err := newSimulator(robotCfg, tr)
		if err != nil {
			return nil, err
		}
		s.SetLogger(log.New(io.Discard))
		return s, nil
	}, numRuns, cfg.Seed)

	results, err := ens.Run(ctx, cfg)
	if err != nil {
		return err
	}

	reasons := make(map[sim.StopReason]int)
	sums := make(map[string]float64)
	for _, r := range results {
		reasons[r.Reason]++
		for k, v := range r.Metrics {
			sums[k] += v
		}
	}

	fmt.Printf("%d runs on %s\n", len(results), tr.Name)
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STOP\tRUNS")
	for _, reason := range []sim.StopReason{sim.StopCrossings, sim.StopManual, sim.StopLost, sim.StopTimeout, sim.StopInvalid} {
		if n := reasons[reason]; n > 0 {
			fmt.Fprintf(tw, "%s\t%d\n", reason, n)
		}
	}
	tw.Flush()

	fmt.Println("\nmean metrics:")
	names := make([]string, 0, len(sums))
	for k := range sums {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("  %s: %.6f\n", k, sums[k]/float64(len(results)))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	robotCfg, err := robotConfig(cmd)
	if err != nil {
		return err
	}
	tr, err := trackArg(args)
	if err != nil {
		return err
	}
	cfg := simConfig(cmd)
	cfg.AutoStart = !manualStart
	if !cmd.Flags().Changed("time") {
		cfg.Duration = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := newSimulator(robotCfg, tr)
	if err != nil {
		return err
	}
	// the alt screen owns the terminal
	s.SetLogger(log.New(io.Discard))
	if tunePort != "" {
		stop, err := attachTuner(ctx, s, robotCfg)
		if err != nil {
			return err
		}
		defer stop()
	}

	sess, err := s.Start(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	final, err := tea.NewProgram(viz.NewModel(sess, stepsPerFrame), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil {
		return m.Err()
	}
	if reason := sess.Done(); reason != "" {
		fmt.Printf("stop: %s after %.2fs\n", reason, sess.Time())
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTRACK\tMODE\tSTOP\tCROSSINGS\tELAPSED\tTIMESTAMP")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2fs\t%s\n",
			r.ID, r.Track, r.Mode, r.Reason, r.Crossings, r.Elapsed, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no telemetry", args[0])
	}

	offset := make([]float64, len(samples))
	left := make([]float64, len(samples))
	right := make([]float64, len(samples))
	for i, s := range samples {
		offset[i] = s.Offset * 1000
		left[i] = s.Left
		right[i] = s.Right
	}

	fmt.Printf("%s  %s  stop: %s\n\n", meta.ID, meta.Track, meta.Reason)
	fmt.Println(viz.Chart(offset, plotHeight, plotWidth, "line offset (mm)"))
	fmt.Println()
	fmt.Println(viz.ChartMulti([][]float64{left, right}, plotHeight, plotWidth, "motor outputs (left, right)"))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}

	w := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "json":
		err = storage.ExportJSON(w, *meta, samples)
	case "csv":
		err = storage.WriteTelemetry(w, samples)
	case "svg":
		tr, terr := track.Get(meta.Track)
		if terr != nil {
			return terr
		}
		err = storage.TrajectorySVG(w, tr, samples, svgWidth, svgHeight)
	default:
		return fmt.Errorf("unknown format: %s", exportFormat)
	}
	if err != nil {
		return err
	}
	if exportOut != "" {
		logger.Info("exported", "run", meta.ID, "format", exportFormat, "path", exportOut)
	}
	return nil
}

func printParams(cmd *cobra.Command, args []string) error {
	robotCfg, err := robotConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSimulator(robotCfg, track.Straight())
	if err != nil {
		return err
	}
	s.SetLogger(log.New(io.Discard))

	cfg := sim.DefaultConfig()
	cfg.AutoStart = false
	sess, err := s.Start(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer sess.Close()
	return sess.Follower.PrintAll(os.Stdout)
}

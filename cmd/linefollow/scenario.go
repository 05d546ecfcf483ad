package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/linefollow/internal/automation"
	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/integrators"
	"github.com/san-kum/linefollow/internal/metrics"
	"github.com/san-kum/linefollow/internal/sim"
	"github.com/san-kum/linefollow/internal/storage"
	"github.com/san-kum/linefollow/internal/track"
)

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of scripted runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("running scenario", "name", sc.Name, "steps", len(sc.Steps))
	results, err := automation.RunScenario(ctx, sc, func(step automation.ScenarioStep, robotCfg *config.Config, tr *track.Track) (*sim.Simulator, error) {
		name := step.Integrator
		if name == "" {
			name = "rk4"
		}
		integ, err := integrators.Get(name)
		if err != nil {
			return nil, err
		}
		s := sim.New(robotCfg, tr, integ)
		s.SetLogger(log.New(io.Discard))
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		return s, nil
	})
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	failed := 0
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tTRACK\tMODE\tSTOP\tCROSSINGS\tELAPSED\tRESULT\tRUN")
	for i, r := range results {
		verdict := "ok"
		if !r.Passed {
			verdict = "FAIL (want " + r.Step.Expect + ")"
			failed++
		}

		runID := "-"
		if r.Step.SaveAs != "" {
			if err := st.Init(); err != nil {
				return err
			}
			runID, err = st.Save(storage.RunMetadata{
				Track:      trackName(r.Step.Track),
				Label:      r.Step.SaveAs,
				Preset:     r.Step.Preset,
				Mode:       r.RobotCfg.StartMode,
				Integrator: r.Step.Integrator,
			}, r.RobotCfg, r.Result)
			if err != nil {
				return err
			}
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.2fs\t%s\t%s\n", i+1, trackName(r.Step.Track),
			r.RobotCfg.StartMode, r.Result.Reason, r.Result.Crossings, r.Result.Elapsed, verdict, runID)
	}
	tw.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}

func trackName(name string) string {
	if name == "" {
		return "oval"
	}
	return name
}

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/linefollow/internal/optim"
	"github.com/san-kum/linefollow/internal/sim"
)

var (
	sweepParams []string
	sweepMetric string
	sweepTop    int
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sweep [track]",
		Short:   "grid search over the start mode's profile",
		Example: "  linefollow sweep scurve --param sensor_kp=0.02,0.04,0.06 --param sensor_kd=0.5,1",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runSweep,
	}
	addSimFlags(cmd)
	cmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=v1,v2,... ("+strings.Join(optim.Params(), ", ")+")")
	cmd.Flags().StringVar(&sweepMetric, "metric", "tracking_rms", "metric to minimize")
	cmd.Flags().IntVar(&sweepTop, "top", 10, "number of trials to show")
	return cmd
}

func parseSweepParams(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --param %q, want name=v1,v2", spec)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value in --param %q: %w", spec, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	names, ranges, err := parseSweepParams(sweepParams)
	if err != nil {
		return err
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	base, err := robotConfig(cmd)
	if err != nil {
		return err
	}
	mode, err := base.Mode()
	if err != nil {
		return err
	}
	tr, err := trackArg(args)
	if err != nil {
		return err
	}
	cfg := simConfig(cmd)
	cfg.RecordEvery = 0

	ctx, cancel := signalContext()
	defer cancel()

	trials, err := gs.Search(ctx, func(ctx context.Context, params map[string]float64) (*sim.Result, error) {
		robotCfg, err := optim.Apply(base, mode, params)
		if err != nil {
			return nil, err
		}
		s, err := newSimulator(robotCfg, tr)
		if err != nil {
			return nil, err
		}
		s.SetLogger(log.New(io.Discard))
		return s.Run(ctx, cfg)
	}, sweepMetric)
	if err != nil {
		return err
	}

	logger.Info("sweep finished", "track", tr.Name, "mode", mode, "trials", len(trials))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tSTOP\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(sweepMetric))
	for i, t := range trials {
		if i == sweepTop {
			break
		}
		cols := make([]string, len(names))
		for j, n := range names {
			cols[j] = strconv.FormatFloat(t.Params[n], 'g', 6, 64)
		}
		score := "-"
		if !math.IsInf(t.Score, 1) {
			score = fmt.Sprintf("%.6f", t.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", strings.Join(cols, "\t"), t.Reason, score)
	}
	return tw.Flush()
}

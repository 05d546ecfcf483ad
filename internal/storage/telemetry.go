package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/linefollow/internal/robot"
	"github.com/san-kum/linefollow/internal/sim"
)

var telemetryHeader = []string{
	"time", "x", "y", "heading", "offset", "progress",
	"input", "pid", "left", "right", "rot_speed",
	"controller", "mode", "active", "crossings",
}

func WriteTelemetry(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(telemetryHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range samples {
		row := []string{
			f(s.T), f(s.X), f(s.Y), f(s.Heading), f(s.Offset), f(s.Progress),
			f(s.Input), f(s.PIDResult), f(s.Left), f(s.Right), f(s.RotSpeed),
			s.Controller.String(), s.Mode.String(),
			strconv.FormatBool(s.Active),
			strconv.FormatUint(uint64(s.Crossings), 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadTelemetry(r io.Reader) ([]sim.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(telemetryHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("telemetry row %d: %w", i+1, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(rec []string) (sim.Sample, error) {
	var vals [11]float64
	for i := range vals {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return sim.Sample{}, fmt.Errorf("%s: %w", telemetryHeader[i], err)
		}
		vals[i] = v
	}
	ctrl, err := robot.ParseController(rec[11])
	if err != nil {
		return sim.Sample{}, err
	}
	mode, err := robot.ParseMode(rec[12])
	if err != nil {
		return sim.Sample{}, err
	}
	active, err := strconv.ParseBool(rec[13])
	if err != nil {
		return sim.Sample{}, fmt.Errorf("active: %w", err)
	}
	crossings, err := strconv.ParseUint(rec[14], 10, 32)
	if err != nil {
		return sim.Sample{}, fmt.Errorf("crossings: %w", err)
	}

	return sim.Sample{
		T: vals[0], X: vals[1], Y: vals[2], Heading: vals[3],
		Offset: vals[4], Progress: vals[5], Input: vals[6], PIDResult: vals[7],
		Left: vals[8], Right: vals[9], RotSpeed: vals[10],
		Controller: ctrl,
		Mode:       mode,
		Active:     active,
		Crossings:  uint(crossings),
	}, nil
}

package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/robot"
	"github.com/san-kum/linefollow/internal/sim"
	"github.com/san-kum/linefollow/internal/track"
)

func testResult() *sim.Result {
	return &sim.Result{
		Samples: []sim.Sample{
			{T: 0, X: 0.1, Controller: robot.ControllerSensor, Mode: robot.Medium, Active: true},
			{T: 0.005, X: 0.105, Y: 0.001, Offset: 0.001, Input: 3.5, PIDResult: -0.25,
				Left: 0.6, Right: 0.51, RotSpeed: 2.5, Controller: robot.ControllerGyro,
				Mode: robot.Fast, Active: true, Crossings: 1},
		},
		Metrics:   map[string]float64{"tracking_rms": 0.004},
		Reason:    sim.StopCrossings,
		Crossings: 2,
		Handoffs:  1,
		Elapsed:   4.2,
		Steps:     840,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	runID, err := st.Save(RunMetadata{Track: "straight", Seed: 42, Dt: 0.005, Integrator: "rk4"}, cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "straight_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Reason != string(sim.StopCrossings) || meta.Crossings != 2 || meta.Handoffs != 1 {
		t.Errorf("unexpected outcome %+v", meta)
	}
	if meta.Metrics["tracking_rms"] != 0.004 {
		t.Errorf("expected tracking_rms 0.004, got %f", meta.Metrics["tracking_rms"])
	}

	samples, err := st.LoadTelemetry(runID)
	if err != nil {
		t.Fatalf("load telemetry failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	got := samples[1]
	if got.Controller != robot.ControllerGyro || got.Mode != robot.Fast || !got.Active || got.Crossings != 1 {
		t.Errorf("discrete fields lost: %+v", got)
	}
	if got.PIDResult != -0.25 || got.Right != 0.51 {
		t.Errorf("values lost: %+v", got)
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if loaded.StartMode != cfg.StartMode {
		t.Errorf("expected start mode %v, got %v", cfg.StartMode, loaded.StartMode)
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := st.Save(RunMetadata{Track: "oval"}, nil, testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := st.Save(RunMetadata{Track: "scurve"}, nil, testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("expected newest run first")
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{Track: "gap"}, config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "telemetry.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadTelemetry("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestReadTelemetryBadRow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTelemetry(&buf, testResult().Samples); err != nil {
		t.Fatal(err)
	}
	bad := strings.Replace(buf.String(), "medium", "ludicrous", 1)

	if _, err := ReadTelemetry(strings.NewReader(bad)); !errors.Is(err, robot.ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{ID: "run1", Track: "oval", Crossings: 2}
	if err := ExportJSON(&buf, meta, testResult().Samples); err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out["id"] != "run1" || out["track"] != "oval" {
		t.Errorf("metadata not inlined: %v", out)
	}
	if samples, ok := out["samples"].([]any); !ok || len(samples) != 2 {
		t.Errorf("expected 2 samples, got %v", out["samples"])
	}
}

func TestTrajectorySVG(t *testing.T) {
	var buf bytes.Buffer
	if err := TrajectorySVG(&buf, track.Straight(), testResult().Samples, 400, 200); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("not a complete svg document")
	}
	if strings.Count(svg, "<path") != 2 {
		t.Errorf("expected line and trajectory paths, got %d", strings.Count(svg, "<path"))
	}
	if strings.Count(svg, "<circle") != len(track.Straight().RightMarks) {
		t.Error("expected one circle per right mark")
	}

	if err := TrajectorySVG(&buf, track.Straight(), nil, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestStoreLabelPrefixesID(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Track: "oval", Label: "baseline"}, nil, testResult())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(runID, "baseline_") {
		t.Errorf("unexpected run id %q", runID)
	}
	meta, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Track != "oval" {
		t.Errorf("track = %q, want oval", meta.Track)
	}
}

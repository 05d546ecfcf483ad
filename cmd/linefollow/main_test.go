package main

import "testing"

func TestParseSweepParams(t *testing.T) {
	names, ranges, err := parseSweepParams([]string{"sensor_kp=0.5, 1,1.5", "gyro_kd=0"})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "sensor_kp" || names[1] != "gyro_kd" {
		t.Errorf("unexpected names %v", names)
	}
	if len(ranges[0]) != 3 || ranges[0][1] != 1 || len(ranges[1]) != 1 {
		t.Errorf("unexpected ranges %v", ranges)
	}

	for _, bad := range []string{"sensor_kp", "sensor_kp=a,b"} {
		if _, _, err := parseSweepParams([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestStripScope(t *testing.T) {
	tests := map[string]string{
		"sensor.kp=1.2": "kp=1.2",
		"kd=3":          "kd=3",
		"garbage":       "garbage",
	}
	for in, want := range tests {
		if got := stripScope(in); got != want {
			t.Errorf("stripScope(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSimulatorRejectsBadChassis(t *testing.T) {
	saved := maxSpeed
	defer func() { maxSpeed = saved }()

	maxSpeed = 0
	if _, err := newSimulator(nil, nil); err == nil {
		t.Error("expected error for zero max speed")
	}
}

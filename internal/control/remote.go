package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/san-kum/linefollow/internal/robot"
)

var ErrBadTuning = errors.New("control: malformed tuning command")

// RemotePID is a PID whose gains can be changed from another goroutine while
// the control loop keeps calling Compute.
//
// Tuning commands are text lines of the form
//
//	kp=1.5
//	sensor.kd=40
//
// A command prefixed with another controller's name is ignored.
type RemotePID struct {
	mu      sync.Mutex
	name    string
	pid     *PID
	updates int
}

func NewRemotePID(name string, g robot.Gains) *RemotePID {
	return &RemotePID{name: name, pid: NewPID(g)}
}

func (r *RemotePID) Name() string { return r.name }

func (r *RemotePID) Compute(err float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pid.Compute(err)
}

func (r *RemotePID) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pid.Reset()
}

func (r *RemotePID) SetGains(g robot.Gains) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pid.SetGains(g)
}

func (r *RemotePID) Gains() robot.Gains {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pid.Gains()
}

func (r *RemotePID) GetParams() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pid.GetParams()
}

func (r *RemotePID) SetParam(name string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.pid.SetParam(name, value); err != nil {
		return err
	}
	r.updates++
	return nil
}

// Updates reports how many remote parameter changes have been applied.
func (r *RemotePID) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// Apply parses and applies one tuning command. It reports whether the
// command was addressed to this controller.
func (r *RemotePID) Apply(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}

	key, raw, ok := strings.Cut(line, "=")
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrBadTuning, line)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if target, param, scoped := strings.Cut(key, "."); scoped {
		if target != r.name {
			return false, nil
		}
		key = param
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrBadTuning, line)
	}
	if err := r.SetParam(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Listen applies commands read from rd until it is exhausted or ctx is done.
// Malformed lines are passed to onErr, if set, and skipped. A blocked read is
// only interrupted by closing the underlying reader.
func (r *RemotePID) Listen(ctx context.Context, rd io.Reader, onErr func(error)) error {
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := r.Apply(sc.Text()); err != nil && onErr != nil {
			onErr(err)
		}
	}
	return sc.Err()
}

// ListenAll reads commands from rd and offers each line to every controller,
// so one link can tune several loops. Unscoped commands reach all of them.
func ListenAll(ctx context.Context, rd io.Reader, onErr func(error), pids ...*RemotePID) error {
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		for _, p := range pids {
			if _, err := p.Apply(sc.Text()); err != nil {
				if onErr != nil {
					onErr(err)
				}
				break
			}
		}
	}
	return sc.Err()
}

package follower

import (
	"sync"
	"time"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/robot"
)

// CrossingDetector counts track crossings reported by the helper sensors.
// Its handlers may be called from any goroutine.
//
// A RIGHT crossing is accepted when a falling edge closes a rising edge and
// more than the threshold has passed since the previous accepted crossing.
// Only an accepted crossing consumes the rising edge.
// Edges are ignored while the detector is disarmed.
type CrossingDetector struct {
	mu    sync.Mutex
	clock Clock

	threshold time.Duration
	minPulse  time.Duration
	total     uint

	armed           bool
	count           uint
	rejected        uint
	lastCrossing    time.Time
	risingTime      [2]time.Time
	lastRightHelper bool
	shouldStop      bool
}

func NewCrossingDetector(clock Clock, cfg config.CrossingConfig) *CrossingDetector {
	return &CrossingDetector{
		clock:     clock,
		threshold: cfg.Threshold,
		minPulse:  cfg.MinPulse,
		total:     cfg.TotalSignals,
	}
}

func (d *CrossingDetector) Rising(side robot.Side) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.armed || (side != robot.Left && side != robot.Right) {
		return
	}
	d.risingTime[side] = d.clock.Now()
	if side == robot.Right {
		d.lastRightHelper = true
	}
}

func (d *CrossingDetector) Falling(side robot.Side) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.armed || d.shouldStop || side != robot.Right {
		return
	}

	// a rejected falling edge leaves the rising edge pending
	if !d.lastRightHelper {
		d.rejected++
		return
	}

	now := d.clock.Now()
	if d.minPulse > 0 && now.Sub(d.risingTime[robot.Right]) < d.minPulse {
		d.rejected++
		return
	}
	if !d.lastCrossing.IsZero() && now.Sub(d.lastCrossing) <= d.threshold {
		d.rejected++
		return
	}

	d.count++
	d.lastCrossing = now
	d.lastRightHelper = false
	if d.count >= d.total {
		d.shouldStop = true
	}
}

// Arm clears the counters and starts accepting edges.
func (d *CrossingDetector) Arm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
	d.armed = true
}

// Disarm stops accepting edges, clears the counters and returns the number
// of crossings counted since Arm.
func (d *CrossingDetector) Disarm() uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.count
	d.reset()
	d.armed = false
	return n
}

func (d *CrossingDetector) reset() {
	d.count = 0
	d.rejected = 0
	d.lastCrossing = time.Time{}
	d.risingTime = [2]time.Time{}
	d.lastRightHelper = false
	d.shouldStop = false
}

// ConsumeStop reports whether the stop count was reached and clears the flag.
func (d *CrossingDetector) ConsumeStop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	stop := d.shouldStop
	d.shouldStop = false
	return stop
}

func (d *CrossingDetector) Count() uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Rejected counts edges discarded as unpaired, too short or too soon.
func (d *CrossingDetector) Rejected() uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rejected
}

func (d *CrossingDetector) Total() uint { return d.total }

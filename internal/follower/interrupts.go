package follower

import (
	"context"

	"github.com/san-kum/linefollow/internal/robot"
)

// Edge is a helper-sensor transition queued from interrupt context.
type Edge struct {
	Side   robot.Side
	Rising bool

	// Handled, if set, is closed once the edge reached the detector.
	Handled chan<- struct{}
}

func (f *Follower) TriggeredInterruptRising(side robot.Side) {
	f.crossing.Rising(side)
}

func (f *Follower) TriggeredInterruptFalling(side robot.Side) {
	f.crossing.Falling(side)
}

// ServeInterrupts feeds queued edges to the crossing detector until edges is
// closed or ctx is done.
func (f *Follower) ServeInterrupts(ctx context.Context, edges <-chan Edge) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-edges:
			if !ok {
				return nil
			}
			if e.Rising {
				f.TriggeredInterruptRising(e.Side)
			} else {
				f.TriggeredInterruptFalling(e.Side)
			}
			if e.Handled != nil {
				close(e.Handled)
			}
		}
	}
}

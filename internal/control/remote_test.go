package control

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/linefollow/internal/robot"
)

func TestRemotePIDApply(t *testing.T) {
	g := NewWithT(t)
	r := NewRemotePID("sensor", robot.Gains{Kp: 1})

	ok, err := r.Apply("kp=2.5")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	ok, err = r.Apply("sensor.kd = 40")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	ok, err = r.Apply("gyro.kp=9")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeFalse())

	g.Expect(r.Gains()).To(Equal(robot.Gains{Kp: 2.5, Kd: 40}))
	g.Expect(r.Updates()).To(Equal(2))
}

func TestRemotePIDApplyMalformed(t *testing.T) {
	g := NewWithT(t)
	r := NewRemotePID("sensor", robot.Gains{})

	for _, line := range []string{"kp", "kp=fast", "kq=1"} {
		_, err := r.Apply(line)
		g.Expect(err).To(MatchError(ErrBadTuning), line)
	}

	ok, err := r.Apply("# comment")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ok).To(BeFalse())
}

func TestRemotePIDListen(t *testing.T) {
	g := NewWithT(t)
	r := NewRemotePID("gyro", robot.Gains{})

	var bad []error
	in := strings.NewReader("kp=0.01\nnonsense\ngyro.ki=0.001\nsensor.kp=50\n")
	err := r.Listen(context.Background(), in, func(err error) { bad = append(bad, err) })

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(bad).To(HaveLen(1))
	g.Expect(r.Gains()).To(Equal(robot.Gains{Kp: 0.01, Ki: 0.001}))
}

func TestRemotePIDListenCanceled(t *testing.T) {
	g := NewWithT(t)
	r := NewRemotePID("gyro", robot.Gains{Kp: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Listen(ctx, strings.NewReader("kp=3\n"), nil)
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(r.Gains().Kp).To(Equal(1.0))
}

func TestListenAllRoutesByName(t *testing.T) {
	g := NewWithT(t)
	sensor := NewRemotePID("sensor", robot.Gains{})
	gyro := NewRemotePID("gyro", robot.Gains{})

	input := "sensor.kp=30\ngyro.kd=0.02\nki=0.5\nbogus\n"
	var errs []error
	err := ListenAll(context.Background(), strings.NewReader(input), func(e error) { errs = append(errs, e) }, sensor, gyro)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(errs).To(HaveLen(1))
	g.Expect(errs[0]).To(MatchError(ErrBadTuning))
	g.Expect(sensor.Gains()).To(Equal(robot.Gains{Kp: 30, Ki: 0.5}))
	g.Expect(gyro.Gains()).To(Equal(robot.Gains{Ki: 0.5, Kd: 0.02}))
}

package follower

import (
	"bytes"
	"math"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/robot"
)

var _ = Describe("Follower", func() {
	var r *rig

	BeforeEach(func() {
		var err error
		r, err = newRig(nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		It("starts idle in the configured mode", func() {
			snap := r.f.Snapshot()
			Expect(snap.MotorsActive).To(BeFalse())
			Expect(snap.Mode).To(Equal(robot.Medium))
			Expect(snap.Controller).To(Equal(robot.ControllerSensor))
			Expect(r.f.Profile()).To(Equal(r.cfg.Modes.Medium))
		})

		It("requires a sensor array and motors", func() {
			_, err := New(nil, Devices{Motors: &fakeMotors{}, Gyro: &fakeGyro{}}, Options{})
			Expect(err).To(MatchError(robot.ErrMissingDevice))

			_, err = New(nil, Devices{Sensors: &fakeSensors{}, Gyro: &fakeGyro{}}, Options{})
			Expect(err).To(MatchError(robot.ErrMissingDevice))
		})

		It("requires a gyro only when the gyro path is enabled", func() {
			cfg := config.DefaultConfig()
			_, err := New(cfg, Devices{Sensors: &fakeSensors{}, Motors: &fakeMotors{}}, Options{})
			Expect(err).To(MatchError(robot.ErrMissingDevice))

			cfg.Gyro.Enabled = false
			_, err = New(cfg, Devices{Sensors: &fakeSensors{}, Motors: &fakeMotors{}}, Options{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unknown start mode", func() {
			cfg := config.DefaultConfig()
			cfg.StartMode = "warp"
			_, err := New(cfg, Devices{Sensors: &fakeSensors{}, Motors: &fakeMotors{}, Gyro: &fakeGyro{}}, Options{})
			Expect(err).To(MatchError(robot.ErrUnknownMode))
		})
	})

	Describe("Initialize", func() {
		It("calibrates the sensors, stops the motors and shows the mode", func() {
			Expect(r.sensors.calibrations).To(Equal(1))
			Expect(r.motors.calls).To(BeNumerically(">=", 1))
			Expect(r.motors.left).To(BeZero())
			Expect(r.motors.right).To(BeZero())
			Expect(r.leds.led1).To(BeFalse())
			Expect(r.leds.led2).To(BeTrue())
			Expect(r.gyro.calibrations).To(BeZero())
		})

		It("calibrates the gyro up front when asked to", func() {
			rr, err := newRig(config.GetPreset("race"))
			Expect(err).NotTo(HaveOccurred())
			Expect(rr.gyro.calibrations).To(Equal(1))
			Expect(rr.f.Snapshot().GyroCalibrated).To(BeTrue())
		})
	})

	Describe("mode cycle", func() {
		next := func() {
			r.clock.Advance(time.Second)
			r.press(2)
		}

		It("cycles MEDIUM, FAST, SLOW, MEDIUM and applies each profile", func() {
			for _, want := range []robot.Mode{robot.Fast, robot.Slow, robot.Medium} {
				next()
				p, err := r.cfg.Modes.Profile(want)
				Expect(err).NotTo(HaveOccurred())

				Expect(r.f.Mode()).To(Equal(want))
				Expect(r.f.Profile()).To(Equal(p))
				Expect(r.sensorPID.gains).To(Equal(p.SensorGains))
				Expect(r.gyroPID.gains).To(Equal(p.GyroGains))
			}
		})

		It("shows the mode on the indicators", func() {
			next()
			Expect([]bool{r.leds.led1, r.leds.led2}).To(Equal([]bool{true, true}))
			next()
			Expect([]bool{r.leds.led1, r.leds.led2}).To(Equal([]bool{true, false}))
		})

		It("rejects modes outside the cycle", func() {
			Expect(r.f.ChangeMode(robot.Mode(7))).To(MatchError(robot.ErrUnknownMode))
			Expect(r.f.Mode()).To(Equal(robot.Medium))
		})

		It("applies an explicit mode change without resetting the PIDs", func() {
			r.f.ToggleMotorsAreActive()
			resets := r.sensorPID.resets
			Expect(r.f.ChangeMode(robot.Slow)).To(Succeed())
			Expect(r.sensorPID.resets).To(Equal(resets))
			Expect(r.sensorPID.gains).To(Equal(r.cfg.Modes.Slow.SensorGains))
		})
	})

	Describe("a run ended by crossings", func() {
		cross := func() {
			r.f.TriggeredInterruptRising(robot.Right)
			r.f.TriggeredInterruptFalling(robot.Right)
		}

		BeforeEach(func() {
			r.press(1)
			Expect(r.f.Snapshot().MotorsActive).To(BeTrue())
		})

		It("drives while counting and stops at the configured total", func() {
			r.step(10 * time.Millisecond)
			Expect(r.motors.left).To(BeNumerically(">", 0))

			cross()
			r.step(10 * time.Millisecond)
			Expect(r.f.Snapshot().Crossings).To(Equal(uint(1)))
			Expect(r.f.Snapshot().MotorsActive).To(BeTrue())

			r.clock.Advance(600 * time.Millisecond)
			cross()
			Expect(r.f.Snapshot().Crossings).To(Equal(uint(2)))

			r.step(10 * time.Millisecond)
			snap := r.f.Snapshot()
			Expect(snap.MotorsActive).To(BeFalse())
			Expect(snap.LeftOutput).To(BeZero())
			Expect(snap.RightOutput).To(BeZero())
			Expect(r.motors.left).To(BeZero())
			Expect(r.motors.right).To(BeZero())
			Expect(snap.LastRunCrossings).To(Equal(uint(2)))
			Expect(snap.Crossings).To(BeZero())
			Expect(snap.LastRunDuration).To(BeNumerically(">", 600*time.Millisecond))
		})

		It("ignores a second crossing inside the threshold", func() {
			cross()
			r.clock.Advance(200 * time.Millisecond)
			cross()
			r.step(10 * time.Millisecond)
			Expect(r.f.Snapshot().Crossings).To(Equal(uint(1)))
			Expect(r.f.Snapshot().MotorsActive).To(BeTrue())
		})

		It("starts every run with a fresh count", func() {
			cross()
			r.clock.Advance(time.Second)
			r.press(1)
			Expect(r.f.Snapshot().MotorsActive).To(BeFalse())
			Expect(r.f.Snapshot().LastRunCrossings).To(Equal(uint(1)))

			r.clock.Advance(time.Second)
			r.press(1)
			snap := r.f.Snapshot()
			Expect(snap.MotorsActive).To(BeTrue())
			Expect(snap.Runs).To(Equal(2))
			Expect(snap.Crossings).To(BeZero())
		})

		It("does not count edges between runs", func() {
			r.f.ToggleMotorsAreActive()
			cross()
			Expect(r.f.Snapshot().Crossings).To(BeZero())
		})
	})

	Describe("outputs", func() {
		It("stay within the motor clamp for any sensor pattern", func() {
			rng := rand.New(rand.NewSource(7))
			r.f.ToggleMotorsAreActive()

			for i := 0; i < 2000; i++ {
				var active []int
				for s := 0; s < 8; s++ {
					if rng.Intn(4) == 0 {
						active = append(active, s)
					}
				}
				r.sensors.set(active...)
				r.gyro.rate = rng.Float64()*400 - 200
				r.step(time.Duration(rng.Intn(50)) * time.Millisecond)

				limit := r.f.Profile().MotorClamp
				Expect(math.Abs(r.motors.left)).To(BeNumerically("<=", limit))
				Expect(math.Abs(r.motors.right)).To(BeNumerically("<=", limit))
			}
		})
	})

	Describe("PrintAll", func() {
		It("dumps the mode and the tunable parameters", func() {
			var buf bytes.Buffer
			Expect(r.f.PrintAll(&buf)).To(Succeed())
			out := buf.String()
			Expect(out).To(HavePrefix("mode"))
			Expect(out).To(ContainSubstring("medium"))
			Expect(out).To(ContainSubstring("sensor_kp"))
			Expect(out).To(ContainSubstring("motors_active"))
			Expect(r.f.Params()).To(HaveKeyWithValue("sensor_kp", r.cfg.Modes.Medium.SensorGains.Kp))
		})
	})
})

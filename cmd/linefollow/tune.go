package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/linefollow/internal/config"
	"github.com/san-kum/linefollow/internal/control"
	"github.com/san-kum/linefollow/internal/robot"
	"github.com/san-kum/linefollow/internal/sim"
)

func openPort(name string, baud int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return port, nil
}

// attachTuner swaps the simulator's loop controllers for remotely tunable
// ones fed from the tuning port. The returned stop closes the port and
// waits for the listener.
func attachTuner(ctx context.Context, s *sim.Simulator, robotCfg *config.Config) (func(), error) {
	mode, err := robotCfg.Mode()
	if err != nil {
		return nil, err
	}
	profile, err := robotCfg.Modes.Profile(mode)
	if err != nil {
		return nil, err
	}

	port, err := openPort(tunePort, tuneBaud)
	if err != nil {
		return nil, err
	}

	sensor := control.NewRemotePID("sensor", profile.SensorGains)
	gyro := control.NewRemotePID("gyro", profile.GyroGains)
	s.SetPIDs(sensor, gyro)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return control.ListenAll(gctx, port, func(err error) {
			logger.Warn("ignoring tuning command", "err", err)
		}, sensor, gyro)
	})
	logger.Info("listening for tuning commands", "port", tunePort, "baud", tuneBaud)

	return func() {
		port.Close()
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Debug("tuning listener stopped", "err", err)
		}
		logger.Info("tuning finished", "sensor", sensor.Gains(), "gyro", gyro.Gains(),
			"updates", sensor.Updates()+gyro.Updates())
	}, nil
}

func newTuneCmd() *cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "serial PID tuning helpers",
	}

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "list serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serial.GetPortsList()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Println(p)
			}
			return nil
		},
	}

	sendCmd := &cobra.Command{
		Use:     "send [port] [command...]",
		Short:   "send tuning commands such as sensor.kp=1.2",
		Example: "  linefollow tune send /dev/ttyUSB0 sensor.kp=1.2 gyro.kd=0.01",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// validate locally before anything goes out
			probe := control.NewRemotePID("", robot.Gains{})
			for _, line := range args[1:] {
				if _, err := probe.Apply(stripScope(line)); err != nil {
					return err
				}
			}

			port, err := openPort(args[0], tuneBaud)
			if err != nil {
				return err
			}
			defer port.Close()
			_, err = io.WriteString(port, strings.Join(args[1:], "\n")+"\n")
			return err
		},
	}
	sendCmd.Flags().IntVar(&tuneBaud, "baud", 115200, "baud rate")

	tuneCmd.AddCommand(portsCmd, sendCmd)
	return tuneCmd
}

func stripScope(line string) string {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return line
	}
	if _, param, scoped := strings.Cut(key, "."); scoped {
		return param + "=" + value
	}
	return line
}

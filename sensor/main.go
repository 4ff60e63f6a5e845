// This component simulates a water-flow sensor and writes its readings to stdout
// in the sensor line protocol, ready to be piped into the monitor.
//
// Usage example: sensor -rate 5 -seed 42 | monitor -port -
//
// Flags:
//
//	-rate: number of samples per second to emit
//	-seed: seed of the flow simulation
//	-log-level: debug, info, warn or error
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samoilenko/water_monitor/pkg/logging"
	sensorDomain "github.com/samoilenko/water_monitor/sensor/domain"
	sensorInfrastructure "github.com/samoilenko/water_monitor/sensor/infrastructure"
)

func endWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
	flag.Usage()
	os.Exit(1)
}

func main() {
	ctx, finish := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGPIPE)
	defer finish()

	config, err := sensorInfrastructure.GetConfigParameters(flag.CommandLine, os.Args[1:])
	if err != nil {
		endWithError(err)
	}

	// stdout carries the readings, logs go to stderr
	logger := logging.NewConsoleLogger(os.Stderr, config.LogLevel)
	slog.SetDefault(logger.Slog())
	logger.Info("emitting %d samples per second", config.Rate)

	simulator := sensorInfrastructure.NewFlowSimulator(config.Rate, config.Seed)
	reader := sensorDomain.NewValueReader(config.Rate, 2, logger)
	valuesCh := reader.Read(ctx, simulator)

	transport := sensorInfrastructure.NewLineTransport(os.Stdout)
	sender := sensorDomain.NewSensorDataSender(transport, &sensorInfrastructure.AtomicIDGenerator{}, logger)
	sender.Send(ctx, valuesCh)
	logger.Info("sensor stopped")
}

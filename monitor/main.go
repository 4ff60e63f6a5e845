// Monitor ingests water-flow sensor readings, keeps a durable CSV log of them and
// periodically prints a consumption report and renders a flow/total plot.
//
// Usage: monitor -port=/dev/ttyUSB0 -baud=9600 -log-file=su_tuketim.csv -update-interval=50
//
//	sensor -rate=5 | monitor -port=-
//
// Flags (each may also be set through a WATER_* environment variable, .env or -config):
//
//	-port: serial port of the sensor, or - to read lines from standard input
//	-baud: serial line rate
//	-read-timeout: timeout of a single sensor read
//	-log-file: path to the durable CSV log
//	-update-interval: accepted readings between analysis runs
//	-flow-threshold: average flow (L/min) above which flow is reported as high
//	-plot-file: path of the rendered PNG plot
//	-metrics-file: Prometheus textfile to export metrics to
//	-persistence-policy: best-effort or strict
//	-warn-rate: maximum malformed-line warnings logged per second
//	-log-level: debug, info, warn or error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
	monitorInfrastructure "github.com/samoilenko/water_monitor/monitor/infrastructure"
	"github.com/samoilenko/water_monitor/pkg/logging"
)

func endWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
	flag.Usage()
	os.Exit(1)
}

// reportFailure logs why the monitor is exiting. Fatal kinds name the resource that
// has to be fixed before a restart can succeed.
func reportFailure(logger monitorDomain.Logger, what string, err error) {
	switch {
	case errors.Is(err, monitorDomain.ErrLogLoad):
		logger.Error("%s: durable log is unusable, fix or move it before restarting: %s", what, err.Error())
	case monitorDomain.IsFatal(err):
		logger.Error("%s: sensor is unreachable, check the port and cable: %s", what, err.Error())
	default:
		logger.Error("%s: %s", what, err.Error())
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, finish := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer finish()

	config, err := monitorInfrastructure.GetFromCommandLineParameters()
	if err != nil {
		endWithError(err)
	}

	logger := logging.NewConsoleLogger(os.Stderr, config.LogLevel).With("run_id", uuid.NewString())
	slog.SetDefault(logger.Slog())
	console := monitorDomain.NewConsole(os.Stdout)

	logger.Info("Creating services...")
	metrics := monitorInfrastructure.NewPromMetrics(config.MetricsPath)
	exporter := monitorInfrastructure.NewPNGExporter(config.PlotPath)
	analyzer := monitorDomain.NewAnalyzer(config.FlowThreshold, exporter, console, logger, metrics)

	// the analyzer outlives the ingestion loop so that the final report can be rendered after a signal
	analysisCtx, stopAnalysis := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		analyzer.Run(analysisCtx)
		logger.Info("Analyzer stopped")
	}()
	defer func() {
		stopAnalysis()
		wg.Wait()
	}()

	// configure reading interceptors
	interceptors := monitorDomain.WithInterceptors[monitorDomain.Reading](monitorInfrastructure.NewReadingValidator())

	loop := monitorDomain.NewIngestionLoop(
		monitorDomain.LoopConfig{
			UpdateInterval: config.UpdateInterval,
			Policy:         config.PersistencePolicy,
		},
		monitorDomain.NewLineParser(time.Now),
		interceptors,
		analyzer,
		console,
		logger,
		monitorDomain.WithMetrics(metrics),
		monitorDomain.WithWarnLimiter(monitorInfrastructure.NewWarnLimiter(config.WarnRate, time.Second)),
	)

	if err := loop.Start(monitorInfrastructure.NewBootstrap(config, logger)); err != nil {
		reportFailure(logger, "startup failed", err)
		return 1
	}

	logger.Info("Listening on %s", config.Port)
	if err := loop.Run(ctx); err != nil {
		reportFailure(logger, "ingestion stopped", err)
		return 1
	}

	logger.Info("All components stopped gracefully")
	return 0
}

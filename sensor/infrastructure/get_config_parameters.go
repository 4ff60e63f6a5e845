package infrastructure

import (
	"flag"
	"log/slog"

	"github.com/samoilenko/water_monitor/pkg/logging"
	sensorDomain "github.com/samoilenko/water_monitor/sensor/domain"
)

// Config holds the validated simulator parameters.
type Config struct {
	Rate     sensorDomain.Rate
	Seed     uint64
	LogLevel slog.Level
}

// GetConfigParameters returns validated sensor configuration.
func GetConfigParameters(fs *flag.FlagSet, args []string) (*Config, error) {
	rawRate := fs.Int("rate", 5, "number of samples per second to emit, greater than 0")
	seed := fs.Uint64("seed", 1, "seed of the flow simulation")
	rawLevel := fs.String("log-level", "info", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rate, err := sensorDomain.NewRate(*rawRate)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(*rawLevel)
	if err != nil {
		return nil, err
	}

	return &Config{Rate: rate, Seed: *seed, LogLevel: level}, nil
}

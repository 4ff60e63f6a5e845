package infrastructure

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
	"github.com/samoilenko/water_monitor/pkg/logging"
)

const envPrefix = "WATER_"

// AppConfig holds all validated configuration parameters for the monitor application.
type AppConfig struct {
	Port              monitorDomain.PortName
	Baud              monitorDomain.BaudRate
	ReadTimeout       monitorDomain.ReadTimeout
	LogPath           monitorDomain.LogPath
	UpdateInterval    monitorDomain.UpdateInterval
	FlowThreshold     monitorDomain.FlowThreshold
	PlotPath          string
	MetricsPath       string
	PersistencePolicy monitorDomain.PersistencePolicy
	WarnRate          monitorDomain.WarnRate
	LogLevel          slog.Level
}

// rawConfig is the unvalidated form shared by the YAML file, the environment and the flags.
type rawConfig struct {
	Port              string  `yaml:"port"`
	Baud              int     `yaml:"baud"`
	ReadTimeout       string  `yaml:"read_timeout"`
	LogFile           string  `yaml:"log_file"`
	UpdateInterval    int     `yaml:"update_interval"`
	FlowThreshold     float64 `yaml:"flow_threshold"`
	PlotFile          string  `yaml:"plot_file"`
	MetricsFile       string  `yaml:"metrics_file"`
	PersistencePolicy string  `yaml:"persistence_policy"`
	WarnRate          int     `yaml:"warn_rate"`
	LogLevel          string  `yaml:"log_level"`
}

func defaultRawConfig() rawConfig {
	return rawConfig{
		Baud:              9600,
		ReadTimeout:       "1s",
		LogFile:           "su_tuketim.csv",
		UpdateInterval:    monitorDomain.DefaultUpdateInterval,
		FlowThreshold:     monitorDomain.DefaultFlowThreshold,
		PlotFile:          "flow_and_total.png",
		PersistencePolicy: string(monitorDomain.PersistenceBestEffort),
		WarnRate:          5,
		LogLevel:          "info",
	}
}

// GetFromCommandLineParameters loads .env (if present) and builds the configuration
// from the process environment and command-line flags.
func GetFromCommandLineParameters() (*AppConfig, error) {
	_ = godotenv.Load() // .env is optional
	return LoadAppConfig(flag.CommandLine, os.Args[1:], os.Getenv)
}

// LoadAppConfig resolves the configuration with increasing precedence: defaults,
// the YAML file named by -config, environment variables, then explicit flags.
func LoadAppConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (*AppConfig, error) {
	raw := defaultRawConfig()

	configFile := fs.String("config", "", "Path to an optional YAML configuration file")
	port := fs.String("port", "", "Sensor serial port (e.g. /dev/ttyUSB0, COM6) or - for stdin")
	baud := fs.Int("baud", raw.Baud, "Serial line rate")
	readTimeout := fs.Duration("read-timeout", time.Second, "Timeout of a single sensor read")
	logFile := fs.String("log-file", raw.LogFile, "Path to the durable CSV log")
	updateInterval := fs.Int("update-interval", raw.UpdateInterval, "Accepted readings between analysis runs")
	flowThreshold := fs.Float64("flow-threshold", raw.FlowThreshold, "Average flow (L/min) above which flow is reported as high")
	plotFile := fs.String("plot-file", raw.PlotFile, "Path of the rendered PNG plot")
	metricsFile := fs.String("metrics-file", "", "Prometheus textfile to export metrics to (disabled when empty)")
	policy := fs.String("persistence-policy", raw.PersistencePolicy, "best-effort or strict")
	warnRate := fs.Int("warn-rate", raw.WarnRate, "Maximum malformed-line warnings logged per second")
	logLevel := fs.String("log-level", raw.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *configFile != "" {
		if err := loadYAMLConfig(*configFile, &raw); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&raw, getenv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			raw.Port = *port
		case "baud":
			raw.Baud = *baud
		case "read-timeout":
			raw.ReadTimeout = readTimeout.String()
		case "log-file":
			raw.LogFile = *logFile
		case "update-interval":
			raw.UpdateInterval = *updateInterval
		case "flow-threshold":
			raw.FlowThreshold = *flowThreshold
		case "plot-file":
			raw.PlotFile = *plotFile
		case "metrics-file":
			raw.MetricsFile = *metricsFile
		case "persistence-policy":
			raw.PersistencePolicy = *policy
		case "warn-rate":
			raw.WarnRate = *warnRate
		case "log-level":
			raw.LogLevel = *logLevel
		}
	})

	return raw.validate()
}

func loadYAMLConfig(path string, raw *rawConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error on opening config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(raw); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(raw *rawConfig, getenv func(string) string) error {
	lookup := func(name string) string {
		return strings.TrimSpace(getenv(envPrefix + name))
	}
	parseInt := func(name string, dst *int) error {
		v := lookup(name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}
	setString := func(name string, dst *string) {
		if v := lookup(name); v != "" {
			*dst = v
		}
	}

	setString("PORT", &raw.Port)
	setString("READ_TIMEOUT", &raw.ReadTimeout)
	setString("LOG_FILE", &raw.LogFile)
	setString("PLOT_FILE", &raw.PlotFile)
	setString("METRICS_FILE", &raw.MetricsFile)
	setString("PERSISTENCE_POLICY", &raw.PersistencePolicy)
	setString("LOG_LEVEL", &raw.LogLevel)

	if err := parseInt("BAUD", &raw.Baud); err != nil {
		return err
	}
	if err := parseInt("UPDATE_INTERVAL", &raw.UpdateInterval); err != nil {
		return err
	}
	if err := parseInt("WARN_RATE", &raw.WarnRate); err != nil {
		return err
	}

	if v := lookup("FLOW_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sFLOW_THRESHOLD: %w", envPrefix, err)
		}
		raw.FlowThreshold = f
	}
	return nil
}

func (raw rawConfig) validate() (*AppConfig, error) {
	port, err := monitorDomain.NewPortName(raw.Port)
	if err != nil {
		return nil, err
	}

	baud, err := monitorDomain.NewBaudRate(raw.Baud)
	if err != nil {
		return nil, err
	}

	timeoutValue, err := time.ParseDuration(raw.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	readTimeout, err := monitorDomain.NewReadTimeout(timeoutValue)
	if err != nil {
		return nil, err
	}

	logPath, err := monitorDomain.NewLogPath(raw.LogFile)
	if err != nil {
		return nil, err
	}

	updateInterval, err := monitorDomain.NewUpdateInterval(raw.UpdateInterval)
	if err != nil {
		return nil, err
	}

	threshold, err := monitorDomain.NewFlowThreshold(raw.FlowThreshold)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw.PlotFile) == "" {
		return nil, errors.New("plot file path cannot be empty")
	}

	policy, err := monitorDomain.NewPersistencePolicy(raw.PersistencePolicy)
	if err != nil {
		return nil, err
	}

	warnRate, err := monitorDomain.NewWarnRate(raw.WarnRate)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(raw.LogLevel)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		Port:              port,
		Baud:              baud,
		ReadTimeout:       readTimeout,
		LogPath:           logPath,
		UpdateInterval:    updateInterval,
		FlowThreshold:     threshold,
		PlotPath:          raw.PlotFile,
		MetricsPath:       raw.MetricsFile,
		PersistencePolicy: policy,
		WarnRate:          warnRate,
		LogLevel:          level,
	}

	return config, nil
}

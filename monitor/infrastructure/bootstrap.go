package infrastructure

import (
	"io"
	"os"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

// Bootstrap opens the durable log and the sensor source described by an AppConfig.
type Bootstrap struct {
	config *AppConfig
	logger monitorDomain.Logger
	stdin  io.ReadCloser
}

// OpenLog opens the CSV log and loads its history.
func (b *Bootstrap) OpenLog() (monitorDomain.Store, []monitorDomain.Reading, error) {
	log, history, err := OpenCSVLog(b.config.LogPath, b.logger)
	if err != nil {
		return nil, nil, err
	}
	return log, history, nil
}

// Connect opens the configured serial port, or standard input for port "-".
func (b *Bootstrap) Connect() (monitorDomain.LineSource, error) {
	if b.config.Port.IsStdin() {
		b.logger.Info("reading sensor lines from standard input")
		return NewStreamSource(b.stdin, b.config.ReadTimeout), nil
	}
	source, err := OpenSerialSource(b.config.Port, b.config.Baud, b.config.ReadTimeout, b.logger)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// NewBootstrap creates a Bootstrap reading from os.Stdin when the port is "-".
func NewBootstrap(config *AppConfig, logger monitorDomain.Logger) *Bootstrap {
	return &Bootstrap{
		config: config,
		logger: logger,
		stdin:  os.Stdin,
	}
}

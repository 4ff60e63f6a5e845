package domain

import (
	"errors"
	"strings"
)

// StdinPort is the port name that makes the monitor read lines from standard input.
const StdinPort = "-"

// PortName identifies the sensor source: a serial device such as
// "/dev/ttyUSB0" or "COM6", or StdinPort.
type PortName string

// NewPortName validates the given string and returns it as a PortName.
func NewPortName(value string) (PortName, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("sensor port must be non-empty")
	}
	return PortName(value), nil
}

// IsStdin reports whether readings should be taken from standard input.
func (p PortName) IsStdin() bool {
	return p == StdinPort
}

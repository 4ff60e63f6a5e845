package domain

import "fmt"

// BaudRate is the serial line rate in bits per second.
type BaudRate uint32

var standardBaudRates = map[int]struct{}{
	300: {}, 1200: {}, 2400: {}, 4800: {}, 9600: {}, 19200: {},
	38400: {}, 57600: {}, 115200: {}, 230400: {}, 460800: {}, 921600: {},
}

// NewBaudRate accepts only the standard rates an Arduino-class board can be configured with.
func NewBaudRate(val int) (BaudRate, error) {
	if _, ok := standardBaudRates[val]; !ok {
		return 0, fmt.Errorf("unsupported baud rate: %d", val)
	}
	return BaudRate(val), nil
}

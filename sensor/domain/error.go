package domain

import "errors"

// ErrTransportClosed indicates that the consumer went away (e.g. the reading end of a pipe was closed).
var ErrTransportClosed = errors.New("transport is closed")

package domain

import (
	"context"
	"errors"
)

// Transport defines the contract for sending data to external systems.
type Transport interface {
	// Send transfers one sensor sample tagged with its sequence number.
	Send(ctx context.Context, value *SensorValue, seq int64) error
}

// IDGenerator hands out sequence numbers.
type IDGenerator interface {
	Generate() int64
}

// SensorDataSender handles the transmission of sensor data using a configured transport.
type SensorDataSender struct {
	transport Transport
	ids       IDGenerator
	logger    Logger
}

// Send processes sensor values from the channel and transmits them using the configured transport.
// It returns when the input channel is closed, the context is cancelled or the transport is closed.
func (s *SensorDataSender) Send(ctx context.Context, values <-chan *SensorValue) {
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-values:
			if !ok {
				return
			}
			err := s.transport.Send(ctx, v, s.ids.Generate())
			if err == nil {
				continue
			}
			if errors.Is(err, ErrTransportClosed) {
				s.logger.Error("consumer is gone: %s", err.Error())
				return
			}
			s.logger.Error("error sending data: %s", err.Error())
		}
	}
}

// NewSensorDataSender creates a new SensorDataSender with the specified transport, sequence source and logger.
func NewSensorDataSender(transport Transport, ids IDGenerator, logger Logger) *SensorDataSender {
	return &SensorDataSender{
		transport: transport,
		ids:       ids,
		logger:    logger,
	}
}

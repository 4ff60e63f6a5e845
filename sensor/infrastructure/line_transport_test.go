package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"testing"

	sensorDomain "github.com/samoilenko/water_monitor/sensor/domain"
)

type failingWriter struct {
	err error
}

func (w failingWriter) Write(_ []byte) (int, error) {
	return 0, w.err
}

func TestLineTransport_Send(t *testing.T) {
	t.Run("writes protocol lines", func(t *testing.T) {
		buf := &bytes.Buffer{}
		transport := NewLineTransport(buf)

		err := transport.Send(context.Background(), &sensorDomain.SensorValue{FlowLPM: 3.5, CumulativeLiters: 12.25, Presence: 1}, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err = transport.Send(context.Background(), &sensorDomain.SensorValue{}, 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := "3.50,12.250,1,7\n0.00,0.000,0,8\n"
		if buf.String() != expected {
			t.Errorf("expected %q, got %q", expected, buf.String())
		}
	})

	t.Run("closed pipe is reported as closed transport", func(t *testing.T) {
		transport := NewLineTransport(failingWriter{err: io.ErrClosedPipe})

		err := transport.Send(context.Background(), &sensorDomain.SensorValue{}, 1)
		if !errors.Is(err, sensorDomain.ErrTransportClosed) {
			t.Errorf("expected ErrTransportClosed, got %v", err)
		}
	})

	t.Run("other write errors are returned as is", func(t *testing.T) {
		writeErr := errors.New("disk full")
		transport := NewLineTransport(failingWriter{err: writeErr})

		err := transport.Send(context.Background(), &sensorDomain.SensorValue{}, 1)
		if !errors.Is(err, writeErr) || errors.Is(err, sensorDomain.ErrTransportClosed) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		buf := &bytes.Buffer{}
		transport := NewLineTransport(buf)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := transport.Send(ctx, &sensorDomain.SensorValue{}, 1); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if buf.Len() != 0 {
			t.Error("expected nothing to be written")
		}
	})
}

func TestGetConfigParameters(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := GetConfigParameters(flag.NewFlagSet("sensor", flag.ContinueOnError), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Rate != 5 || config.Seed != 1 {
			t.Errorf("unexpected defaults: %+v", config)
		}
	})

	t.Run("invalid rate", func(t *testing.T) {
		fs := flag.NewFlagSet("sensor", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		if _, err := GetConfigParameters(fs, []string{"-rate", "0"}); err == nil {
			t.Error("expected error for zero rate")
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		fs := flag.NewFlagSet("sensor", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		if _, err := GetConfigParameters(fs, []string{"-log-level", "loud"}); err == nil {
			t.Error("expected error for unknown log level")
		}
	})
}

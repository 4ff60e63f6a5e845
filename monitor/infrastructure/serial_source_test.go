package infrastructure

import (
	"errors"
	"sync"
	"testing"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort replays chunks; an exhausted script behaves like a read timeout.
type fakePort struct {
	mu     sync.Mutex
	chunks []string
	err    error
	closed bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		return 0, p.err
	}
	n := copy(b, p.chunks[0])
	p.chunks = p.chunks[1:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestSerialSource_ReadLine(t *testing.T) {
	t.Run("assembles lines split across reads", func(t *testing.T) {
		port := &fakePort{chunks: []string{"1.5,10", ".2,1\r\n2,11,0\n3,", "12,1\n"}}
		source := newSerialSource(port, "/dev/ttyUSB0")

		_, err := source.ReadLine()
		assert.ErrorIs(t, err, monitorDomain.ErrReadTimeout, "partial line")

		line, err := source.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "1.5,10.2,1", line)

		line, err = source.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "2,11,0", line, "served from pending bytes")

		line, err = source.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "3,12,1", line)

		_, err = source.ReadLine()
		assert.ErrorIs(t, err, monitorDomain.ErrReadTimeout)
	})

	t.Run("invalid bytes are dropped", func(t *testing.T) {
		port := &fakePort{chunks: []string{"1,2,\xff1\n"}}
		source := newSerialSource(port, "COM6")

		line, err := source.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "1,2,1", line)
	})

	t.Run("port errors are returned", func(t *testing.T) {
		port := &fakePort{err: errors.New("device removed")}
		source := newSerialSource(port, "COM6")

		_, err := source.ReadLine()
		require.Error(t, err)
		assert.NotErrorIs(t, err, monitorDomain.ErrReadTimeout)
		assert.Contains(t, err.Error(), "COM6")
	})

	t.Run("close closes the port", func(t *testing.T) {
		port := &fakePort{}
		source := newSerialSource(port, "COM6")
		require.NoError(t, source.Close())
		assert.True(t, port.closed)
	})
}

func TestOpenSerialSource_MissingPort(t *testing.T) {
	_, err := OpenSerialSource("/dev/does-not-exist-water", 9600, monitorDomain.ReadTimeout(100*time.Millisecond), &mockLogger{})
	assert.ErrorIs(t, err, monitorDomain.ErrConnection)
}

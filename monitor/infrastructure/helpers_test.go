package infrastructure

import (
	"fmt"
	"sync"
	"time"

	monitorDomain "github.com/samoilenko/water_monitor/monitor/domain"
)

type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) record(level, msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, level+": "+fmt.Sprintf(msg, args...))
}

func (m *mockLogger) Info(msg string, args ...interface{})  { m.record("info", msg, args...) }
func (m *mockLogger) Warn(msg string, args ...interface{})  { m.record("warn", msg, args...) }
func (m *mockLogger) Error(msg string, args ...interface{}) { m.record("error", msg, args...) }

func (m *mockLogger) GetMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.messages...)
}

func testReadings(n int) []monitorDomain.Reading {
	base := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	out := make([]monitorDomain.Reading, n)
	for i := range out {
		out[i] = monitorDomain.Reading{
			Timestamp:        base.Add(time.Duration(i)*time.Second + 250*time.Microsecond),
			FlowLPM:          float64(i%7) + 0.25,
			CumulativeLiters: 100 + float64(i)*0.125,
			Presence:         monitorDomain.PresenceState(i % 2),
		}
	}
	return out
}

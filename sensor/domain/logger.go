package domain

// Logger is the logging contract used by the sensor components.
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Package logger wraps zerolog with the field naming and child-logger
// helpers the rest of the compiler and its ambient services rely on.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

type (
	Logger struct {
		zerolog.Logger
	}

	LoggerOptions struct {
		Debug bool
	}

	logLevel string
)

const (
	DebugLevel logLevel = "DEBUG"
	InfoLevel  logLevel = "INFO"
	WarnLevel  logLevel = "WARN"
	ErrorLevel logLevel = "ERROR"
)

// NewLogger returns a logger writing structured JSON to stdout.
func NewLogger(options LoggerOptions) *Logger {
	var output io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if options.Debug {
		level = zerolog.DebugLevel
	}

	zerolog.TimestampFieldName = "T"
	zerolog.LevelFieldName = "L"
	zerolog.MessageFieldName = "M"
	zerolog.LevelDebugValue = string(DebugLevel)
	zerolog.LevelInfoValue = string(InfoLevel)
	zerolog.LevelWarnValue = string(WarnLevel)
	zerolog.LevelErrorValue = string(ErrorLevel)

	l := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{l}
}

// SpawnForService returns a child logger tagged with a service name.
func (l *Logger) SpawnForService(serviceName string) *Logger {
	return &Logger{l.With().Str("service", serviceName).Logger()}
}

// SpawnForContext returns a child logger tagged with a request count/ID pair.
func (l *Logger) SpawnForContext(reqCount string, reqID string) *Logger {
	return &Logger{l.With().Str("reqCount", reqCount).Str("reqID", reqID).Logger()}
}

// SpawnForCompile returns a child logger tagged with a compile job's
// correlation ID, used by internal/compileservice to log each compile.
func (l *Logger) SpawnForCompile(jobID string) *Logger {
	return &Logger{l.With().Str("jobID", jobID).Logger()}
}

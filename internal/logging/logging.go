package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tomlord1122/todolist/internal/config"
)

// New builds the process logger. Local runs get a human readable console
// writer, everything else logs JSON to stdout.
func New(env, service string) zerolog.Logger {
	zerolog.TimestampFieldName = "timestamp"

	level := zerolog.InfoLevel
	w := io.Writer(os.Stdout)
	switch env {
	case config.EnvLocal:
		level = zerolog.DebugLevel
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		w = consoleWriter
	case config.EnvDev:
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Str("service", service).
		Logger()
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() zerolog.Logger {
	return zerolog.Nop()
}

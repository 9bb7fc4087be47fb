package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelTrace Level = "trace"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// NewLogrusLogger will generate a new logrus logger instance writing JSON to stdout
func NewLogrusLogger(logLevel string) *logrus.Logger {
	return newLogger(os.Stdout, logLevel)
}

func newLogger(out io.Writer, logLevel string) *logrus.Logger {
	logger := logrus.New()

	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{})

	switch Level(logLevel) {
	case LevelDebug:
		logger.Level = logrus.DebugLevel
	case LevelTrace:
		logger.Level = logrus.TraceLevel
	case LevelInfo, "":
		logger.Level = logrus.InfoLevel
	case LevelWarn:
		logger.Level = logrus.WarnLevel
	case LevelError:
		logger.Level = logrus.ErrorLevel
	default:
		logger.Level = logrus.InfoLevel
		logger.WithField("logLevel", logLevel).Warn("Unknown log level, defaulting to info")
	}

	return logger
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	return newLogger(io.Discard, string(LevelError))
}

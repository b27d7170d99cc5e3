// Package log provides the process logger.
package log

import (
	"os"
	"sync"
)

type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	once    sync.Once
	initErr error
	logger  Logger = mustDefault()
)

// GetLogger returns the process logger. Before Init it logs at info level
// to stderr.
func GetLogger() Logger {
	return logger
}

// Init installs the process logger from cfg. Only the first call has an
// effect.
func Init(cfg *LoggerConfig) error {
	once.Do(func() {
		var l Logger
		l, initErr = New(cfg, os.Stderr)
		if initErr == nil {
			logger = l
		}
	})
	return initErr
}

func mustDefault() Logger {
	l, err := New(DefaultConfig(), os.Stderr)
	if err != nil {
		panic(err)
	}
	return l
}

// Package common provides logging and configuration shared by all dCAS packages
package common

import (
	"fmt"
	charm "github.com/charmbracelet/log"
	"github.com/lni/dragonboat/v4/logger"
	"os"
	"strings"
	"sync"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// dCASLogger implements the ILogger interface on top of a charm logger
type dCASLogger struct {
	name   string
	level  logger.LogLevel
	logger *charm.Logger
}

func (l *dCASLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *dCASLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.logger.Debug(l.format(format, args...))
	}
}

func (l *dCASLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.logger.Info(l.format(format, args...))
	}
}

func (l *dCASLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.logger.Warn(l.format(format, args...))
	}
}

func (l *dCASLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.logger.Error(l.format(format, args...))
	}
}

func (l *dCASLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// format prefixes the message with the package name column
func (l *dCASLogger) format(format string, args ...interface{}) string {
	return fmt.Sprintf("%-10s | %s", l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements the logger.Factory interface
func CreateLogger(pkgName string) logger.ILogger {
	charmLogger := charm.NewWithOptions(os.Stderr, charm.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006/01/02 15:04:05",
		Level:           charm.DebugLevel, // filtering is done by dCASLogger
	})

	return &dCASLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: charmLogger,
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// Loggers lists the names of all package loggers used by dCAS
var Loggers = []string{"bench", "script", "session", "sql", "lockmgr", "cli"}

var factoryOnce sync.Once

// InitLoggers installs the custom logger factory and sets the level of all dCAS loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range Loggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}

package configcat

import (
	"github.com/sirupsen/logrus"
)

// Define the logrus log levels
const (
	LogLevelPanic = logrus.PanicLevel
	LogLevelFatal = logrus.FatalLevel
	LogLevelError = logrus.ErrorLevel
	LogLevelWarn  = logrus.WarnLevel
	LogLevelInfo  = logrus.InfoLevel
	LogLevelDebug = logrus.DebugLevel
	LogLevelTrace = logrus.TraceLevel
)

type LogLevel = logrus.Level

// Logger defines the interface this library logs with.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// LoggerWithLevel is optionally implemented by a Logger.
// It is notably implemented by logrus.Logger and thus
// by the DefaultLogger returned by this package.
type LoggerWithLevel interface {
	// GetLevel returns the current logging level.
	GetLevel() LogLevel
}

// DefaultLogger creates the default logger with specified log level (logrus.New()).
func DefaultLogger(level LogLevel) Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	return logger
}

// leveledLogger wraps a Logger for efficiency reasons: it's a static type
// rather than an interface so the compiler can inline the level check
// and thus avoid the allocation for the arguments.
type leveledLogger struct {
	level LogLevel
	Logger
}

func newLeveledLogger(logger Logger) *leveledLogger {
	if logger == nil {
		logger = DefaultLogger(LogLevelWarn)
	}
	level := LogLevelDebug
	if withLevel, ok := logger.(LoggerWithLevel); ok {
		level = withLevel.GetLevel()
	}
	return &leveledLogger{level: level, Logger: logger}
}

func (log *leveledLogger) enabled(level LogLevel) bool {
	return level <= log.level
}

func (log *leveledLogger) Debugf(format string, args ...interface{}) {
	if log.enabled(LogLevelDebug) {
		log.Logger.Debugf(format, args...)
	}
}

func (log *leveledLogger) Infof(format string, args ...interface{}) {
	if log.enabled(LogLevelInfo) {
		log.Logger.Infof(format, args...)
	}
}

func (log *leveledLogger) Warnf(format string, args ...interface{}) {
	if log.enabled(LogLevelWarn) {
		log.Logger.Warnf(format, args...)
	}
}

func (log *leveledLogger) Errorf(format string, args ...interface{}) {
	if log.enabled(LogLevelError) {
		log.Logger.Errorf(format, args...)
	}
}

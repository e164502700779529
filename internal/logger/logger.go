/**
 * @description
 * Structured logger for the Alertdesk backend.
 * Info-level messages go to stdout and errors to stderr so log collectors label them correctly.
 *
 * @dependencies
 * - github.com/sirupsen/logrus: leveled logging and text/json formatting
 */

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// InfoLogger writes debug/info/warn entries to stdout
	InfoLogger *logrus.Logger
	// ErrorLogger writes error/fatal entries to stderr
	ErrorLogger *logrus.Logger
)

func init() {
	InfoLogger = newLogger(os.Stdout, logrus.InfoLevel, "text")
	ErrorLogger = newLogger(os.Stderr, logrus.InfoLevel, "text")
}

// Init reconfigures both loggers with the given level ("debug", "info", "warn", "error")
// and format ("text" or "json"). Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	InfoLogger = newLogger(os.Stdout, lvl, format)
	ErrorLogger = newLogger(os.Stderr, lvl, format)
}

// Debug logs a debug message to stdout
func Debug(format string, v ...interface{}) {
	InfoLogger.Debugf(format, v...)
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	InfoLogger.Infof(format, v...)
}

// Warn logs a warning to stdout
func Warn(format string, v ...interface{}) {
	InfoLogger.Warnf(format, v...)
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	ErrorLogger.Errorf(format, v...)
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	ErrorLogger.Fatalf(format, v...)
}

// WithFields returns an entry carrying structured fields, written to stdout.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return InfoLogger.WithFields(fields)
}

// Writer returns a pipe into the info logger, for middleware that wants an io.Writer.
func Writer() io.Writer {
	return InfoLogger.Writer()
}

// New creates a new logger that writes to the specified writer
func New(w io.Writer) *logrus.Logger {
	return newLogger(w, InfoLogger.GetLevel(), "text")
}

func newLogger(w io.Writer, level logrus.Level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

package log

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LoggerOption is a function that configures a logger.
type LoggerOption func(*LogrusLogger)

// LogrusLogger implements Logger on top of a logrus.Logger.
type LogrusLogger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// NewLogger creates a new logger with the given options. Output defaults to
// stderr with the logrus text formatter.
func NewLogger(options ...LoggerOption) Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(logrus.InfoLevel)

	l := &LogrusLogger{base: base, entry: logrus.NewEntry(base)}
	for _, option := range options {
		option(l)
	}
	return l
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *LogrusLogger) {
		l.base.SetLevel(toLogrusLevel(level))
	}
}

// WithFormatter sets the logrus formatter.
func WithFormatter(formatter logrus.Formatter) LoggerOption {
	return func(l *LogrusLogger) {
		l.base.SetFormatter(formatter)
	}
}

// WithOutput sets the writer log lines are written to.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *LogrusLogger) {
		l.base.SetOutput(w)
	}
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Error(msg)
}

func (l *LogrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *LogrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *LogrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *LogrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// With returns a child logger carrying the given fields. The child shares the
// underlying logrus.Logger, so level changes apply to both.
func (l *LogrusLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &LogrusLogger{base: l.base, entry: l.entry.WithFields(toLogrusFields(fields))}
}

func (l *LogrusLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return &LogrusLogger{base: l.base, entry: l.entry.WithError(err)}
}

func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	fields := ContextExtractor(ctx)
	if len(fields) == 0 {
		return l
	}
	return &LogrusLogger{base: l.base, entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *LogrusLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *LogrusLogger) SetLevel(level Level) {
	l.base.SetLevel(toLogrusLevel(level))
}

func (l *LogrusLogger) GetLevel() Level {
	switch l.base.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return DebugLevel
	case logrus.InfoLevel:
		return InfoLevel
	case logrus.WarnLevel:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

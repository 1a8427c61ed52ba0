package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig defines the configuration for the logger.
type LoggerConfig struct {
	Level      string    // Minimum level name (CRITICAL, ERROR, WARNING, INFO, DEBUG, NOTSET)
	FilePath   string    // Path to the log file, empty for console only
	Truncate   bool      // Whether to start the log file empty
	MaxSize    int       // Maximum size in megabytes before log rotation
	MaxBackups int       // Maximum number of old log files to retain
	MaxAge     int       // Maximum number of days to retain old log files
	Compress   bool      // Whether to compress rotated log files
	Console    bool      // Whether to also log to the console
	Stdout     io.Writer // Console writer, os.Stdout when nil
}

// NewLogger returns a logrus.Logger configured according to the provided LoggerConfig,
// and a closer releasing the log file. The logger is not shared globally.
func NewLogger(config LoggerConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(level)
	logger.SetFormatter(&TextFormatter{TimestampFormat: TimestampFormat})

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if config.FilePath != "" {
		dir := filepath.Dir(config.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, err
		}

		if config.Truncate {
			f, err := os.Create(config.FilePath)
			if err != nil {
				return nil, nil, fmt.Errorf("truncate log file: %w", err)
			}
			f.Close()
		}

		fileWriter := &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	if config.Console || config.FilePath == "" {
		stdout := config.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		writers = append(writers, stdout)
	}

	if len(writers) > 1 {
		logger.SetOutput(io.MultiWriter(writers...))
	} else if len(writers) == 1 {
		logger.SetOutput(writers[0])
	}

	return logger, closer, nil
}

// DatedFileName returns the run log name for the given day, e.g. imgtools_2024_03_07.log.
func DatedFileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%04d_%02d_%02d.log", prefix, t.Year(), int(t.Month()), t.Day())
}

// ParseLevel maps a level name to a logrus level. Both the classic names
// (CRITICAL, WARNING, NOTSET) and logrus names are accepted, in any case.
func ParseLevel(name string) (logrus.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRITICAL", "FATAL":
		return logrus.FatalLevel, nil
	case "ERROR":
		return logrus.ErrorLevel, nil
	case "WARNING", "WARN":
		return logrus.WarnLevel, nil
	case "INFO", "":
		return logrus.InfoLevel, nil
	case "DEBUG":
		return logrus.DebugLevel, nil
	case "NOTSET", "TRACE":
		return logrus.TraceLevel, nil
	}
	return logrus.InfoLevel, fmt.Errorf("not a valid log level: %q", name)
}

// WithFile returns a logger entry with the specified file context.
func WithFile(logger logrus.FieldLogger, filePath string) *logrus.Entry {
	return logger.WithField("file", filePath)
}

// WithOperation returns a logger entry with the specified operation context.
func WithOperation(logger logrus.FieldLogger, operation string) *logrus.Entry {
	return logger.WithField("operation", operation)
}

// WithFileOperation returns a logger entry with both file and operation context.
func WithFileOperation(logger logrus.FieldLogger, filePath, operation string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"file":      filePath,
		"operation": operation,
	})
}

// DefaultConfig returns the default LoggerConfig: INFO to stdout and to
// today's truncated log file in the working directory.
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:    "INFO",
		FilePath: DatedFileName("imgtools", time.Now()),
		Truncate: true,
		MaxSize:  10,
		Console:  true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

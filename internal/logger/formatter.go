package logger

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is the time layout of every log line.
const TimestampFormat = "2006-01-02 15:04:05"

// TextFormatter renders "<timestamp> <LEVEL padded to 8> <message>" followed by
// any entry fields as sorted key=value pairs.
type TextFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	layout := f.TimestampFormat
	if layout == "" {
		layout = TimestampFormat
	}

	fmt.Fprintf(b, "%s %-8s %s", entry.Time.Format(layout), LevelName(entry.Level), entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// LevelName returns the upper-case level label used in log lines.
func LevelName(level logrus.Level) string {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return "CRITICAL"
	case logrus.ErrorLevel:
		return "ERROR"
	case logrus.WarnLevel:
		return "WARNING"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.DebugLevel:
		return "DEBUG"
	default:
		return "TRACE"
	}
}

// Package logging builds the logrus loggers used by the mcmpi command.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels are the accepted values of Options.Level.
var Levels = []string{"debug", "info", "warn", "error"}

// Options configures New.
type Options struct {
	// Level is one of Levels. Empty means info.
	Level string

	// Console receives human-readable output. Nil discards it.
	Console io.Writer

	// File, when set, receives every entry with a timestamp. The file is rotated by size.
	File string
}

// New returns a logger configured by opts. The returned close function releases the log file and must be
// called once the logger is no longer used.
func New(opts Options) (*logrus.Logger, func() error, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("failed parsing log level %q: %w", opts.Level, err)
		}
	}
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&ConsoleFormatter{})
	console := opts.Console
	if console == nil {
		console = io.Discard
	}
	logger.SetOutput(console)

	closer := func() error { return nil }
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   filepath.ToSlash(opts.File),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		logger.AddHook(&fileHook{
			writer: rotator,
			formatter: &logrus.TextFormatter{
				DisableColors: true,
				FullTimestamp: true,
			},
		})
		closer = rotator.Close
	}
	return logger, closer, nil
}

// ConsoleFormatter writes info entries as the bare message and prefixes other levels with the level name.
// Fields are only shown when the logger is at debug level.
type ConsoleFormatter struct{}

func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer
	if entry.Level != logrus.InfoLevel {
		buf.WriteString(entry.Level.String())
		buf.WriteString(": ")
	}
	buf.WriteString(entry.Message)
	if entry.Logger != nil && entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		for _, key := range sortedKeys(entry.Data) {
			fmt.Fprintf(&buf, " %s=%v", key, entry.Data[key])
		}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := maps.Keys(data)
	slices.Sort(keys)
	return keys
}

type fileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

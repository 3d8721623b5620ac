// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Options controls logger setup.
type Options struct {
	// Verbosity is the -v count: 0 info, 1 debug, 2+ trace.
	Verbosity int

	// File is an optional rotating log file. Empty disables it.
	File string

	// Quiet drops console output, e.g. while a TUI owns the terminal.
	Quiet bool
}

// Init applies opts to the standard logrus logger.
func Init(opts Options) {
	logrus.SetLevel(levelFor(opts.Verbosity))

	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stdout)
	}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5,
			MaxAge:     14,
			MaxBackups: 5,
		})
	}

	switch len(writers) {
	case 0:
		logrus.SetOutput(io.Discard)
	case 1:
		logrus.SetOutput(writers[0])
	default:
		logrus.SetOutput(io.MultiWriter(writers...))
	}

	logrus.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat:  "2006-01-02 15:04:05",
		FullTimestamp:    true,
		ForceFormatting:  true,
		DisableColors:    opts.File != "" || opts.Quiet,
		QuoteEmptyFields: true,
	})
}

// GetLogger returns an entry tagged with prefix.
func GetLogger(prefix string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"prefix": prefix})
}

func levelFor(verbosity int) logrus.Level {
	switch {
	case verbosity <= 0:
		return logrus.InfoLevel
	case verbosity == 1:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

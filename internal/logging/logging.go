// Package logging builds the process logger. The logger is handed to the
// pipeline and CLI by injection; nothing in this module logs through a
// package-level default.
package logging

import (
	"io"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a configured logger. level is one of debug, info, warn, error;
// unknown values fall back to info. When file is non-empty, entries are
// mirrored to a size-capped rotating log file so unattended runs stay
// inspectable after the console is gone.
func New(level, file string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	log.SetFormatter(&nested.Formatter{
		HideKeys:        false,
		TimestampFormat: "2006-01-02 15:04:05",
		FieldsOrder:     []string{"run_id", "path", "kind"},
	})

	out := io.Writer(os.Stderr)
	if file != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	log.SetOutput(out)

	return log
}

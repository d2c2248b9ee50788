package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger used across the application.
// Production output is JSON for log shipping; development output is human readable.
func Setup(level string, production bool) {
	configure(logrus.StandardLogger(), level, production, os.Stdout)
}

func configure(l *logrus.Logger, level string, production bool, out io.Writer) {
	if production {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		l.WithField("level", level).Warn("unknown log level, falling back to info")
	}
	l.SetLevel(lvl)
}

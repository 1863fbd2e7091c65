package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger tagged with the service name. level is a logrus level
// name; unknown or empty values fall back to info.
func New(service, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	l.SetLevel(ParseLevel(level))

	return l.WithField("service", service)
}

func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Discard is a logger for tests and library defaults.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return logrus.NewEntry(l)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

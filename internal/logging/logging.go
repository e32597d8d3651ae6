// Package logging configures the shared structured logger. Core statistics
// packages stay log-free; loaders, adapters, and the server log through the
// component entries handed out here.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.Mutex
	logger *logrus.Logger
)

// Init configures the process logger. An empty level falls back to LOG_LEVEL
// and then to info (debug in development mode). Production output is JSON;
// development output is human-readable text.
func Init(logLevel string, development bool) *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()

	log := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel == "" {
		if development {
			logLevel = "debug"
		} else {
			logLevel = "info"
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid log level, using info")
	}

	if !development || strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	log.SetOutput(os.Stdout)

	logger = log
	return log
}

// Get returns the process logger, initializing it with defaults on first use.
func Get() *logrus.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l != nil {
		return l
	}
	return Init("", false)
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return Get().WithField("component", name)
}

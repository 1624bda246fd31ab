// Package logging builds the console's logrus logger and connects it to
// Sentry.
package logging

import (
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a JSON logger at level. An empty level means info.
func NewLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	logger.SetLevel(logrus.InfoLevel)

	if level == "" {
		return logger, nil
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level: %s", level)
	}
	logger.SetLevel(parsed)
	return logger, nil
}

// SentrySettings configures error reporting.
type SentrySettings struct {
	DSN         string
	Environment string
	Release     string
}

// InitSentry forwards error-level log entries to Sentry. With no DSN it
// does nothing and returns a no-op flush.
func InitSentry(logger *logrus.Logger, settings SentrySettings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         settings.DSN,
		Environment: settings.Environment,
		Release:     settings.Release,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "initialising sentry client")
	}
	hub := sentry.NewHub(client, sentry.NewScope())

	// Entries become Sentry events. The structured-logs hook would need
	// EnableLogs on the client and reports nothing without it.
	hook := sentrylogrus.NewEventHookFromClient([]logrus.Level{
		logrus.ErrorLevel,
		logrus.FatalLevel,
		logrus.PanicLevel,
	}, client)
	hook.SetHubProvider(func() *sentry.Hub { return hub })
	logger.AddHook(hook)

	return hub, func() { hub.Flush(2 * time.Second) }, nil
}

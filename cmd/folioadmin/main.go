package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"github.com/eringen/folioadmin"
	"github.com/eringen/folioadmin/logging"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("folioadmin %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := folioadmin.LoadConfig()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	_, flush, err := logging.InitSentry(logger, logging.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     "folioadmin@" + version,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	app, err := folioadmin.New(cfg, folioadmin.WithLogger(logger))
	if err != nil {
		return eris.Wrap(err, "building console")
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("closing journal")
		}
	}()

	return app.Start(ctx)
}

func printUsage() {
	fmt.Println(`folioadmin - administration console for a portfolio site

Usage:
  folioadmin <command>

Commands:
  serve     Start the console (default)
  version   Print the folioadmin version
  help      Show this help message

Configuration is read from the environment and an optional .env file.
Required: BACKEND_URL, BACKEND_ANON_KEY, SESSION_SECRET.`)
}

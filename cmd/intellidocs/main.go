// Command intellidocs ingests documents, keeps versioned summaries and
// answers questions with citations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/intellidocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/intellidocs/internal/adapters/driving/cli"
	"github.com/custodia-labs/intellidocs/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	// homeEnv selects the configuration directory.
	homeEnv = "INTELLIDOCS_HOME"
	// logLevelEnv sets the log level when --verbose is absent.
	logLevelEnv = "INTELLIDOCS_LOG_LEVEL"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	// Startup logging happens before cobra parses flags.
	if err := setupLogging(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := file.LoadDotEnv(".env"); err != nil {
		logger.Warn("loading .env: %v", err)
	}

	configDir := os.Getenv(homeEnv)
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading configuration: %v\n", err)
		return 1
	}

	app, err := newApp(ctx, configStore, configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer app.Close(ctx)

	cli.SetVersion(version)
	cli.SetServices(app.services())

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func setupLogging(args []string) error {
	if verboseRequested(args) {
		logger.SetVerbose(true)
		return nil
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		l, err := logger.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("%s: %w", logLevelEnv, err)
		}
		logger.SetLevel(l)
	}
	return nil
}

// verboseRequested reports whether -v or --verbose appears before "--".
func verboseRequested(args []string) bool {
	for _, a := range args {
		switch a {
		case "--":
			return false
		case "-v", "--verbose", "--verbose=true":
			return true
		}
	}
	return false
}

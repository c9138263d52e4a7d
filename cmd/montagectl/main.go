// Command montagectl submits photo sets to the montage API and watches
// generation tasks until they finish.
//
// Usage:
//
//	montagectl [-url URL] [-token TOKEN] submit -style elegant -duration 10 URL...
//	montagectl [-url URL] [-token TOKEN] watch TASK_ID...
//
// The url and token default to MONTAGE_API_URL and MONTAGE_API_TOKEN, which
// may also come from a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/phrazzld/montage-api/internal/client"
)

const defaultAPIURL = "http://localhost:8080"

var errUsage = errors.New("usage: montagectl [-url URL] [-token TOKEN] <submit|watch> [args]")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "montagectl:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// cli carries what every subcommand needs.
type cli struct {
	api    *client.Client
	out    io.Writer
	logger *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("montagectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("url", envOr("MONTAGE_API_URL", defaultAPIURL), "base URL of the montage API")
	token := fs.String("token", os.Getenv("MONTAGE_API_TOKEN"), "bearer token")
	verbose := fs.Bool("v", false, "log poller activity to stderr")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	api, err := client.New(*apiURL, *token)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	c := &cli{
		api:    api,
		out:    stdout,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}

	switch cmd, rest := fs.Arg(0), fs.Args()[1:]; cmd {
	case "submit":
		return c.submit(ctx, rest, stderr)
	case "watch":
		return c.watch(ctx, rest, stderr)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

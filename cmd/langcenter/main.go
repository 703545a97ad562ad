// Command langcenter is a terminal client for the language center API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/app"
	"github.com/wisekey/langcenter/internal/config"
	"github.com/wisekey/langcenter/internal/logger"
)

// errUsage marks a malformed command line. Its message was already printed.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	global := flag.NewFlagSet("langcenter", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.BoolVar(&cfg.UseMock, "mock", cfg.UseMock, "use built-in sample data instead of the API")
	global.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "API base URL")
	global.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	global.Usage = func() { usage(stderr) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(stderr)
		return 2
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.New(stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer a.Close()

	c := &cli{app: a, out: stdout, errOut: stderr, in: os.Stdin}
	err = c.dispatch(ctx, global.Arg(0), global.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		report(stderr, err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: langcenter [-mock] [-api URL] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", cmd.name, cmd.summary)
	}
}

// report prints err for the user, with per-field messages in a stable order.
func report(w io.Writer, err error) {
	fmt.Fprintln(w, "error:", apierr.Message(err))

	var e *apierr.Error
	if !errors.As(err, &e) || len(e.Fields) == 0 {
		return
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, e.Fields[k])
	}
}

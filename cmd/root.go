// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"hellosrv/config"
	"hellosrv/internal/core"
	"hellosrv/internal/metrics"
	"hellosrv/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X hellosrv/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected mode: with no positional
// arguments it serves one greeting session, with <host> [port] it
// connects to one.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stderr)
}

func execute(ctx context.Context, args []string, usageOut io.Writer) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("hellosrv", flag.ContinueOnError)
	fs.SetOutput(usageOut)

	// ── server ───────────────────────────────────────────────────
	fs.IntVarP(&cfg.LocalPort, "port", "p", cfg.LocalPort, "Port to listen on")
	fs.StringVarP(&cfg.BindHost, "bind", "b", cfg.BindHost, "Host to bind (default all interfaces)")
	fs.StringVar(&cfg.Prompt, "prompt", cfg.Prompt, "First line sent to the peer")

	timeoutSec := int(cfg.Timeout / time.Second)
	fs.IntVarP(&timeoutSec, "timeout", "w", timeoutSec, "Idle timeout (server) / connect timeout (client) in seconds")

	// ── address discovery ────────────────────────────────────────
	fs.BoolVar(&cfg.NoIPLookup, "no-ip-lookup", cfg.NoIPLookup, "Skip the public address lookup")
	fs.StringVar(&cfg.IPService, "ip-service", cfg.IPService, "URL that answers with the caller's public IP")
	fs.DurationVar(&cfg.IPTimeout, "ip-timeout", cfg.IPTimeout, "Per-request timeout for the public address lookup")

	// ── client ───────────────────────────────────────────────────
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only host, no DNS resolution")

	// ── output ───────────────────────────────────────────────────
	envVerbose := cfg.Verbose // CountVarP zeroes its target
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(usageOut, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if showHelp {
		printUsage(usageOut, fs)
		return nil
	}
	if showVersion {
		fmt.Printf("hellosrv %s\n", version)
		return nil
	}

	cfg.Timeout = time.Duration(timeoutSec) * time.Second
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}

	if err := parsePositional(cfg, fs.Args(), fs.Changed("port")); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		return nil
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	mode, err := core.Build(cfg, logger, metrics.New())
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional handles "[host [port]]".  Without a positional port
// the client uses -p when it was given.
func parsePositional(cfg *config.Config, remaining []string, portFlag bool) error {
	switch len(remaining) {
	case 0:
		return nil
	case 1:
		cfg.Host = remaining[0]
		if portFlag {
			cfg.Port = cfg.LocalPort
		}
	case 2:
		cfg.Host = remaining[0]
		port, err := strconv.Atoi(remaining[1])
		if err != nil {
			return fmt.Errorf("invalid port %q", remaining[1])
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
	return nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `hellosrv – one-peer TCP greeting server v%s

Waits for a single peer, asks who it is, and greets every line it sends
until the peer hangs up.

Usage:
  hellosrv [options]                  Serve one greeting session
  hellosrv [options] <host> [port]    Connect to a greeting server

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  hellosrv                            Listen on %d
  hellosrv -p 5000 --no-ip-lookup     Listen on 5000, skip public IP lookup
  hellosrv 192.168.1.20               Greet a server on the LAN
  printf 'alice\nbob\n' | hellosrv localhost
`, config.DefaultPort)
}

// Command pefti builds a consolidated IPTV playlist and matching XMLTV
// EPG from one TOML configuration document.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pefti/pefti/internal/app"
	"github.com/pefti/pefti/internal/config"
	"github.com/pefti/pefti/internal/epg"
	"github.com/pefti/pefti/internal/metrics"
	"github.com/pefti/pefti/internal/pipeline"
)

const version = "pefti 1.0.0"
const usageText = "usage: pefti [-h|--help] [-v|--version] [--metrics-addr addr] [--] <config-file>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pefti", flag.ContinueOnError)
	// Malformed flags (e.g. an unrecognized -foo) still report to stderr,
	// the flag package's own convention; the stdout cases below are
	// printed explicitly per spec.md §6.
	fs.SetOutput(os.Stderr)

	help := fs.Bool("h", false, "show usage")
	helpLong := fs.Bool("help", false, "show usage")
	ver := fs.Bool("v", false, "show version")
	verLong := fs.Bool("version", false, "show version")
	metricsAddr := fs.String("metrics-addr", "", "optional address to serve Prometheus metrics on (e.g. :9090)")

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usageText)
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		fmt.Println(usageText)
		return 0
	}
	if *ver || *verLong {
		fmt.Println(version)
		return 0
	}
	if fs.NArg() != 1 {
		// Missing positional argument: usage goes to stdout, exit 1.
		fmt.Println(usageText)
		return 1
	}

	cfg, err := config.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	var mx *metrics.Metrics
	if *metricsAddr != "" {
		mx = metrics.New()
		go func() {
			if err := metrics.Serve(ctx, *metricsAddr); err != nil {
				fmt.Fprintf(os.Stderr, "pefti: metrics server: %v\n", err)
			}
		}()
	}

	if err := app.New(cfg, mx).Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		return 1
	}
	return 0
}

// describeError reports a one-line message naming the error kind (spec.md
// §7): ConfigError, TransportError, ParseError, IoError, or a plain error.
func describeError(err error) string {
	var cfgErr *config.ConfigError
	var transportErr *pipeline.TransportError
	var parseErr *epg.ParseError
	var ioErr *app.IoError

	switch {
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("pefti: configuration error: %v", cfgErr)
	case errors.As(err, &transportErr):
		return fmt.Sprintf("pefti: transport error: %v", transportErr)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("pefti: epg parse error: %v", parseErr)
	case errors.As(err, &ioErr):
		return fmt.Sprintf("pefti: io error: %v", ioErr)
	default:
		return fmt.Sprintf("pefti: %v", err)
	}
}

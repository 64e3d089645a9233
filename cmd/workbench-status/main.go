// Command workbench-status checks a rating workbench server once and prints
// its status.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	commoncfg "github.com/Covcloud-LLC/rating-workbench/core/config"
	"github.com/Covcloud-LLC/rating-workbench/core/logx"
	"github.com/Covcloud-LLC/rating-workbench/sdk/statusclient"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

const defaultURL = "http://localhost:8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run checks the server once. It returns 0 when the server answered with its
// message, 1 when it is unavailable and 2 on usage errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("workbench-status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseURL := fs.String("url", commoncfg.GetEnv("WORKBENCH_URL", defaultURL), "base URL of the workbench server")
	timeout := fs.Duration("timeout", statusclient.DefaultTimeout, "maximum time to wait for the server (0 waits indefinitely)")
	logLevel := fs.String("log-level", commoncfg.GetEnv("LOG_LEVEL", "warn"), "log verbosity (all, debug, info, warn, error, fatal, none)")
	verbose := fs.Bool("verbose", false, "print the pending status before the check resolves")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "workbench-status version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *showVersion {
		_, _ = fmt.Fprintf(stdout, "workbench-status version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return 0
	}
	logx.Configure(*logLevel)

	c, err := statusclient.New(*baseURL, statusclient.WithTimeout(*timeout))
	if err != nil {
		logx.Log.Error().Err(err).Str("url", *baseURL).Msg("invalid server url")
		return 2
	}
	defer c.Close()

	if *verbose {
		_, _ = fmt.Fprintln(stdout, c.Status())
	}
	start := time.Now()
	c.Start(ctx)
	st, err := c.Wait(ctx)
	if !c.Resolved() {
		logx.Log.Warn().Err(err).Msg("status check interrupted")
		return 1
	}
	logx.Log.Debug().Dur("elapsed", time.Since(start)).Str("status", st).Msg("status check finished")
	_, _ = fmt.Fprintln(stdout, st)
	if c.Err() != nil {
		return 1
	}
	return 0
}

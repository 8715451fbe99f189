// Command fhirxml decodes FHIR XML documents into FHIR JSON, reporting
// decode failures as OperationOutcome resources.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/config"
)

const version = "0.1.0"

// env carries state prepared by the root command for its subcommands.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	closeLog func()
	metrics  *fx.Metrics
	started  time.Time
	// handled is set once the error has been logged somewhere visible.
	handled bool
}

type envKey struct{}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &env{log: zap.NewNop(), metrics: fx.NewMetrics(), started: time.Now()})
}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{log: zap.NewNop(), metrics: fx.NewMetrics(), started: time.Now()}
}

// initializeAppContext loads the configuration and prepares logging after
// the command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e := envFromContext(ctx)

	configFile := cmd.String("config")
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	e.cfg = cfg

	log, closeLog, err := cfg.Logging.Prepare()
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	e.log, e.closeLog = log, closeLog

	e.log.Debug("Program started", zap.Strings("args", cmd.Args().Slice()), zap.String("ver", version), zap.String("runtime", runtime.Version()))
	if configFile == "" {
		e.log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, _ *cli.Command) error {
	e := envFromContext(ctx)
	e.log.Debug("Program ended", zap.Duration("elapsed", time.Since(e.started)))
	if e.closeLog != nil {
		e.closeLog()
		e.closeLog = nil
	}
	e.log = zap.NewNop()
	return nil
}

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	e := envFromContext(ctx)
	if !e.log.Core().Enabled(zap.ErrorLevel) {
		return
	}
	e.log.Error("Program ended with error", zap.Error(err))
	// Errors logged to a file still go to standard error on exit.
	e.handled = e.cfg != nil && e.cfg.Logging.Destination == ""
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:            "fhirxml",
		Usage:           "schema driven FHIR XML decoder",
		Version:         version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Reader:          in,
		Writer:          out,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
		},
		Commands: []*cli.Command{
			{
				Name:         "decode",
				Usage:        "Decodes FHIR XML document(s) and prints them as FHIR JSON",
				OnUsageError: usageErrorHandler,
				Action:       runDecode,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "lenient", Aliases: []string{"l"}, Usage: "skip unknown elements and stray text instead of failing"},
					&cli.BoolFlag{Name: "no-validate", Usage: "do not check primitive values and element invariants"},
					&cli.IntFlag{Name: "max-depth", Usage: "maximum element nesting `DEPTH`, 0 disables the limit"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "number of documents decoded in parallel"},
					&cli.StringFlag{Name: "select", Aliases: []string{"s"}, Usage: "print the result of FHIRPath `EXPRESSION` instead of the resource"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output `FORMAT` (json or text)"},
					&cli.BoolFlag{Name: "pretty", Aliases: []string{"p"}, Usage: "indent JSON output"},
				},
				ArgsUsage: "SOURCE...",
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
			},
		},
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) (bool, error) {
	ctx = contextWithEnv(ctx)
	err := newApp(in, out).Run(ctx, args)
	return envFromContext(ctx).handled, err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	handled, err := run(ctx, os.Args, os.Stdin, os.Stdout)
	stop()
	if err != nil {
		if !handled {
			fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		}
		os.Exit(1)
	}
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		e.log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data []byte
		err  error
		kind string
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		kind = "actual"
		data, err = config.Dump(e.cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get %s configuration: %w", kind, err)
	}

	fname := cmd.Args().Get(0)
	if fname == "" {
		_, err = cmd.Root().Writer.Write(data)
		return err
	}
	if err := os.WriteFile(fname, data, 0o644); err != nil {
		return fmt.Errorf("unable to write %s configuration to '%s': %w", kind, fname, err)
	}
	e.log.Info("Configuration written", zap.String("state", kind), zap.String("file", fname))
	return nil
}

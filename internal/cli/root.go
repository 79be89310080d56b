package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/e-wrobel/dirsync/internal/config"
	"github.com/e-wrobel/dirsync/internal/sync"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitRunErrors    = 1
	ExitUsage        = 2
	ExitPathNotFound = 3
	ExitCancelled    = 130
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type globalFlags struct {
	ConfigPath string
	Output     string
	LogFormat  string
	Verbose    bool
	Quiet      bool
}

// app carries what the commands share during one invocation.
type app struct {
	flags  globalFlags
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	fs     afero.Fs

	logger       *slog.Logger
	settingsPath string
	// stored is what the settings file holds; settings adds the
	// environment overrides and drives the run.
	stored   config.Settings
	settings config.Settings
	exitCode int
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, args ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

func newApp(in io.Reader, out, errOut io.Writer, fs afero.Fs) *app {
	return &app{in: in, out: out, errOut: errOut, fs: fs}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dirsync",
		Short: "Make one directory tree match another",
		Long: `dirsync copies new files, overwrites changed ones and deletes orphans so
that a destination directory matches a source directory.

Changes are planned first and can be reviewed before they are applied.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: ExitUsage, err: err}
	})

	root.PersistentFlags().StringVar(&a.flags.ConfigPath, "config", "", "Path to settings file (default: XDG config dir)")
	root.PersistentFlags().StringVar(&a.flags.Output, "output", outputTable, "Output format (table, json)")
	root.PersistentFlags().StringVar(&a.flags.LogFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().BoolVarP(&a.flags.Verbose, "verbose", "v", false, "Log every planned and applied change")
	root.PersistentFlags().BoolVarP(&a.flags.Quiet, "quiet", "q", false, "Log errors only")

	root.AddCommand(a.syncCmd(), a.planCmd(), a.configCmd())
	return root
}

func (a *app) setup() error {
	if a.flags.Output != outputTable && a.flags.Output != outputJSON {
		return usageErr("invalid output format: %s", a.flags.Output)
	}
	logger, err := newLogger(a.errOut, a.flags)
	if err != nil {
		return err
	}
	a.logger = logger

	a.settingsPath = a.flags.ConfigPath
	if a.settingsPath == "" {
		if a.settingsPath, err = config.DefaultPath(); err != nil {
			return fmt.Errorf("resolve settings path: %w", err)
		}
	}
	a.stored, err = config.Read(a.settingsPath)
	if err != nil {
		a.logger.Warn("settings partly ignored, using defaults", "path", a.settingsPath, "err", err)
	}
	a.settings = a.stored.WithEnv()
	return nil
}

func newLogger(w io.Writer, flags globalFlags) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch {
	case flags.Quiet:
		level = slog.LevelError
	case flags.Verbose:
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch flags.LogFormat {
	case "text", "":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, usageErr("invalid log format: %s", flags.LogFormat)
	}
	// Short run id, enough to tell interleaved runs apart in a shared log.
	return slog.New(h).With("run", uuid.NewString()[:8]), nil
}

func exitCodeFor(err error) int {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, sync.ErrPathNotFound):
		return ExitPathNotFound
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	default:
		return ExitRunErrors
	}
}

func run(ctx context.Context, a *app, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.errOut, "Error:", err)
		return exitCodeFor(err)
	}
	return a.exitCode
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, newApp(os.Stdin, os.Stdout, os.Stderr, afero.NewOsFs()), os.Args[1:])
}

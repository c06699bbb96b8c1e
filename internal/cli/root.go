package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tioga/internal/config"
	"github.com/roach88/tioga/internal/ctxlog"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	DotEnv     string

	// Resolved in PersistentPreRunE. Commands built on their own (tests)
	// fall back to the defaults.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tioga CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tioga",
		Short: "tioga - timed I/O automata model checker",
		Long: `tioga checks refinement, consistency, determinism and reachability of
timed input/output automata, and builds new components by composition,
conjunction, quotient and pruning.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.ConfigFile, opts.DotEnv)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			opts.Config = cfg
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log, opts.Verbose)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuring logger", err)
			}
			opts.Logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", config.DefaultFile, "HCL configuration file")
	cmd.PersistentFlags().StringVar(&opts.DotEnv, "env-file", config.DefaultDotEnv, "dotenv file with TIOGA_* overrides")

	// Add subcommands
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewComponentCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// config returns the resolved configuration, or the defaults when the
// command runs without the root.
func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}

// logger returns the process logger, or one that discards everything.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// newLogger builds the stderr logger. --verbose forces debug.
func newLogger(w io.Writer, cfg config.Log, verbose bool) (*slog.Logger, error) {
	level, err := ctxlog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	return ctxlog.New(w, level, cfg.Format)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

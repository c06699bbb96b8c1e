package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tioga/internal/config"
	"github.com/roach88/tioga/internal/engine"
)

// engineFlags are the engine overrides shared by check, component and serve.
type engineFlags struct {
	maxStates        int
	timeout          time.Duration
	noClockReduction bool
	maxFindings      int
}

func (f *engineFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.maxStates, "max-states", engine.DefaultMaxStates, "symbolic states explored before a check gives up")
	fs.DurationVar(&f.timeout, "timeout", 0, "time limit per query (0 = none)")
	fs.BoolVar(&f.noClockReduction, "no-clock-reduction", false, "keep clocks that are never read")
	fs.IntVar(&f.maxFindings, "max-findings", engine.DefaultMaxFindings, "diagnostics reported per check")
}

// resolve overlays the flags the user set on a copy of cfg.
func (f *engineFlags) resolve(cmd *cobra.Command, cfg *config.Config) (*config.Config, error) {
	out := *cfg
	fs := cmd.Flags()
	if fs.Changed("max-states") {
		out.Engine.MaxStates = f.maxStates
	}
	if fs.Changed("timeout") {
		out.Engine.Timeout = f.timeout
	}
	if fs.Changed("no-clock-reduction") {
		out.Engine.ClockReduction = !f.noClockReduction
	}
	if fs.Changed("max-findings") {
		out.Engine.MaxFindings = f.maxFindings
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// storePath returns --db when given, else the configured log path.
func storePath(cmd *cobra.Command, flag string, cfg *config.Config) string {
	if cmd.Flags().Changed("db") {
		return flag
	}
	return cfg.Store.Path
}

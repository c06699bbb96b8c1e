package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/ctxlog"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/loader"
	"github.com/roach88/tioga/internal/query"
)

// ComponentOptions holds flags for the component command.
type ComponentOptions struct {
	engine  engineFlags
	Prune   bool
	Name    string
	Package string
	Output  string
}

// NewComponentCommand creates the component command.
func NewComponentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComponentOptions{}

	cmd := &cobra.Command{
		Use:   "component <model-dir> <system>",
		Short: "Build a component from a system expression",
		Long: `Evaluate a system expression over the model and print the resulting
automaton. With --prune the inconsistent states are removed first.

Text output is a CUE file that validate and check read back; JSON output is
the automaton itself.`,
		Example: `  tioga component ./models/gates "Gate || User" --name Closed -o closed.cue`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComponent(cmd, rootOpts, opts, args[0], args[1])
		},
	}

	opts.engine.bind(cmd)
	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "remove inconsistent states")
	cmd.Flags().StringVar(&opts.Name, "name", "", "name of the new automaton (default: the expression)")
	cmd.Flags().StringVar(&opts.Package, "package", "components", "CUE package of the text output")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

func runComponent(cmd *cobra.Command, rootOpts *RootOptions, opts *ComponentOptions, modelDir, expr string) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}
	ctx := ctxlog.WithLogger(cmd.Context(), rootOpts.logger())

	cfg, err := opts.engine.resolve(cmd, rootOpts.config())
	if err != nil {
		return formatter.commandError("invalid engine options", err)
	}
	loaded, err := loader.LoadDir(modelDir)
	if err != nil {
		return formatter.commandError("loading model", err)
	}

	kind := query.KindGetComponent
	if opts.Prune {
		kind = query.KindPrune
	}
	text := fmt.Sprintf("%s: %s", kind, expr)
	if opts.Name != "" {
		text += " save-as " + opts.Name
	}
	q, err := query.ParseOne(text)
	if err != nil {
		return formatter.commandError("parsing expression", err)
	}

	res, err := engine.New(cfg.EngineOptions()...).Evaluate(ctx, loaded.Model, q)
	if err != nil {
		return formatter.commandError("building component", err)
	}
	if res.Outcome != check.OutcomeSuccess || res.Component == nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("%s: %s", text, res.Outcome), res.Diagnostics)
		for _, d := range res.Diagnostics {
			formatter.VerboseLog("  %s", d)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("no component: %s", res.Outcome))
	}
	formatter.VerboseLog("Built %s: %d locations, %d edges (%d states)",
		res.Component.Name, len(res.Component.Locations), len(res.Component.Edges), res.StatesExplored)

	var out []byte
	if formatter.Format == "json" {
		if opts.Output == "" {
			return formatter.encode(CLIResponse{Status: "ok", Data: res.Component, ModelHash: res.ModelHash})
		}
		out, err = marshalIndent(res.Component)
	} else {
		out, err = loader.Emit(opts.Package, res.Component)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "rendering component", err)
	}

	if opts.Output == "" {
		_, err = formatter.Writer.Write(out)
		return err
	}
	if err := os.WriteFile(opts.Output, out, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "writing component", err)
	}
	if formatter.Format != "json" {
		fmt.Fprintf(formatter.GetErrWriter(), "✓ Wrote %s to %s\n", res.Component.Name, opts.Output)
	}
	return nil
}

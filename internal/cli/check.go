package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tioga/internal/ctxlog"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/loader"
	"github.com/roach88/tioga/internal/model"
	"github.com/roach88/tioga/internal/query"
	"github.com/roach88/tioga/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	engine engineFlags
	Record bool
	DB     string
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Results   []engine.Result `json:"results"`
	Succeeded int             `json:"succeeded"`
	Total     int             `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <model-dir> <queries>",
		Short: "Evaluate queries against a model",
		Long: `Load the CUE model in model-dir and evaluate one or more queries,
separated by ';', in order. A get-component or prune query with save-as
makes its result visible to the queries after it.

Exit status is 0 when every query succeeds, 1 when one fails or is
inconclusive, and 2 when the model or a query cannot be evaluated.`,
		Example: `  tioga check ./models/gates "refinement: Gate <= Spec; consistency: Gate || User"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, opts, args[0], args[1])
		},
	}

	opts.engine.bind(cmd)
	cmd.Flags().BoolVar(&opts.Record, "record", false, "append the evaluations to the evaluation log")
	cmd.Flags().StringVar(&opts.DB, "db", "", "evaluation log path (default from config)")

	return cmd
}

func runCheck(cmd *cobra.Command, rootOpts *RootOptions, opts *CheckOptions, modelDir, text string) error {
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
	formatter.VerboseLog("Loaded %d automata from %d file(s), hash %s",
		loaded.Automata, len(loaded.Files), loaded.Model.Hash())

	qs, err := query.Parse(text)
	if err != nil {
		return formatter.commandError("parsing queries", err)
	}
	if len(qs) == 0 {
		_ = formatter.Error(query.ErrSyntax, "no query given", nil)
		return NewExitError(ExitCommandError, "no query given")
	}

	engOpts := cfg.EngineOptions()
	var st *store.Store
	if opts.Record {
		path := storePath(cmd, opts.DB, cfg)
		st, err = store.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening evaluation log", err)
		}
		defer st.Close()
		last, err := st.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "reading evaluation log", err)
		}
		engOpts = append(engOpts, engine.WithClock(engine.NewClockAt(last)))
		formatter.VerboseLog("Recording to %s after seq %d", path, last)
	}

	results, evalErr := engine.New(engOpts...).EvaluateAll(ctx, loaded.Model, qs)
	if st != nil && len(results) > 0 {
		if err := st.WriteEvaluations(ctx, loaded.Model, results); err != nil {
			return WrapExitError(ExitCommandError, "recording evaluations", err)
		}
	}
	return outputCheck(formatter, loaded.Model, results, evalErr)
}

func outputCheck(formatter *OutputFormatter, m *model.Model, results []engine.Result, evalErr error) error {
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	failed := len(results) - succeeded

	if formatter.Format == "json" {
		resp := CLIResponse{
			Status:    "ok",
			Data:      CheckResult{Results: results, Succeeded: succeeded, Total: len(results)},
			ModelHash: m.Hash(),
		}
		switch {
		case evalErr != nil:
			resp.Status = "error"
			resp.Error = &CLIError{Code: codeOf(evalErr), Message: evalErr.Error()}
		case failed > 0:
			resp.Status = "failed"
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			writeResult(formatter.Writer, r, formatter.Verbose)
		}
		if evalErr != nil {
			fmt.Fprintf(formatter.Writer, "Error [%s]: %s\n", codeOf(evalErr), evalErr.Error())
		}
		fmt.Fprintf(formatter.Writer, "\n%d/%d queries succeeded\n", succeeded, len(results))
	}

	switch {
	case evalErr != nil:
		return WrapExitError(ExitCommandError, "query rejected", evalErr)
	case failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries did not succeed", failed, len(results)))
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	Kind      string
	Outcome   string
	ModelHash string
	Limit     int
	Summary   bool
}

// HistoryResult is the JSON payload of the history listing.
type HistoryResult struct {
	Evaluations []engine.Result      `json:"evaluations"`
	Summary     []store.OutcomeCount `json:"summary,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [evaluation-id]",
		Short: "Show recorded evaluations",
		Long: `List the evaluations recorded by check --record and serve, newest
first. Given an evaluation id, show that evaluation with its witness and
diagnostics.

Examples:
  tioga history --db ./tioga.db
  tioga history --kind refinement --outcome failure --limit 5
  tioga history --summary
  tioga history 0190b3c4-7d2e-7f3a-9c1b-2f4e6a8d0c11 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowEvaluation(opts, args[0], cmd)
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "evaluation log path (default from config)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only this query kind")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only this outcome (success|failure|inconclusive)")
	cmd.Flags().StringVar(&opts.ModelHash, "model", "", "only evaluations against this model hash")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of evaluations (0 = all)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "also count evaluations by kind and outcome")

	return cmd
}

func openHistory(opts *HistoryOptions, cmd *cobra.Command) (*store.Store, error) {
	path := storePath(cmd, opts.Database, opts.config())
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open evaluation log", err)
	}
	return st, nil
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	if opts.Outcome != "" {
		var o check.Outcome
		if err := o.UnmarshalText([]byte(opts.Outcome)); err != nil {
			return WrapExitError(ExitCommandError, "invalid --outcome", err)
		}
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	st, err := openHistory(opts, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	evals, err := st.History(ctx, store.HistoryFilter{
		Kind:      opts.Kind,
		ModelHash: opts.ModelHash,
		Outcome:   opts.Outcome,
		Limit:     opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}
	result := HistoryResult{Evaluations: evals}
	if opts.Summary {
		if result.Summary, err = st.Summary(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to summarize history", err)
		}
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(result)
	}
	return outputHistoryText(cmd, result)
}

func outputHistoryText(cmd *cobra.Command, result HistoryResult) error {
	w := cmd.OutOrStdout()
	if len(result.Evaluations) == 0 {
		fmt.Fprintln(w, "No evaluations recorded.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tID\tKIND\tOUTCOME\tSTATES\tMS\tQUERY")
		for _, r := range result.Evaluations {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
				r.Seq, r.ID, r.Kind, r.Outcome, r.StatesExplored, r.DurationMS, r.Query)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(result.Summary) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tOUTCOME\tCOUNT")
		for _, c := range result.Summary {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Kind, c.Outcome, c.Count)
		}
		return tw.Flush()
	}
	return nil
}

func runShowEvaluation(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	st, err := openHistory(opts, cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	r, err := st.ReadEvaluation(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("no evaluation %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read evaluation", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(r)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (seq %d, model %s)\n", r.ID, r.Seq, r.ModelHash)
	writeResult(w, r, true)
	return nil
}

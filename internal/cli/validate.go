package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tioga/internal/loader"
	"github.com/roach88/tioga/internal/model"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	ModelHash string            `json:"model_hash,omitempty"`
	Files     int               `json:"files,omitempty"`
	Automata  int               `json:"automata,omitempty"`
	Locations int               `json:"locations,omitempty"`
	Edges     int               `json:"edges,omitempty"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one load or structural error.
type ValidationIssue struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Position  string `json:"position,omitempty"`
	Automaton string `json:"automaton,omitempty"`
	Field     string `json:"field,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model-dir>",
		Short: "Validate a model without checking anything",
		Long: `Load the CUE model in model-dir, decode every automaton and run the
structural checks. All errors are reported, each with its position when
the model files provide one.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, modelDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loaded, err := loader.LoadDir(modelDir)
	if err != nil {
		issues := issuesOf(err)
		if issues == nil {
			// Missing directory or no files: nothing was validated.
			return formatter.commandError("loading model", err)
		}
		return outputValidationErrors(formatter, issues)
	}

	formatter.VerboseLog("Loaded %s", joinFiles(loaded.Files))
	return outputValidateSuccess(formatter, loaded)
}

// issuesOf flattens load and structural errors. It returns nil for errors
// that stop the load before any file is decoded.
func issuesOf(err error) []ValidationIssue {
	var les loader.LoadErrors
	if errors.As(err, &les) {
		out := make([]ValidationIssue, len(les))
		for i, le := range les {
			out[i] = loadIssue(le)
		}
		return out
	}
	var ses model.StructuralErrors
	if errors.As(err, &ses) {
		out := make([]ValidationIssue, len(ses))
		for i, se := range ses {
			out[i] = structuralIssue(se)
		}
		return out
	}
	var se *model.StructuralError
	if errors.As(err, &se) {
		return []ValidationIssue{structuralIssue(se)}
	}
	var le *loader.LoadError
	if errors.As(err, &le) && le.Code != loader.ErrNotFound && le.Code != loader.ErrNoFiles {
		return []ValidationIssue{loadIssue(le)}
	}
	return nil
}

func loadIssue(le *loader.LoadError) ValidationIssue {
	issue := ValidationIssue{Code: le.Code, Message: le.Message}
	if le.Pos.IsValid() {
		issue.Position = le.Pos.String()
	}
	return issue
}

func structuralIssue(se *model.StructuralError) ValidationIssue {
	return ValidationIssue{Code: se.Code, Message: se.Message, Automaton: se.Automaton, Field: se.Field}
}

func joinFiles(files []string) string {
	if len(files) == 1 {
		return files[0]
	}
	return fmt.Sprintf("%d files", len(files))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, loaded *loader.Result) error {
	result := ValidationResult{
		Valid:     true,
		ModelHash: loaded.Model.Hash(),
		Files:     len(loaded.Files),
		Automata:  loaded.Automata,
		Locations: loaded.Locations,
		Edges:     loaded.Edges,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Model valid")
	fmt.Fprintf(formatter.Writer, "  %d automata, %d locations, %d edges\n", result.Automata, result.Locations, result.Edges)
	fmt.Fprintf(formatter.Writer, "  hash %s\n", result.ModelHash)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		switch {
		case issue.Position != "":
			fmt.Fprintln(formatter.Writer, issue.Position)
		case issue.Automaton != "":
			fmt.Fprintf(formatter.Writer, "%s.%s\n", issue.Automaton, issue.Field)
		case issue.Field != "":
			fmt.Fprintln(formatter.Writer, issue.Field)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}

package harness

import "github.com/roach88/tioga/internal/check"

// Step is the record of one scenario query.
type Step struct {
	Query string `json:"query"`

	// ID and Seq are empty for a rejected query.
	ID  string `json:"id,omitempty"`
	Seq int64  `json:"seq,omitempty"`

	Kind        string       `json:"kind,omitempty"`
	Outcome     string       `json:"outcome,omitempty"`
	Witness     []check.Step `json:"witness,omitempty"`
	Diagnostics []string     `json:"diagnostics,omitempty"`

	// Error is the code of a parse or query error ("E200", "E110", ...).
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Rejected reports whether the query could not be evaluated.
func (s Step) Rejected() bool { return s.Error != "" }

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	Steps []Step `json:"steps"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []Step{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step.
func (r *Result) AddStep(s Step) {
	r.Steps = append(r.Steps, s)
}

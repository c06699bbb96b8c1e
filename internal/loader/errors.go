package loader

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes (E300-E399).
const (
	ErrNotFound   = "E300" // model path missing or not a directory
	ErrNoFiles    = "E301" // directory holds no .cue files
	ErrCUE        = "E302" // CUE load, build or evaluation failed
	ErrField      = "E303" // field missing or of the wrong type
	ErrExpression = "E304" // guard or invariant is not a clock constraint
	ErrNoAutomata = "E305" // no automata declared
)

// Pos is a position in a model file.
type Pos struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// IsValid reports whether p names a line.
func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func posOf(p token.Pos) Pos {
	if !p.IsValid() {
		return Pos{}
	}
	return Pos{Filename: p.Filename(), Line: p.Line(), Column: p.Column()}
}

// LoadError reports a model file that cannot be decoded.
type LoadError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Pos     Pos    `json:"pos"`
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadErrors collects the errors of one load.
type LoadErrors []*LoadError

// Error implements the error interface.
func (es LoadErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.As.
func (es LoadErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// IsLoadError reports whether err carries a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// fromCUE converts a CUE error into a LoadError at its first position.
func fromCUE(err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCUE, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: ErrCUE, Message: first.Error()}
	if ps := cueerrors.Positions(first); len(ps) > 0 {
		le.Pos = posOf(ps[0])
	}
	return le
}

package system

import (
	"errors"
	"fmt"
)

// Composition error codes (E110-E119).
const (
	ErrUnknownAutomaton   = "E110" // operand names no automaton in the model
	ErrConjunctionActions = "E111" // conjunction operands disagree on inputs or outputs
	ErrCompositionOutputs = "E112" // composition operands share an output
	ErrQuotientActions    = "E113" // quotient divisor alphabet not covered by the dividend
	ErrNoPruner           = "E114" // prune requested without a pruning analysis
	ErrNoInitial          = "E115" // system has no initial location
)

// CompositionError reports an operator applied to incompatible operands.
type CompositionError struct {
	Code     string `json:"code"`
	Operator string `json:"operator"`
	Message  string `json:"message"`
}

// Error implements the error interface.
func (e *CompositionError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Operator, e.Message)
}

// IsCompositionError reports whether err carries a CompositionError.
func IsCompositionError(err error) bool {
	var ce *CompositionError
	return errors.As(err, &ce)
}

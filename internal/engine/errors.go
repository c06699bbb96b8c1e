package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/tioga/internal/query"
	"github.com/roach88/tioga/internal/system"
)

// Query error codes. Composition errors keep their own codes (E110-E115).
const (
	ErrUnknownComponent = "E120" // predicate names a component that is not in the system
	ErrUnknownLocation  = "E121" // predicate names a location the component does not have
	ErrUnknownClock     = "E122" // predicate names a clock the component does not have
	ErrSaveAs           = "E123" // save-as result does not fit into the model
	ErrUnsupportedQuery = "E124" // query type the engine does not know
)

// QueryError reports a query that cannot be evaluated against the model.
type QueryError struct {
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Pos     *query.Pos `json:"pos,omitempty"`
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Pos != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Pos, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsQueryError reports whether err carries a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

func queryErrorf(code string, pos *query.Pos, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// asQueryError turns a composition error into a QueryError and passes any
// other error through.
func asQueryError(err error) error {
	var ce *system.CompositionError
	if errors.As(err, &ce) {
		return &QueryError{Code: ce.Code, Message: fmt.Sprintf("%s: %s", ce.Operator, ce.Message)}
	}
	return err
}

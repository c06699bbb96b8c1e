package query

import (
	"errors"
	"fmt"
)

// ErrSyntax is the code of every parse error.
const ErrSyntax = "E200"

// ParseError reports malformed query text.
type ParseError struct {
	Pos     Pos    `json:"pos"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ErrSyntax, e.Pos, e.Message)
}

// IsParseError reports whether err carries a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

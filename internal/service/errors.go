package service

import (
	"errors"

	"github.com/roach88/tioga/internal/engine"
	"github.com/roach88/tioga/internal/query"
)

// Error codes of the service itself. Parse and query errors keep the codes
// of the query and engine packages.
const (
	ErrBadRequest = "E400" // body is not a valid query request
	ErrOverloaded = "E401" // no worker became free before the request ended
	ErrInternal   = "E500" // the server failed, not the request
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   APIError        `json:"error"`
	Results []engine.Result `json:"results,omitempty"`
}

// codeOf extracts the code of a parse or query error.
func codeOf(err error) string {
	var qe *engine.QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	if query.IsParseError(err) {
		return query.ErrSyntax
	}
	return ErrBadRequest
}

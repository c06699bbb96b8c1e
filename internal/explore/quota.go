package explore

import (
	"errors"
	"fmt"
)

// Quota counts stored states and enforces the state limit of one run.
// A limit of zero or less disables it.
type Quota struct {
	limit   int
	current int
}

// NewQuota returns a quota allowing limit states.
func NewQuota(limit int) *Quota {
	return &Quota{limit: limit}
}

// Check records one more state and fails once the limit is passed.
func (q *Quota) Check() error {
	q.current++
	if q.limit > 0 && q.current > q.limit {
		return &LimitExceededError{States: q.current, Limit: q.limit}
	}
	return nil
}

// Current returns the number of states recorded so far.
func (q *Quota) Current() int { return q.current }

// Limit returns the configured limit.
func (q *Quota) Limit() int { return q.limit }

// LimitExceededError is returned when an exploration stores more states
// than its quota allows. Checkers turn it into an inconclusive result.
type LimitExceededError struct {
	States int
	Limit  int
}

// Error implements the error interface.
func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("state limit exceeded: %d states > %d limit", e.States, e.Limit)
}

// IsLimitError reports whether err carries a LimitExceededError.
func IsLimitError(err error) bool {
	var le *LimitExceededError
	return errors.As(err, &le)
}

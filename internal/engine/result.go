package engine

import (
	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/model"
)

// Result is the record of one evaluation. It is what the CLI prints, the
// service returns and the store logs.
type Result struct {
	ID             string           `json:"id" yaml:"id"`
	Seq            int64            `json:"seq" yaml:"seq"`
	Query          string           `json:"query" yaml:"query"`
	Kind           string           `json:"kind" yaml:"kind"`
	Success        bool             `json:"success" yaml:"success"`
	Outcome        check.Outcome    `json:"outcome" yaml:"outcome"`
	Witness        []check.Step     `json:"witness,omitempty" yaml:"witness,omitempty"`
	Diagnostics    []string         `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	StatesExplored int              `json:"states_explored" yaml:"states_explored"`
	DurationMS     int64            `json:"duration_ms" yaml:"duration_ms"`
	ModelHash      string           `json:"model_hash" yaml:"model_hash"`
	Component      *model.Automaton `json:"component,omitempty" yaml:"component,omitempty"`
}

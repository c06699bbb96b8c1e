package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tioga/internal/check"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the directory holding the CUE model. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	Model string `yaml:"model"`

	// Options tune the engine for this scenario.
	Options *Options `yaml:"options,omitempty"`

	// Queries run in order.
	Queries []QueryStep `yaml:"queries"`
}

// Options mirror the engine options a scenario may pin down.
type Options struct {
	MaxStates      int   `yaml:"max_states,omitempty"`
	MaxFindings    int   `yaml:"max_findings,omitempty"`
	ClockReduction *bool `yaml:"clock_reduction,omitempty"`
}

// QueryStep is one query of a scenario.
type QueryStep struct {
	Query string `yaml:"query"`

	// Expect is optional. Without it the query only has to be accepted.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes what a query must produce. Outcome and Error are
// mutually exclusive.
type Expect struct {
	// Outcome is "success", "failure" or "inconclusive".
	Outcome string `yaml:"outcome,omitempty"`

	// Error is the code the query must be rejected with, e.g. "E110".
	Error string `yaml:"error,omitempty"`

	// WitnessLength is the exact number of witness steps.
	WitnessLength *int `yaml:"witness_length,omitempty"`

	// WitnessEnd lists the locations of the last witness step.
	WitnessEnd []string `yaml:"witness_end,omitempty"`

	// Diagnostics are substrings that must each appear in some diagnostic.
	Diagnostics []string `yaml:"diagnostics,omitempty"`
}

var errorCodePattern = regexp.MustCompile(`^E[0-9]{3}$`)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the model path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) && basePath != "" {
		scenario.Model = filepath.Join(basePath, scenario.Model)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Model == "" {
		return fmt.Errorf("model is required")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	info, err := os.Stat(s.Model)
	if err != nil {
		return fmt.Errorf("model directory not found: %s", s.Model)
	}
	if !info.IsDir() {
		return fmt.Errorf("model is not a directory: %s", s.Model)
	}

	if o := s.Options; o != nil {
		if o.MaxStates < 0 {
			return fmt.Errorf("options.max_states must be non-negative")
		}
		if o.MaxFindings < 0 {
			return fmt.Errorf("options.max_findings must be non-negative")
		}
	}

	for i, q := range s.Queries {
		if q.Query == "" {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		if q.Expect != nil {
			if err := validateExpect(i, q.Expect); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateExpect(index int, e *Expect) error {
	switch {
	case e.Outcome != "" && e.Error != "":
		return fmt.Errorf("queries[%d].expect: outcome and error are mutually exclusive", index)
	case e.Outcome == "" && e.Error == "":
		return fmt.Errorf("queries[%d].expect: outcome or error is required", index)
	}

	if e.Outcome != "" {
		var o check.Outcome
		if err := o.UnmarshalText([]byte(e.Outcome)); err != nil {
			return fmt.Errorf("queries[%d].expect: %w", index, err)
		}
	}

	if e.Error != "" {
		if !errorCodePattern.MatchString(e.Error) {
			return fmt.Errorf("queries[%d].expect: error must be a code like E110, got %q", index, e.Error)
		}
		if e.WitnessLength != nil || len(e.WitnessEnd) > 0 || len(e.Diagnostics) > 0 {
			return fmt.Errorf("queries[%d].expect: a rejected query has no witness or diagnostics", index)
		}
	}

	if e.WitnessLength != nil && *e.WitnessLength < 0 {
		return fmt.Errorf("queries[%d].expect: witness_length must be non-negative", index)
	}
	return nil
}

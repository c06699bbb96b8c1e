package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/tioga/internal/check"
	"github.com/roach88/tioga/internal/model"
)

// marshalJSON encodes v without HTML escaping, so "<=" in zones is stored
// as written.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func marshalWitness(w []check.Step) (string, error) {
	if w == nil {
		w = []check.Step{}
	}
	s, err := marshalJSON(w)
	if err != nil {
		return "", fmt.Errorf("marshal witness: %w", err)
	}
	return s, nil
}

func marshalDiagnostics(d []string) (string, error) {
	if d == nil {
		d = []string{}
	}
	s, err := marshalJSON(d)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return s, nil
}

// marshalComponent returns NULL for results without a component.
func marshalComponent(a *model.Automaton) (any, error) {
	if a == nil {
		return nil, nil
	}
	data, err := marshalJSON(a)
	if err != nil {
		return nil, fmt.Errorf("marshal component: %w", err)
	}
	return data, nil
}

// unmarshalWitness returns nil for an empty witness, matching what the
// engine produces.
func unmarshalWitness(data string) ([]check.Step, error) {
	var w []check.Step
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("unmarshal witness: %w", err)
	}
	if len(w) == 0 {
		return nil, nil
	}
	return w, nil
}

func unmarshalDiagnostics(data string) ([]string, error) {
	var d []string
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	if len(d) == 0 {
		return nil, nil
	}
	return d, nil
}

func unmarshalComponent(data *string) (*model.Automaton, error) {
	if data == nil {
		return nil, nil
	}
	var a model.Automaton
	if err := json.Unmarshal([]byte(*data), &a); err != nil {
		return nil, fmt.Errorf("unmarshal component: %w", err)
	}
	return &a, nil
}

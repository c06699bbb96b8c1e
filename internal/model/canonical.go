package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for fingerprinting.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Floats and null are rejected
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

func lessUTF16(a, b string) bool {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// NormalizeName returns the NFC form of an identifier. Loaders apply it to
// every automaton, location, clock and action name so that visually equal
// names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(s)
}

// canonicalAutomaton builds the canonical tree of an automaton. Location and
// edge order is kept: it is part of the definition (exploration order
// follows it).
func canonicalAutomaton(a *Automaton) map[string]any {
	constraints := func(cs []Constraint) []any {
		out := make([]any, len(cs))
		for i, c := range cs {
			out[i] = map[string]any{
				"left":   c.Left,
				"right":  c.Right,
				"bound":  c.Bound,
				"strict": c.Strict,
			}
		}
		return out
	}
	strs := func(ss []string) []any {
		out := make([]any, len(ss))
		for i, s := range ss {
			out[i] = s
		}
		return out
	}

	locs := make([]any, len(a.Locations))
	for i, l := range a.Locations {
		locs[i] = map[string]any{
			"id":        l.ID,
			"invariant": constraints(l.Invariant),
			"initial":   l.Initial,
			"urgent":    l.Urgent,
		}
	}
	edges := make([]any, len(a.Edges))
	for i, e := range a.Edges {
		resets := make([]any, len(e.Resets))
		for j, r := range e.Resets {
			resets[j] = map[string]any{"clock": r.Clock, "value": r.Value}
		}
		edges[i] = map[string]any{
			"source": e.Source,
			"target": e.Target,
			"guard":  constraints(e.Guard),
			"sync":   e.Sync,
			"resets": resets,
		}
	}
	return map[string]any{
		"name":      a.Name,
		"clocks":    strs(a.Clocks),
		"inputs":    strs(a.InputActions()),
		"outputs":   strs(a.OutputActions()),
		"locations": locs,
		"edges":     edges,
	}
}

package check

import (
	"context"
	"fmt"

	"github.com/roach88/tioga/internal/explore"
	"github.com/roach88/tioga/internal/system"
)

// Finding is one nondeterministic choice: two transitions on Action that
// are both enabled in Zone.
type Finding struct {
	Locations []string
	Action    string
	Zone      string
}

func (f Finding) String() string {
	return fmt.Sprintf("nondeterministic %s at %v in %s", f.Action, f.Locations, f.Zone)
}

// overlaps returns the findings of one state, for every labeled action and
// every pair of distinct transitions.
func overlaps(sys system.System, s explore.State) []Finding {
	var out []Finding
	for _, action := range system.Actions(sys) {
		ts := sys.Transitions(s.Loc, action)
		for i := 0; i < len(ts); i++ {
			gi := system.Allowed(sys, ts[i]).IntersectZone(s.Zone)
			if gi.IsEmpty() {
				continue
			}
			for j := i + 1; j < len(ts); j++ {
				both := gi.Intersect(system.Allowed(sys, ts[j]))
				if both.IsEmpty() {
					continue
				}
				out = append(out, Finding{
					Locations: s.Loc.Vector(),
					Action:    label(sys, action),
					Zone:      both.Format(sys.ClockNames()),
				})
			}
		}
	}
	return out
}

// Determinism reports every reachable state where two transitions with the
// same label are enabled at once, up to Options.MaxFindings. The witness is
// the path to the first finding.
func Determinism(ctx context.Context, sys system.System, opts Options) (Result, error) {
	if r, ok := noInitial(sys); ok {
		return r, nil
	}
	limit := opts.MaxFindings
	if limit < 1 {
		limit = 1
	}
	e := explore.New(sys, opts.explore(false))
	var findings []Finding
	first := -1
	_, err := e.RunInitial(ctx, func(id int) bool {
		found := overlaps(sys, e.Node(id).State)
		if len(found) > 0 && first < 0 {
			first = id
		}
		findings = append(findings, found...)
		return len(findings) >= limit
	})
	if err != nil {
		return interrupted(err, e.Len())
	}
	if first < 0 {
		return Result{Outcome: OutcomeSuccess, States: e.Len()}, nil
	}
	if len(findings) > limit {
		findings = findings[:limit]
	}
	diags := make([]string, len(findings))
	for i, f := range findings {
		diags[i] = f.String()
	}
	return Result{Outcome: OutcomeFailure, Witness: path(e, first), Diagnostics: diags, States: e.Len()}, nil
}

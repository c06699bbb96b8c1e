package check

import (
	"context"

	"github.com/roach88/tioga/internal/dbm"
	"github.com/roach88/tioga/internal/explore"
	"github.com/roach88/tioga/internal/system"
)

// Pruner returns the pruning analysis for system.Build. It solves the
// losing game of the system and hides every losing valuation.
func Pruner(opts Options) system.Pruner {
	return func(ctx context.Context, sys system.System) (system.System, error) {
		losing, err := LosingStates(ctx, sys, opts)
		if err != nil {
			return nil, err
		}
		return system.NewPruned(sys, losing), nil
	}
}

// LosingStates returns, per location of sys, the valuations from which the
// environment can force an inconsistency. Locations without any are left
// out. A system whose initial valuation violates its invariant loses its
// whole initial location.
func LosingStates(ctx context.Context, sys system.System, opts Options) ([]system.Losing, error) {
	l, ok := sys.Initial()
	if !ok {
		return nil, nil
	}
	if _, ok := explore.Initial(sys); !ok {
		return []system.Losing{{Loc: l, Bad: dbm.UniverseFederation(sys.Dim())}}, nil
	}
	g, err := solveLosing(ctx, sys, opts)
	if err != nil {
		return nil, err
	}
	var out []system.Losing
	for _, r := range g.regions {
		if !r.bad.IsEmpty() {
			out = append(out, system.Losing{Loc: r.loc, Bad: r.bad})
		}
	}
	return out, nil
}

package core

import (
	"context"
	"dnacore/internal/document"
	"dnacore/pkg/domain"
	"errors"
	"testing"
)

func restoreViolations(t *testing.T, snap domain.Snapshot) []domain.Violation {
	t.Helper()
	store := document.NewStore(NewDefaultRulesEngine())
	err := store.Restore(context.Background(), snap)
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	return violation.Result.Violations
}

func hasRule(vs []domain.Violation, rule string) bool {
	for _, v := range vs {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

func TestDefaultRulesEngineRegistersInvariants(t *testing.T) {
	rules := NewDefaultRulesEngine().Rules()
	want := []string{"cell_consistency", "strand_topology", "lattice_length"}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.Name() != want[i] {
			t.Fatalf("rule %d: expected %s, got %s", i, want[i], r.Name())
		}
	}
}

func TestCellConsistencyDetectsClearedCell(t *testing.T) {
	svc, h0, _ := baseDesign(t)
	snap := svc.Snapshot()
	g := snap.Grids[h0.GridID]
	g.SetHelix(h0.Point, domain.NoHelix)
	snap.Grids[h0.GridID] = g

	vs := restoreViolations(t, snap)
	if !hasRule(vs, "cell_consistency") {
		t.Fatalf("expected cell_consistency violation, got %+v", vs)
	}
}

func TestCellConsistencyDetectsMissingGrid(t *testing.T) {
	svc, h0, _ := baseDesign(t)
	snap := svc.Snapshot()
	delete(snap.Grids, h0.GridID)

	vs := restoreViolations(t, snap)
	found := false
	for _, v := range vs {
		if v.Rule == "cell_consistency" && v.Entity == domain.EntityHelix {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected helix anchor violation, got %+v", vs)
	}
}

func TestStrandTopologyDetectsStaleCrossovers(t *testing.T) {
	svc, _, _ := baseDesign(t)
	snap := svc.Snapshot()
	st := snap.Strands[1]
	st.Crossovers = nil
	snap.Strands[1] = st

	vs := restoreViolations(t, snap)
	if len(vs) != 1 || vs[0].Rule != "strand_topology" || vs[0].EntityID != 1 {
		t.Fatalf("expected one crossover violation on strand 1, got %+v", vs)
	}
}

func TestStrandTopologyDetectsUntaggedBase(t *testing.T) {
	svc, h0, _ := baseDesign(t)
	snap := svc.Snapshot()
	h := snap.Helices[h0.ID]
	h.Forward[3].Strand = domain.NoStrand
	snap.Helices[h0.ID] = h

	vs := restoreViolations(t, snap)
	if !hasRule(vs, "strand_topology") {
		t.Fatalf("expected strand_topology violation, got %+v", vs)
	}
}

func TestLatticeLengthWarnsOnlyOnLengthChange(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(nil)
	g, _, err := svc.CreateGrid(ctx, domain.PlaneXY, domain.Vec3{}, domain.GridSquare)
	if err != nil {
		t.Fatalf("create grid: %v", err)
	}
	h, res, err := svc.AddHelix(ctx, g.ID, domain.GridPoint{}, 40)
	if err != nil {
		t.Fatalf("add helix: %v", err)
	}
	if w := res.Warnings(); len(w) != 1 || w[0].Rule != "lattice_length" {
		t.Fatalf("expected lattice warning, got %+v", w)
	}
	if _, res, err = svc.MoveHelix(ctx, h.ID, domain.GridPoint{X: 1}); err != nil || len(res.Warnings()) != 0 {
		t.Fatalf("moving a helix must not re-warn: %+v %v", res.Warnings(), err)
	}
	if _, res, err = svc.ExtendHelix(ctx, h.ID, 64); err != nil || len(res.Warnings()) != 0 {
		t.Fatalf("whole periods must not warn: %+v %v", res.Warnings(), err)
	}
}

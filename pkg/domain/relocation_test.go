package domain

import (
	"errors"
	"testing"
)

type mapView struct {
	grids   map[GridID]Grid
	helices map[HelixID]Helix
	strands map[StrandID]Strand
}

func (v mapView) ListGrids() []Grid     { return nil }
func (v mapView) ListHelices() []Helix  { return nil }
func (v mapView) ListStrands() []Strand { return nil }

func (v mapView) FindGrid(id GridID) (Grid, bool) {
	g, ok := v.grids[id]
	return g, ok
}

func (v mapView) FindHelix(id HelixID) (Helix, bool) {
	h, ok := v.helices[id]
	return h, ok
}

func (v mapView) FindStrand(id StrandID) (Strand, bool) {
	st, ok := v.strands[id]
	return st, ok
}

// latticeView places 48-base helices on every cell of a square 5x5 grid,
// numbered column by column.
func latticeView() mapView {
	v := mapView{grids: map[GridID]Grid{}, helices: map[HelixID]Helix{}, strands: map[StrandID]Strand{}}
	g := NewGrid(0, PlaneXY, Vec3{}, GridSquare)
	id := HelixID(0)
	for x := -2; x <= 2; x++ {
		for y := -2; y <= 2; y++ {
			p := GridPoint{X: x, Y: y}
			v.helices[id] = NewHelix(id, g, p, 48)
			g.SetHelix(p, id)
			id++
		}
	}
	v.grids[0] = g
	return v
}

func helixAt(v mapView, p GridPoint) HelixID {
	cell, _ := v.grids[0].Cell(p)
	return cell.Helix
}

func TestPlanRelocationIsTranslationEquivariant(t *testing.T) {
	v := latticeView()
	a, b := helixAt(v, GridPoint{X: -1, Y: 0}), helixAt(v, GridPoint{X: 0, Y: 0})
	path := append(refs(a, Forward, 10, 17), refs(b, Reverse, 17, 10)...)
	xs, _ := DeriveCrossovers(path)
	src := Strand{ID: 0, Nucleotides: path, Crossovers: xs}
	anchor := path[0]

	for _, shift := range []GridPoint{{X: 1, Y: 0}, {X: 0, Y: 2}, {X: 1, Y: -2}, {X: 0, Y: 0}} {
		for _, di := range []int{-10, 0, 5, 30} {
			target := NucleotideRef{Helix: helixAt(v, GridPoint{X: -1, Y: 0}.Add(shift)), Direction: Forward, Index: anchor.Index + di}
			plan, err := PlanRelocation(v, []Strand{src}, anchor, target, NoStrand)
			if err != nil {
				t.Fatalf("shift %s index %d: %v", shift, di, err)
			}
			if plan.IndexOffset != di || len(plan.Segments) != 2 {
				t.Fatalf("shift %s index %d: unexpected plan %+v", shift, di, plan)
			}
			for _, seg := range plan.Segments {
				if seg.TargetPoint.Sub(seg.SourcePoint) != shift {
					t.Fatalf("segment moved by %s, want %s", seg.TargetPoint.Sub(seg.SourcePoint), shift)
				}
				for k := range seg.Source {
					if seg.Target[k].Index-seg.Source[k].Index != di || seg.Target[k].Direction != seg.Source[k].Direction {
						t.Fatalf("base %d not translated by %d", k, di)
					}
				}
			}
			dest := plan.Destinations[0]
			if len(dest) != len(path) {
				t.Fatalf("destination has %d bases, want %d", len(dest), len(path))
			}
			if _, err := DeriveCrossovers(dest); err != nil {
				t.Fatalf("destination path broken: %v", err)
			}
		}
	}
}

func TestPlanRelocationRejections(t *testing.T) {
	v := latticeView()
	h := helixAt(v, GridPoint{})
	path := refs(h, Forward, 0, 7)
	src := Strand{ID: 0, Nucleotides: path}

	var invalid *InvalidOperationError
	cases := map[string]NucleotideRef{
		"parity":      {Helix: h, Direction: Reverse, Index: 0},
		"past end":    {Helix: h, Direction: Forward, Index: 41},
		"missing":     {Helix: 99, Direction: Forward, Index: 0},
		"bad target":  {Helix: h, Direction: Forward, Index: 48},
		"before zero": {Helix: h, Direction: Forward, Index: -1},
	}
	for name, target := range cases {
		if _, err := PlanRelocation(v, []Strand{src}, path[0], target, NoStrand); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}

	wide := Strand{ID: 1, Nucleotides: append(refs(h, Forward, 0, 3), refs(helixAt(v, GridPoint{X: 1}), Reverse, 3, 0)...)}
	wide.Crossovers, _ = DeriveCrossovers(wide.Nucleotides)
	edge := NucleotideRef{Helix: helixAt(v, GridPoint{X: 2}), Direction: Forward, Index: 0}
	if _, err := PlanRelocation(v, []Strand{wide}, wide.Head(), edge, NoStrand); !errors.As(err, &invalid) {
		t.Fatalf("expected out of grid rejection, got %v", err)
	}

	occupied := v.helices[h].Clone()
	occupied.Forward[20].Strand = 5
	v.helices[h] = occupied
	target := NucleotideRef{Helix: h, Direction: Forward, Index: 15}
	if _, err := PlanRelocation(v, []Strand{src}, path[0], target, NoStrand); !errors.As(err, &invalid) {
		t.Fatalf("expected occupied base rejection, got %v", err)
	}
	if _, err := PlanRelocation(v, []Strand{src}, path[0], target, 5); err != nil {
		t.Fatalf("moving strand may overlap itself: %v", err)
	}

	twice := []Strand{src, {ID: 2, Nucleotides: refs(h, Forward, 4, 9)}}
	if _, err := PlanRelocation(v, twice, path[0], NucleotideRef{Helix: h, Direction: Forward, Index: 30}, NoStrand); !errors.As(err, &invalid) {
		t.Fatalf("expected double claim rejection, got %v", err)
	}
}

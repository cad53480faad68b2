package document

import (
	"context"
	"dnacore/pkg/domain"
	"errors"
	"testing"
)

func base(t *testing.T, store *Store, ref domain.NucleotideRef) domain.Nucleotide {
	t.Helper()
	h, ok := store.GetHelix(ref.Helix)
	if !ok {
		t.Fatalf("missing helix %d", ref.Helix)
	}
	n, ok := h.Nucleotide(ref)
	if !ok {
		t.Fatalf("missing base %s", ref)
	}
	return n
}

func TestCreateStrandTagsBases(t *testing.T) {
	store, h0, h1 := twoHelixDesign(t)
	refs := append(span(t, h0, domain.Forward, 0, 3), span(t, h1, domain.Reverse, 3, 0)...)
	var created domain.Strand
	mustRun(t, store, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStrand(refs, "acgtacgt", "")
		return err
	})
	if created.ID != 0 || created.Color != domain.PaletteColor(0) {
		t.Fatalf("unexpected strand %+v", created)
	}
	if len(created.Crossovers) != 1 {
		t.Fatalf("expected one crossover, got %d", len(created.Crossovers))
	}
	if xo := created.Crossovers[0]; xo.Prev != refs[3] || xo.Next != refs[4] {
		t.Fatalf("unexpected crossover %s", xo)
	}
	if segs := created.Segments(); len(segs) != 2 || len(segs[0]) != 4 || len(segs[1]) != 4 {
		t.Fatalf("unexpected segments %v", segs)
	}
	n := base(t, store, refs[4])
	if n.Strand != created.ID || n.Base != "A" {
		t.Fatalf("expected base tagged with strand 0 and letter A, got %+v", n)
	}
}

func TestCreateStrandRejectsInvalidPaths(t *testing.T) {
	store, h0, h1 := twoHelixDesign(t)
	mustRun(t, store, func(tx domain.Transaction) error {
		_, err := tx.CreateStrand(span(t, h0, domain.Forward, 0, 7), "", "")
		return err
	})
	cases := map[string][]domain.NucleotideRef{
		"empty":     nil,
		"assigned":  span(t, h0, domain.Forward, 6, 9),
		"repeated":  {{Helix: h1.ID, Index: 1}, {Helix: h1.ID, Index: 1}},
		"gap":       {{Helix: h1.ID, Index: 1}, {Helix: h1.ID, Index: 3}},
		"missing":   {{Helix: 42, Index: 0}},
		"too long":  {{Helix: h1.ID, Index: 32}},
		"wrong way": {{Helix: h1.ID, Direction: domain.Reverse, Index: 1}, {Helix: h1.ID, Direction: domain.Reverse, Index: 2}},
	}
	for name, refs := range cases {
		_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
			_, err := tx.CreateStrand(refs, "", "")
			return err
		})
		if err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStrand(span(t, h1, domain.Forward, 0, 3), "acg", "")
		return err
	})
	var invalid *domain.InvalidOperationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected sequence length rejection, got %v", err)
	}
	if store.Counters().Strands != 1 {
		t.Fatalf("rejected creates must not advance the counter")
	}
}

func TestDeleteAndRemoveStrandReleaseBases(t *testing.T) {
	store, h0, h1 := twoHelixDesign(t)
	mustRun(t, store, func(tx domain.Transaction) error {
		if _, err := tx.CreateStrand(span(t, h0, domain.Forward, 0, 3), "GGGG", ""); err != nil {
			return err
		}
		_, err := tx.CreateStrand(span(t, h1, domain.Forward, 0, 3), "CCCC", "")
		return err
	})
	var removed domain.Strand
	mustRun(t, store, func(tx domain.Transaction) error {
		if err := tx.DeleteStrand(0); err != nil {
			return err
		}
		var err error
		removed, err = tx.RemoveStrand(1)
		return err
	})
	if len(store.ListStrands()) != 0 {
		t.Fatalf("expected no strands")
	}
	deleted := base(t, store, domain.NucleotideRef{Helix: h0.ID, Index: 0})
	if deleted.Assigned() || deleted.Base != "" {
		t.Fatalf("delete must clear tag and letter, got %+v", deleted)
	}
	kept := base(t, store, domain.NucleotideRef{Helix: h1.ID, Index: 0})
	if kept.Assigned() || kept.Base != "C" {
		t.Fatalf("remove must clear tag and keep letter, got %+v", kept)
	}
	if removed.ID != 1 || removed.Sequence != "CCCC" {
		t.Fatalf("unexpected removed strand %+v", removed)
	}
}

func TestResetAndSetComponents(t *testing.T) {
	store, h0, h1 := twoHelixDesign(t)
	mustRun(t, store, func(tx domain.Transaction) error {
		_, err := tx.CreateStrand(span(t, h0, domain.Forward, 0, 3), "ACGT", "")
		return err
	})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.ResetComponents(0)
	})
	if err != nil {
		t.Fatalf("reset without rules engine: %v", err)
	}
	mustRun(t, store, func(tx domain.Transaction) error {
		_, err := tx.SetComponents(0, span(t, h1, domain.Reverse, 10, 7))
		return err
	})
	st, _ := store.GetStrand(0)
	if st.Head() != (domain.NucleotideRef{Helix: h1.ID, Direction: domain.Reverse, Index: 10}) {
		t.Fatalf("unexpected head %s", st.Head())
	}
	if n := base(t, store, st.Tail()); n.Base != "T" || n.Strand != 0 {
		t.Fatalf("unexpected tail base %+v", n)
	}
	if n := base(t, store, domain.NucleotideRef{Helix: h0.ID, Index: 0}); n.Assigned() {
		t.Fatalf("old bases must be released")
	}
}

func TestMoveStrandSlidesOverItself(t *testing.T) {
	store, h0, h1 := twoHelixDesign(t)
	mustRun(t, store, func(tx domain.Transaction) error {
		_, err := tx.CreateStrand(span(t, h0, domain.Forward, 0, 7), "", "")
		return err
	})
	mustRun(t, store, func(tx domain.Transaction) error {
		_, err := tx.MoveStrand(0, domain.NucleotideRef{Helix: h0.ID, Index: 4})
		return err
	})
	st, _ := store.GetStrand(0)
	if st.Head().Index != 4 || st.Tail().Index != 11 {
		t.Fatalf("unexpected span %s..%s", st.Head(), st.Tail())
	}
	if base(t, store, domain.NucleotideRef{Helix: h0.ID, Index: 0}).Assigned() {
		t.Fatalf("vacated base must be free")
	}

	mustRun(t, store, func(tx domain.Transaction) error {
		_, err := tx.MoveStrand(0, domain.NucleotideRef{Helix: h1.ID, Index: 20})
		return err
	})
	st, _ = store.GetStrand(0)
	if st.Head().Helix != h1.ID || st.Tail().Index != 27 {
		t.Fatalf("unexpected move result %s..%s", st.Head(), st.Tail())
	}

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.MoveStrand(0, domain.NucleotideRef{Helix: h1.ID, Index: 28})
		return err
	})
	if err == nil {
		t.Fatalf("expected move past helix end to fail")
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.MoveStrand(0, domain.NucleotideRef{Helix: h1.ID, Direction: domain.Reverse, Index: 20})
		return err
	})
	if err == nil {
		t.Fatalf("expected direction parity rejection")
	}
}

func TestCopyStrandsCreatesTranslatedCopies(t *testing.T) {
	store, h0, h1 := twoHelixDesign(t)
	refs := append(span(t, h0, domain.Forward, 4, 7), span(t, h1, domain.Reverse, 7, 4)...)
	mustRun(t, store, func(tx domain.Transaction) error {
		_, err := tx.CreateStrand(refs, "AAAACCCC", "#123456")
		return err
	})
	var copies []domain.Strand
	mustRun(t, store, func(tx domain.Transaction) error {
		var err error
		copies, err = tx.CopyStrands([]domain.StrandID{0}, refs[0], domain.NucleotideRef{Helix: h0.ID, Index: 20})
		return err
	})
	if len(copies) != 1 || copies[0].ID != 1 {
		t.Fatalf("unexpected copies %+v", copies)
	}
	cp := copies[0]
	if cp.Sequence != "AAAACCCC" || cp.Color != "#123456" {
		t.Fatalf("copy must keep sequence and colour: %+v", cp)
	}
	if cp.Head().Index != 20 || cp.Tail() != (domain.NucleotideRef{Helix: h1.ID, Direction: domain.Reverse, Index: 20}) {
		t.Fatalf("unexpected copy span %s..%s", cp.Head(), cp.Tail())
	}
	if len(cp.Crossovers) != 1 {
		t.Fatalf("copy must rebuild the crossover")
	}

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CopyStrands([]domain.StrandID{0}, refs[0], domain.NucleotideRef{Helix: h0.ID, Index: 22})
		return err
	})
	if err == nil {
		t.Fatalf("expected overlapping paste to fail")
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CopyStrands([]domain.StrandID{0}, refs[0], domain.NucleotideRef{Helix: h1.ID, Index: 20})
		return err
	})
	if err == nil {
		t.Fatalf("expected paste onto an empty cell to fail")
	}
}

func TestCreateCrossoverAndSplit(t *testing.T) {
	store, h0, h1 := twoHelixDesign(t)
	mustRun(t, store, func(tx domain.Transaction) error {
		if _, err := tx.CreateStrand(span(t, h0, domain.Forward, 0, 3), "ACGT", ""); err != nil {
			return err
		}
		_, err := tx.CreateStrand(span(t, h1, domain.Reverse, 3, 0), "", "")
		return err
	})
	var merged domain.Strand
	mustRun(t, store, func(tx domain.Transaction) error {
		if _, err := tx.CreateCrossover(0, 0); err == nil {
			t.Fatalf("expected self crossover rejection")
		}
		var err error
		merged, err = tx.CreateCrossover(0, 1)
		return err
	})
	if merged.ID != 0 || merged.Length() != 8 || len(merged.Crossovers) != 1 {
		t.Fatalf("unexpected merge %+v", merged)
	}
	if merged.Sequence != "ACGTNNNN" {
		t.Fatalf("expected padded sequence, got %q", merged.Sequence)
	}
	if _, ok := store.GetStrand(1); ok {
		t.Fatalf("next strand must be removed")
	}
	if n := base(t, store, domain.NucleotideRef{Helix: h1.ID, Direction: domain.Reverse, Index: 0}); n.Strand != 0 {
		t.Fatalf("merged bases must carry the surviving id")
	}

	var head, tail domain.Strand
	mustRun(t, store, func(tx domain.Transaction) error {
		var err error
		head, tail, err = tx.SplitCrossover(0, 0)
		return err
	})
	if head.ID != 0 || head.Length() != 4 || head.HasCrossovers() || head.Sequence != "ACGT" {
		t.Fatalf("unexpected head %+v", head)
	}
	if tail.ID != 2 || tail.Length() != 4 || tail.Sequence != "NNNN" {
		t.Fatalf("unexpected tail %+v", tail)
	}
	if n := base(t, store, tail.Head()); n.Strand != tail.ID {
		t.Fatalf("tail bases must carry the new id")
	}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, _, err := tx.SplitCrossover(0, 0)
		return err
	})
	if err == nil {
		t.Fatalf("expected split without crossover to fail")
	}
}

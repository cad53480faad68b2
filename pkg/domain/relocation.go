package domain

// SegmentPlacement maps one source segment to its destination.
type SegmentPlacement struct {
	Strand      StrandID
	Offset      GridPoint
	SourceHelix HelixID
	SourcePoint GridPoint
	TargetHelix HelixID
	TargetPoint GridPoint
	Source      []NucleotideRef
	Target      []NucleotideRef
}

// RelocationPlan is the validated outcome of translating a set of strands so
// that Anchor lands on Target.
type RelocationPlan struct {
	Anchor      NucleotideRef
	Target      NucleotideRef
	IndexOffset int
	Segments    []SegmentPlacement
	// Destinations holds the full destination path of each input strand, in
	// input order.
	Destinations [][]NucleotideRef
}

const opRelocate = "relocate"

// PlanRelocation computes where strands land when anchor is moved onto
// target, without mutating anything. Each segment keeps its grid offset from
// the anchor helix and its base index offset. Destination bases must exist,
// sit on occupied cells, and be free; bases owned by moving are treated as
// free so a strand can slide over itself. Pass NoStrand when copying.
func PlanRelocation(view RuleView, strands []Strand, anchor, target NucleotideRef, moving StrandID) (RelocationPlan, error) {
	plan := RelocationPlan{Anchor: anchor, Target: target, IndexOffset: target.Index - anchor.Index}
	if len(strands) == 0 {
		return plan, Invalid(opRelocate, "no strands to relocate")
	}
	if anchor.Direction != target.Direction {
		return plan, Invalid(opRelocate, "anchor %s and target %s have different directions", anchor, target)
	}
	anchorHelix, ok := view.FindHelix(anchor.Helix)
	if !ok {
		return plan, ErrNotFound{Entity: EntityHelix, ID: int(anchor.Helix)}
	}
	if _, ok := anchorHelix.Nucleotide(anchor); !ok {
		return plan, Invalid(opRelocate, "anchor %s does not exist", anchor)
	}
	targetHelix, ok := view.FindHelix(target.Helix)
	if !ok {
		return plan, ErrNotFound{Entity: EntityHelix, ID: int(target.Helix)}
	}
	if _, ok := targetHelix.Nucleotide(target); !ok {
		return plan, Invalid(opRelocate, "target %s does not exist", target)
	}
	grid, ok := view.FindGrid(targetHelix.GridID)
	if !ok {
		return plan, ErrNotFound{Entity: EntityGrid, ID: int(targetHelix.GridID)}
	}

	claimed := make(map[NucleotideRef]struct{})
	for _, strand := range strands {
		dest := make([]NucleotideRef, 0, strand.Length())
		for _, seg := range strand.Segments() {
			placement, err := planSegment(view, grid, anchorHelix, targetHelix, strand.ID, seg, plan.IndexOffset)
			if err != nil {
				return plan, err
			}
			for _, ref := range placement.Target {
				if _, dup := claimed[ref]; dup {
					return plan, Invalid(opRelocate, "base %s is claimed twice", ref)
				}
				claimed[ref] = struct{}{}
			}
			plan.Segments = append(plan.Segments, placement)
			dest = append(dest, placement.Target...)
		}
		plan.Destinations = append(plan.Destinations, dest)
	}

	for ref := range claimed {
		h, _ := view.FindHelix(ref.Helix)
		n, _ := h.Nucleotide(ref)
		if n.Assigned() && n.Strand != moving {
			return plan, Invalid(opRelocate, "base %s already belongs to strand %d", ref, n.Strand)
		}
	}
	return plan, nil
}

func planSegment(view RuleView, grid Grid, anchorHelix, targetHelix Helix, strand StrandID, seg []NucleotideRef, indexOffset int) (SegmentPlacement, error) {
	first, last := seg[0], seg[len(seg)-1]
	src, ok := view.FindHelix(first.Helix)
	if !ok {
		return SegmentPlacement{}, ErrNotFound{Entity: EntityHelix, ID: int(first.Helix)}
	}
	if src.GridID != anchorHelix.GridID {
		return SegmentPlacement{}, Invalid(opRelocate, "helix %d is not on the anchor's grid %d", src.ID, anchorHelix.GridID)
	}
	offset := src.Point.Sub(anchorHelix.Point)
	point := targetHelix.Point.Add(offset)

	i, j := grid.XToIndex(point.X), grid.YToIndex(point.Y)
	if i < 0 || i >= grid.Width() || j < 0 || j >= grid.Height() {
		return SegmentPlacement{}, Invalid(opRelocate, "target cell %s is outside grid %d", point, grid.ID)
	}
	cell := grid.Cells[i][j]
	if !cell.Occupied() {
		return SegmentPlacement{}, Invalid(opRelocate, "target cell %s has no helix", point)
	}
	dst, ok := view.FindHelix(cell.Helix)
	if !ok {
		return SegmentPlacement{}, ErrNotFound{Entity: EntityHelix, ID: int(cell.Helix)}
	}

	from, to := first.Index+indexOffset, last.Index+indexOffset
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 || hi >= dst.Length {
		return SegmentPlacement{}, Invalid(opRelocate, "range [%d,%d] outside helix %d of length %d", lo, hi, dst.ID, dst.Length)
	}
	target, err := dst.Sub(lo, hi, first.Direction)
	if err != nil {
		return SegmentPlacement{}, err
	}
	if from > to {
		for a, b := 0, len(target)-1; a < b; a, b = a+1, b-1 {
			target[a], target[b] = target[b], target[a]
		}
	}
	return SegmentPlacement{
		Strand:      strand,
		Offset:      offset,
		SourceHelix: src.ID,
		SourcePoint: src.Point,
		TargetHelix: dst.ID,
		TargetPoint: point,
		Source:      append([]NucleotideRef(nil), seg...),
		Target:      target,
	}, nil
}

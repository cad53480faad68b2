package domain

// NewHelix anchors a helix of the given length at point p of grid g and
// generates its base positions.
func NewHelix(id HelixID, g Grid, p GridPoint, length int) Helix {
	h := Helix{ID: id, GridID: g.ID, Point: p}
	h.Extend(length, g)
	return h
}

// Nucleotides returns the sequence for dir. The slice aliases the helix
// storage.
func (h *Helix) Nucleotides(dir Direction) []Nucleotide {
	if dir == Reverse {
		return h.Reverse
	}
	return h.Forward
}

// Nucleotide resolves ref against h.
func (h Helix) Nucleotide(ref NucleotideRef) (Nucleotide, bool) {
	if ref.Helix != h.ID || !ref.Direction.Valid() || ref.Index < 0 || ref.Index >= h.Length {
		return Nucleotide{}, false
	}
	return h.Nucleotides(ref.Direction)[ref.Index], true
}

// Extend grows both sequences to length, placing new bases relative to the
// current cell of g. Shorter lengths are ignored.
func (h *Helix) Extend(length int, g Grid) {
	if length <= h.Length {
		return
	}
	center := g.CellPosition(h.Point)
	for i := h.Length; i < length; i++ {
		h.Forward = append(h.Forward, Nucleotide{
			Index:     i,
			Helix:     h.ID,
			Direction: Forward,
			Strand:    NoStrand,
			Position:  NucleotidePosition(center, g.Plane, Forward, i),
		})
		h.Reverse = append(h.Reverse, Nucleotide{
			Index:     i,
			Helix:     h.ID,
			Direction: Reverse,
			Strand:    NoStrand,
			Position:  NucleotidePosition(center, g.Plane, Reverse, i),
		})
	}
	h.Length = length
}

// Sub returns refs for bases start..end inclusive on dir, in ascending index
// order. Callers wanting descending order reverse the result themselves;
// start > end is rejected rather than swapped.
func (h Helix) Sub(start, end int, dir Direction) ([]NucleotideRef, error) {
	if !dir.Valid() {
		return nil, Invalid("get helix sub", "unknown direction %d", int(dir))
	}
	if start > end {
		return nil, Invalid("get helix sub", "start %d is after end %d", start, end)
	}
	if start < 0 || end >= h.Length {
		return nil, Invalid("get helix sub", "range [%d,%d] outside helix %d of length %d", start, end, h.ID, h.Length)
	}
	out := make([]NucleotideRef, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, NucleotideRef{Helix: h.ID, Direction: dir, Index: i})
	}
	return out, nil
}

// IsEmpty reports whether no base on either sequence belongs to a strand.
func (h Helix) IsEmpty() bool {
	for _, n := range h.Forward {
		if n.Assigned() {
			return false
		}
	}
	for _, n := range h.Reverse {
		if n.Assigned() {
			return false
		}
	}
	return true
}

// MoveNucleotides translates every base position by delta.
func (h *Helix) MoveNucleotides(delta Vec3) {
	for i := range h.Forward {
		h.Forward[i].Position = h.Forward[i].Position.Add(delta)
	}
	for i := range h.Reverse {
		h.Reverse[i].Position = h.Reverse[i].Position.Add(delta)
	}
}

// Clone returns a deep copy of h.
func (h Helix) Clone() Helix {
	cp := h
	cp.Forward = append([]Nucleotide(nil), h.Forward...)
	cp.Reverse = append([]Nucleotide(nil), h.Reverse...)
	return cp
}

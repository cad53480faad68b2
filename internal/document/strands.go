package document

import (
	"dnacore/pkg/domain"
	"strings"
)

// checkRefs verifies that refs resolve, are not repeated, and are either free
// or already owned by owner.
func (tx *transaction) checkRefs(op string, refs []domain.NucleotideRef, owner domain.StrandID) error {
	if len(refs) == 0 {
		return domain.Invalid(op, "strand needs at least one base")
	}
	seen := make(map[domain.NucleotideRef]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			return domain.Invalid(op, "base %s listed twice", ref)
		}
		seen[ref] = struct{}{}
		h, ok := tx.state.helices[ref.Helix]
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityHelix, ID: int(ref.Helix)}
		}
		n, ok := h.Nucleotide(ref)
		if !ok {
			return domain.Invalid(op, "base %s does not exist", ref)
		}
		if n.Assigned() && n.Strand != owner {
			return domain.Invalid(op, "base %s already belongs to strand %d", ref, n.Strand)
		}
	}
	return nil
}

// crossoversFor derives the crossovers of a base path and requires every
// crossover to stay on one grid.
func (tx *transaction) crossoversFor(op string, refs []domain.NucleotideRef) ([]domain.Crossover, error) {
	xs, err := domain.DeriveCrossovers(refs)
	if err != nil {
		return nil, err
	}
	for _, xo := range xs {
		if tx.state.helices[xo.Prev.Helix].GridID != tx.state.helices[xo.Next.Helix].GridID {
			return nil, domain.Invalid(op, "crossover %s joins helices on different grids", xo)
		}
	}
	return xs, nil
}

// attach tags every base of st with its id and writes the sequence letters.
func (tx *transaction) attach(st domain.Strand) {
	for i, ref := range st.Nucleotides {
		base := st.BaseAt(i)
		tx.setNucleotide(ref, func(n *domain.Nucleotide) {
			n.Strand = st.ID
			n.Base = base
		})
	}
}

// detach releases the bases of st. Letters are kept unless clear is set.
func (tx *transaction) detach(st domain.Strand, clear bool) {
	for _, ref := range st.Nucleotides {
		tx.setNucleotide(ref, func(n *domain.Nucleotide) {
			n.Strand = domain.NoStrand
			if clear {
				n.Base = ""
			}
		})
	}
}

// CreateStrand builds a strand over refs with the next strand id.
func (tx *transaction) CreateStrand(refs []domain.NucleotideRef, sequence, color string) (domain.Strand, error) {
	const op = "create strand"
	if err := tx.checkRefs(op, refs, domain.NoStrand); err != nil {
		return domain.Strand{}, err
	}
	xs, err := tx.crossoversFor(op, refs)
	if err != nil {
		return domain.Strand{}, err
	}
	seq, err := domain.NormalizeSequence(sequence, len(refs))
	if err != nil {
		return domain.Strand{}, err
	}
	id := domain.StrandID(tx.state.counters.Strands)
	tx.state.counters.Strands++
	if color == "" {
		color = domain.PaletteColor(id)
	}
	st := domain.Strand{
		ID:          id,
		Nucleotides: append([]domain.NucleotideRef(nil), refs...),
		Crossovers:  xs,
		Sequence:    seq,
		Color:       color,
	}
	tx.attach(st)
	tx.putStrand(st)
	return st.Clone(), nil
}

// DeleteStrand removes a strand and clears its bases.
func (tx *transaction) DeleteStrand(id domain.StrandID) error {
	st, ok := tx.state.strands[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
	}
	tx.detach(st, true)
	tx.dropStrand(id)
	return nil
}

// RemoveStrand takes a strand out of the document, releasing its bases but
// keeping their letters, and returns it.
func (tx *transaction) RemoveStrand(id domain.StrandID) (domain.Strand, error) {
	st, ok := tx.state.strands[id]
	if !ok {
		return domain.Strand{}, domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
	}
	tx.detach(st, false)
	tx.dropStrand(id)
	return st.Clone(), nil
}

// ResetComponents detaches a strand from all its bases. The strand must be
// given new bases with SetComponents before the transaction commits.
func (tx *transaction) ResetComponents(id domain.StrandID) error {
	st, ok := tx.state.strands[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
	}
	tx.detach(st, true)
	st = st.Clone()
	st.Nucleotides = nil
	st.Crossovers = nil
	tx.putStrand(st)
	return nil
}

// SetComponents replaces the bases of a strand, recomputing its crossovers
// and rewriting its sequence onto the new bases.
func (tx *transaction) SetComponents(id domain.StrandID, refs []domain.NucleotideRef) (domain.Strand, error) {
	const op = "set components"
	st, ok := tx.state.strands[id]
	if !ok {
		return domain.Strand{}, domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
	}
	if err := tx.checkRefs(op, refs, id); err != nil {
		return domain.Strand{}, err
	}
	xs, err := tx.crossoversFor(op, refs)
	if err != nil {
		return domain.Strand{}, err
	}
	if st.Sequence != "" && len(st.Sequence) != len(refs) {
		return domain.Strand{}, domain.Invalid(op, "sequence has %d letters for %d bases", len(st.Sequence), len(refs))
	}
	tx.detach(st, true)
	st = st.Clone()
	st.Nucleotides = append([]domain.NucleotideRef(nil), refs...)
	st.Crossovers = xs
	tx.attach(st)
	tx.putStrand(st)
	return st.Clone(), nil
}

// MoveStrand slides a single-segment strand so that its head lands on target.
func (tx *transaction) MoveStrand(id domain.StrandID, target domain.NucleotideRef) (domain.Strand, error) {
	st, ok := tx.state.strands[id]
	if !ok {
		return domain.Strand{}, domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
	}
	if st.HasCrossovers() {
		return domain.Strand{}, domain.Invalid("move strand", "strand %d spans %d crossovers", id, len(st.Crossovers))
	}
	plan, err := domain.PlanRelocation(tx.Snapshot(), []domain.Strand{st}, st.Head(), target, id)
	if err != nil {
		return domain.Strand{}, err
	}
	if err := tx.ResetComponents(id); err != nil {
		return domain.Strand{}, err
	}
	return tx.SetComponents(id, plan.Destinations[0])
}

// CopyStrands pastes copies of the given strands so that anchor lands on
// target. Copies keep sequence and colour and receive fresh ids in input
// order.
func (tx *transaction) CopyStrands(ids []domain.StrandID, anchor, target domain.NucleotideRef) ([]domain.Strand, error) {
	strands := make([]domain.Strand, 0, len(ids))
	seen := make(map[domain.StrandID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, domain.Invalid("copy strands", "strand %d listed twice", id)
		}
		seen[id] = struct{}{}
		st, ok := tx.state.strands[id]
		if !ok {
			return nil, domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
		}
		strands = append(strands, st)
	}
	plan, err := domain.PlanRelocation(tx.Snapshot(), strands, anchor, target, domain.NoStrand)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Strand, 0, len(strands))
	for i, src := range strands {
		created, err := tx.CreateStrand(plan.Destinations[i], src.Sequence, src.Color)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

// CreateCrossover joins the tail of prev to the head of next. The merged
// strand keeps prev's id; next is removed.
func (tx *transaction) CreateCrossover(prev, next domain.StrandID) (domain.Strand, error) {
	const op = "create crossover"
	if prev == next {
		return domain.Strand{}, domain.Invalid(op, "strand %d cannot cross over to itself", prev)
	}
	p, ok := tx.state.strands[prev]
	if !ok {
		return domain.Strand{}, domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(prev)}
	}
	n, ok := tx.state.strands[next]
	if !ok {
		return domain.Strand{}, domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(next)}
	}
	tail, head := p.Tail(), n.Head()
	if tail.Helix == head.Helix && tail.Direction == head.Direction {
		return domain.Strand{}, domain.Invalid(op, "bases %s and %s lie on the same helix strand", tail, head)
	}
	merged := make([]domain.NucleotideRef, 0, p.Length()+n.Length())
	merged = append(append(merged, p.Nucleotides...), n.Nucleotides...)
	xs, err := tx.crossoversFor(op, merged)
	if err != nil {
		return domain.Strand{}, err
	}

	seq := ""
	if p.Sequence != "" || n.Sequence != "" {
		seq = padSequence(p) + padSequence(n)
	}
	tx.detach(n, true)
	tx.dropStrand(next)
	tx.detach(p, true)
	p = p.Clone()
	p.Nucleotides = merged
	p.Crossovers = xs
	p.Sequence = seq
	tx.attach(p)
	tx.putStrand(p)
	return p.Clone(), nil
}

func padSequence(st domain.Strand) string {
	if st.Sequence != "" {
		return st.Sequence
	}
	return strings.Repeat("N", st.Length())
}

// SplitCrossover removes crossover index of a strand. The part before the
// crossover keeps the strand id; the part after becomes a new strand.
func (tx *transaction) SplitCrossover(id domain.StrandID, index int) (domain.Strand, domain.Strand, error) {
	st, ok := tx.state.strands[id]
	if !ok {
		return domain.Strand{}, domain.Strand{}, domain.ErrNotFound{Entity: domain.EntityStrand, ID: int(id)}
	}
	if index < 0 || index >= len(st.Crossovers) {
		return domain.Strand{}, domain.Strand{}, domain.Invalid("split crossover", "strand %d has no crossover %d", id, index)
	}
	segments := st.Segments()
	cut := 0
	for _, seg := range segments[:index+1] {
		cut += len(seg)
	}

	newID := domain.StrandID(tx.state.counters.Strands)
	tx.state.counters.Strands++
	head := st.Clone()
	head.Nucleotides = head.Nucleotides[:cut:cut]
	head.Crossovers = head.Crossovers[:index:index]
	tail := domain.Strand{
		ID:          newID,
		Nucleotides: append([]domain.NucleotideRef(nil), st.Nucleotides[cut:]...),
		Crossovers:  append([]domain.Crossover(nil), st.Crossovers[index+1:]...),
		Color:       domain.PaletteColor(newID),
	}
	if st.Sequence != "" {
		head.Sequence = st.Sequence[:cut]
		tail.Sequence = st.Sequence[cut:]
	}
	tx.attach(head)
	tx.attach(tail)
	tx.putStrand(head)
	tx.putStrand(tail)
	return head.Clone(), tail.Clone(), nil
}

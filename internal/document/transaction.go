package document

import (
	"dnacore/pkg/domain"
	"reflect"
)

// transaction mutates a private copy of the arena maps. Entities are cloned on
// their first write so the committed state is never touched; the touched sets
// drive change recording at commit.
type transaction struct {
	state   state
	grids   map[domain.GridID]struct{}
	helices map[domain.HelixID]struct{}
	strands map[domain.StrandID]struct{}
}

func newTransaction(base state) *transaction {
	return &transaction{
		state:   base.shallow(),
		grids:   make(map[domain.GridID]struct{}),
		helices: make(map[domain.HelixID]struct{}),
		strands: make(map[domain.StrandID]struct{}),
	}
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newStateView(&tx.state)
}

// FindGrid exposes grid lookup within the transaction scope.
func (tx *transaction) FindGrid(id domain.GridID) (domain.Grid, bool) {
	g, ok := tx.state.grids[id]
	if !ok {
		return domain.Grid{}, false
	}
	return g.Clone(), true
}

// FindHelix exposes helix lookup within the transaction scope.
func (tx *transaction) FindHelix(id domain.HelixID) (domain.Helix, bool) {
	h, ok := tx.state.helices[id]
	if !ok {
		return domain.Helix{}, false
	}
	return h.Clone(), true
}

// FindStrand exposes strand lookup within the transaction scope.
func (tx *transaction) FindStrand(id domain.StrandID) (domain.Strand, bool) {
	st, ok := tx.state.strands[id]
	if !ok {
		return domain.Strand{}, false
	}
	return st.Clone(), true
}

func (tx *transaction) mutableGrid(id domain.GridID) domain.Grid {
	g := tx.state.grids[id]
	if _, done := tx.grids[id]; !done {
		g = g.Clone()
		tx.grids[id] = struct{}{}
		tx.state.grids[id] = g
	}
	return g
}

func (tx *transaction) mutableHelix(id domain.HelixID) domain.Helix {
	h := tx.state.helices[id]
	if _, done := tx.helices[id]; !done {
		h = h.Clone()
		tx.helices[id] = struct{}{}
		tx.state.helices[id] = h
	}
	return h
}

func (tx *transaction) putGrid(g domain.Grid) {
	tx.grids[g.ID] = struct{}{}
	tx.state.grids[g.ID] = g
}

func (tx *transaction) putHelix(h domain.Helix) {
	tx.helices[h.ID] = struct{}{}
	tx.state.helices[h.ID] = h
}

func (tx *transaction) putStrand(st domain.Strand) {
	tx.strands[st.ID] = struct{}{}
	tx.state.strands[st.ID] = st
}

func (tx *transaction) dropStrand(id domain.StrandID) {
	tx.strands[id] = struct{}{}
	delete(tx.state.strands, id)
}

// setNucleotide applies fn to the base addressed by ref, which must resolve.
func (tx *transaction) setNucleotide(ref domain.NucleotideRef, fn func(*domain.Nucleotide)) {
	h := tx.mutableHelix(ref.Helix)
	fn(&h.Nucleotides(ref.Direction)[ref.Index])
}

// diff compares every touched entity against base and returns the committed
// change list in grid, helix, strand, counters order.
func (tx *transaction) diff(base state) []Change {
	var changes []Change
	for id := range tx.grids {
		before, had := base.grids[id]
		after, has := tx.state.grids[id]
		changes = appendChange(changes, domain.EntityGrid, int(id), had, has, before, after, func() any { return before.Clone() }, func() any { return after.Clone() })
	}
	for id := range tx.helices {
		before, had := base.helices[id]
		after, has := tx.state.helices[id]
		changes = appendChange(changes, domain.EntityHelix, int(id), had, has, before, after, func() any { return before.Clone() }, func() any { return after.Clone() })
	}
	for id := range tx.strands {
		before, had := base.strands[id]
		after, has := tx.state.strands[id]
		changes = appendChange(changes, domain.EntityStrand, int(id), had, has, before, after, func() any { return before.Clone() }, func() any { return after.Clone() })
	}
	sortChanges(changes)
	if base.counters != tx.state.counters {
		changes = append(changes, Change{
			Entity: domain.EntityCounters,
			Action: domain.ActionUpdate,
			Before: base.counters,
			After:  tx.state.counters,
		})
	}
	return changes
}

func appendChange(changes []Change, entity domain.EntityType, id int, had, has bool, before, after any, cloneBefore, cloneAfter func() any) []Change {
	switch {
	case !had && has:
		return append(changes, Change{Entity: entity, ID: id, Action: domain.ActionCreate, After: cloneAfter()})
	case had && !has:
		return append(changes, Change{Entity: entity, ID: id, Action: domain.ActionDelete, Before: cloneBefore()})
	case had && has && !reflect.DeepEqual(before, after):
		return append(changes, Change{Entity: entity, ID: id, Action: domain.ActionUpdate, Before: cloneBefore(), After: cloneAfter()})
	default:
		return changes
	}
}

// CreateGrid adds an empty grid with the next grid id.
func (tx *transaction) CreateGrid(plane domain.Plane, origin domain.Vec3, typ domain.GridType) (domain.Grid, error) {
	if !plane.Valid() {
		return domain.Grid{}, domain.Invalid("create grid", "unknown plane %q", plane)
	}
	if !typ.Valid() {
		return domain.Grid{}, domain.Invalid("create grid", "unknown grid type %q", typ)
	}
	id := domain.GridID(tx.state.counters.Grids)
	tx.state.counters.Grids++
	g := domain.NewGrid(id, plane, origin, typ)
	tx.putGrid(g)
	return g.Clone(), nil
}

// DeleteGrid removes a grid that holds no helices.
func (tx *transaction) DeleteGrid(id domain.GridID) error {
	g, ok := tx.state.grids[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityGrid, ID: int(id)}
	}
	if !g.IsEmpty() {
		return domain.Invalid("delete grid", "grid %d still holds %d helices", id, len(g.OccupiedCells()))
	}
	tx.grids[id] = struct{}{}
	delete(tx.state.grids, id)
	return nil
}

// AddHelix anchors a new helix at an empty cell and grows the grid when the
// cell sits on its border.
func (tx *transaction) AddHelix(gridID domain.GridID, point domain.GridPoint, length int) (domain.Helix, error) {
	if length < 0 {
		return domain.Helix{}, domain.Invalid("add helix", "negative length %d", length)
	}
	g, ok := tx.state.grids[gridID]
	if !ok {
		return domain.Helix{}, domain.ErrNotFound{Entity: domain.EntityGrid, ID: int(gridID)}
	}
	cell, ok := g.Cell(point)
	if !ok {
		return domain.Helix{}, domain.Invalid("add helix", "cell %s is outside grid %d", point, gridID)
	}
	if cell.Occupied() {
		return domain.Helix{}, domain.Invalid("add helix", "cell %s already holds helix %d", point, cell.Helix)
	}
	id := domain.HelixID(tx.state.counters.Helices)
	tx.state.counters.Helices++

	g = tx.mutableGrid(gridID)
	h := domain.NewHelix(id, g, point, length)
	g.SetHelix(point, id)
	g.CheckExpansion(point)
	tx.putGrid(g)
	tx.putHelix(h)
	return h.Clone(), nil
}

// ExtendHelix grows both sequences of a helix to length.
func (tx *transaction) ExtendHelix(id domain.HelixID, length int) (domain.Helix, error) {
	h, ok := tx.state.helices[id]
	if !ok {
		return domain.Helix{}, domain.ErrNotFound{Entity: domain.EntityHelix, ID: int(id)}
	}
	if length < h.Length {
		return domain.Helix{}, domain.Invalid("extend helix", "length %d is shorter than current %d", length, h.Length)
	}
	g, ok := tx.state.grids[h.GridID]
	if !ok {
		return domain.Helix{}, domain.ErrNotFound{Entity: domain.EntityGrid, ID: int(h.GridID)}
	}
	h = tx.mutableHelix(id)
	h.Extend(length, g)
	tx.putHelix(h)
	return h.Clone(), nil
}

// DeleteHelix removes a helix that no strand uses and frees its cell.
func (tx *transaction) DeleteHelix(id domain.HelixID) error {
	h, ok := tx.state.helices[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityHelix, ID: int(id)}
	}
	if !h.IsEmpty() {
		return domain.Invalid("delete helix", "helix %d still carries strands", id)
	}
	if _, ok := tx.state.grids[h.GridID]; ok {
		g := tx.mutableGrid(h.GridID)
		g.SetHelix(h.Point, domain.NoHelix)
		tx.putGrid(g)
	}
	tx.helices[id] = struct{}{}
	delete(tx.state.helices, id)
	return nil
}

// MoveHelix re-anchors a helix at another empty cell of its grid. Strands
// follow since they address bases by helix id.
func (tx *transaction) MoveHelix(id domain.HelixID, target domain.GridPoint) (domain.Helix, error) {
	h, ok := tx.state.helices[id]
	if !ok {
		return domain.Helix{}, domain.ErrNotFound{Entity: domain.EntityHelix, ID: int(id)}
	}
	g, ok := tx.state.grids[h.GridID]
	if !ok {
		return domain.Helix{}, domain.ErrNotFound{Entity: domain.EntityGrid, ID: int(h.GridID)}
	}
	if target == h.Point {
		return h.Clone(), nil
	}
	cell, ok := g.Cell(target)
	if !ok {
		return domain.Helix{}, domain.Invalid("move helix", "cell %s is outside grid %d", target, g.ID)
	}
	if cell.Occupied() {
		return domain.Helix{}, domain.Invalid("move helix", "cell %s already holds helix %d", target, cell.Helix)
	}

	g = tx.mutableGrid(h.GridID)
	h = tx.mutableHelix(id)
	h.MoveNucleotides(g.CellPosition(target).Sub(g.CellPosition(h.Point)))
	g.SetHelix(h.Point, domain.NoHelix)
	g.SetHelix(target, id)
	h.Point = target
	g.CheckExpansion(target)
	tx.putGrid(g)
	tx.putHelix(h)
	return h.Clone(), nil
}

// GetHelixSub returns refs for bases start..end inclusive on dir.
func (tx *transaction) GetHelixSub(id domain.HelixID, start, end int, dir domain.Direction) ([]domain.NucleotideRef, error) {
	h, ok := tx.state.helices[id]
	if !ok {
		return nil, domain.ErrNotFound{Entity: domain.EntityHelix, ID: int(id)}
	}
	return h.Sub(start, end, dir)
}

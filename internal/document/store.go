// Package document provides the in-memory document aggregate: id-indexed
// arenas of grids, helices and strands with copy-on-write transactions whose
// committed change lists can be reverted and replayed.
package document

import (
	"context"
	"dnacore/pkg/domain"
	"fmt"
	"sort"
	"sync"
)

var _ domain.PersistentStore = (*Store)(nil)

type (
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type state struct {
	grids    map[domain.GridID]domain.Grid
	helices  map[domain.HelixID]domain.Helix
	strands  map[domain.StrandID]domain.Strand
	counters domain.Counters
}

func newState() state {
	return state{
		grids:   make(map[domain.GridID]domain.Grid),
		helices: make(map[domain.HelixID]domain.Helix),
		strands: make(map[domain.StrandID]domain.Strand),
	}
}

// shallow copies the arena maps. Entity values still share their slices with
// s and must be cloned before mutation.
func (s state) shallow() state {
	out := state{
		grids:    make(map[domain.GridID]domain.Grid, len(s.grids)),
		helices:  make(map[domain.HelixID]domain.Helix, len(s.helices)),
		strands:  make(map[domain.StrandID]domain.Strand, len(s.strands)),
		counters: s.counters,
	}
	for k, v := range s.grids {
		out.grids[k] = v
	}
	for k, v := range s.helices {
		out.helices[k] = v
	}
	for k, v := range s.strands {
		out.strands[k] = v
	}
	return out
}

func (s state) snapshot() domain.Snapshot {
	return domain.Snapshot{Grids: s.grids, Helices: s.helices, Strands: s.strands, Counters: s.counters}.Clone()
}

func stateFromSnapshot(snap domain.Snapshot) state {
	c := snap.Clone()
	return state{grids: c.Grids, helices: c.Helices, strands: c.Strands, counters: c.Counters}
}

// Store is the authoritative owner of one design document. All access is
// serialized through a single RWMutex.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *RulesEngine
}

// NewStore constructs an empty document store backed by the provided rules
// engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{state: newState(), engine: engine}
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// ExportState clones the current document.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.snapshot()
}

// ImportState replaces the document without rule evaluation.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

// Restore replaces the document after checking it against the rules engine.
// The current document is kept when a blocking violation is found.
func (s *Store) Restore(ctx context.Context, snapshot domain.Snapshot) error {
	next := stateFromSnapshot(snapshot)
	if err := checkCounters(next); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newStateView(&next), creationChanges(next))
		if err != nil {
			return err
		}
		if res.HasBlocking() {
			return domain.RuleViolationError{Result: res}
		}
	}
	s.state = next
	return nil
}

func checkCounters(st state) error {
	for id := range st.grids {
		if int(id) >= st.counters.Grids {
			return domain.Invalid("restore", "grid id %d not below counter %d", id, st.counters.Grids)
		}
	}
	for id := range st.helices {
		if int(id) >= st.counters.Helices {
			return domain.Invalid("restore", "helix id %d not below counter %d", id, st.counters.Helices)
		}
	}
	for id := range st.strands {
		if int(id) >= st.counters.Strands {
			return domain.Invalid("restore", "strand id %d not below counter %d", id, st.counters.Strands)
		}
	}
	return nil
}

// creationChanges describes a whole document as a list of creates so rules
// examine every entity.
func creationChanges(st state) []Change {
	changes := make([]Change, 0, len(st.grids)+len(st.helices)+len(st.strands))
	for id, g := range st.grids {
		changes = append(changes, Change{Entity: domain.EntityGrid, ID: int(id), Action: domain.ActionCreate, After: g})
	}
	for id, h := range st.helices {
		changes = append(changes, Change{Entity: domain.EntityHelix, ID: int(id), Action: domain.ActionCreate, After: h})
	}
	for id, strand := range st.strands {
		changes = append(changes, Change{Entity: domain.EntityStrand, ID: int(id), Action: domain.ActionCreate, After: strand})
	}
	sortChanges(changes)
	return changes
}

// RunInTransaction executes fn against a copy of the document and swaps it in
// when fn succeeds and no blocking rule fires. The returned Result carries
// the committed change list.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTransaction(s.state)
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	changes := tx.diff(s.state)
	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newStateView(&tx.state), changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}
	result.Changes = changes
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the document.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.state.shallow()
	return fn(newStateView(&snapshot))
}

// Revert applies the Before side of changes in reverse order, undoing a
// committed transaction. Rules are not evaluated: the result is a state that
// was already committed once.
func (s *Store) Revert(_ context.Context, changes []Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.shallow()
	for i := len(changes) - 1; i >= 0; i-- {
		if err := next.apply(changes[i], changes[i].Before); err != nil {
			return fmt.Errorf("revert: %w", err)
		}
	}
	s.state = next
	return nil
}

// Replay applies the After side of changes in order, redoing a committed
// transaction.
func (s *Store) Replay(_ context.Context, changes []Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.shallow()
	for _, change := range changes {
		if err := next.apply(change, change.After); err != nil {
			return fmt.Errorf("replay: %w", err)
		}
	}
	s.state = next
	return nil
}

// apply sets or removes the entity named by change. A nil value deletes it.
func (s *state) apply(change Change, value any) error {
	switch change.Entity {
	case domain.EntityGrid:
		id := domain.GridID(change.ID)
		if value == nil {
			delete(s.grids, id)
			return nil
		}
		g, ok := value.(domain.Grid)
		if !ok {
			return fmt.Errorf("grid change %d carries %T", change.ID, value)
		}
		s.grids[id] = g.Clone()
	case domain.EntityHelix:
		id := domain.HelixID(change.ID)
		if value == nil {
			delete(s.helices, id)
			return nil
		}
		h, ok := value.(domain.Helix)
		if !ok {
			return fmt.Errorf("helix change %d carries %T", change.ID, value)
		}
		s.helices[id] = h.Clone()
	case domain.EntityStrand:
		id := domain.StrandID(change.ID)
		if value == nil {
			delete(s.strands, id)
			return nil
		}
		st, ok := value.(domain.Strand)
		if !ok {
			return fmt.Errorf("strand change %d carries %T", change.ID, value)
		}
		s.strands[id] = st.Clone()
	case domain.EntityCounters:
		c, ok := value.(domain.Counters)
		if !ok {
			return fmt.Errorf("counters change carries %T", value)
		}
		s.counters = c
	default:
		return fmt.Errorf("unknown entity %q", change.Entity)
	}
	return nil
}

var entityRank = map[domain.EntityType]int{
	domain.EntityGrid:     0,
	domain.EntityHelix:    1,
	domain.EntityStrand:   2,
	domain.EntityCounters: 3,
}

func sortChanges(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		ri, rj := entityRank[changes[i].Entity], entityRank[changes[j].Entity]
		if ri != rj {
			return ri < rj
		}
		return changes[i].ID < changes[j].ID
	})
}

// Counters returns the next-id counters.
func (s *Store) Counters() domain.Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.counters
}

// GetGrid retrieves a grid by id from committed state.
func (s *Store) GetGrid(id domain.GridID) (domain.Grid, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.state.grids[id]
	if !ok {
		return domain.Grid{}, false
	}
	return g.Clone(), true
}

// GetHelix retrieves a helix by id from committed state.
func (s *Store) GetHelix(id domain.HelixID) (domain.Helix, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.state.helices[id]
	if !ok {
		return domain.Helix{}, false
	}
	return h.Clone(), true
}

// GetStrand retrieves a strand by id from committed state.
func (s *Store) GetStrand(id domain.StrandID) (domain.Strand, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.strands[id]
	if !ok {
		return domain.Strand{}, false
	}
	return st.Clone(), true
}

// ListGrids returns all grids ordered by id.
func (s *Store) ListGrids() []domain.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedGrids(s.state.grids)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// ListHelices returns all helices ordered by id.
func (s *Store) ListHelices() []domain.Helix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedHelices(s.state.helices)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

// ListStrands returns all strands ordered by id.
func (s *Store) ListStrands() []domain.Strand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedStrands(s.state.strands)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}

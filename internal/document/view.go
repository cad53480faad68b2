package document

import (
	"dnacore/pkg/domain"
	"sort"
)

// stateView exposes a read-only document state to rules and planners.
// Returned values share storage with the state.
type stateView struct {
	state *state
}

func newStateView(st *state) TransactionView {
	return stateView{state: st}
}

func (v stateView) ListGrids() []domain.Grid     { return sortedGrids(v.state.grids) }
func (v stateView) ListHelices() []domain.Helix  { return sortedHelices(v.state.helices) }
func (v stateView) ListStrands() []domain.Strand { return sortedStrands(v.state.strands) }
func (v stateView) Counters() domain.Counters    { return v.state.counters }

func (v stateView) FindGrid(id domain.GridID) (domain.Grid, bool) {
	g, ok := v.state.grids[id]
	return g, ok
}

func (v stateView) FindHelix(id domain.HelixID) (domain.Helix, bool) {
	h, ok := v.state.helices[id]
	return h, ok
}

func (v stateView) FindStrand(id domain.StrandID) (domain.Strand, bool) {
	st, ok := v.state.strands[id]
	return st, ok
}

func sortedGrids(m map[domain.GridID]domain.Grid) []domain.Grid {
	out := make([]domain.Grid, 0, len(m))
	for _, g := range m {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedHelices(m map[domain.HelixID]domain.Helix) []domain.Helix {
	out := make([]domain.Helix, 0, len(m))
	for _, h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedStrands(m map[domain.StrandID]domain.Strand) []domain.Strand {
	out := make([]domain.Strand, 0, len(m))
	for _, st := range m {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

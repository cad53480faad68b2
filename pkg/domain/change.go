package domain

import "sort"

// EntityType identifies the arena a Change applies to.
type EntityType string

// Entity types recorded in Change values and persistence buckets.
const (
	EntityGrid     EntityType = "grid"
	EntityHelix    EntityType = "helix"
	EntityStrand   EntityType = "strand"
	EntityCounters EntityType = "counters"
)

// Action indicates the type of modification performed.
type Action string

// Change actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes one committed entity mutation. Before is nil for creates
// and After is nil for deletes; otherwise both hold full entity values
// (Grid, Helix, Strand or Counters), so applying Before undoes the change and
// applying After redoes it.
type Change struct {
	Entity EntityType
	ID     int
	Action Action
	Before any
	After  any
}

// Snapshot is a deep copy of a document: all three arenas plus counters.
type Snapshot struct {
	Grids    map[GridID]Grid     `json:"grids"`
	Helices  map[HelixID]Helix   `json:"helices"`
	Strands  map[StrandID]Strand `json:"strands"`
	Counters Counters            `json:"counters"`
}

// Clone returns a deep copy of s with non-nil maps.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Grids:    make(map[GridID]Grid, len(s.Grids)),
		Helices:  make(map[HelixID]Helix, len(s.Helices)),
		Strands:  make(map[StrandID]Strand, len(s.Strands)),
		Counters: s.Counters,
	}
	for k, v := range s.Grids {
		out.Grids[k] = v.Clone()
	}
	for k, v := range s.Helices {
		out.Helices[k] = v.Clone()
	}
	for k, v := range s.Strands {
		out.Strands[k] = v.Clone()
	}
	return out
}

// SortedGrids returns the grids ordered by id.
func (s Snapshot) SortedGrids() []Grid {
	out := make([]Grid, 0, len(s.Grids))
	for _, g := range s.Grids {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedHelices returns the helices ordered by id.
func (s Snapshot) SortedHelices() []Helix {
	out := make([]Helix, 0, len(s.Helices))
	for _, h := range s.Helices {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SortedStrands returns the strands ordered by id.
func (s Snapshot) SortedStrands() []Strand {
	out := make([]Strand, 0, len(s.Strands))
	for _, st := range s.Strands {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Package domain defines the document entities, value types, and rule
// evaluation primitives used by dnacore.
package domain

import "fmt"

// GridID identifies a grid within a document.
type GridID int

// HelixID identifies a helix within a document.
type HelixID int

// StrandID identifies a strand within a document.
type StrandID int

// Sentinel handles used by cells and nucleotides that reference nothing.
const (
	// NoHelix marks an unoccupied grid cell.
	NoHelix HelixID = -1
	// NoStrand marks a nucleotide that does not belong to any strand.
	NoStrand StrandID = -1
)

// GridType selects the lattice topology of a grid.
type GridType string

// Supported lattice topologies.
const (
	GridSquare    GridType = "square"
	GridHoneycomb GridType = "honeycomb"
)

// Valid reports whether t is a supported topology.
func (t GridType) Valid() bool {
	return t == GridSquare || t == GridHoneycomb
}

// Plane names the world-space plane a grid lies in. Helices grow along the
// plane normal.
type Plane string

// Supported grid planes.
const (
	PlaneXY Plane = "XY"
	PlaneXZ Plane = "XZ"
	PlaneYZ Plane = "YZ"
)

// Valid reports whether p is a supported plane.
func (p Plane) Valid() bool {
	return p == PlaneXY || p == PlaneXZ || p == PlaneYZ
}

// Direction discriminates the two antiparallel sequences of a helix.
type Direction int

// Helix strand directions. Forward strands run with increasing base index,
// reverse strands with decreasing base index.
const (
	Forward Direction = 0
	Reverse Direction = 1
)

// Valid reports whether d is Forward or Reverse.
func (d Direction) Valid() bool {
	return d == Forward || d == Reverse
}

// Step returns the index increment from one base to the next along d.
func (d Direction) Step() int {
	if d == Reverse {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// GridPoint is a signed lattice coordinate in design space.
type GridPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by o.
func (p GridPoint) Add(o GridPoint) GridPoint {
	return GridPoint{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns the offset from o to p.
func (p GridPoint) Sub(o GridPoint) GridPoint {
	return GridPoint{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p GridPoint) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// GridCell is one lattice site. It references, but does not own, a helix.
type GridCell struct {
	Point GridPoint `json:"point"`
	Helix HelixID   `json:"helix"`
}

// Occupied reports whether a helix is anchored at the cell.
func (c GridCell) Occupied() bool {
	return c.Helix != NoHelix
}

// Grid is an expandable lattice of cells. Cells are stored column-major:
// Cells[XToIndex(x)][YToIndex(y)].
type Grid struct {
	ID     GridID       `json:"id"`
	Type   GridType     `json:"type"`
	Plane  Plane        `json:"plane"`
	Origin Vec3         `json:"origin"`
	Min    GridPoint    `json:"min"`
	Max    GridPoint    `json:"max"`
	Cells  [][]GridCell `json:"cells"`
}

// NucleotideRef is a handle to one base position of a helix.
type NucleotideRef struct {
	Helix     HelixID   `json:"helix"`
	Direction Direction `json:"direction"`
	Index     int       `json:"index"`
}

func (r NucleotideRef) String() string {
	return fmt.Sprintf("h%d/%s/%d", r.Helix, r.Direction, r.Index)
}

// Nucleotide is one base position on a helix.
type Nucleotide struct {
	Index     int       `json:"index"`
	Helix     HelixID   `json:"helix"`
	Direction Direction `json:"direction"`
	Strand    StrandID  `json:"strand"`
	Base      string    `json:"base,omitempty"`
	Position  Vec3      `json:"position"`
}

// Ref returns the handle addressing n.
func (n Nucleotide) Ref() NucleotideRef {
	return NucleotideRef{Helix: n.Helix, Direction: n.Direction, Index: n.Index}
}

// Assigned reports whether n belongs to a strand.
func (n Nucleotide) Assigned() bool {
	return n.Strand != NoStrand
}

// Helix is a double-stranded segment anchored at one grid cell. Forward and
// Reverse always hold Length nucleotides each.
type Helix struct {
	ID      HelixID      `json:"id"`
	GridID  GridID       `json:"grid_id"`
	Point   GridPoint    `json:"point"`
	Length  int          `json:"length"`
	Forward []Nucleotide `json:"forward"`
	Reverse []Nucleotide `json:"reverse"`
}

// Crossover joins the last base of one strand segment to the first base of
// the next.
type Crossover struct {
	Prev NucleotideRef `json:"prev"`
	Next NucleotideRef `json:"next"`
}

// Strand is an ordered path of bases from head to tail, possibly spanning
// several helices through crossovers.
type Strand struct {
	ID          StrandID        `json:"id"`
	Nucleotides []NucleotideRef `json:"nucleotides"`
	Crossovers  []Crossover     `json:"crossovers"`
	Sequence    string          `json:"sequence,omitempty"`
	Color       string          `json:"color"`
}

// Counters hold the next identifier for each arena. They never decrease
// when entities are deleted.
type Counters struct {
	Grids   int `json:"grids"`
	Helices int `json:"helices"`
	Strands int `json:"strands"`
}

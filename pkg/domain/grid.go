package domain

import "sort"

// DefaultGridExtent is the number of cells per axis of a freshly created grid.
const DefaultGridExtent = 5

// NewGrid builds a DefaultGridExtent square lattice centred on the origin so
// that index (0,0) maps to the most negative point.
func NewGrid(id GridID, plane Plane, origin Vec3, typ GridType) Grid {
	half := DefaultGridExtent / 2
	g := Grid{
		ID:     id,
		Type:   typ,
		Plane:  plane,
		Origin: origin,
		Min:    GridPoint{X: -half, Y: -half},
		Max:    GridPoint{X: DefaultGridExtent - 1 - half, Y: DefaultGridExtent - 1 - half},
	}
	g.Cells = make([][]GridCell, g.Width())
	for i := range g.Cells {
		g.Cells[i] = make([]GridCell, g.Height())
		for j := range g.Cells[i] {
			g.Cells[i][j] = GridCell{Point: g.IndexToPoint(i, j), Helix: NoHelix}
		}
	}
	return g
}

// Width returns the number of columns.
func (g Grid) Width() int { return g.Max.X - g.Min.X + 1 }

// Height returns the number of rows.
func (g Grid) Height() int { return g.Max.Y - g.Min.Y + 1 }

// XToIndex maps a design-space x coordinate to a column index.
func (g Grid) XToIndex(x int) int { return x - g.Min.X }

// YToIndex maps a design-space y coordinate to a row index.
func (g Grid) YToIndex(y int) int { return y - g.Min.Y }

// IndexToPoint maps array indices back to a design-space point.
func (g Grid) IndexToPoint(i, j int) GridPoint {
	return GridPoint{X: g.Min.X + i, Y: g.Min.Y + j}
}

// Contains reports whether p lies within the current bounds.
func (g Grid) Contains(p GridPoint) bool {
	return p.X >= g.Min.X && p.X <= g.Max.X && p.Y >= g.Min.Y && p.Y <= g.Max.Y
}

// Cell returns the cell at p.
func (g Grid) Cell(p GridPoint) (GridCell, bool) {
	if !g.Contains(p) {
		return GridCell{}, false
	}
	return g.Cells[g.XToIndex(p.X)][g.YToIndex(p.Y)], true
}

// SetHelix points the cell at p to h (NoHelix clears it). It reports false
// when p is outside the grid.
func (g *Grid) SetHelix(p GridPoint, h HelixID) bool {
	if !g.Contains(p) {
		return false
	}
	g.Cells[g.XToIndex(p.X)][g.YToIndex(p.Y)].Helix = h
	return true
}

// IsEmpty reports whether no cell holds a helix.
func (g Grid) IsEmpty() bool {
	for _, col := range g.Cells {
		for _, c := range col {
			if c.Occupied() {
				return false
			}
		}
	}
	return true
}

// OccupiedCells lists occupied cells ordered by x then y.
func (g Grid) OccupiedCells() []GridCell {
	var out []GridCell
	for _, col := range g.Cells {
		for _, c := range col {
			if c.Occupied() {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Point.X != out[j].Point.X {
			return out[i].Point.X < out[j].Point.X
		}
		return out[i].Point.Y < out[j].Point.Y
	})
	return out
}

// ExpandNorth appends one row above Max.Y.
func (g *Grid) ExpandNorth() {
	g.Max.Y++
	for i := range g.Cells {
		g.Cells[i] = append(g.Cells[i], GridCell{Point: GridPoint{X: g.Min.X + i, Y: g.Max.Y}, Helix: NoHelix})
	}
}

// ExpandSouth prepends one row below Min.Y, re-homing the origin index.
func (g *Grid) ExpandSouth() {
	g.Min.Y--
	for i := range g.Cells {
		col := make([]GridCell, 0, len(g.Cells[i])+1)
		col = append(col, GridCell{Point: GridPoint{X: g.Min.X + i, Y: g.Min.Y}, Helix: NoHelix})
		g.Cells[i] = append(col, g.Cells[i]...)
	}
}

// ExpandEast appends one column right of Max.X.
func (g *Grid) ExpandEast() {
	g.Max.X++
	g.Cells = append(g.Cells, g.newColumn(g.Max.X))
}

// ExpandWest prepends one column left of Min.X, re-homing the origin index.
func (g *Grid) ExpandWest() {
	g.Min.X--
	cells := make([][]GridCell, 0, len(g.Cells)+1)
	cells = append(cells, g.newColumn(g.Min.X))
	g.Cells = append(cells, g.Cells...)
}

func (g Grid) newColumn(x int) []GridCell {
	col := make([]GridCell, g.Height())
	for j := range col {
		col[j] = GridCell{Point: GridPoint{X: x, Y: g.Min.Y + j}, Helix: NoHelix}
	}
	return col
}

// CheckExpansion grows the grid by one cell past every boundary p lies on so
// that an occupied cell always has a free neighbour ring. It reports whether
// the grid changed.
func (g *Grid) CheckExpansion(p GridPoint) bool {
	expanded := false
	if p.X == g.Max.X {
		g.ExpandEast()
		expanded = true
	}
	if p.X == g.Min.X {
		g.ExpandWest()
		expanded = true
	}
	if p.Y == g.Max.Y {
		g.ExpandNorth()
		expanded = true
	}
	if p.Y == g.Min.Y {
		g.ExpandSouth()
		expanded = true
	}
	return expanded
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	cp := g
	cp.Cells = make([][]GridCell, len(g.Cells))
	for i, col := range g.Cells {
		cp.Cells[i] = append([]GridCell(nil), col...)
	}
	return cp
}

package domain

import "math"

// Helix geometry in nanometres and degrees.
const (
	HelixRise   = 0.34
	HelixRadius = 1.0
	HelixTwist  = 34.3
	GridSpacing = 2.25
)

// Vec3 is a world-space position or displacement.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Axes returns the in-plane unit axes (u, v) and the plane normal n = u × v.
func (p Plane) Axes() (u, v, n Vec3) {
	switch p {
	case PlaneXZ:
		return Vec3{X: 1}, Vec3{Z: 1}, Vec3{Y: -1}
	case PlaneYZ:
		return Vec3{Y: 1}, Vec3{Z: 1}, Vec3{X: 1}
	default:
		return Vec3{X: 1}, Vec3{Y: 1}, Vec3{Z: 1}
	}
}

// planar maps a lattice coordinate to in-plane distances. Honeycomb columns
// are packed at sqrt(3)/2 spacing with odd columns shifted half a cell.
func (t GridType) planar(p GridPoint) (float64, float64) {
	if t == GridHoneycomb {
		u := float64(p.X) * GridSpacing * math.Sqrt(3) / 2
		v := float64(p.Y) * GridSpacing
		if p.X&1 != 0 {
			v += GridSpacing / 2
		}
		return u, v
	}
	return float64(p.X) * GridSpacing, float64(p.Y) * GridSpacing
}

// CellPosition returns the world-space centre of the cell at p. It does not
// require p to be inside the current bounds.
func (g Grid) CellPosition(p GridPoint) Vec3 {
	du, dv := g.Type.planar(p)
	u, v, _ := g.Plane.Axes()
	return g.Origin.Add(u.Scale(du)).Add(v.Scale(dv))
}

// NucleotidePosition places base index of direction dir on a helix whose
// axis starts at center and runs along the plane normal.
func NucleotidePosition(center Vec3, plane Plane, dir Direction, index int) Vec3 {
	u, v, n := plane.Axes()
	angle := float64(index) * HelixTwist * math.Pi / 180
	if dir == Reverse {
		angle += math.Pi
	}
	radial := u.Scale(math.Cos(angle) * HelixRadius).Add(v.Scale(math.Sin(angle) * HelixRadius))
	return center.Add(n.Scale(float64(index) * HelixRise)).Add(radial)
}

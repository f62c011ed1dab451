package game

// DefaultGridSize matches a 600px field split into 20px cells.
const DefaultGridSize = 30

// MinGridSize leaves room for the outer ring plus the 5x5 spawn safe zone.
const MinGridSize = 8

// Grid is a square field of Size x Size cells.
type Grid struct {
	Size int32
}

// Wrap maps any integer pair onto its canonical cell modulo Size in both
// axes. Negative coordinates use floored modulo, so -1 becomes Size-1.
func (g Grid) Wrap(p Point) Point {
	return Point{X: floorMod(p.X, g.Size), Y: floorMod(p.Y, g.Size)}
}

func floorMod(v, n int32) int32 {
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}

func (g Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.Size && p.Y >= 0 && p.Y < g.Size
}

// OnRing reports whether p lies on the outermost row or column.
func (g Grid) OnRing(p Point) bool {
	return p.X == 0 || p.X == g.Size-1 || p.Y == 0 || p.Y == g.Size-1
}

// Center is the spawn cell.
func (g Grid) Center() Point {
	return Point{X: g.Size / 2, Y: g.Size / 2}
}

func (g Grid) Cells() int {
	return int(g.Size) * int(g.Size)
}

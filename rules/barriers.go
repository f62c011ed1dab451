package rules

import (
	"math/rand"
	"sort"

	"github.com/brensch/snekarcade/game"
)

const (
	// RandomBarrierIterations is how many horizontal+vertical line pairs the
	// RANDOM layout tries to place.
	RandomBarrierIterations = 5
	MinBarrierLineLen       = 3
	MaxBarrierLineLen       = 8
	// SafeZoneRadius gives a (2r+1)x(2r+1) square around the spawn cell that
	// RANDOM lines may not touch.
	SafeZoneRadius = 2
)

// Barriers is an immutable set of blocked cells.
type Barriers struct {
	cells map[game.Point]struct{}
}

// NewBarriers builds a set from cells. Duplicates collapse.
func NewBarriers(cells ...game.Point) Barriers {
	b := Barriers{cells: make(map[game.Point]struct{}, len(cells))}
	for _, c := range cells {
		b.cells[c] = struct{}{}
	}
	return b
}

func (b Barriers) Contains(p game.Point) bool {
	_, ok := b.cells[p]
	return ok
}

func (b Barriers) Len() int { return len(b.cells) }

// Cells returns the set in row-major order.
func (b Barriers) Cells() []game.Point {
	out := make([]game.Point, 0, len(b.cells))
	for c := range b.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// GenerateBarriers returns the barrier layout for mode.
func GenerateBarriers(mode game.BarrierMode, grid game.Grid, rng *rand.Rand) Barriers {
	switch mode {
	case game.BarrierBorder:
		return BorderBarriers(grid)
	case game.BarrierRandom:
		return RandomBarriers(grid, rng)
	default:
		return NewBarriers()
	}
}

// BorderBarriers blocks every cell of the outer ring, 4N-4 cells in total.
func BorderBarriers(grid game.Grid) Barriers {
	n := grid.Size
	cells := make([]game.Point, 0, 4*n)
	for i := int32(0); i < n; i++ {
		cells = append(cells,
			game.Point{X: i, Y: 0},
			game.Point{X: i, Y: n - 1},
			game.Point{X: 0, Y: i},
			game.Point{X: n - 1, Y: i},
		)
	}
	return NewBarriers(cells...)
}

// InSafeZone reports whether p is inside the square around the grid center
// that RANDOM barriers keep clear.
func InSafeZone(grid game.Grid, p game.Point) bool {
	c := grid.Center()
	return p.X >= c.X-SafeZoneRadius && p.X <= c.X+SafeZoneRadius &&
		p.Y >= c.Y-SafeZoneRadius && p.Y <= c.Y+SafeZoneRadius
}

// RandomBarriers places up to RandomBarrierIterations horizontal and vertical
// lines. A line touching the safe zone is dropped whole, so the result can be
// small or even empty.
func RandomBarriers(grid game.Grid, rng *rand.Rand) Barriers {
	n := grid.Size
	cells := make([]game.Point, 0, RandomBarrierIterations*2*MaxBarrierLineLen)

	keep := func(line []game.Point) {
		for _, p := range line {
			if InSafeZone(grid, p) {
				return
			}
		}
		cells = append(cells, line...)
	}

	for i := 0; i < RandomBarrierIterations; i++ {
		// Horizontal
		y := 1 + rng.Int31n(n-2)
		length := lineLength(rng)
		startX := rng.Int31n(n - length + 1)
		line := make([]game.Point, 0, length)
		for x := startX; x < startX+length; x++ {
			line = append(line, game.Point{X: x, Y: y})
		}
		keep(line)

		// Vertical
		x := 1 + rng.Int31n(n-2)
		length = lineLength(rng)
		startY := rng.Int31n(n - length + 1)
		line = make([]game.Point, 0, length)
		for y := startY; y < startY+length; y++ {
			line = append(line, game.Point{X: x, Y: y})
		}
		keep(line)
	}

	return NewBarriers(cells...)
}

func lineLength(rng *rand.Rand) int32 {
	return MinBarrierLineLen + rng.Int31n(MaxBarrierLineLen-MinBarrierLineLen+1)
}

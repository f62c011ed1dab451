package rules

import "github.com/brensch/snekarcade/game"

// Greedy picks the legal move that brings the head closest to the food. It
// prefers keeping the current direction on ties and returns game.DirNone when
// every move is fatal.
//
// Distance is measured on the torus for modes that wrap.
func Greedy(r *Round) game.Direction {
	moves := r.LegalMoves()
	if len(moves) == 0 {
		return game.DirNone
	}

	best := game.DirNone
	bestDist := int32(-1)
	for _, d := range moves {
		next := r.snake.Head().Add(d)
		if r.cfg.Barrier != game.BarrierBorder {
			next = r.grid.Wrap(next)
		}
		dist := r.distance(next, r.food)
		if bestDist < 0 || dist < bestDist || (dist == bestDist && d == r.direction) {
			best, bestDist = d, dist
		}
	}
	return best
}

func (r *Round) distance(a, b game.Point) int32 {
	dx, dy := abs32(a.X-b.X), abs32(a.Y-b.Y)
	if r.cfg.Barrier != game.BarrierBorder {
		dx = min(dx, r.grid.Size-dx)
		dy = min(dy, r.grid.Size-dy)
	}
	return dx + dy
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

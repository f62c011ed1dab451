package rules

import (
	"math/rand"

	"github.com/brensch/snekarcade/game"
)

// FoodSpawnTrials bounds the randomized search before falling back to a scan.
const FoodSpawnTrials = 100

// SpawnFood picks a cell for the next food. It never returns a cell on the
// outer ring, on the snake, or on a barrier, except in the last-resort case
// where no interior cell is free: then the grid center is returned as-is.
//
// Selection runs in three tiers:
//  1. up to FoodSpawnTrials uniform random draws over the whole grid
//  2. a row-major scan of interior cells, first free wins
//  3. the grid center
func SpawnFood(grid game.Grid, snake *game.Snake, barriers Barriers, rng *rand.Rand) game.Point {
	free := func(p game.Point) bool {
		if grid.OnRing(p) {
			return false
		}
		if snake != nil && snake.Contains(p) {
			return false
		}
		return !barriers.Contains(p)
	}

	for i := 0; i < FoodSpawnTrials; i++ {
		p := game.Point{X: rng.Int31n(grid.Size), Y: rng.Int31n(grid.Size)}
		if free(p) {
			return p
		}
	}

	for y := int32(1); y < grid.Size-1; y++ {
		for x := int32(1); x < grid.Size-1; x++ {
			p := game.Point{X: x, Y: y}
			if free(p) {
				return p
			}
		}
	}

	return grid.Center()
}

// RandomColor draws a food colour.
func RandomColor(rng *rand.Rand) game.Color {
	return game.Color{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256))}
}

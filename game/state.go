// Package game defines the core value types of a snake round.
//
// These types are shared by the rules engine, the score ledger and the
// presentation layer. They hold no round-level mutable state of their own;
// the rules package owns the live Snake for the duration of a round.
package game

import "fmt"

// Point is a grid cell. (0,0) is the top-left cell, X grows to the right and
// Y grows downward.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Add returns p moved one step in direction d. The result is not wrapped.
func (p Point) Add(d Direction) Point {
	return Point{X: p.X + d.DX, Y: p.Y + d.DY}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Color is an RGB triple used for the snake and food.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// SnakeGreen is the colour every snake starts a round with.
var SnakeGreen = Color{R: 0, G: 255, B: 0}

// Hex renders the colour as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Snake is an ordered sequence of occupied cells with the head at index 0.
// While the snake is alive no two cells are equal.
type Snake struct {
	Body []Point
}

// NewSnake returns a snake of length 1 at head.
func NewSnake(head Point) *Snake {
	return &Snake{Body: []Point{head}}
}

func (s *Snake) Head() Point { return s.Body[0] }
func (s *Snake) Len() int    { return len(s.Body) }

// PushHead prepends a new head cell.
func (s *Snake) PushHead(p Point) {
	s.Body = append(s.Body, Point{})
	copy(s.Body[1:], s.Body)
	s.Body[0] = p
}

// PopTail removes and returns the last cell.
func (s *Snake) PopTail() Point {
	tail := s.Body[len(s.Body)-1]
	s.Body = s.Body[:len(s.Body)-1]
	return tail
}

// Contains reports whether any cell of the snake equals p.
func (s *Snake) Contains(p Point) bool {
	for _, b := range s.Body {
		if b == p {
			return true
		}
	}
	return false
}

// BodyContains is Contains excluding the head cell.
func (s *Snake) BodyContains(p Point) bool {
	for _, b := range s.Body[1:] {
		if b == p {
			return true
		}
	}
	return false
}

// Clone performs a deep copy of the snake.
func (s *Snake) Clone() *Snake {
	if s == nil {
		return nil
	}
	out := &Snake{}
	if len(s.Body) > 0 {
		out.Body = make([]Point, len(s.Body))
		copy(out.Body, s.Body)
	}
	return out
}

package game

// Direction is a unit step on the grid. The zero value is DirNone and means
// "no input".
type Direction struct {
	DX int32
	DY int32
}

var (
	DirNone  = Direction{}
	DirUp    = Direction{DX: 0, DY: -1}
	DirDown  = Direction{DX: 0, DY: 1}
	DirLeft  = Direction{DX: -1, DY: 0}
	DirRight = Direction{DX: 1, DY: 0}
)

func (d Direction) IsNone() bool { return d == DirNone }

// Valid reports whether d is one of the four unit directions.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	return Direction{DX: -d.DX, DY: -d.DY}
}

// IsReverseOf reports whether d points exactly against o.
func (d Direction) IsReverseOf(o Direction) bool {
	return !d.IsNone() && d == o.Reverse()
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirNone:
		return "none"
	}
	return "invalid"
}

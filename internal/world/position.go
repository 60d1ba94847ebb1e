package world

import "fmt"

// Position is a 0-based column/row pair on the hex grid.
type Position struct {
	Col, Row int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Col, p.Row)
}

// Direction is one of the six hex directions. 0 points right and the
// numbering runs clockwise, so 1 and 2 lead to the next row.
type Direction int

const Directions = 6

// Rotate turns d by n steps clockwise; n may be negative.
func (d Direction) Rotate(n int) Direction {
	return Direction(((int(d)+n)%Directions + Directions) % Directions)
}

func (d Direction) Right() Direction    { return d.Rotate(1) }
func (d Direction) Left() Direction     { return d.Rotate(Directions - 1) }
func (d Direction) Opposite() Direction { return d.Rotate(Directions / 2) }

func (d Direction) Valid() bool {
	return d >= 0 && d < Directions
}

// Neighbor returns the position one step from p towards d. Odd rows are
// shifted half a cell to the right. The result may lie outside the grid.
func Neighbor(p Position, d Direction) Position {
	shift := p.Row & 1
	switch d.Rotate(0) {
	case 0:
		return Position{p.Col + 1, p.Row}
	case 1:
		return Position{p.Col + shift, p.Row + 1}
	case 2:
		return Position{p.Col - 1 + shift, p.Row + 1}
	case 3:
		return Position{p.Col - 1, p.Row}
	case 4:
		return Position{p.Col - 1 + shift, p.Row - 1}
	default:
		return Position{p.Col + shift, p.Row - 1}
	}
}

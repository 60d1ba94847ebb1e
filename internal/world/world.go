package world

import (
	"errors"
	"fmt"

	"bugworld/internal/program"
)

var (
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrObstructed  = errors.New("cell is obstructed")
	ErrOccupied    = errors.New("cell is occupied")
)

// World is a fixed width x height hex grid. Cells live in one flat slice
// indexed row by row; index is the only place that mapping is spelled out.
type World struct {
	width  int
	height int
	cells  []Cell
	nextID int
}

// New returns an empty world. It panics on non-positive dimensions.
func New(width, height int) *World {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("world: invalid size %dx%d", width, height))
	}
	return &World{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}
}

func (w *World) Width() int  { return w.width }
func (w *World) Height() int { return w.height }

// NextID is the id the next spawned agent will get.
func (w *World) NextID() int { return w.nextID }

func (w *World) index(p Position) int {
	return p.Row*w.width + p.Col
}

func (w *World) position(i int) Position {
	return Position{Col: i % w.width, Row: i / w.width}
}

func (w *World) InBounds(p Position) bool {
	return p.Col >= 0 && p.Col < w.width && p.Row >= 0 && p.Row < w.height
}

// CellAt returns the cell at p, or nil when p is outside the grid.
func (w *World) CellAt(p Position) *Cell {
	if !w.InBounds(p) {
		return nil
	}
	return &w.cells[w.index(p)]
}

// Adjacent returns the neighbouring cell of p towards d and its position.
// The cell is nil when the neighbour lies outside the grid.
func (w *World) Adjacent(p Position, d Direction) (*Cell, Position) {
	n := Neighbor(p, d)
	return w.CellAt(n), n
}

func (w *World) AgentAt(p Position) *Agent {
	if c := w.CellAt(p); c != nil {
		return c.agent
	}
	return nil
}

// Spawn creates an agent with the next id and places it at p.
func (w *World) Spawn(p Position, color Color, dir Direction, prog program.Program) (*Agent, error) {
	c := w.CellAt(p)
	switch {
	case c == nil:
		return nil, fmt.Errorf("spawn at %v: %w", p, ErrOutOfBounds)
	case c.obstructed:
		return nil, fmt.Errorf("spawn at %v: %w", p, ErrObstructed)
	case !color.Valid():
		return nil, fmt.Errorf("spawn at %v: %w: %v", p, ErrInvalidColor, color)
	case !dir.Valid():
		return nil, fmt.Errorf("spawn at %v: invalid direction %d", p, dir)
	}
	a := NewAgent(w.nextID, color, dir, prog)
	if !c.SetAgent(a) {
		return nil, fmt.Errorf("spawn at %v: %w", p, ErrOccupied)
	}
	w.nextID++
	return a, nil
}

// MoveAgent moves the occupant of from one step towards d. It reports the
// new position and false when the target is off the grid, obstructed or
// occupied; in that case nothing changes.
func (w *World) MoveAgent(from Position, d Direction) (Position, bool) {
	src := w.CellAt(from)
	if src == nil || src.agent == nil {
		return from, false
	}
	dst, to := w.Adjacent(from, d)
	if dst == nil || dst.obstructed || !dst.SetAgent(src.agent) {
		return from, false
	}
	src.agent = nil
	return to, true
}

// Kill takes the agent at p off the grid. It is never scheduled again.
func (w *World) Kill(p Position) *Agent {
	if c := w.CellAt(p); c != nil {
		return c.RemoveAgent()
	}
	return nil
}

// Occupied lists the positions holding an agent in row-major order.
func (w *World) Occupied() []Position {
	var out []Position
	for i := range w.cells {
		if w.cells[i].agent != nil {
			out = append(out, w.position(i))
		}
	}
	return out
}

// Agents lists the agents on the grid in row-major order.
func (w *World) Agents() []*Agent {
	var out []*Agent
	for i := range w.cells {
		if a := w.cells[i].agent; a != nil {
			out = append(out, a)
		}
	}
	return out
}

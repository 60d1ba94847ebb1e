package world

import (
	"errors"
	"fmt"

	"bugworld/internal/program"
)

var ErrPCOutOfRange = errors.New("program counter out of range")

// Agent is a bug. It owns a private copy of its program and a counter into it.
type Agent struct {
	ID        int
	Color     Color
	Direction Direction
	HasFood   bool
	Program   program.Program
	PC        int
}

func NewAgent(id int, color Color, dir Direction, prog program.Program) *Agent {
	return &Agent{
		ID:        id,
		Color:     color,
		Direction: dir,
		Program:   prog.Clone(),
	}
}

// Fetch returns the instruction at PC.
func (a *Agent) Fetch() (program.Instruction, error) {
	if a.PC < 0 || a.PC >= len(a.Program) {
		return nil, fmt.Errorf("%w: pc %d, program length %d", ErrPCOutOfRange, a.PC, len(a.Program))
	}
	return a.Program[a.PC], nil
}

func (a *Agent) TurnRight() { a.Direction = a.Direction.Right() }
func (a *Agent) TurnLeft()  { a.Direction = a.Direction.Left() }

func (a *Agent) String() string {
	return fmt.Sprintf("id: %d color: %s direction: %d hasFood: %t pc: %d", a.ID, a.Color, a.Direction, a.HasFood, a.PC)
}

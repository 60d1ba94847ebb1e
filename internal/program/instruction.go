package program

import "fmt"

// Instruction is one step of an agent program. Successor fields are indices
// into the program that owns the instruction.
type Instruction interface {
	Successors() []int
	String() string
	instruction()
}

// Sense inspects the cell at the agent's direction plus Dir and branches on Cond.
type Sense struct {
	Dir  int
	Then int
	Else int
	Cond Condition
}

type Mark struct {
	Marker int
	Then   int
}

type Unmark struct {
	Marker int
	Then   int
}

type PickUp struct {
	Then int
	Else int
}

type Drop struct {
	Then int
}

// Turn rotates right when Dir > 0 and left otherwise.
type Turn struct {
	Dir  int
	Then int
}

type Move struct {
	Then int
	Else int
}

// Flip takes Then with probability 1/P.
type Flip struct {
	P    int
	Then int
	Else int
}

// Direction branches on whether the agent currently faces Dir.
type Direction struct {
	Dir  int
	Then int
	Else int
}

func (Sense) instruction()     {}
func (Mark) instruction()      {}
func (Unmark) instruction()    {}
func (PickUp) instruction()    {}
func (Drop) instruction()      {}
func (Turn) instruction()      {}
func (Move) instruction()      {}
func (Flip) instruction()      {}
func (Direction) instruction() {}

func (i Sense) Successors() []int     { return []int{i.Then, i.Else} }
func (i Mark) Successors() []int      { return []int{i.Then} }
func (i Unmark) Successors() []int    { return []int{i.Then} }
func (i PickUp) Successors() []int    { return []int{i.Then, i.Else} }
func (i Drop) Successors() []int      { return []int{i.Then} }
func (i Turn) Successors() []int      { return []int{i.Then} }
func (i Move) Successors() []int      { return []int{i.Then, i.Else} }
func (i Flip) Successors() []int      { return []int{i.Then, i.Else} }
func (i Direction) Successors() []int { return []int{i.Then, i.Else} }

func (i Sense) String() string {
	return fmt.Sprintf("sense %d %d %d %s", i.Dir, i.Then, i.Else, i.Cond)
}

func (i Mark) String() string   { return fmt.Sprintf("mark %d %d", i.Marker, i.Then) }
func (i Unmark) String() string { return fmt.Sprintf("unmark %d %d", i.Marker, i.Then) }
func (i PickUp) String() string { return fmt.Sprintf("pickup %d %d", i.Then, i.Else) }
func (i Drop) String() string   { return fmt.Sprintf("drop %d", i.Then) }
func (i Turn) String() string   { return fmt.Sprintf("turn %d %d", i.Dir, i.Then) }
func (i Move) String() string   { return fmt.Sprintf("move %d %d", i.Then, i.Else) }
func (i Flip) String() string   { return fmt.Sprintf("flip %d %d %d", i.P, i.Then, i.Else) }

func (i Direction) String() string {
	return fmt.Sprintf("direction %d %d %d", i.Dir, i.Then, i.Else)
}

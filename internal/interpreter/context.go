package interpreter

import "bugworld/internal/world"

// Context is what one agent sees while executing a single instruction.
type Context struct {
	World *world.World
	Agent *world.Agent
	Pos   world.Position
	Cell  *world.Cell
	Rand  Random
}

// target returns the cell next to the agent towards d. Off the grid it is a
// rock so that Move fails and Sense sees an obstruction.
func (ctx *Context) target(d world.Direction) *world.Cell {
	if c, _ := ctx.World.Adjacent(ctx.Pos, d); c != nil {
		return c
	}
	var rock world.Cell
	rock.SetObstructed(true)
	return &rock
}

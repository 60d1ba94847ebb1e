package interpreter

import (
	"fmt"

	"bugworld/internal/program"
	"bugworld/internal/world"
)

// exec applies ins for ctx.Agent and returns the successor index.
func (ctx *Context) exec(ins program.Instruction) (int, error) {
	a := ctx.Agent
	switch ins := ins.(type) {
	case program.Sense:
		cell := ctx.target(a.Direction.Rotate(ins.Dir))
		ok, err := cell.Matches(ins.Cond, a.Color)
		if err != nil {
			return 0, err
		}
		return branch(ok, ins.Then, ins.Else), nil
	case program.Mark:
		return ins.Then, ctx.Cell.SetMarker(a.Color, ins.Marker)
	case program.Unmark:
		return ins.Then, ctx.Cell.ClearMarker(a.Color, ins.Marker)
	case program.PickUp:
		food := ctx.Cell.Food()
		if a.HasFood || food == 0 {
			return ins.Else, nil
		}
		if err := ctx.Cell.SetFood(food - 1); err != nil {
			return 0, err
		}
		a.HasFood = true
		return ins.Then, nil
	case program.Drop:
		if a.HasFood {
			if err := ctx.Cell.SetFood(ctx.Cell.Food() + 1); err != nil {
				return 0, err
			}
			a.HasFood = false
		}
		return ins.Then, nil
	case program.Turn:
		if ins.Dir > 0 {
			a.TurnRight()
		} else {
			a.TurnLeft()
		}
		return ins.Then, nil
	case program.Move:
		to, ok := ctx.World.MoveAgent(ctx.Pos, a.Direction)
		if !ok {
			return ins.Else, nil
		}
		ctx.Pos, ctx.Cell = to, ctx.World.CellAt(to)
		return ins.Then, nil
	case program.Flip:
		return branch(ctx.Rand.Float64()*float64(ins.P) < 1, ins.Then, ins.Else), nil
	case program.Direction:
		return branch(a.Direction == world.Direction(ins.Dir), ins.Then, ins.Else), nil
	}
	return 0, fmt.Errorf("%w: %T", ErrUnknownInstruction, ins)
}

func branch(ok bool, then, els int) int {
	if ok {
		return then
	}
	return els
}

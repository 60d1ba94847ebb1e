package world

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// DebugString renders one line per row. Each cell is [# _ _ _] when
// obstructed, [food _ _ _] when empty and [food id direction hasFood] when
// occupied.
func (w *World) DebugString() string {
	var b strings.Builder
	for r := 0; r < w.height; r++ {
		for c := 0; c < w.width; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			cell := w.CellAt(Position{c, r})
			switch {
			case cell.obstructed:
				b.WriteString("[# _ _ _]")
			case cell.agent == nil:
				fmt.Fprintf(&b, "[%d _ _ _]", cell.food)
			default:
				a := cell.agent
				fmt.Fprintf(&b, "[%d %d %d %d]", cell.food, a.ID, a.Direction, lo.Ternary(a.HasFood, 1, 0))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

type TeamStats struct {
	Agents   int
	Carrying int
	// NestFood is the food lying on this color's nest cells, the team's score.
	NestFood int
}

type Stats struct {
	Red   TeamStats
	Black TeamStats
	// Food is all food lying on the grid, nests included.
	Food int
}

func (s Stats) Team(c Color) TeamStats {
	if c == Black {
		return s.Black
	}
	return s.Red
}

func (w *World) Stats() Stats {
	agents := w.Agents()
	team := func(color Color) TeamStats {
		own := lo.Filter(agents, func(a *Agent, _ int) bool { return a.Color == color })
		return TeamStats{
			Agents:   len(own),
			Carrying: lo.CountBy(own, func(a *Agent) bool { return a.HasFood }),
			NestFood: lo.SumBy(w.cells, func(c Cell) int {
				return lo.Ternary(c.IsFriendlyBase(color), c.food, 0)
			}),
		}
	}
	return Stats{
		Red:   team(Red),
		Black: team(Black),
		Food:  lo.SumBy(w.cells, func(c Cell) int { return c.food }),
	}
}

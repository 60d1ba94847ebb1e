package world

import (
	"errors"
	"fmt"
	"strings"

	"bugworld/internal/program"
)

var (
	ErrMarkerIndex      = errors.New("marker index not in 0..5")
	ErrNegativeFood     = errors.New("food must not be negative")
	ErrUnknownCondition = errors.New("unknown condition")
)

type markers [program.MarkerCount]bool

// Cell holds the state of one grid cell. A cell has at most one occupant;
// SetAgent is the only way in.
type Cell struct {
	obstructed bool
	food       int
	base       Color
	hasBase    bool
	agent      *Agent
	markers    [2]markers
}

func (c *Cell) IsObstructed() bool { return c.obstructed }

func (c *Cell) SetObstructed(v bool) { c.obstructed = v }

func (c *Cell) IsOccupied() bool { return c.agent != nil }

func (c *Cell) Agent() *Agent { return c.agent }

// SetAgent stores a in the cell unless it is already occupied.
func (c *Cell) SetAgent(a *Agent) bool {
	if c.agent != nil || a == nil {
		return false
	}
	c.agent = a
	return true
}

// RemoveAgent clears the occupant and returns it. The agent itself is left
// untouched.
func (c *Cell) RemoveAgent() *Agent {
	a := c.agent
	c.agent = nil
	return a
}

func (c *Cell) Food() int { return c.food }

func (c *Cell) SetFood(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeFood, n)
	}
	c.food = n
	return nil
}

func (c *Cell) Base() (Color, bool) { return c.base, c.hasBase }

func (c *Cell) SetBase(color Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidColor, color)
	}
	c.base, c.hasBase = color, true
	return nil
}

func (c *Cell) ClearBase() { c.base, c.hasBase = 0, false }

func (c *Cell) IsFriendlyBase(color Color) bool {
	return c.hasBase && c.base == color
}

func (c *Cell) IsEnemyBase(color Color) bool {
	return c.hasBase && c.base != color
}

func checkMarker(color Color, i int) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidColor, color)
	}
	if !program.ValidMarker(i) {
		return fmt.Errorf("%w: %d", ErrMarkerIndex, i)
	}
	return nil
}

func (c *Cell) SetMarker(color Color, i int) error {
	if err := checkMarker(color, i); err != nil {
		return err
	}
	c.markers[color][i] = true
	return nil
}

func (c *Cell) ClearMarker(color Color, i int) error {
	if err := checkMarker(color, i); err != nil {
		return err
	}
	c.markers[color][i] = false
	return nil
}

func (c *Cell) IsFriendlyMarker(color Color, i int) (bool, error) {
	if err := checkMarker(color, i); err != nil {
		return false, err
	}
	return c.markers[color][i], nil
}

// IsEnemyMarker reports whether any marker of the opposing color is set.
func (c *Cell) IsEnemyMarker(color Color) (bool, error) {
	if !color.Valid() {
		return false, fmt.Errorf("%w: %v", ErrInvalidColor, color)
	}
	for _, set := range c.markers[color.Opposite()] {
		if set {
			return true, nil
		}
	}
	return false, nil
}

// Matches evaluates cond against this cell as seen by an agent of color
// asking.
func (c *Cell) Matches(cond program.Condition, asking Color) (bool, error) {
	if !asking.Valid() {
		return false, fmt.Errorf("%w: %v", ErrInvalidColor, asking)
	}
	switch cond.Kind {
	case program.Friend:
		return c.agent != nil && c.agent.Color == asking, nil
	case program.Foe:
		return c.agent != nil && c.agent.Color == asking.Opposite(), nil
	case program.FriendWithFood:
		return c.agent != nil && c.agent.Color == asking && c.agent.HasFood, nil
	case program.FoeWithFood:
		return c.agent != nil && c.agent.Color == asking.Opposite() && c.agent.HasFood, nil
	case program.Food:
		return c.food > 0, nil
	case program.Rock:
		return c.obstructed, nil
	case program.Marker:
		return c.IsFriendlyMarker(asking, cond.Marker)
	case program.FoeMarker:
		return c.IsEnemyMarker(asking)
	case program.Home:
		return c.IsFriendlyBase(asking), nil
	case program.FoeHome:
		return c.IsFriendlyBase(asking.Opposite()), nil
	}
	return false, fmt.Errorf("%w: %v", ErrUnknownCondition, cond.Kind)
}

func (c *Cell) String() string {
	agent := "<none>"
	if c.agent != nil {
		agent = fmt.Sprintf("#%d", c.agent.ID)
	}
	base := "<none>"
	if c.hasBase {
		base = c.base.String()
	}
	return fmt.Sprintf("obstructed: %t agent: %s food: %d redMarkers: %s blackMarkers: %s base: %s",
		c.obstructed, agent, c.food, c.markers[Red], c.markers[Black], base)
}

func (m markers) String() string {
	var b strings.Builder
	for _, set := range m {
		if set {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (m markers) bits() uint8 {
	var v uint8
	for i, set := range m {
		if set {
			v |= 1 << i
		}
	}
	return v
}

func markersFromBits(v uint8) markers {
	var m markers
	for i := range m {
		m[i] = v&(1<<i) != 0
	}
	return m
}

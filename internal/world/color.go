package world

import (
	"errors"
	"fmt"
)

var ErrInvalidColor = errors.New("invalid color")

// Color identifies a team. It doubles as the index into per-color tables.
type Color uint8

const (
	Red Color = iota
	Black
)

func (c Color) Valid() bool {
	return c == Red || c == Black
}

func (c Color) Opposite() Color {
	if c == Red {
		return Black
	}
	return Red
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

func ParseColor(s string) (Color, error) {
	switch s {
	case "red":
		return Red, nil
	case "black":
		return Black, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

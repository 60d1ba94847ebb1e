package world

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bugworld/internal/program"
)

var (
	ErrHeader            = errors.New("the first two lines of the world file must be positive numbers")
	ErrLineCount         = errors.New("the number of lines in the world file is incorrect")
	ErrLineLength        = errors.New("the number of characters in the line is incorrect")
	ErrBorderNotClosed   = errors.New("the border in the world file is not closed")
	ErrInvalidCharacter  = errors.New("the world file contains invalid characters")
	ErrNotBothNests      = errors.New("the world file does not contain both nests")
	ErrNestsNotConnected = errors.New("the nests are not connected")
)

// MapError is a validation failure; Line is the 1-based line in the map
// text, or 0 when the rule is not about a single line.
type MapError struct {
	Line int
	Err  error
}

func (e *MapError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *MapError) Unwrap() error { return e.Err }

const (
	rockSymbol  = '#'
	emptySymbol = '.'
	redNest     = '+'
	blackNest   = '-'
)

// Map is a validated world description.
type Map struct {
	Width  int
	Height int
	Rows   []string
}

// ParseMap validates map text: a width line, a height line, then height rows
// of width characters from "#.+-0123456789" with a closed '#' border and one
// connected nest per color.
func ParseMap(text string) (*Map, error) {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if len(lines) < 2 {
		return nil, &MapError{Err: ErrHeader}
	}
	width, err := strconv.Atoi(lines[0])
	if err != nil || width <= 0 {
		return nil, &MapError{Line: 1, Err: ErrHeader}
	}
	height, err := strconv.Atoi(lines[1])
	if err != nil || height <= 0 {
		return nil, &MapError{Line: 2, Err: ErrHeader}
	}
	if len(lines) != 2+height {
		return nil, &MapError{Err: ErrLineCount}
	}

	m := &Map{Width: width, Height: height, Rows: lines[2:]}
	for _, check := range []func() error{m.checkLengths, m.checkBorder, m.checkChars, m.checkNests} {
		if err := check(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Map) at(p Position) byte {
	return m.Rows[p.Row][p.Col]
}

func (m *Map) onBorder(p Position) bool {
	return p.Row == 0 || p.Row == m.Height-1 || p.Col == 0 || p.Col == m.Width-1
}

func (m *Map) checkLengths() error {
	for r, row := range m.Rows {
		if len(row) != m.Width {
			return &MapError{Line: r + 3, Err: ErrLineLength}
		}
	}
	return nil
}

func (m *Map) checkBorder() error {
	for r := range m.Rows {
		for c := 0; c < m.Width; c++ {
			p := Position{c, r}
			if m.onBorder(p) && m.at(p) != rockSymbol {
				return &MapError{Line: r + 3, Err: ErrBorderNotClosed}
			}
		}
	}
	return nil
}

func legal(ch byte) bool {
	switch ch {
	case rockSymbol, emptySymbol, redNest, blackNest:
		return true
	}
	return ch >= '0' && ch <= '9'
}

func (m *Map) checkChars() error {
	for r, row := range m.Rows {
		for c := 0; c < len(row); c++ {
			if !legal(row[c]) {
				return &MapError{Line: r + 3, Err: fmt.Errorf("%w: %q", ErrInvalidCharacter, row[c])}
			}
		}
	}
	return nil
}

func (m *Map) cellsOf(sym byte) []Position {
	var out []Position
	for r, row := range m.Rows {
		for c := 0; c < len(row); c++ {
			if row[c] == sym {
				out = append(out, Position{c, r})
			}
		}
	}
	return out
}

// reachable flood-fills over hex neighbours carrying the same symbol as start.
func (m *Map) reachable(start Position) int {
	sym := m.at(start)
	visited := map[Position]bool{start: true}
	queue := []Position{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for d := Direction(0); d < Directions; d++ {
			n := Neighbor(cur, d)
			if n.Row < 0 || n.Row >= m.Height || n.Col < 0 || n.Col >= m.Width {
				continue
			}
			if visited[n] || m.at(n) != sym {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	return len(visited)
}

func (m *Map) checkNests() error {
	red, black := m.cellsOf(redNest), m.cellsOf(blackNest)
	if len(red) == 0 || len(black) == 0 {
		return &MapError{Err: ErrNotBothNests}
	}
	for _, nest := range [][]Position{red, black} {
		if m.reachable(nest[0]) != len(nest) {
			return &MapError{Line: nest[0].Row + 3, Err: ErrNestsNotConnected}
		}
	}
	return nil
}

// Populate builds the world the map describes. Every nest cell gets a fresh
// agent of its color, facing direction 0, numbered in row-major order.
func (m *Map) Populate(red, black program.Program) (*World, error) {
	w := New(m.Width, m.Height)
	for r, row := range m.Rows {
		for c := 0; c < len(row); c++ {
			p := Position{c, r}
			cell := w.CellAt(p)
			switch ch := row[c]; {
			case ch == rockSymbol:
				cell.obstructed = true
			case ch == redNest:
				if err := w.spawnNest(p, Red, red); err != nil {
					return nil, err
				}
			case ch == blackNest:
				if err := w.spawnNest(p, Black, black); err != nil {
					return nil, err
				}
			case ch >= '0' && ch <= '9':
				cell.food = int(ch - '0')
			}
		}
	}
	return w, nil
}

func (w *World) spawnNest(p Position, color Color, prog program.Program) error {
	if err := w.CellAt(p).SetBase(color); err != nil {
		return err
	}
	_, err := w.Spawn(p, color, 0, prog)
	return err
}

// Build validates the map, parses both programs and returns the populated
// world.
func Build(mapText, redText, blackText string) (*World, error) {
	m, err := ParseMap(mapText)
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	red, err := program.Parse(redText)
	if err != nil {
		return nil, fmt.Errorf("red program: %w", err)
	}
	black, err := program.Parse(blackText)
	if err != nil {
		return nil, fmt.Errorf("black program: %w", err)
	}
	return m.Populate(red, black)
}

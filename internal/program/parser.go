package program

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	ErrSyntax             = errors.New("syntax error")
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrUnknownCondition   = errors.New("unknown condition")
	ErrMarkerIndex        = errors.New("marker index not in 0..5")
	ErrJumpTarget         = errors.New("jump target out of range")
	ErrEmptyProgram       = errors.New("program has no instructions")
)

// ParseError reports the line (1-based) and, when known, the column of the
// offending token.
type ParseError struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line == 0:
		return e.Msg
	case e.Column == 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

var bugLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[-+]?[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// number is an integer operand. It is always read in base 10, so a leading
// zero or plus sign is allowed and 010 is ten.
type number int

func (n *number) Capture(values []string) error {
	v, err := strconv.Atoi(values[0])
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type source struct {
	Lines []*line `parser:"EOL* ( @@ EOL+ )*"`
}

type line struct {
	Pos lexer.Position

	Sense     *senseArgs  `parser:"  'sense' @@"`
	Mark      *markArgs   `parser:"| 'mark' @@"`
	Unmark    *markArgs   `parser:"| 'unmark' @@"`
	PickUp    *branchArgs `parser:"| 'pickup' @@"`
	Drop      *gotoArgs   `parser:"| 'drop' @@"`
	Turn      *turnArgs   `parser:"| 'turn' @@"`
	Move      *branchArgs `parser:"| 'move' @@"`
	Flip      *choiceArgs `parser:"| 'flip' @@"`
	Direction *choiceArgs `parser:"| 'direction' @@"`
}

type senseArgs struct {
	Dir  number   `parser:"@Int"`
	Then number   `parser:"@Int"`
	Else number   `parser:"@Int"`
	Cond *condArg `parser:"@@"`
}

type condArg struct {
	Pos    lexer.Position
	Name   string  `parser:"@Ident"`
	Marker *number `parser:"@Int?"`
}

type markArgs struct {
	Marker number `parser:"@Int"`
	Then   number `parser:"@Int"`
}

type branchArgs struct {
	Then number `parser:"@Int"`
	Else number `parser:"@Int"`
}

type gotoArgs struct {
	Then number `parser:"@Int"`
}

type turnArgs struct {
	Dir  number `parser:"@Int"`
	Then number `parser:"@Int"`
}

type choiceArgs struct {
	N    number `parser:"@Int"`
	Then number `parser:"@Int"`
	Else number `parser:"@Int"`
}

var parser = participle.MustBuild[source](
	participle.Lexer(bugLexer),
	participle.Elide("Whitespace"),
)

var instructionNames = map[string]bool{
	"sense": true, "mark": true, "unmark": true, "pickup": true, "drop": true,
	"turn": true, "move": true, "flip": true, "direction": true,
}

// Parse reads one instruction per non-empty line. Successor indices are
// checked against the program length, so a parsed program never jumps out
// of range.
func Parse(text string) (Program, error) {
	if err := checkNames(text); err != nil {
		return nil, err
	}
	src, err := parser.ParseString("program", text+"\n")
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			pos := perr.Position()
			return nil, &ParseError{Line: pos.Line, Column: pos.Column, Msg: perr.Message(), Err: ErrSyntax}
		}
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	prog := make(Program, 0, len(src.Lines))
	lines := make([]int, 0, len(src.Lines))
	for _, l := range src.Lines {
		ins, err := l.instruction()
		if err != nil {
			return nil, err
		}
		prog = append(prog, ins)
		lines = append(lines, l.Pos.Line)
	}
	if err := prog.validate(lines); err != nil {
		return nil, err
	}
	return prog, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Program {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// checkNames rejects unknown instruction names up front so the error names
// the word instead of a generic unexpected token.
func checkNames(text string) error {
	for i, l := range strings.Split(text, "\n") {
		fields := strings.Fields(l)
		if len(fields) == 0 || instructionNames[fields[0]] {
			continue
		}
		return &ParseError{
			Line:   i + 1,
			Column: strings.Index(l, fields[0]) + 1,
			Msg:    fmt.Sprintf("unknown instruction %q", fields[0]),
			Err:    ErrUnknownInstruction,
		}
	}
	return nil
}

func (l *line) instruction() (Instruction, error) {
	switch {
	case l.Sense != nil:
		cond, err := l.Sense.Cond.condition()
		if err != nil {
			return nil, err
		}
		return Sense{Dir: int(l.Sense.Dir), Then: int(l.Sense.Then), Else: int(l.Sense.Else), Cond: cond}, nil
	case l.Mark != nil:
		if err := l.checkMarker(int(l.Mark.Marker)); err != nil {
			return nil, err
		}
		return Mark{Marker: int(l.Mark.Marker), Then: int(l.Mark.Then)}, nil
	case l.Unmark != nil:
		if err := l.checkMarker(int(l.Unmark.Marker)); err != nil {
			return nil, err
		}
		return Unmark{Marker: int(l.Unmark.Marker), Then: int(l.Unmark.Then)}, nil
	case l.PickUp != nil:
		return PickUp{Then: int(l.PickUp.Then), Else: int(l.PickUp.Else)}, nil
	case l.Drop != nil:
		return Drop{Then: int(l.Drop.Then)}, nil
	case l.Turn != nil:
		return Turn{Dir: int(l.Turn.Dir), Then: int(l.Turn.Then)}, nil
	case l.Move != nil:
		return Move{Then: int(l.Move.Then), Else: int(l.Move.Else)}, nil
	case l.Flip != nil:
		return Flip{P: int(l.Flip.N), Then: int(l.Flip.Then), Else: int(l.Flip.Else)}, nil
	case l.Direction != nil:
		return Direction{Dir: int(l.Direction.N), Then: int(l.Direction.Then), Else: int(l.Direction.Else)}, nil
	}
	return nil, &ParseError{Line: l.Pos.Line, Column: l.Pos.Column, Msg: "empty instruction", Err: ErrSyntax}
}

func (l *line) checkMarker(i int) error {
	if ValidMarker(i) {
		return nil
	}
	return &ParseError{
		Line:   l.Pos.Line,
		Column: l.Pos.Column,
		Msg:    fmt.Sprintf("marker index %d not in 0..%d", i, MarkerCount-1),
		Err:    ErrMarkerIndex,
	}
}

func (c *condArg) condition() (Condition, error) {
	kind, ok := ParseConditionKind(c.Name)
	if !ok {
		return Condition{}, &ParseError{
			Line:   c.Pos.Line,
			Column: c.Pos.Column,
			Msg:    fmt.Sprintf("unknown condition %q", c.Name),
			Err:    ErrUnknownCondition,
		}
	}
	if kind != Marker {
		if c.Marker != nil {
			return Condition{}, &ParseError{
				Line:   c.Pos.Line,
				Column: c.Pos.Column,
				Msg:    fmt.Sprintf("condition %s takes no marker index", kind),
				Err:    ErrSyntax,
			}
		}
		return Is(kind), nil
	}
	if c.Marker == nil {
		return Condition{}, &ParseError{
			Line:   c.Pos.Line,
			Column: c.Pos.Column,
			Msg:    "condition marker needs a marker index",
			Err:    ErrSyntax,
		}
	}
	if !ValidMarker(int(*c.Marker)) {
		return Condition{}, &ParseError{
			Line:   c.Pos.Line,
			Column: c.Pos.Column,
			Msg:    fmt.Sprintf("marker index %d not in 0..%d", int(*c.Marker), MarkerCount-1),
			Err:    ErrMarkerIndex,
		}
	}
	return MarkerAt(int(*c.Marker)), nil
}

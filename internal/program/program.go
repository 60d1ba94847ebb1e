package program

import (
	"fmt"
	"slices"
	"strings"
)

// Program is an agent's instruction sequence. Instructions are values, so a
// Clone shares nothing with the original.
type Program []Instruction

func (p Program) Clone() Program {
	if len(p) == 0 {
		return nil
	}
	return slices.Clone(p)
}

// Validate checks what Parse checks for programs assembled in code: every
// successor is inside the program and every operand is in range.
func (p Program) Validate() error {
	return p.validate(nil)
}

func (p Program) validate(lines []int) error {
	if len(p) == 0 {
		return &ParseError{Msg: ErrEmptyProgram.Error(), Err: ErrEmptyProgram}
	}
	for i, ins := range p {
		line := i + 1
		if lines != nil {
			line = lines[i]
		}
		if ins == nil {
			return &ParseError{Line: line, Msg: "nil instruction", Err: ErrUnknownInstruction}
		}
		for _, next := range ins.Successors() {
			if next < 0 || next >= len(p) {
				return &ParseError{
					Line: line,
					Msg:  fmt.Sprintf("%s: jump target %d not in 0..%d", ins, next, len(p)-1),
					Err:  ErrJumpTarget,
				}
			}
		}
		switch ins := ins.(type) {
		case Sense:
			if !ins.Cond.Valid() {
				return &ParseError{Line: line, Msg: fmt.Sprintf("%s: invalid condition", ins), Err: ErrUnknownCondition}
			}
		case Mark:
			if !ValidMarker(ins.Marker) {
				return &ParseError{Line: line, Msg: ins.String(), Err: ErrMarkerIndex}
			}
		case Unmark:
			if !ValidMarker(ins.Marker) {
				return &ParseError{Line: line, Msg: ins.String(), Err: ErrMarkerIndex}
			}
		}
	}
	return nil
}

// String renders the program in the text form Parse accepts.
func (p Program) String() string {
	var b strings.Builder
	for i, ins := range p {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(ins.String())
	}
	return b.String()
}

package world

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"bugworld/internal/program"
)

var ErrSnapshot = errors.New("invalid snapshot")

// Canonical encoding makes equal worlds serialize to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("world: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type snapshot struct {
	Width  int            `cbor:"width"`
	Height int            `cbor:"height"`
	NextID int            `cbor:"next_id"`
	Cells  []cellSnapshot `cbor:"cells"`
}

type cellSnapshot struct {
	Obstructed bool           `cbor:"obstructed,omitempty"`
	Food       int            `cbor:"food,omitempty"`
	Base       string         `cbor:"base,omitempty"`
	Red        uint8          `cbor:"red,omitempty"`
	Black      uint8          `cbor:"black,omitempty"`
	Agent      *agentSnapshot `cbor:"agent,omitempty"`
}

type agentSnapshot struct {
	ID        int                   `cbor:"id"`
	Color     string                `cbor:"color"`
	Direction int                   `cbor:"dir"`
	HasFood   bool                  `cbor:"food,omitempty"`
	PC        int                   `cbor:"pc"`
	Program   []instructionSnapshot `cbor:"program"`
}

// instructionSnapshot flattens every instruction variant. Arg carries the
// variant's operand: sense offset, marker index, turn, flip p or direction.
type instructionSnapshot struct {
	Op     string `cbor:"op"`
	Arg    int    `cbor:"arg,omitempty"`
	Then   int    `cbor:"then"`
	Else   int    `cbor:"else,omitempty"`
	Cond   string `cbor:"cond,omitempty"`
	Marker int    `cbor:"marker,omitempty"`
}

// Serialize encodes the whole world, agents and their programs included.
func (w *World) Serialize() ([]byte, error) {
	s := snapshot{
		Width:  w.width,
		Height: w.height,
		NextID: w.nextID,
		Cells:  make([]cellSnapshot, len(w.cells)),
	}
	for i := range w.cells {
		c := &w.cells[i]
		cs := cellSnapshot{
			Obstructed: c.obstructed,
			Food:       c.food,
			Red:        c.markers[Red].bits(),
			Black:      c.markers[Black].bits(),
		}
		if c.hasBase {
			cs.Base = c.base.String()
		}
		if c.agent != nil {
			as, err := encodeAgent(c.agent)
			if err != nil {
				return nil, fmt.Errorf("cell %v: %w", w.position(i), err)
			}
			cs.Agent = as
		}
		s.Cells[i] = cs
	}
	return cborEncMode.Marshal(&s)
}

func encodeAgent(a *Agent) (*agentSnapshot, error) {
	as := &agentSnapshot{
		ID:        a.ID,
		Color:     a.Color.String(),
		Direction: int(a.Direction),
		HasFood:   a.HasFood,
		PC:        a.PC,
		Program:   make([]instructionSnapshot, len(a.Program)),
	}
	for i, ins := range a.Program {
		is, err := encodeInstruction(ins)
		if err != nil {
			return nil, fmt.Errorf("agent %d instruction %d: %w", a.ID, i, err)
		}
		as.Program[i] = is
	}
	return as, nil
}

func encodeInstruction(ins program.Instruction) (instructionSnapshot, error) {
	switch ins := ins.(type) {
	case program.Sense:
		return instructionSnapshot{Op: "sense", Arg: ins.Dir, Then: ins.Then, Else: ins.Else,
			Cond: ins.Cond.Kind.String(), Marker: ins.Cond.Marker}, nil
	case program.Mark:
		return instructionSnapshot{Op: "mark", Arg: ins.Marker, Then: ins.Then}, nil
	case program.Unmark:
		return instructionSnapshot{Op: "unmark", Arg: ins.Marker, Then: ins.Then}, nil
	case program.PickUp:
		return instructionSnapshot{Op: "pickup", Then: ins.Then, Else: ins.Else}, nil
	case program.Drop:
		return instructionSnapshot{Op: "drop", Then: ins.Then}, nil
	case program.Turn:
		return instructionSnapshot{Op: "turn", Arg: ins.Dir, Then: ins.Then}, nil
	case program.Move:
		return instructionSnapshot{Op: "move", Then: ins.Then, Else: ins.Else}, nil
	case program.Flip:
		return instructionSnapshot{Op: "flip", Arg: ins.P, Then: ins.Then, Else: ins.Else}, nil
	case program.Direction:
		return instructionSnapshot{Op: "direction", Arg: ins.Dir, Then: ins.Then, Else: ins.Else}, nil
	}
	return instructionSnapshot{}, fmt.Errorf("unknown instruction %T", ins)
}

// Deserialize rebuilds a world from Serialize output. The data is checked
// before use: unknown instructions or conditions, bad colors, marker
// indices and duplicate agents are rejected with ErrSnapshot. Program
// counters and jump targets are left for the engine to fault on.
func Deserialize(data []byte) (*World, error) {
	var s snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	// bound both sides by the cell count before multiplying so the product
	// cannot overflow
	if s.Width <= 0 || s.Height <= 0 || s.Width > len(s.Cells) || s.Height > len(s.Cells) ||
		len(s.Cells) != s.Width*s.Height {
		return nil, fmt.Errorf("%w: %dx%d grid with %d cells", ErrSnapshot, s.Width, s.Height, len(s.Cells))
	}
	w := New(s.Width, s.Height)
	w.nextID = s.NextID
	ids := make(map[int]bool)
	for i, cs := range s.Cells {
		pos := w.position(i)
		if cs.Food < 0 || cs.Red >= 1<<program.MarkerCount || cs.Black >= 1<<program.MarkerCount {
			return nil, fmt.Errorf("%w: cell %v", ErrSnapshot, pos)
		}
		c := &w.cells[i]
		c.obstructed = cs.Obstructed
		c.food = cs.Food
		c.markers[Red] = markersFromBits(cs.Red)
		c.markers[Black] = markersFromBits(cs.Black)
		if cs.Base != "" {
			base, err := ParseColor(cs.Base)
			if err != nil {
				return nil, fmt.Errorf("%w: cell %v: %w", ErrSnapshot, pos, err)
			}
			c.base, c.hasBase = base, true
		}
		if cs.Agent == nil {
			continue
		}
		a, err := decodeAgent(cs.Agent)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %v: %w", ErrSnapshot, pos, err)
		}
		if ids[a.ID] || a.ID < 0 || a.ID >= s.NextID {
			return nil, fmt.Errorf("%w: cell %v: agent id %d reused or beyond next id %d", ErrSnapshot, pos, a.ID, s.NextID)
		}
		ids[a.ID] = true
		c.agent = a
	}
	return w, nil
}

func decodeAgent(as *agentSnapshot) (*Agent, error) {
	color, err := ParseColor(as.Color)
	if err != nil {
		return nil, err
	}
	dir := Direction(as.Direction)
	if !dir.Valid() {
		return nil, fmt.Errorf("agent %d: invalid direction %d", as.ID, as.Direction)
	}
	a := &Agent{ID: as.ID, Color: color, Direction: dir, HasFood: as.HasFood, PC: as.PC}
	if len(as.Program) > 0 {
		a.Program = make(program.Program, len(as.Program))
	}
	for i, is := range as.Program {
		ins, err := decodeInstruction(is)
		if err != nil {
			return nil, fmt.Errorf("agent %d instruction %d: %w", as.ID, i, err)
		}
		a.Program[i] = ins
	}
	return a, nil
}

func decodeInstruction(is instructionSnapshot) (program.Instruction, error) {
	switch is.Op {
	case "sense":
		kind, ok := program.ParseConditionKind(is.Cond)
		cond := program.Condition{Kind: kind, Marker: is.Marker}
		if !ok || !cond.Valid() {
			return nil, fmt.Errorf("invalid condition %q %d", is.Cond, is.Marker)
		}
		return program.Sense{Dir: is.Arg, Then: is.Then, Else: is.Else, Cond: cond}, nil
	case "mark", "unmark":
		if !program.ValidMarker(is.Arg) {
			return nil, fmt.Errorf("%s: %w: %d", is.Op, ErrMarkerIndex, is.Arg)
		}
		if is.Op == "mark" {
			return program.Mark{Marker: is.Arg, Then: is.Then}, nil
		}
		return program.Unmark{Marker: is.Arg, Then: is.Then}, nil
	case "pickup":
		return program.PickUp{Then: is.Then, Else: is.Else}, nil
	case "drop":
		return program.Drop{Then: is.Then}, nil
	case "turn":
		return program.Turn{Dir: is.Arg, Then: is.Then}, nil
	case "move":
		return program.Move{Then: is.Then, Else: is.Else}, nil
	case "flip":
		return program.Flip{P: is.Arg, Then: is.Then, Else: is.Else}, nil
	case "direction":
		return program.Direction{Dir: is.Arg, Then: is.Then, Else: is.Else}, nil
	}
	return nil, fmt.Errorf("unknown instruction %q", is.Op)
}

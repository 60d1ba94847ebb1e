package interpreter

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"bugworld/internal/world"
)

var (
	ErrHalted             = errors.New("engine halted")
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrJumpOutOfRange     = errors.New("jump target out of range")
)

// Random is the source Flip draws from. Float64 returns a value in [0,1).
type Random interface {
	Float64() float64
}

// NewRandom returns a PCG source; equal seeds give equal sequences.
func NewRandom(seed int64) Random {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

// Fault stops the engine. It names the agent and instruction that could not
// be executed.
type Fault struct {
	Tick    int
	AgentID int
	Pos     world.Position
	PC      int
	Err     error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("tick %d: agent %d at %v, pc %d: %v", f.Tick, f.AgentID, f.Pos, f.PC, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

type Option func(*Engine)

func WithRandom(r Random) Option {
	return func(e *Engine) { e.rand = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTicks starts the tick counter at n, for engines resumed from a snapshot.
func WithTicks(n int) Option {
	return func(e *Engine) { e.ticks = n }
}

// Engine drives a world one tick at a time. It is not safe for concurrent
// use, and the world must not be mutated while Advance runs.
type Engine struct {
	world *world.World
	rand  Random
	log   *slog.Logger
	ticks int
	fault *Fault
}

func New(w *world.World, opts ...Option) *Engine {
	e := &Engine{
		world: w,
		rand:  NewRandom(0),
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) World() *world.World { return e.world }

func (e *Engine) Ticks() int { return e.ticks }

// Fault returns the fault that halted the engine, or nil.
func (e *Engine) Fault() *Fault { return e.fault }

type slot struct {
	pos   world.Position
	agent *world.Agent
}

// Advance runs one tick: every agent on the grid executes one instruction,
// lowest id first. Effects land immediately, so later agents see what
// earlier ones did in the same tick. A fault halts the engine for good.
func (e *Engine) Advance() error {
	if e.fault != nil {
		return fmt.Errorf("%w: %w", ErrHalted, e.fault)
	}
	e.ticks++

	positions := e.world.Occupied()
	slots := make([]slot, len(positions))
	for i, p := range positions {
		slots[i] = slot{pos: p, agent: e.world.AgentAt(p)}
	}
	slices.SortFunc(slots, func(a, b slot) int { return cmp.Compare(a.agent.ID, b.agent.ID) })

	for _, s := range slots {
		if e.world.AgentAt(s.pos) != s.agent {
			continue
		}
		if err := e.step(s.agent, s.pos); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) step(a *world.Agent, pos world.Position) error {
	pc := a.PC
	ins, err := a.Fetch()
	if err != nil {
		return e.halt(a, pos, pc, err)
	}
	ctx := &Context{
		World: e.world,
		Agent: a,
		Pos:   pos,
		Cell:  e.world.CellAt(pos),
		Rand:  e.rand,
	}
	next, err := ctx.exec(ins)
	if err != nil {
		return e.halt(a, pos, pc, fmt.Errorf("%v: %w", ins, err))
	}
	if next < 0 || next >= len(a.Program) {
		return e.halt(a, pos, pc, fmt.Errorf("%v: %w: %d", ins, ErrJumpOutOfRange, next))
	}
	a.PC = next
	e.log.Debug("step",
		"tick", e.ticks,
		"agent", a.ID,
		"pos", ctx.Pos.String(),
		"pc", pc,
		"instruction", ins.String(),
		"next", next,
	)
	return nil
}

func (e *Engine) halt(a *world.Agent, pos world.Position, pc int, err error) error {
	e.fault = &Fault{Tick: e.ticks, AgentID: a.ID, Pos: pos, PC: pc, Err: err}
	e.log.Error("engine halted", "error", e.fault)
	return e.fault
}

// Run advances up to n ticks. It stops early when ctx is done or the engine
// faults.
func (e *Engine) Run(ctx context.Context, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Advance(); err != nil {
			return err
		}
	}
	return nil
}

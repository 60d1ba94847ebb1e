package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"bugworld/internal/config"
	"bugworld/internal/interpreter"
	"bugworld/internal/logs"
	"bugworld/internal/store"
	"bugworld/internal/world"
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	mapPath := flag.String("map", "", "world map file")
	redPath := flag.String("red", "", "red colony program")
	blackPath := flag.String("black", "", "black colony program")
	ticks := flag.Int("ticks", 0, "ticks to run, 0 runs until interrupted")
	seed := flag.Int64("seed", 0, "seed for flip")
	interval := flag.String("interval", "", "pause between ticks, e.g. 100ms")
	storePath := flag.String("store", "", "SQLite file for snapshots")
	resume := flag.String("resume", "", "run id to resume from its latest snapshot")
	snapshotEvery := flag.Int("snapshot-every", 0, "ticks between snapshots")
	listRuns := flag.Bool("runs", false, "list stored runs and exit")
	verbose := flag.Bool("v", false, "log every agent step")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}
	// flags given on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "map":
			cfg.Map = *mapPath
		case "red":
			cfg.Red = *redPath
		case "black":
			cfg.Black = *blackPath
		case "ticks":
			cfg.Ticks = *ticks
		case "seed":
			cfg.Seed = *seed
		case "interval":
			cfg.Interval = *interval
		case "store":
			cfg.Store = *storePath
		case "resume":
			cfg.Resume = *resume
		case "snapshot-every":
			cfg.SnapshotEvery = *snapshotEvery
		case "v":
			if *verbose {
				cfg.Log.Level = "debug"
			}
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listRuns {
		if err := printRuns(ctx, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := runLogged(ctx, cfg, os.Stderr); err != nil {
		stop()
		log.Fatal(err)
	}
}

// runLogged sets up logging for cfg, runs the simulation and closes the log
// before returning.
func runLogged(ctx context.Context, cfg *config.Config, w io.Writer) (err error) {
	logger, closeLog, err := logs.New(w, logs.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Path(cfg.Log.File),
		Journal: cfg.Log.Journal,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeLog())
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "run failed", "error", err)
		return err
	}
	return nil
}

func printRuns(ctx context.Context, cfg *config.Config) error {
	if cfg.Store == "" {
		return fmt.Errorf("-runs needs -store")
	}
	st, err := store.Open(ctx, cfg.Path(cfg.Store))
	if err != nil {
		return err
	}
	defer st.Close()
	runs, err := st.Runs(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		tick, _, err := st.Latest(ctx, r.ID)
		if err != nil {
			tick = -1
		}
		fmt.Printf("%s  %s  seed %d  latest tick %d\n", r.ID, r.CreatedAt.Format(time.DateTime), r.Seed, tick)
	}
	return nil
}

// session ties an engine to the run it is recorded under, if any.
type session struct {
	engine *interpreter.Engine
	store  *store.Store
	run    uuid.UUID
	log    *slog.Logger
}

func (s *session) snapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	data, err := s.engine.World().Serialize()
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.run, s.engine.Ticks(), data); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "snapshot saved", "tick", s.engine.Ticks(), "bytes", len(data))
	return nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	s := &session{log: logger}
	if cfg.Store != "" {
		st, err := store.Open(ctx, cfg.Path(cfg.Store))
		if err != nil {
			return err
		}
		defer st.Close()
		s.store = st
	}

	var err error
	if cfg.Resume != "" {
		err = s.resume(ctx, cfg)
	} else {
		err = s.start(ctx, cfg)
	}
	if err != nil {
		return err
	}
	if s.store != nil {
		ctx = logs.WithRun(ctx, s.run.String())
	}

	pause, err := cfg.IntervalDuration()
	if err != nil {
		return err
	}
	var tick <-chan time.Time
	if pause > 0 {
		ticker := time.NewTicker(pause)
		defer ticker.Stop()
		tick = ticker.C
	}

	logger.InfoContext(ctx, "simulation started", "tick", s.engine.Ticks(), "ticks", cfg.Ticks)
	var runErr error
	for n := 0; cfg.Ticks == 0 || n < cfg.Ticks; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "interrupted", "tick", s.engine.Ticks())
			break
		}
		if runErr = s.engine.Advance(); runErr != nil {
			break
		}
		if cfg.SnapshotEvery > 0 && s.engine.Ticks()%cfg.SnapshotEvery == 0 {
			if err := s.snapshot(ctx); err != nil {
				return err
			}
		}
	}

	// the final snapshot is written even when interrupted
	if err := s.snapshot(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	report(s.engine)
	return runErr
}

func (s *session) start(ctx context.Context, cfg *config.Config) error {
	mapText, err := os.ReadFile(cfg.Path(cfg.Map))
	if err != nil {
		return err
	}
	red, err := os.ReadFile(cfg.Path(cfg.Red))
	if err != nil {
		return err
	}
	black, err := os.ReadFile(cfg.Path(cfg.Black))
	if err != nil {
		return err
	}
	w, err := world.Build(string(mapText), string(red), string(black))
	if err != nil {
		return err
	}
	s.engine = interpreter.New(w,
		interpreter.WithRandom(interpreter.NewRandom(cfg.Seed)),
		interpreter.WithLogger(s.log),
	)
	if s.store == nil {
		return nil
	}
	if s.run, err = s.store.NewRun(ctx, string(mapText), cfg.Seed); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "run created", "run", s.run.String())
	return s.snapshot(ctx)
}

// resume continues a stored run from its latest snapshot. The random source
// is reseeded from the run's seed and the tick, so a resumed run is
// reproducible but does not replay the draws of an uninterrupted one.
func (s *session) resume(ctx context.Context, cfg *config.Config) error {
	id, err := uuid.Parse(cfg.Resume)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	r, err := s.store.Run(ctx, id)
	if err != nil {
		return err
	}
	tick, data, err := s.store.Latest(ctx, id)
	if err != nil {
		return err
	}
	w, err := world.Deserialize(data)
	if err != nil {
		return fmt.Errorf("run %s tick %d: %w", id, tick, err)
	}
	s.run = id
	s.engine = interpreter.New(w,
		interpreter.WithTicks(tick),
		interpreter.WithRandom(interpreter.NewRandom(r.Seed+int64(tick))),
		interpreter.WithLogger(s.log),
	)
	s.log.InfoContext(ctx, "run resumed", "run", id.String(), "tick", tick)
	return nil
}

func report(e *interpreter.Engine) {
	w := e.World()
	fmt.Print(w.DebugString())
	stats := w.Stats()
	fmt.Printf("tick %d, food on the grid %d\n", e.Ticks(), stats.Food)
	for _, c := range []world.Color{world.Red, world.Black} {
		t := stats.Team(c)
		fmt.Printf("%-5s agents %d carrying %d nest food %d\n", c, t.Agents, t.Carrying, t.NestFood)
	}
}

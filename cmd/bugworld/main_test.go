package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bugworld/internal/config"
	"bugworld/internal/store"
	"bugworld/internal/world"
)

const testMap = `10
10
##########
##....---#
#......--#
#.......-#
#...99...#
#...99...#
#+.......#
#++......#
#+++....##
##########`

const forager = `sense 0 1 3 food
move 2 3
pickup 5 3
flip 3 4 6
turn 1 0
move 0 3
turn 0 0`

func TestRunAndResume(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"world.txt": testMap,
		"red.bug":   forager,
		"black.bug": forager,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	cfg := config.Default()
	cfg.Dir = dir
	cfg.Map, cfg.Red, cfg.Black, cfg.Store = "world.txt", "red.bug", "black.bug", "runs.db"
	cfg.Ticks, cfg.SnapshotEvery, cfg.Seed = 20, 10, 3
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := run(ctx, cfg, logger); err != nil {
		t.Fatal(err)
	}

	st, err := store.Open(ctx, filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	runs, err := st.Runs(ctx)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs %v, %v", runs, err)
	}
	id := runs[0].ID
	if runs[0].Seed != 3 || runs[0].MapText != testMap {
		t.Fatalf("run %+v", runs[0])
	}
	for _, tick := range []int{0, 10, 20} {
		data, err := st.Load(ctx, id, tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		w, err := world.Deserialize(data)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got := w.Stats(); got.Red.Agents != 6 || got.Black.Agents != 6 {
			t.Fatalf("tick %d: agents lost %+v", tick, got)
		}
	}
	st.Close()

	resumed := config.Default()
	resumed.Dir = dir
	resumed.Store, resumed.Resume = "runs.db", id.String()
	resumed.Ticks = 5
	if err := resumed.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := run(ctx, resumed, logger); err != nil {
		t.Fatal(err)
	}

	st, err = store.Open(ctx, filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	tick, _, err := st.Latest(ctx, id)
	if err != nil || tick != 25 {
		t.Fatalf("latest after resume = %d, %v", tick, err)
	}
}

func TestRunBadProgram(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "world.txt"), []byte(testMap), 0o644)
	os.WriteFile(filepath.Join(dir, "red.bug"), []byte("jump 0"), 0o644)
	os.WriteFile(filepath.Join(dir, "black.bug"), []byte(forager), 0o644)

	cfg := config.Default()
	cfg.Dir = dir
	cfg.Map, cfg.Red, cfg.Black = "world.txt", "red.bug", "black.bug"
	if err := run(context.Background(), cfg, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatalf("bad program accepted")
	}
}

func TestRunLoggedClosesLog(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "world.txt"), []byte(testMap), 0o644)
	os.WriteFile(filepath.Join(dir, "red.bug"), []byte(forager), 0o644)
	os.WriteFile(filepath.Join(dir, "black.bug"), []byte(forager), 0o644)

	tests := []struct {
		name    string
		red     string
		wantErr bool
		want    string
	}{
		{"ok", "red.bug", false, `"msg":"simulation started"`},
		{"missing program", "nope.bug", true, `"msg":"run failed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Dir = dir
			cfg.Map, cfg.Red, cfg.Black = "world.txt", tt.red, "black.bug"
			cfg.Ticks = 3
			cfg.Log.File = tt.name + ".log"
			var out strings.Builder
			err := runLogged(context.Background(), cfg, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %t", err, tt.wantErr)
			}
			data, err := os.ReadFile(filepath.Join(dir, cfg.Log.File))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Fatalf("log file lacks %s:\n%s", tt.want, data)
			}
		})
	}
}

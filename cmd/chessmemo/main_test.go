package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/hailam/chessmemo/internal/board"
	"github.com/hailam/chessmemo/internal/config"
	"github.com/hailam/chessmemo/internal/engine"
	"github.com/hailam/chessmemo/internal/zobrist"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.HashBytes = 1 << 20
	cfg.LearnBytes = 64 << 10
	cfg.Version = "test"
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestCommands(t *testing.T) {
	is := is.New(t)
	cfg := testConfig(t)
	log := zerolog.Nop()
	learnFile := filepath.Join(cfg.DataDir, engine.LearnFileName(cfg.Version))

	is.NoErr(run(cfg, []string{"stats"}, log))
	info, err := os.Stat(learnFile)
	is.NoErr(err)
	size := info.Size()

	is.NoErr(run(cfg, []string{"bench", "3"}, log))

	archive := filepath.Join(t.TempDir(), "learn.zst")
	is.NoErr(run(cfg, []string{"archive", archive}, log))
	is.NoErr(os.Remove(learnFile))
	is.NoErr(run(cfg, []string{"restore", archive}, log))

	info, err = os.Stat(learnFile)
	is.NoErr(err)
	is.Equal(info.Size(), size)

	is.NoErr(run(cfg, []string{"reset"}, log))
}

func TestCommandErrors(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{nil, {"fly"}, {"archive"}, {"restore"}, {"bench", "many"}} {
		if err := run(cfg, args, zerolog.Nop()); err == nil {
			t.Errorf("run(%q) succeeded", args)
		}
	}
}

func TestBenchHashStaysInStep(t *testing.T) {
	is := is.New(t)
	rng := newRand()
	mb := newMailbox()
	h := zobrist.Init(zobrist.Default(), mb, mb.castle)
	start := h.Value()

	side := board.White
	for ply := 0; ply < 200; ply++ {
		is.True(mb.play(rng, side, &h).IsValid())
		side = side.Other()
	}
	is.True(h.Value() != start)

	// Every piece on the board plus every piece in hand is one of the 32.
	n := 0
	for sq := board.Square(0); sq < board.Squares; sq++ {
		if _, _, ok := mb.PieceAt(sq); ok {
			n++
		}
	}
	for c := range mb.hands {
		for _, k := range mb.hands[c] {
			n += k
		}
	}
	is.Equal(n, 32)
}

func TestBenchHitsRepeatedPositions(t *testing.T) {
	is := is.New(t)
	mem, err := engine.NewMemory(testConfig(t), nil, zerolog.Nop())
	is.NoErr(err)
	defer mem.Close()

	// Every game starts from the same position with White to move, so
	// later games find what earlier ones stored there.
	res, err := runBench(mem, 3)
	is.NoErr(err)
	is.Equal(res.positions, 3*benchPlies)
	is.True(res.hits >= 1)

	e, ok := mem.Probe(zobrist.Init(zobrist.Default(), newMailbox(), board.AllCastling).Value(), board.White)
	is.True(ok)
	is.True(e.Move.IsValid())
}

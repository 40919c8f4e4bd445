package engine

import (
	"math"
	"strconv"
	"testing"
	"unsafe"

	"github.com/matryer/is"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessmemo/internal/board"
)

const testHash uint64 = 0x8296C4D3A1B2E5F7

func newTestTT(t *testing.T) *TranspositionTable {
	t.Helper()
	tt, err := NewTranspositionTable(1<<20, 64<<10, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTranspositionTable failed: %v", err)
	}
	return tt
}

func TestTTSizing(t *testing.T) {
	is := is.New(t)
	is.Equal(int(unsafe.Sizeof(TTEntry{})), TTEntrySize)

	tt := newTestTT(t)
	is.Equal(tt.Size(), uint64(1<<20/(TTEntrySize*2)))
	is.Equal(tt.Bytes(), uint64(1<<20))
	is.Equal(uint64(1)<<tt.shift, tt.Size())

	// A budget that is not a power of two rounds down.
	is.NoErr(tt.Resize(3 << 20))
	is.Equal(tt.Size(), uint64(2<<20/(TTEntrySize*2)))
	is.Equal(tt.mask, tt.Size()-1)
}

func TestTTStoreProbe(t *testing.T) {
	is := is.New(t)
	tt := newTestTT(t)
	m := board.NewMove(board.NewSquare(4, 1), board.NewSquare(4, 3))

	tt.Store(testHash, board.White, 4, m, 120, 100, 150)

	e, ok := tt.Probe(testHash, board.White)
	is.True(ok)
	is.Equal(e.Bound, BoundExact)
	is.Equal(int(e.Score), 120)
	is.Equal(int(e.Depth), 4)
	is.Equal(e.Move, m)

	// Tables are per side to move.
	_, ok = tt.Probe(testHash, board.Black)
	is.True(!ok)
}

func TestTTReplacement(t *testing.T) {
	m1 := board.NewMove(board.NewSquare(4, 1), board.NewSquare(4, 3))
	m2 := board.NewMove(board.NewSquare(3, 1), board.NewSquare(3, 3))

	t.Run("ShallowerSameGeneration", func(t *testing.T) {
		is := is.New(t)
		tt := newTestTT(t)
		tt.Store(testHash, board.White, 4, m1, 120, 100, 150)
		tt.Store(testHash, board.White, 2, m2, 130, 100, 150)

		e, ok := tt.Probe(testHash, board.White)
		is.True(ok)
		is.Equal(int(e.Depth), 4)
		is.Equal(e.Move, m1)
	})

	t.Run("Deeper", func(t *testing.T) {
		is := is.New(t)
		tt := newTestTT(t)
		tt.Store(testHash, board.White, 4, m1, 120, 100, 150)
		tt.Store(testHash, board.White, 6, m2, 200, 100, 150)

		e, _ := tt.Probe(testHash, board.White)
		is.Equal(int(e.Depth), 6)
		is.Equal(e.Bound, BoundFailHigh)
		is.Equal(e.Move, m2)
	})

	t.Run("StaleGeneration", func(t *testing.T) {
		is := is.New(t)
		tt := newTestTT(t)
		tt.Store(testHash, board.White, 8, m1, 120, 100, 150)
		tt.NewSearch()
		tt.Store(testHash, board.White, 1, m2, 50, 100, 150)

		e, _ := tt.Probe(testHash, board.White)
		is.Equal(int(e.Depth), 1)
		is.Equal(e.Bound, BoundFailLow)
		is.Equal(e.Generation, tt.Generation())
	})

	t.Run("ExactBeatsBound", func(t *testing.T) {
		is := is.New(t)
		tt := newTestTT(t)
		tt.Store(testHash, board.White, 5, m1, 200, 100, 150) // fail high
		tt.Store(testHash, board.White, 3, m2, 120, 100, 150) // exact, shallower

		e, _ := tt.Probe(testHash, board.White)
		is.Equal(e.Bound, BoundExact)
		is.Equal(int(e.Depth), 3)
	})

	t.Run("BoundDoesNotBeatExact", func(t *testing.T) {
		is := is.New(t)
		tt := newTestTT(t)
		tt.Store(testHash, board.White, 5, m1, 120, 100, 150)
		tt.Store(testHash, board.White, 5, m2, 200, 100, 150)

		e, _ := tt.Probe(testHash, board.White)
		is.Equal(e.Bound, BoundExact)
		is.Equal(e.Move, m1)
	})

	t.Run("HitRefreshesGeneration", func(t *testing.T) {
		is := is.New(t)
		tt := newTestTT(t)
		tt.Store(testHash, board.White, 6, m1, 120, 100, 150)
		tt.NewSearch()

		e, ok := tt.Probe(testHash, board.White)
		is.True(ok)
		is.Equal(e.Generation, tt.Generation())

		// Refreshed, so a shallower store no longer replaces it.
		tt.Store(testHash, board.White, 2, m2, 120, 100, 150)
		e, _ = tt.Probe(testHash, board.White)
		is.Equal(int(e.Depth), 6)
	})
}

func TestTTClassify(t *testing.T) {
	tests := []struct {
		name               string
		value, alpha, beta int
		bound              Bound
		depth              int
	}{
		{"exact", 120, 100, 150, BoundExact, 4},
		{"fail high", 150, 100, 150, BoundFailHigh, 4},
		{"fail low", 100, 100, 150, BoundFailLow, 4},
		{"mate found", MateScore - 3, 100, 150, BoundExact, MaxStoredDepth},
		{"mated", -MateScore + 3, 100, 150, BoundExact, MaxStoredDepth},
		{"mate inside window", MateScore - 3, -Infinity, Infinity, BoundExact, 4},
		{"mated inside window", -MateScore + 10, -MateScore, 0, BoundExact, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tt := newTestTT(t)
			tt.Store(testHash, board.Black, 4, board.NoMove, tc.value, tc.alpha, tc.beta)

			e, ok := tt.Probe(testHash, board.Black)
			if !ok {
				t.Fatal("entry not found")
			}
			if e.Bound != tc.bound {
				t.Errorf("bound = %s, want %s", e.Bound, tc.bound)
			}
			if int(e.Depth) != tc.depth {
				t.Errorf("depth = %d, want %d", e.Depth, tc.depth)
			}
			if int(e.Score) != tc.value {
				t.Errorf("score = %d, want %d", e.Score, tc.value)
			}
		})
	}
}

func TestTTMateInWindowReplaceable(t *testing.T) {
	is := is.New(t)
	tt := newTestTT(t)

	tt.Store(testHash, board.White, 3, board.NoMove, MateScore-10, MateScore-110, MateScore+90)
	e, ok := tt.Probe(testHash, board.White)
	is.True(ok)
	is.Equal(e.Bound, BoundExact)
	is.Equal(int(e.Depth), 3)

	// A deeper search of the same position still takes the slot.
	tt.Store(testHash, board.White, 7, board.NoMove, MateScore-8, MateScore-110, MateScore+90)
	e, _ = tt.Probe(testHash, board.White)
	is.Equal(int(e.Depth), 7)
	is.Equal(int(e.Score), MateScore-8)
}

func TestTTInvalidMove(t *testing.T) {
	is := is.New(t)
	tt := newTestTT(t)

	// from == to is never a legal move
	bad := board.NewMove(board.NewSquare(4, 1), board.NewSquare(4, 1))
	tt.Store(testHash, board.White, 3, bad, 10, 0, 50)

	e, ok := tt.Probe(testHash, board.White)
	is.True(ok)
	is.Equal(e.Move, board.NoMove)

	drop := board.NewDrop(board.Knight, board.NewSquare(5, 2))
	tt.Store(testHash, board.White, 5, drop, 10, 0, 50)
	e, _ = tt.Probe(testHash, board.White)
	is.Equal(e.Move, drop)
}

func TestTTCollision(t *testing.T) {
	is := is.New(t)
	tt := newTestTT(t)

	other := testHash ^ (1 << 63) // same slot, different remainder
	tt.Store(testHash, board.White, 4, board.NoMove, 120, 100, 150)

	_, ok := tt.Probe(other, board.White)
	is.True(!ok)
	is.Equal(tt.Stats().Collisions, uint64(1))

	// The colliding position may take the slot over with a deeper result.
	tt.Store(other, board.White, 5, board.NoMove, 60, 100, 150)
	_, ok = tt.Probe(testHash, board.White)
	is.True(!ok)
	e, ok := tt.Probe(other, board.White)
	is.True(ok)
	is.Equal(int(e.Depth), 5)
	is.Equal(tt.Stats().Probes, uint64(3))
}

func TestTTZap(t *testing.T) {
	is := is.New(t)
	tt := newTestTT(t)

	hashes := []uint64{testHash, testHash + 1, 0x0123456789ABCDEF}
	for _, h := range hashes {
		tt.Store(h, board.White, 10, board.NoMove, 120, 100, 150)
		tt.Store(h, board.Black, 10, board.NoMove, 120, 100, 150)
	}

	tt.Zap()

	for _, h := range hashes {
		_, ok := tt.Probe(h, board.White)
		is.True(!ok)
		_, ok = tt.Probe(h, board.Black)
		is.True(!ok)
	}
	is.Equal(tt.HashFull(), 0)

	// Zapped slots carry the previous generation, so any store wins.
	tt.Store(testHash, board.White, 0, board.NoMove, 200, 100, 150)
	e, ok := tt.Probe(testHash, board.White)
	is.True(ok)
	is.Equal(e.Bound, BoundFailHigh)
}

func TestTTGenerationWraps(t *testing.T) {
	tt := newTestTT(t)
	for i := 0; i < Generations; i++ {
		tt.NewSearch()
	}
	if tt.Generation() != 0 {
		t.Errorf("generation = %d after %d searches, want 0", tt.Generation(), Generations)
	}
}

func TestTTBudgetTooSmall(t *testing.T) {
	is := is.New(t)
	tt, err := NewTranspositionTable(1024, 64<<10, zerolog.Nop())
	is.True(errors.Is(err, ErrBudgetTooSmall))
	is.True(tt != nil)
	is.True(!tt.Enabled())

	// Degraded but harmless.
	tt.Store(testHash, board.White, 4, board.NoMove, 120, 100, 150)
	_, ok := tt.Probe(testHash, board.White)
	is.True(!ok)
	tt.Zap()
	is.Equal(tt.HashFull(), 0)

	// Resizing to a sane budget brings it back.
	is.NoErr(tt.Resize(1 << 20))
	tt.Store(testHash, board.White, 4, board.NoMove, 120, 100, 150)
	_, ok = tt.Probe(testHash, board.White)
	is.True(ok)
}

func TestTTBudgetTooLarge(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("budget cap is above the int range")
	}
	is := is.New(t)

	tt, err := NewTranspositionTable(math.MaxInt, 64<<10, zerolog.Nop())
	is.True(errors.Is(err, ErrBudgetTooLarge))
	is.True(!tt.Enabled())

	_, err = NewTranspositionTable(-1, 0, zerolog.Nop())
	is.True(errors.Is(err, ErrBudgetTooSmall))
}

func TestTTContractViolations(t *testing.T) {
	tt := newTestTT(t)

	cases := map[string]func(){
		"negative depth": func() { tt.Store(testHash, board.White, -1, board.NoMove, 0, -1, 1) },
		"deep":           func() { tt.Store(testHash, board.White, MaxStoredDepth+1, board.NoMove, 0, -1, 1) },
		"value":          func() { tt.Store(testHash, board.White, 1, board.NoMove, Infinity+1, -1, 1) },
		"alpha":          func() { tt.Store(testHash, board.White, 1, board.NoMove, 0, -Infinity-1, 1) },
		"beta":           func() { tt.Store(testHash, board.White, 1, board.NoMove, 0, -1, Infinity+1) },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}
}

func TestTTClearAndStats(t *testing.T) {
	is := is.New(t)
	tt := newTestTT(t)

	tt.Store(testHash, board.White, 4, board.NoMove, 120, 100, 150)
	tt.Probe(testHash, board.White)
	tt.Probe(testHash+1, board.White)
	is.Equal(tt.HitRate(), 50.0)
	t.Logf("stats: %s", tt)

	tt.Clear()
	_, ok := tt.Probe(testHash, board.White)
	is.True(!ok)
	is.Equal(tt.Stats().Hits, uint64(0))
}

func TestAdjustScore(t *testing.T) {
	for _, score := range []int{0, 150, -150, MateScore - 5, -MateScore + 5} {
		stored := AdjustScoreToTT(score, 7)
		if got := AdjustScoreFromTT(stored, 7); got != score {
			t.Errorf("round trip of %d gave %d", score, got)
		}
	}
}

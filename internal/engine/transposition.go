package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessmemo/internal/board"
)

// Score bounds shared with the search.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	// MateThreshold is the smallest score treated as a forced mate.
	MateThreshold = MateScore - MaxPly

	// MaxStoredDepth is the depth recorded for mate scores, which hold
	// regardless of how deep the search went.
	MaxStoredDepth = MaxPly
)

// Generations is the number of distinct generation values; the counter
// wraps modulo this.
const Generations = 8

// Bound tags the kind of score stored in an entry.
type Bound uint8

const (
	BoundNone     Bound = iota // empty slot
	BoundExact                 // alpha < score < beta
	BoundFailHigh              // score >= beta, a lower bound
	BoundFailLow               // score <= alpha, an upper bound
)

func (b Bound) String() string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundFailHigh:
		return "fail-high"
	case BoundFailLow:
		return "fail-low"
	default:
		return "none"
	}
}

// TTEntry is one transposition record. Field widths:
// Key 64 bits (fingerprint bits above the index), Move 16, Score 16,
// Depth 8, Bound 8, Generation 8 (0..7).
type TTEntry struct {
	Key        uint64
	Move       board.Move
	Score      int16
	Depth      uint8
	Bound      Bound
	Generation uint8
}

// TTEntrySize is the in-memory size of TTEntry, used to turn a byte
// budget into an entry count.
const TTEntrySize = 16

// maxTableBudget caps a single table allocation.
const maxTableBudget uint64 = 1 << 40

var (
	// ErrBudgetTooSmall is returned when the requested size is below the
	// configured minimum.
	ErrBudgetTooSmall = errors.New("table budget below minimum")
	// ErrBudgetTooLarge is returned when the requested size cannot be
	// allocated.
	ErrBudgetTooLarge = errors.New("table budget too large")
)

// TTStats are diagnostic counters. Collisions count probes that found a
// slot occupied by a different position; fills count stores into slots
// last written by an older generation.
type TTStats struct {
	Probes     uint64
	Hits       uint64
	Collisions uint64
	Fills      uint64
}

// TranspositionTable caches search results in two tables, one per side
// to move. It is not safe for concurrent use.
type TranspositionTable struct {
	entries [board.Colors][]TTEntry
	size    uint64
	mask    uint64
	shift   uint
	minimum int
	gen     uint8

	stats TTStats
	log   zerolog.Logger
}

// NewTranspositionTable creates a table pair filling at most budget
// bytes. The returned table is always non-nil; if the budget is rejected
// it holds no entries, every probe misses and every store is dropped.
func NewTranspositionTable(budget, minimum int, log zerolog.Logger) (*TranspositionTable, error) {
	tt := &TranspositionTable{
		minimum: minimum,
		log:     log.With().Str("table", "transposition").Logger(),
	}
	return tt, tt.Resize(budget)
}

// Resize replaces both tables with new ones for the given budget. Old
// contents are discarded.
func (tt *TranspositionTable) Resize(budget int) error {
	tt.release()

	size, shift, err := tableSize(budget, tt.minimum, TTEntrySize)
	if err != nil {
		tt.log.Error().Err(err).Msg("transposition table disabled")
		return err
	}

	for c := range tt.entries {
		tt.entries[c] = make([]TTEntry, size)
	}
	tt.size = size
	tt.mask = size - 1
	tt.shift = shift
	tt.gen = 0
	tt.stats = TTStats{}

	tt.log.Info().
		Str("size", humanize.IBytes(tt.Bytes())).
		Uint64("entries", size).
		Msg("created transposition table")
	return nil
}

func (tt *TranspositionTable) release() {
	for c := range tt.entries {
		tt.entries[c] = nil
	}
	tt.size, tt.mask, tt.shift = 0, 0, 0
}

// tableSize turns a byte budget for a pair of tables into the entry
// count of each table, rounded down to a power of two, and its log2.
func tableSize(budget, minimum, entrySize int) (uint64, uint, error) {
	if budget < minimum || budget < 0 {
		return 0, 0, errors.Wrapf(ErrBudgetTooSmall, "%s requested, %s required",
			humanize.IBytes(uint64(max(budget, 0))), humanize.IBytes(uint64(minimum)))
	}
	if uint64(budget) > maxTableBudget {
		return 0, 0, errors.Wrapf(ErrBudgetTooLarge, "%d bytes requested", budget)
	}

	n := uint64(budget) / uint64(entrySize*board.Colors)
	if n < 2 {
		return 0, 0, errors.Wrapf(ErrBudgetTooSmall, "%d bytes hold no entries", budget)
	}
	n = roundDownToPowerOf2(n)

	var shift uint
	for 1<<shift < n {
		shift++
	}
	return n, shift, nil
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Enabled reports whether the table holds any entries.
func (tt *TranspositionTable) Enabled() bool {
	return tt.size > 0
}

// Probe looks up a position for the given side to move.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tt *TranspositionTable) Probe(hash uint64, side board.Color) (TTEntry, bool) {
	if tt.size == 0 {
		return TTEntry{}, false
	}
	tt.stats.Probes++

	entry := &tt.entries[side][hash&tt.mask]
	if entry.Bound == BoundNone {
		return TTEntry{}, false
	}
	if entry.Key != hash>>tt.shift {
		tt.stats.Collisions++
		return TTEntry{}, false
	}

	if entry.Depth > MaxStoredDepth {
		panic(fmt.Sprintf("engine: stored depth %d out of range", entry.Depth))
	}

	// A hit keeps the entry alive for this search.
	entry.Generation = tt.gen
	tt.stats.Hits++
	return *entry, true
}

// Store records the result of searching the position with the window
// (alpha, beta). An existing entry is replaced when it belongs to an
// older generation, when this search went deeper, or when this score is
// exact and the stored one is not.
func (tt *TranspositionTable) Store(hash uint64, side board.Color, depth int, move board.Move, value, alpha, beta int) {
	if depth < 0 || depth > MaxStoredDepth {
		panic(fmt.Sprintf("engine: store depth %d out of range", depth))
	}
	checkScore("value", value)
	checkScore("alpha", alpha)
	checkScore("beta", beta)
	if tt.gen >= Generations {
		panic(fmt.Sprintf("engine: generation %d out of range", tt.gen))
	}

	if tt.size == 0 {
		return
	}

	entry := &tt.entries[side][hash&tt.mask]

	stale := entry.Generation != tt.gen
	if stale {
		tt.stats.Fills++
	}

	bound, promoted := classify(value, alpha, beta)

	replace := stale ||
		entry.Bound == BoundNone ||
		depth > int(entry.Depth) ||
		(entry.Bound != BoundExact && bound == BoundExact)
	if !replace {
		return
	}

	if promoted {
		depth = MaxStoredDepth
	}

	entry.Key = hash >> tt.shift
	entry.Score = int16(value)
	entry.Depth = uint8(depth)
	entry.Bound = bound
	entry.Generation = tt.gen
	if move.IsValid() {
		entry.Move = move
	} else {
		entry.Move = board.NoMove
	}
}

// classify tags a score against the window it was searched with. Mate
// scores outside the window are exact: a forced mate is a forced mate.
// promoted reports such a bound turned exact; it holds at any depth.
// A mate found inside the window keeps its search depth.
func classify(value, alpha, beta int) (bound Bound, promoted bool) {
	switch {
	case value > alpha && value < beta:
		return BoundExact, false
	case value >= beta:
		if value >= MateThreshold {
			return BoundExact, true
		}
		return BoundFailHigh, false
	default:
		if value <= -MateThreshold {
			return BoundExact, true
		}
		return BoundFailLow, false
	}
}

func checkScore(name string, v int) {
	if v < -Infinity || v > Infinity {
		panic(fmt.Sprintf("engine: %s %d out of range", name, v))
	}
}

// NewSearch advances the generation. Entries from earlier generations
// lose their protection against replacement.
func (tt *TranspositionTable) NewSearch() {
	tt.gen = (tt.gen + 1) % Generations
}

// Generation returns the current generation.
func (tt *TranspositionTable) Generation() uint8 {
	return tt.gen
}

// Zap invalidates every entry in both tables. Used when the scoring or
// the rules change mid-session. Every slot is marked as written by the
// generation before the current one so the next store always replaces.
func (tt *TranspositionTable) Zap() {
	sentinel := (tt.gen + Generations - 1) % Generations
	for c := range tt.entries {
		for i := range tt.entries[c] {
			e := &tt.entries[c][i]
			e.Key = 0
			e.Depth = 0
			e.Bound = BoundNone
			e.Generation = sentinel
		}
	}
	tt.log.Debug().Uint8("generation", tt.gen).Msg("zapped transposition table")
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for c := range tt.entries {
		clear(tt.entries[c])
	}
	tt.gen = 0
	tt.stats = TTStats{}
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	if tt.size == 0 {
		return 0
	}

	// Sample the first 500 entries of each side
	used := 0
	sampleSize := 500
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	for c := range tt.entries {
		for i := 0; i < sampleSize; i++ {
			e := &tt.entries[c][i]
			if e.Bound != BoundNone && e.Generation == tt.gen {
				used++
			}
		}
	}

	return (used * 1000) / (sampleSize * board.Colors)
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.stats.Probes == 0 {
		return 0
	}
	return float64(tt.stats.Hits) / float64(tt.stats.Probes) * 100
}

// Stats returns the diagnostic counters.
func (tt *TranspositionTable) Stats() TTStats {
	return tt.stats
}

// Size returns the number of entries in each side's table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// Bytes returns the memory held by both tables.
func (tt *TranspositionTable) Bytes() uint64 {
	return tt.size * TTEntrySize * board.Colors
}

func (tt *TranspositionTable) String() string {
	return fmt.Sprintf("%s, probes: %s, hits: %s (%.1f%%), collisions: %s, fills: %s",
		humanize.IBytes(tt.Bytes()),
		humanize.Comma(int64(tt.stats.Probes)),
		humanize.Comma(int64(tt.stats.Hits)),
		tt.HitRate(),
		humanize.Comma(int64(tt.stats.Collisions)),
		humanize.Comma(int64(tt.stats.Fills)),
	)
}

// AdjustScoreFromTT converts a stored mate score back to a distance from
// the current ply.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateThreshold {
		return score - ply
	}
	if score < -MateThreshold {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateThreshold {
		return score + ply
	}
	if score < -MateThreshold {
		return score - ply
	}
	return score
}

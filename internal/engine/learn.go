package engine

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessmemo/internal/board"
)

// Learning constants.
const (
	// LearnValueLimit bounds every accumulated learn value.
	LearnValueLimit = 1000
	// LearnDivisor scales a stored value down to a search bonus.
	LearnDivisor = 10
	// MisleadingDivisor dampens a game whose result contradicts the first
	// decisive evaluation, such as a win on time from a lost position.
	MisleadingDivisor = 3
	// agingDivisor removes 1% of every value after each learning pass.
	agingDivisor = 100
)

// Rules is the variant being played.
type Rules uint8

const (
	RulesCrazyhouse Rules = iota
	RulesBughouse
)

func (r Rules) String() string {
	if r == RulesBughouse {
		return "bughouse"
	}
	return "crazyhouse"
}

// ParseRules parses a variant name.
func ParseRules(s string) (Rules, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crazyhouse", "zh":
		return RulesCrazyhouse, nil
	case "bughouse", "bug":
		return RulesBughouse, nil
	}
	return RulesCrazyhouse, errors.Errorf("unknown rules %q", s)
}

// LearnEntry is one learned position: the fingerprint bits above the
// index and the accumulated score for the side to move.
type LearnEntry struct {
	Key   uint64
	Value int16
}

// LearnEntrySize is the size of one learn record in memory and on disk.
const LearnEntrySize = 16

// GameOutcome describes a finished game for learning.
type GameOutcome struct {
	// Points won (positive) or lost (negative) by the engine.
	Points int
	// FirstBigPly is the ply at which the evaluation first became
	// decisive, or 0 if it never did.
	FirstBigPly int
	// FirstBigScore is that decisive evaluation, from the engine's view.
	FirstBigScore int
	// EngineSide is the color the engine played.
	EngineSide board.Color
}

// LearnSummary describes the content of a learn table.
type LearnSummary struct {
	Positions int
	Highest   int
}

// LearnTable accumulates, across games, how good the opening positions
// of finished games turned out to be. Unlike the transposition table it
// survives restarts (see SaveFile and LoadFile).
type LearnTable struct {
	entries [board.Colors][]LearnEntry
	size    uint64
	mask    uint64
	shift   uint
	minimum int

	enabled bool
	rules   Rules
	log     zerolog.Logger
}

// NewLearnTable creates a learn table pair filling at most budget bytes.
// Failure semantics match NewTranspositionTable.
func NewLearnTable(budget, minimum int, log zerolog.Logger) (*LearnTable, error) {
	lt := &LearnTable{
		minimum: minimum,
		enabled: true,
		log:     log.With().Str("table", "learn").Logger(),
	}
	return lt, lt.Resize(budget)
}

// Resize replaces both tables with empty ones for the given budget.
func (lt *LearnTable) Resize(budget int) error {
	lt.release()

	size, shift, err := tableSize(budget, lt.minimum, LearnEntrySize)
	if err != nil {
		lt.log.Error().Err(err).Msg("learn table disabled")
		return err
	}

	for c := range lt.entries {
		lt.entries[c] = make([]LearnEntry, size)
	}
	lt.size = size
	lt.mask = size - 1
	lt.shift = shift

	lt.log.Info().
		Str("size", humanize.IBytes(lt.Bytes())).
		Uint64("entries", size).
		Msg("created learn table")
	return nil
}

func (lt *LearnTable) release() {
	for c := range lt.entries {
		lt.entries[c] = nil
	}
	lt.size, lt.mask, lt.shift = 0, 0, 0
}

// SetEnabled switches learning on or off.
func (lt *LearnTable) SetEnabled(on bool) {
	lt.enabled = on
}

// Enabled reports whether Check may return learned values.
func (lt *LearnTable) Enabled() bool {
	return lt.enabled && lt.size > 0
}

// SetRules tells the table which variant is being played.
func (lt *LearnTable) SetRules(r Rules) {
	lt.rules = r
}

// Size returns the number of entries in each side's table.
func (lt *LearnTable) Size() uint64 {
	return lt.size
}

// Bytes returns the memory held by both tables.
func (lt *LearnTable) Bytes() uint64 {
	return lt.size * LearnEntrySize * board.Colors
}

// Entry returns the raw slot for a side and index.
func (lt *LearnTable) Entry(side board.Color, index uint64) LearnEntry {
	return lt.entries[side][index]
}

// Check returns the learned bonus for the position, within
// ±LearnValueLimit/LearnDivisor, or 0 when nothing is known.
func (lt *LearnTable) Check(hash uint64, side board.Color) int {
	if !lt.enabled || lt.rules == RulesBughouse || lt.size == 0 {
		return 0
	}

	e := &lt.entries[side][hash&lt.mask]
	if e.Key != hash>>lt.shift {
		return 0
	}

	if e.Value > LearnValueLimit || e.Value < -LearnValueLimit {
		panic(fmt.Sprintf("engine: learn value %d out of range", e.Value))
	}
	return int(e.Value) / LearnDivisor
}

// Learn folds the outcome of a finished game back into the table. The
// game is walked backwards from its end; every position up to the first
// decisive evaluation where the opponent was to move receives the
// points, with the amount shrinking as the walk nears the start. A slot
// held by a different position is taken over. Afterwards every entry
// ages.
func (lt *LearnTable) Learn(outcome GameOutcome, replay board.Replay) {
	if lt.size == 0 {
		return
	}

	points := outcome.Points
	if (outcome.FirstBigScore > 0 && points < 0) || (outcome.FirstBigScore < 0 && points > 0) {
		lt.log.Debug().Int("points", points).Msg("result contradicts evaluation, learning lightly")
		points /= MisleadingDivisor
	}

	var plies []board.PlyRecord
	for {
		rec, ok := replay.Unplay()
		if !ok {
			break
		}
		plies = append(plies, rec)
	}

	horizon := outcome.FirstBigPly
	if horizon <= 0 {
		// no decisive evaluation: learn from the whole game
		horizon = len(plies)
	}
	step := max(horizon/2, 1)

	stored := 0
	for _, rec := range plies {
		if rec.Ply > horizon || rec.SideToMove == outcome.EngineSide {
			continue
		}

		e := &lt.entries[rec.SideToMove][rec.Hash&lt.mask]
		key := rec.Hash >> lt.shift
		if e.Key != key {
			e.Key = key
			e.Value = 0
		}
		e.Value = int16(clampLearn(int(e.Value) + points))
		stored++

		points -= points / step
	}

	lt.Age()

	s := lt.Summary()
	lt.log.Info().
		Int("outcome", outcome.Points).
		Int("horizon", horizon).
		Int("stored", stored).
		Int("positions", s.Positions).
		Int("highest", s.Highest).
		Msg("learned from game")
}

func clampLearn(v int) int {
	if v > LearnValueLimit {
		return LearnValueLimit
	}
	if v < -LearnValueLimit {
		return -LearnValueLimit
	}
	return v
}

// Age lets every learned value fade by 1% so lines that stop being
// played are slowly forgotten.
func (lt *LearnTable) Age() {
	for c := range lt.entries {
		for i := range lt.entries[c] {
			e := &lt.entries[c][i]
			e.Value -= e.Value / agingDivisor
		}
	}
}

// Clear forgets everything.
func (lt *LearnTable) Clear() {
	for c := range lt.entries {
		clear(lt.entries[c])
	}
}

// Summary counts the learned positions and finds the value with the
// largest magnitude.
func (lt *LearnTable) Summary() LearnSummary {
	var s LearnSummary
	for c := range lt.entries {
		for i := range lt.entries[c] {
			v := int(lt.entries[c][i].Value)
			if v == 0 {
				continue
			}
			s.Positions++
			if abs(v) > abs(s.Highest) {
				s.Highest = v
			}
		}
	}
	return s
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

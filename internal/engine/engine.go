// Package engine holds the search memory of the crazyhouse engine: the
// transposition table the search consults on every node and the learn
// table that carries opening experience from one game to the next.
package engine

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessmemo/internal/board"
	"github.com/hailam/chessmemo/internal/config"
	"github.com/hailam/chessmemo/internal/storage"
)

// SessionJournal records learning passes. storage.Storage satisfies it.
type SessionJournal interface {
	RecordSession(storage.Session) (string, error)
}

// Memory owns both tables for the lifetime of the process. The entry
// point constructs it, hands it to the search by reference and closes it
// on shutdown.
type Memory struct {
	tt        *TranspositionTable
	learn     *LearnTable
	rules     Rules
	learning  bool
	version   string
	learnPath string
	loaded    bool
	journal   SessionJournal
	log       zerolog.Logger
}

// NewMemory creates the transposition and learn tables described by cfg.
// The learn file lives in cfg.DataDir. journal may be nil.
//
// A rejected budget disables the affected table and is returned as the
// error, but the Memory is still returned and safe to use: the search
// just runs without that table.
func NewMemory(cfg config.Config, journal SessionJournal, log zerolog.Logger) (*Memory, error) {
	rules, err := ParseRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	m := &Memory{
		rules:     rules,
		learning:  cfg.Learning,
		version:   cfg.Version,
		learnPath: storage.LearnFilePath(cfg.DataDir, LearnFileName(cfg.Version)),
		journal:   journal,
		log:       log,
	}

	tt, ttErr := NewTranspositionTable(cfg.HashBytes, cfg.MinHashBytes, log)
	learn, learnErr := NewLearnTable(cfg.LearnBytes, cfg.MinLearnBytes, log)
	learn.SetEnabled(cfg.Learning)
	learn.SetRules(rules)

	m.tt = tt
	m.learn = learn

	switch {
	case ttErr != nil:
		return m, errors.Wrap(ttErr, "transposition table")
	case learnErr != nil:
		return m, errors.Wrap(learnErr, "learn table")
	}
	return m, nil
}

// TT returns the transposition table.
func (m *Memory) TT() *TranspositionTable {
	return m.tt
}

// Learn returns the learn table.
func (m *Memory) Learn() *LearnTable {
	return m.learn
}

// LearnPath returns the learn file location.
func (m *Memory) LearnPath() string {
	return m.learnPath
}

// Resize rebuilds the transposition table for a new budget.
func (m *Memory) Resize(budget int) error {
	return m.tt.Resize(budget)
}

// NewSearch starts a new search generation.
func (m *Memory) NewSearch() {
	m.tt.NewSearch()
}

// SetRules switches the variant. Cached scores were computed under the
// old rules, so the transposition table is zapped.
func (m *Memory) SetRules(r Rules) {
	if r == m.rules {
		return
	}
	m.rules = r
	m.learn.SetRules(r)
	m.tt.Zap()
	m.log.Info().Stringer("rules", r).Msg("rules changed")
}

// Rules returns the current variant.
func (m *Memory) Rules() Rules {
	return m.rules
}

// Store records a search result for a position.
func (m *Memory) Store(hash uint64, side board.Color, depth int, move board.Move, value, alpha, beta int) {
	m.tt.Store(hash, side, depth, move, value, alpha, beta)
}

// Probe looks up a position.
func (m *Memory) Probe(hash uint64, side board.Color) (TTEntry, bool) {
	return m.tt.Probe(hash, side)
}

// LearnBonus returns the learned root bonus for a position.
func (m *Memory) LearnBonus(hash uint64, side board.Color) int {
	return m.learn.Check(hash, side)
}

// LoadLearning reads the learn file, creating it on first use. It does
// nothing while learning is off.
func (m *Memory) LoadLearning() error {
	if !m.learning || m.learn.Size() == 0 {
		return nil
	}
	if err := m.learn.LoadFile(m.learnPath); err != nil {
		return err
	}
	m.loaded = true
	return nil
}

// SaveLearning writes the learn file.
func (m *Memory) SaveLearning() error {
	if !m.learning || m.learn.Size() == 0 {
		return nil
	}
	return m.learn.SaveFile(m.learnPath)
}

// FinishGame learns from a finished game, writes the learn file and
// records the pass in the journal. The learn file is loaded first if
// this process has not read it yet.
func (m *Memory) FinishGame(outcome GameOutcome, replay board.Replay) error {
	if !m.learning || m.rules == RulesBughouse || m.learn.Size() == 0 {
		return nil
	}

	// Learning into a table that never read the file would replace the
	// file with this one game.
	if !m.loaded {
		if err := m.LoadLearning(); err != nil {
			return err
		}
	}

	m.learn.Learn(outcome, replay)

	if err := m.SaveLearning(); err != nil {
		return err
	}

	if m.journal == nil {
		return nil
	}

	horizon := outcome.FirstBigPly
	s := m.learn.Summary()
	id, err := m.journal.RecordSession(storage.Session{
		Version:    m.version,
		Rules:      m.rules.String(),
		EngineSide: outcome.EngineSide.String(),
		Points:     outcome.Points,
		Horizon:    horizon,
		Positions:  s.Positions,
		Highest:    s.Highest,
	})
	if err != nil {
		return err
	}
	m.log.Debug().Str("session", id).Msg("recorded learning session")
	return nil
}

// Close saves the learn file, if it was loaded, and releases both
// tables.
func (m *Memory) Close() error {
	var err error
	if m.loaded {
		err = m.SaveLearning()
	}
	m.tt.release()
	m.learn.release()
	return err
}

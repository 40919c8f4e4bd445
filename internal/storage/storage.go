package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Storage keys
const (
	keyStats         = "stats"
	keySessionPrefix = "session/"
)

// Session is one learning pass over a finished game.
type Session struct {
	ID         string    `json:"id"`
	Version    string    `json:"version"`
	Rules      string    `json:"rules"`
	EngineSide string    `json:"engine_side"`
	Points     int       `json:"points"`
	Horizon    int       `json:"horizon"`
	Positions  int       `json:"positions"` // learned positions after the pass
	Highest    int       `json:"highest"`
	Finished   time.Time `json:"finished"`
}

// LearnStats aggregates every recorded session.
type LearnStats struct {
	Sessions   int       `json:"sessions"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	Draws      int       `json:"draws"`
	PointsWon  int       `json:"points_won"`
	PointsLost int       `json:"points_lost"`
	LastID     string    `json:"last_id"`
	LastPlayed time.Time `json:"last_played"`
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens (or creates) the journal in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", dir)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordSession stores a session under a fresh id and folds it into the
// aggregate statistics. The id is returned.
func (s *Storage) RecordSession(sess Session) (string, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Finished.IsZero() {
		sess.Finished = time.Now()
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stats, err := loadStats(txn)
		if err != nil {
			return err
		}

		stats.Sessions++
		switch {
		case sess.Points > 0:
			stats.Wins++
			stats.PointsWon += sess.Points
		case sess.Points < 0:
			stats.Losses++
			stats.PointsLost -= sess.Points
		default:
			stats.Draws++
		}
		stats.LastID = sess.ID
		stats.LastPlayed = sess.Finished

		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(keySessionPrefix+sess.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), statsData)
	})
	if err != nil {
		return "", errors.Wrap(err, "record session")
	}
	return sess.ID, nil
}

// LoadSession returns a recorded session by id.
func (s *Storage) LoadSession(id string) (*Session, error) {
	var sess Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keySessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load session %s", id)
	}
	return &sess, nil
}

// Sessions returns every recorded session in key order.
func (s *Storage) Sessions() ([]Session, error) {
	var out []Session

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keySessionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var sess Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sess)
			})
			if err != nil {
				return err
			}
			out = append(out, sess)
		}
		return nil
	})
	return out, err
}

// LoadStats loads the aggregate statistics, empty if nothing was recorded.
func (s *Storage) LoadStats() (*LearnStats, error) {
	var stats *LearnStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*LearnStats, error) {
	stats := &LearnStats{}

	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	return stats, err
}

// Reset removes every session and the statistics.
func (s *Storage) Reset() error {
	return s.db.DropAll()
}

// WinRate returns the share of won sessions as a percentage (0-100).
func (s *LearnStats) WinRate() float64 {
	if s.Sessions == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Sessions) * 100
}

func (s *LearnStats) String() string {
	return fmt.Sprintf("%d sessions (+%d -%d =%d), %.1f%% won",
		s.Sessions, s.Wins, s.Losses, s.Draws, s.WinRate())
}

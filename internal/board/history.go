package board

// PlyRecord is what the board collaborator remembers about one position
// of a finished game.
type PlyRecord struct {
	Hash       uint64
	SideToMove Color
	Ply        int // half-moves played before this position
}

// Replay walks a finished game backwards, one position per call, the
// way repeated unmake calls would. Unplay returns false once the start
// position has been passed.
type Replay interface {
	Unplay() (PlyRecord, bool)
}

// History records the fingerprint and side to move of every position
// reached in a game, starting with the initial position.
type History struct {
	records []PlyRecord
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Record appends the position reached after the latest move.
func (h *History) Record(hash uint64, sideToMove Color) {
	h.records = append(h.records, PlyRecord{
		Hash:       hash,
		SideToMove: sideToMove,
		Ply:        len(h.records),
	})
}

// Len returns the number of recorded positions.
func (h *History) Len() int {
	return len(h.records)
}

// Plies returns the number of half-moves played.
func (h *History) Plies() int {
	if len(h.records) == 0 {
		return 0
	}
	return len(h.records) - 1
}

// Reset forgets the game.
func (h *History) Reset() {
	h.records = h.records[:0]
}

// Replay returns a single-use backward walk over the game. The final
// position is the one the walk starts from, so the first Unplay yields
// the position before the last move.
func (h *History) Replay() Replay {
	return &historyReplay{records: h.records, next: len(h.records) - 2}
}

type historyReplay struct {
	records []PlyRecord
	next    int
}

func (r *historyReplay) Unplay() (PlyRecord, bool) {
	if r.next < 0 {
		return PlyRecord{}, false
	}
	rec := r.records[r.next]
	r.next--
	return rec, true
}

package zobrist

import (
	"fmt"

	"github.com/hailam/chessmemo/internal/board"
)

// Placement is the part of the board collaborator that Init reads.
type Placement interface {
	PieceAt(sq board.Square) (board.Color, board.PieceType, bool)
}

// Hash is a position fingerprint bound to a key table. The zero value
// is not usable; obtain one from Init.
//
// Init combines piece keys by addition while every toggle uses XOR, so a
// value maintained incrementally is only guaranteed to match a fresh
// Init while each square has been toggled an even number of times since
// that Init. Existing learn files depend on this exact mixing; do not
// switch Init to XOR without migrating them.
type Hash struct {
	keys  *Keys
	value uint64
}

// Init computes the fingerprint of a position from scratch: the sum of
// the piece-on-square keys of every occupied square, then the XOR of the
// castle key for every right still held.
func Init(keys *Keys, p Placement, castle board.CastleRights) Hash {
	h := Hash{keys: keys}

	for sq := board.Square(0); sq < board.Squares; sq++ {
		c, pt, ok := p.PieceAt(sq)
		if !ok {
			continue
		}
		checkPiece(c, pt)
		h.value += keys.Piece[c][pt][sq]
	}

	for c := board.White; c <= board.Black; c++ {
		for side := board.KingSide; side <= board.QueenSide; side++ {
			if castle.Has(c, side) {
				h.value ^= keys.Castle[c][side]
			}
		}
	}

	return h
}

// Value returns the 64-bit fingerprint.
func (h Hash) Value() uint64 {
	return h.value
}

// TogglePiece is called once when a piece leaves a square and once when
// it lands on one.
func (h *Hash) TogglePiece(c board.Color, pt board.PieceType, sq board.Square) {
	checkPiece(c, pt)
	if !sq.IsValid() {
		panic(fmt.Sprintf("zobrist: square %d out of range", sq))
	}
	h.value ^= h.keys.Piece[c][pt][sq]
}

// AddToHand is called after a piece has been added to a hand; newCount
// is the count after the addition.
func (h *Hash) AddToHand(c board.Color, pt board.PieceType, newCount int) {
	checkPiece(c, pt)
	checkCount(newCount)
	h.value ^= h.keys.Hand[c][pt][newCount]
}

// RemoveFromHand is called after a piece has been taken from a hand;
// newCount is the count after the removal. It undoes the AddToHand that
// produced newCount+1.
func (h *Hash) RemoveFromHand(c board.Color, pt board.PieceType, newCount int) {
	checkPiece(c, pt)
	checkCount(newCount + 1)
	h.value ^= h.keys.Hand[c][pt][newCount+1]
}

// ToggleCastle is called whenever a castling right is gained or lost.
func (h *Hash) ToggleCastle(c board.Color, side board.CastlingSide) {
	if !c.IsValid() || side > board.QueenSide {
		panic(fmt.Sprintf("zobrist: castle right %d/%d out of range", c, side))
	}
	h.value ^= h.keys.Castle[c][side]
}

// ToggleEnPassant adds a newly available en passant square; calling it
// again with the same square retracts it.
func (h *Hash) ToggleEnPassant(sq board.Square) {
	if int(sq) >= enPassantSlots {
		panic(fmt.Sprintf("zobrist: en passant square %d out of range", sq))
	}
	h.value ^= h.keys.EnPassant[sq]
}

func checkPiece(c board.Color, pt board.PieceType) {
	if !c.IsValid() || !pt.IsValid() {
		panic(fmt.Sprintf("zobrist: piece %d/%d out of range", c, pt))
	}
}

func checkCount(n int) {
	if n < 0 || n > board.MaxInHand {
		panic(fmt.Sprintf("zobrist: hand count %d out of range", n))
	}
}

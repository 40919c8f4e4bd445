package zobrist

import (
	"sync"

	"github.com/hailam/chessmemo/internal/board"
)

// enPassantSlots covers every board square plus NoSquare and OffBoard.
const enPassantSlots = board.Squares + 2

// Keys holds one random number per independent contribution to the
// fingerprint.
type Keys struct {
	Piece     [board.Colors][board.PieceTypes][board.Squares]uint64
	Hand      [board.Colors][board.PieceTypes][board.MaxInHand + 1]uint64
	Castle    [board.Colors][board.CastlingSides]uint64
	EnPassant [enPassantSlots]uint64
}

// NewKeys fills a table from a generator seeded with seed. The draw
// order (pieces, hands, en passant, castling) is part of the on-disk
// compatibility contract.
func NewKeys(seed uint64) *Keys {
	g := NewGenerator(seed)
	k := &Keys{}

	for c := 0; c < board.Colors; c++ {
		for pt := 0; pt < board.PieceTypes; pt++ {
			for sq := 0; sq < board.Squares; sq++ {
				k.Piece[c][pt][sq] = g.Next()
			}
		}
	}

	for c := 0; c < board.Colors; c++ {
		for pt := 0; pt < board.PieceTypes; pt++ {
			for n := 0; n <= board.MaxInHand; n++ {
				k.Hand[c][pt][n] = g.Next()
			}
		}
	}

	for sq := 0; sq < enPassantSlots; sq++ {
		k.EnPassant[sq] = g.Next()
	}

	k.Castle[board.White][board.KingSide] = g.Next()
	k.Castle[board.White][board.QueenSide] = g.Next()
	k.Castle[board.Black][board.KingSide] = g.Next()
	k.Castle[board.Black][board.QueenSide] = g.Next()

	return k
}

var (
	defaultOnce sync.Once
	defaultKeys *Keys
)

// Default returns the process-wide table built from Seed.
func Default() *Keys {
	defaultOnce.Do(func() {
		defaultKeys = NewKeys(Seed)
	})
	return defaultKeys
}

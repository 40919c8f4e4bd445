// Package board holds the value types shared between the search memory
// and the board collaborator: colors, pieces, squares, moves, castling
// sides and the recorded game history.
package board

import "fmt"

// Square represents a square on the chess board (0-63).
// Uses Little-Endian Rank-File Mapping: A1=0, H1=7, A8=56, H8=63.
type Square uint8

// Square constants for the corners and the two sentinels.
const (
	A1 Square = 0
	H1 Square = 7
	A8 Square = 56
	H8 Square = 63

	// NoSquare means "no en passant target".
	NoSquare Square = 64
	// OffBoard is used by the board collaborator for pieces in hand.
	OffBoard Square = 65
)

// Squares is the number of board squares.
const Squares = 64

// File returns the file (column) of the square (0-7, where 0=a, 7=h).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank (row) of the square (0-7, where 0=1, 7=8).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	switch {
	case sq == OffBoard:
		return "@"
	case sq >= NoSquare:
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// IsValid returns true if the square is a valid board square (0-63).
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// CastlingSide selects the king-side or queen-side castling right.
type CastlingSide uint8

const (
	KingSide CastlingSide = iota
	QueenSide
)

// CastlingSides is the number of castling directions per color.
const CastlingSides = 2

// CastleRights is the set of castling rights still held, one bit per
// color and side.
type CastleRights uint8

const (
	WhiteKingSideCastle  CastleRights = 1 << iota // K
	WhiteQueenSideCastle                          // Q
	BlackKingSideCastle                           // k
	BlackQueenSideCastle                          // q
	NoCastling           CastleRights = 0
	AllCastling          CastleRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// CastleRight returns the single right for a color and side.
func CastleRight(c Color, side CastlingSide) CastleRights {
	return CastleRights(1) << (uint(c)*2 + uint(side))
}

// Has returns true if the given color may still castle on the given side.
func (cr CastleRights) Has(c Color, side CastlingSide) bool {
	return cr&CastleRight(c, side) != 0
}

// String returns the FEN castling rights string.
func (cr CastleRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

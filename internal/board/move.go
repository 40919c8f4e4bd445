package board

import "fmt"

// Move encodes a crazyhouse move in 16 bits:
// bits 0-5:   from square (0-63), or the dropped piece type for drops
// bits 6-11:  to square (0-63)
// bits 12-15: kind (normal, en passant, castling, drop, promotion to N/B/R/Q)
type Move uint16

// Move kinds.
const (
	KindNormal    uint16 = 0 << 12
	KindEnPassant uint16 = 1 << 12
	KindCastling  uint16 = 2 << 12
	KindDrop      uint16 = 3 << 12
	kindPromoBase uint16 = 4 << 12 // 4..7: promotion to Knight..Queen
	kindMask      uint16 = 0xF000
)

// NoMove represents an invalid or null move. It is also what the
// transposition cache stores when a search produced no usable move.
const NoMove Move = 0

// NewMove creates a normal move.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewDrop creates a drop of a piece from hand onto an empty square.
func NewDrop(pt PieceType, to Square) Move {
	return Move(pt) | Move(to)<<6 | Move(KindDrop)
}

// From returns the origin square. Meaningless for drops.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Kind returns the move kind bits.
func (m Move) Kind() uint16 {
	return uint16(m) & kindMask
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Kind() >= kindPromoBase
}

// Promotion returns the promotion piece type (only valid if IsPromotion() is true).
func (m Move) Promotion() PieceType {
	return PieceType((m.Kind()-kindPromoBase)>>12) + Knight
}

// IsDrop returns true if this move places a piece from hand.
func (m Move) IsDrop() bool {
	return m.Kind() == KindDrop
}

// DropPiece returns the dropped piece type (only valid if IsDrop() is true).
func (m Move) DropPiece() PieceType {
	return PieceType(m & 0x3F)
}

// IsValid reports whether m is a well-formed move. A move whose origin
// equals its destination can never be played.
func (m Move) IsValid() bool {
	if m == NoMove {
		return false
	}
	if m.IsDrop() {
		return m.DropPiece() < King
	}
	return m.From() != m.To()
}

// String returns the move in xboard format (e.g., "e2e4", "e7e8q", "N@f3").
func (m Move) String() string {
	if !m.IsValid() {
		return "0000"
	}

	if m.IsDrop() {
		return fmt.Sprintf("%c@%s", m.DropPiece().Char()-'a'+'A', m.To())
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}

	return s
}

package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Colors is the number of playing colors.
const Colors = 2

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// IsValid returns true for White and Black.
func (c Color) IsValid() bool {
	return c < NoColor
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

// PieceTypes is the number of real piece types.
const PieceTypes = 6

// MaxInHand is the largest number of one piece type a player can hold
// in crazyhouse (all 16 pawns).
const MaxInHand = 16

// IsValid returns true for Pawn through King.
func (pt PieceType) IsValid() bool {
	return pt < NoPieceType
}

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{'p', 'n', 'b', 'r', 'q', 'k', ' '}
	if pt > NoPieceType {
		return ' '
	}
	return chars[pt]
}

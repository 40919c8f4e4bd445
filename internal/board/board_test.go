package board

import "testing"

func TestHistoryReplay(t *testing.T) {
	h := NewHistory()
	side := White
	for i := 0; i < 5; i++ {
		h.Record(uint64(100+i), side)
		side = side.Other()
	}

	if h.Plies() != 4 {
		t.Fatalf("Plies = %d, want 4", h.Plies())
	}

	r := h.Replay()
	want := []int{3, 2, 1, 0}
	for _, ply := range want {
		rec, ok := r.Unplay()
		if !ok {
			t.Fatalf("replay ended early at ply %d", ply)
		}
		if rec.Ply != ply || rec.Hash != uint64(100+ply) {
			t.Errorf("got ply %d hash %d, want ply %d", rec.Ply, rec.Hash, ply)
		}
		wantSide := White
		if ply%2 == 1 {
			wantSide = Black
		}
		if rec.SideToMove != wantSide {
			t.Errorf("ply %d: side %s, want %s", ply, rec.SideToMove, wantSide)
		}
	}

	if _, ok := r.Unplay(); ok {
		t.Error("replay went past the start position")
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Replay().Unplay(); ok {
		t.Error("empty history replayed a position")
	}
	h.Record(1, White)
	if _, ok := h.Replay().Unplay(); ok {
		t.Error("a game without moves has nothing to replay")
	}
	h.Reset()
	if h.Len() != 0 {
		t.Error("Reset kept records")
	}
}

// promotion builds the move a board collaborator emits for a pawn
// reaching the last rank.
func promotion(from, to Square, pt PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(kindPromoBase+uint16(pt-Knight)<<12)
}

func TestMoveEncoding(t *testing.T) {
	e2, e4, e8 := NewSquare(4, 1), NewSquare(4, 3), NewSquare(4, 7)
	e7 := NewSquare(4, 6)

	tests := []struct {
		m     Move
		str   string
		valid bool
	}{
		{NewMove(e2, e4), "e2e4", true},
		{promotion(e7, e8, Queen), "e7e8q", true},
		{promotion(e7, e8, Knight), "e7e8n", true},
		{NewDrop(Knight, NewSquare(5, 2)), "N@f3", true},
		{NoMove, "0000", false},
		{NewMove(e2, e2), "0000", false},
	}

	for _, tc := range tests {
		if got := tc.m.String(); got != tc.str {
			t.Errorf("String() = %q, want %q", got, tc.str)
		}
		if tc.m.IsValid() != tc.valid {
			t.Errorf("%s: IsValid() = %v", tc.str, tc.m.IsValid())
		}
	}

	p := promotion(e7, e8, Rook)
	if !p.IsPromotion() || p.Promotion() != Rook || p.To() != e8 || p.From() != e7 {
		t.Errorf("promotion decoded wrong: %v", p)
	}
	d := NewDrop(Pawn, e4)
	if !d.IsDrop() || d.DropPiece() != Pawn || d.To() != e4 || d.IsPromotion() {
		t.Errorf("drop decoded wrong: %v", d)
	}
	if NewMove(e2, e4).Kind() != KindNormal || d.Kind() != KindDrop {
		t.Error("kind bits mixed up")
	}
}

func TestCastleRights(t *testing.T) {
	cr := AllCastling &^ CastleRight(Black, QueenSide)
	if cr.Has(Black, QueenSide) || !cr.Has(Black, KingSide) || !cr.Has(White, QueenSide) {
		t.Errorf("unexpected rights %s", cr)
	}
	if cr.String() != "KQk" {
		t.Errorf("String() = %q", cr.String())
	}
	if CastleRight(White, KingSide) != WhiteKingSideCastle || CastleRight(Black, QueenSide) != BlackQueenSideCastle {
		t.Error("CastleRight bit layout mismatch")
	}
}

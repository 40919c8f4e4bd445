package main

import (
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/hailam/chessmemo/internal/board"
	"github.com/hailam/chessmemo/internal/engine"
	"github.com/hailam/chessmemo/internal/zobrist"
)

const benchPlies = 160

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

type square struct {
	c  board.Color
	pt board.PieceType
	ok bool
}

// mailbox is a bare piece placement. It knows nothing about legality;
// the bench only needs a stream of plausible positions.
type mailbox struct {
	squares [board.Squares]square
	hands   [board.Colors][board.PieceTypes]int
	castle  board.CastleRights
}

func (mb *mailbox) PieceAt(sq board.Square) (board.Color, board.PieceType, bool) {
	s := mb.squares[sq]
	return s.c, s.pt, s.ok
}

func newMailbox() *mailbox {
	mb := &mailbox{castle: board.AllCastling}
	back := [8]board.PieceType{board.Rook, board.Knight, board.Bishop, board.Queen, board.King, board.Bishop, board.Knight, board.Rook}
	for file := 0; file < 8; file++ {
		mb.squares[board.NewSquare(file, 0)] = square{board.White, back[file], true}
		mb.squares[board.NewSquare(file, 1)] = square{board.White, board.Pawn, true}
		mb.squares[board.NewSquare(file, 6)] = square{board.Black, board.Pawn, true}
		mb.squares[board.NewSquare(file, 7)] = square{board.Black, back[file], true}
	}
	return mb
}

// play makes a random move or drop for side and keeps h in step.
func (mb *mailbox) play(rng *rand.Rand, side board.Color, h *zobrist.Hash) board.Move {
	if rng.Intn(4) == 0 {
		if m, ok := mb.drop(rng, side, h); ok {
			return m
		}
	}

	var own []board.Square
	for sq := board.Square(0); sq < board.Squares; sq++ {
		if s := mb.squares[sq]; s.ok && s.c == side {
			own = append(own, sq)
		}
	}

	for tries := 0; tries < 64; tries++ {
		from := own[rng.Intn(len(own))]
		to := board.Square(rng.Intn(board.Squares))
		dst := mb.squares[to]
		if dst.ok && (dst.c == side || dst.pt == board.King) {
			continue
		}

		pt := mb.squares[from].pt
		if dst.ok {
			h.TogglePiece(dst.c, dst.pt, to)
			mb.hands[side][dst.pt]++
			h.AddToHand(side, dst.pt, mb.hands[side][dst.pt])
		}
		h.TogglePiece(side, pt, from)
		h.TogglePiece(side, pt, to)
		mb.squares[to] = mb.squares[from]
		mb.squares[from] = square{}

		if pt == board.King {
			for _, cs := range [...]board.CastlingSide{board.KingSide, board.QueenSide} {
				if mb.castle.Has(side, cs) {
					h.ToggleCastle(side, cs)
					mb.castle &^= board.CastleRight(side, cs)
				}
			}
		}
		return board.NewMove(from, to)
	}
	return board.NoMove
}

// drop places a piece from side's hand on an empty square, if it holds any.
func (mb *mailbox) drop(rng *rand.Rand, side board.Color, h *zobrist.Hash) (board.Move, bool) {
	for pt := board.Pawn; pt < board.King; pt++ {
		if mb.hands[side][pt] == 0 {
			continue
		}
		to := board.Square(rng.Intn(board.Squares))
		if mb.squares[to].ok {
			return board.NoMove, false
		}
		mb.hands[side][pt]--
		h.RemoveFromHand(side, pt, mb.hands[side][pt])
		h.TogglePiece(side, pt, to)
		mb.squares[to] = square{side, pt, true}
		return board.NewDrop(pt, to), true
	}
	return board.NoMove, false
}

type benchResult struct {
	games, positions, hits int
	last                   board.Move
	elapsed                time.Duration
	learned                engine.LearnSummary
}

// runBench plays random crazyhouse-like games through the position hash,
// the transposition table and a scratch learn table. Each ply follows a
// search node: probe the position, pick a move, store the result under
// the position and side that were probed.
func runBench(mem *engine.Memory, games int) (benchResult, error) {
	rng := newRand()
	keys := zobrist.Default()

	scratch, err := engine.NewLearnTable(max(int(mem.Learn().Bytes()), 64<<10), 0, zerolog.Nop())
	if err != nil {
		return benchResult{}, err
	}

	res := benchResult{games: games}
	start := time.Now()

	for g := 0; g < games; g++ {
		mem.NewSearch()
		mb := newMailbox()
		h := zobrist.Init(keys, mb, mb.castle)
		history := board.NewHistory()
		side := board.White
		history.Record(h.Value(), side)

		for ply := 0; ply < benchPlies; ply++ {
			node := h.Value()
			if _, ok := mem.Probe(node, side); ok {
				res.hits++
			}

			m := mb.play(rng, side, &h)
			value := rng.Intn(1001) - 500
			mem.Store(node, side, rng.Intn(12), m, value, -50, 50)
			res.last = m

			side = side.Other()
			history.Record(h.Value(), side)
			res.positions++
		}

		outcome := engine.GameOutcome{
			Points:     (rng.Intn(3) - 1) * 40,
			EngineSide: board.Color(g & 1),
		}
		scratch.Learn(outcome, history.Replay())
	}

	res.elapsed = time.Since(start)
	res.learned = scratch.Summary()
	return res, nil
}

func bench(mem *engine.Memory, games int, log zerolog.Logger) error {
	res, err := runBench(mem, games)
	if err != nil {
		return err
	}
	pps := float64(res.positions) / res.elapsed.Seconds()

	log.Info().
		Int("games", res.games).
		Str("positions", humanize.Comma(int64(res.positions))).
		Str("pps", humanize.Commaf(float64(int64(pps)))).
		Dur("elapsed", res.elapsed).
		Stringer("last_move", res.last).
		Msg("bench finished")
	log.Info().
		Int("hits", res.hits).
		Int("hashfull", mem.TT().HashFull()).
		Msg(mem.TT().String())
	log.Info().
		Int("positions", res.learned.Positions).
		Int("highest", res.learned.Highest).
		Msg("scratch learn table")
	return nil
}

// Package game is the pure rules engine. Every function is a total,
// synchronous transform from one game value to the next: no I/O, no hidden
// state, and inputs are never mutated. Invalid actions (out-of-range index,
// re-revealing a card) return the input unchanged rather than failing,
// because concurrent clients racing on the shared record can legitimately
// submit the same action twice.
package game

import (
	"math/rand"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/boardgen"
)

// Reveal flips the card at idx face-up and applies the consequences: the
// matching team counter drops, the winner is derived, and the turn passes if
// the card wasn't the active team's own.
//
// Winner precedence: revealing the assassin loses the game for the active
// team no matter what else the reveal did, then an exhausted red count, then
// an exhausted blue count. The turn only switches when no winner was just
// set, a correct guess keeps the turn.
func Reveal(g *codewords.Game, idx int) *codewords.Game {
	if idx < 0 || idx >= len(g.Cards) {
		return g
	}
	if g.Cards[idx].Revealed {
		return g
	}

	out := g.Clone()
	out.Cards[idx].Revealed = true
	typ := out.Cards[idx].Type

	switch typ {
	case codewords.RedCard:
		out.RedRemaining--
	case codewords.BlueCard:
		out.BlueRemaining--
	}

	switch {
	case typ == codewords.AssassinCard:
		w := out.CurrentTeam.Other()
		out.Winner = &w
	case out.RedRemaining == 0:
		w := codewords.RedTeam
		out.Winner = &w
	case out.BlueRemaining == 0:
		w := codewords.BlueTeam
		out.Winner = &w
	default:
		if t, ok := typ.Team(); !ok || t != out.CurrentTeam {
			out.CurrentTeam = out.CurrentTeam.Other()
		}
	}

	return out
}

// EndTurn passes the turn to the other team and clears the active clue. It's
// unconditional, ending a turn with no clue set is fine.
func EndTurn(g *codewords.Game) *codewords.Game {
	out := g.Clone()
	out.CurrentTeam = out.CurrentTeam.Other()
	out.CurrentClue = nil
	return out
}

// GiveClue records the active team's hint for this turn.
func GiveClue(g *codewords.Game, word string, number int) *codewords.Game {
	out := g.Clone()
	out.CurrentClue = &codewords.Clue{
		Word:   word,
		Number: number,
		Team:   out.CurrentTeam,
	}
	return out
}

// Shuffle deals the same 25 words into a fresh random assignment: a new
// starting team, reset counters, everything face-down, no winner and no clue.
// The spymaster seat is left alone here, callers decide whether a shuffle
// re-opens it.
func Shuffle(g *codewords.Game, r *rand.Rand) *codewords.Game {
	words := make([]string, len(g.Cards))
	for i, c := range g.Cards {
		words[i] = c.Word
	}

	starter := boardgen.RandomTeam(r)

	out := g.Clone()
	out.Cards = boardgen.Assign(words, starter, r)
	out.CurrentTeam = starter
	out.RedRemaining, out.BlueRemaining = boardgen.Remaining(starter)
	out.Winner = nil
	out.CurrentClue = nil
	return out
}

// Reset regenerates the game from scratch: new words, new assignment, open
// spymaster seat. The game keeps its ID and creation time, the code players
// joined with stays valid.
func Reset(g *codewords.Game, r *rand.Rand) *codewords.Game {
	out := boardgen.NewGame(g.ID, r)
	out.CreatedAt = g.CreatedAt
	return out
}

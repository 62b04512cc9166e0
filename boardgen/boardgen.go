// Package boardgen generates fresh board layouts: 25 distinct words from the
// static pool, zipped with a uniformly shuffled team assignment.
package boardgen

import (
	"fmt"
	"math/rand"
	"time"

	codewords "github.com/bcspragu/Codewords"
)

var baseTypes = []codewords.CardType{
	codewords.RedCard,
	codewords.RedCard,
	codewords.RedCard,
	codewords.RedCard,
	codewords.RedCard,
	codewords.RedCard,
	codewords.RedCard,
	codewords.RedCard,
	codewords.BlueCard,
	codewords.BlueCard,
	codewords.BlueCard,
	codewords.BlueCard,
	codewords.BlueCard,
	codewords.BlueCard,
	codewords.BlueCard,
	codewords.BlueCard,
	codewords.NeutralCard,
	codewords.NeutralCard,
	codewords.NeutralCard,
	codewords.NeutralCard,
	codewords.NeutralCard,
	codewords.NeutralCard,
	codewords.NeutralCard,
	codewords.AssassinCard,
}

// RandomTeam picks the starting team uniformly.
func RandomTeam(r *rand.Rand) codewords.Team {
	if r.Intn(2) == 0 {
		return codewords.RedTeam
	}
	return codewords.BlueTeam
}

// Words draws n distinct words from the static pool without replacement. The
// pool being smaller than n is a configuration error, not something callers
// recover from.
func Words(n int, r *rand.Rand) []string {
	if len(codewords.Words) < n {
		panic(fmt.Sprintf("boardgen: word pool has %d words, need %d", len(codewords.Words), n))
	}

	words := make([]string, n)
	for i, idx := range r.Perm(len(codewords.Words))[:n] {
		words[i] = codewords.Words[idx]
	}
	return words
}

// Assign zips the given words with a fresh random team assignment: 9 cards
// for the starting team, 8 for the other, 7 neutral and 1 assassin. The
// assignment multiset is permuted with rand.Perm, which is a uniform
// Fisher-Yates shuffle. A comparator-based shuffle isn't an acceptable
// substitute here, it doesn't produce uniform layouts.
func Assign(words []string, starter codewords.Team, r *rand.Rand) []codewords.Card {
	if len(words) != codewords.Size {
		panic(fmt.Sprintf("boardgen: got %d words, board needs %d", len(words), codewords.Size))
	}

	types := make([]codewords.CardType, len(baseTypes))
	copy(types, baseTypes)
	switch starter {
	case codewords.BlueTeam:
		types = append(types, codewords.BlueCard)
	default:
		types = append(types, codewords.RedCard)
	}

	cards := make([]codewords.Card, codewords.Size)
	for i, idx := range r.Perm(len(types)) {
		cards[i] = codewords.Card{
			Word: words[i],
			Type: types[idx],
		}
	}
	return cards
}

// New generates a complete board for the given starting team.
func New(starter codewords.Team, r *rand.Rand) []codewords.Card {
	return Assign(Words(codewords.Size, r), starter, r)
}

// NewGame creates a fresh game record with the given ID. The spymaster seat
// starts open, whoever claims it first gets it.
func NewGame(id codewords.GameID, r *rand.Rand) *codewords.Game {
	starter := RandomTeam(r)

	g := &codewords.Game{
		ID:          id,
		Cards:       New(starter, r),
		CurrentTeam: starter,
		CreatedAt:   time.Now().UnixMilli(),
	}
	g.RedRemaining, g.BlueRemaining = Remaining(starter)
	return g
}

// Remaining returns the starting unrevealed-card counts for a fresh board.
func Remaining(starter codewords.Team) (red, blue int) {
	if starter == codewords.RedTeam {
		return 9, 8
	}
	return 8, 9
}

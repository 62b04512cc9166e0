package game

import (
	"math/rand"
	"sort"
	"testing"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/boardgen"
	"github.com/google/go-cmp/cmp"
)

// testGame builds a red-starting board with a fixed layout: cards 0-8 are
// red, 9-16 blue, 17-23 neutral, 24 the assassin.
func testGame() *codewords.Game {
	var cards []codewords.Card
	add := func(n int, typ codewords.CardType) {
		for i := 0; i < n; i++ {
			cards = append(cards, codewords.Card{
				Word: string(typ) + string(rune('a'+len(cards))),
				Type: typ,
			})
		}
	}
	add(9, codewords.RedCard)
	add(8, codewords.BlueCard)
	add(7, codewords.NeutralCard)
	add(1, codewords.AssassinCard)

	return &codewords.Game{
		ID:            "TESTAB",
		Cards:         cards,
		CurrentTeam:   codewords.RedTeam,
		RedRemaining:  9,
		BlueRemaining: 8,
		CreatedAt:     1234,
	}
}

func TestReveal_OwnCardKeepsTurn(t *testing.T) {
	g := testGame()
	got := Reveal(g, 0)

	if !got.Cards[0].Revealed {
		t.Error("card 0 was not revealed")
	}
	if got.RedRemaining != 8 {
		t.Errorf("got RedRemaining = %d, want 8", got.RedRemaining)
	}
	if got.CurrentTeam != codewords.RedTeam {
		t.Errorf("turn switched to %q on a correct guess", got.CurrentTeam)
	}
	if got.Winner != nil {
		t.Errorf("unexpected winner %q", *got.Winner)
	}

	// The input must be untouched.
	if g.Cards[0].Revealed || g.RedRemaining != 9 {
		t.Error("Reveal mutated its input")
	}
}

func TestReveal_WrongCardSwitchesTurn(t *testing.T) {
	g := testGame()

	// Red revealing a blue card hands over the turn.
	got := Reveal(g, 9)
	if got.BlueRemaining != 7 {
		t.Errorf("got BlueRemaining = %d, want 7", got.BlueRemaining)
	}
	if got.CurrentTeam != codewords.BlueTeam {
		t.Errorf("got team %q, want %q", got.CurrentTeam, codewords.BlueTeam)
	}

	// So does a neutral card, with no counter change.
	got = Reveal(g, 17)
	if got.RedRemaining != 9 || got.BlueRemaining != 8 {
		t.Errorf("neutral reveal changed counters: %d/%d", got.RedRemaining, got.BlueRemaining)
	}
	if got.CurrentTeam != codewords.BlueTeam {
		t.Errorf("got team %q, want %q", got.CurrentTeam, codewords.BlueTeam)
	}
	if got.Winner != nil {
		t.Errorf("unexpected winner %q", *got.Winner)
	}
}

func TestReveal_Assassin(t *testing.T) {
	g := testGame()
	got := Reveal(g, 24)

	if got.Winner == nil || *got.Winner != codewords.BlueTeam {
		t.Errorf("got winner %v, want %q", got.Winner, codewords.BlueTeam)
	}
	// The turn doesn't move once the game is decided.
	if got.CurrentTeam != codewords.RedTeam {
		t.Errorf("turn switched to %q after the game ended", got.CurrentTeam)
	}
}

func TestReveal_AssassinBeatsExhaustedCount(t *testing.T) {
	// Red is down to its last card when they reveal the assassin. The
	// assassin rule wins: blue takes the game, not red.
	g := testGame()
	for i := 0; i < 8; i++ {
		g.Cards[i].Revealed = true
	}
	g.RedRemaining = 1

	got := Reveal(g, 24)
	if got.Winner == nil || *got.Winner != codewords.BlueTeam {
		t.Errorf("got winner %v, want %q", got.Winner, codewords.BlueTeam)
	}
}

func TestReveal_LastCardWins(t *testing.T) {
	g := testGame()
	for i := 0; i < 8; i++ {
		g.Cards[i].Revealed = true
	}
	g.RedRemaining = 1

	got := Reveal(g, 8)
	if got.RedRemaining != 0 {
		t.Errorf("got RedRemaining = %d, want 0", got.RedRemaining)
	}
	if got.Winner == nil || *got.Winner != codewords.RedTeam {
		t.Errorf("got winner %v, want %q", got.Winner, codewords.RedTeam)
	}
}

func TestReveal_Idempotent(t *testing.T) {
	g := testGame()

	once := Reveal(g, 9)
	twice := Reveal(once, 9)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second reveal of the same card changed state (-once +twice)\n%s", diff)
	}
}

func TestReveal_NoOps(t *testing.T) {
	g := testGame()

	for _, idx := range []int{-1, 25, 1000} {
		if got := Reveal(g, idx); got != g {
			t.Errorf("Reveal(%d) did not return the input unchanged", idx)
		}
	}
}

func TestReveal_Monotonic(t *testing.T) {
	g := testGame()
	r := rand.New(rand.NewSource(7))

	revealed := make(map[int]bool)
	for i := 0; i < 200; i++ {
		idx := r.Intn(len(g.Cards) + 10) // deliberately includes invalid indices
		g = Reveal(g, idx)
		if idx >= 0 && idx < len(g.Cards) {
			revealed[idx] = true
		}
		for j, c := range g.Cards {
			if revealed[j] && !c.Revealed {
				t.Fatalf("card %d reverted to unrevealed", j)
			}
		}
	}
}

func TestEndTurn(t *testing.T) {
	g := testGame()
	g.CurrentClue = &codewords.Clue{Word: "ocean", Number: 2, Team: codewords.RedTeam}

	got := EndTurn(g)
	if got.CurrentTeam != codewords.BlueTeam {
		t.Errorf("got team %q, want %q", got.CurrentTeam, codewords.BlueTeam)
	}
	if got.CurrentClue != nil {
		t.Errorf("clue survived end of turn: %+v", got.CurrentClue)
	}

	// Ending a turn with no clue set works the same way.
	again := EndTurn(got)
	if again.CurrentTeam != codewords.RedTeam || again.CurrentClue != nil {
		t.Errorf("got team %q, clue %+v after second end-turn", again.CurrentTeam, again.CurrentClue)
	}
}

func TestGiveClue(t *testing.T) {
	g := testGame()
	got := GiveClue(g, "ocean", 3)

	want := &codewords.Clue{Word: "ocean", Number: 3, Team: codewords.RedTeam}
	if diff := cmp.Diff(want, got.CurrentClue); diff != "" {
		t.Errorf("unexpected clue (-want +got)\n%s", diff)
	}
}

func TestShuffle(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	g := testGame()
	g.Cards[3].Revealed = true
	g.SpymasterID = "user_abc"
	w := codewords.RedTeam
	g.Winner = &w
	g.CurrentClue = &codewords.Clue{Word: "ocean", Number: 1, Team: codewords.RedTeam}

	got := Shuffle(g, r)

	if diff := cmp.Diff(sortedWords(g), sortedWords(got)); diff != "" {
		t.Errorf("shuffle changed the word multiset (-want +got)\n%s", diff)
	}
	for _, c := range got.Cards {
		if c.Revealed {
			t.Errorf("card %q still revealed after shuffle", c.Word)
		}
	}
	if got.Winner != nil || got.CurrentClue != nil {
		t.Errorf("winner/clue survived shuffle: %+v %+v", got.Winner, got.CurrentClue)
	}
	if got.SpymasterID != "user_abc" {
		t.Errorf("shuffle touched the spymaster seat: %q", got.SpymasterID)
	}
	if got.RedRemaining+got.BlueRemaining != 17 {
		t.Errorf("remaining counts sum to %d, want 17", got.RedRemaining+got.BlueRemaining)
	}

	// Across repeated shuffles the index-to-type mapping should change.
	// With 25! orderings of the multiset, 20 identical runs in a row means
	// the shuffle is broken.
	same := 0
	for i := 0; i < 20; i++ {
		if sameAssignment(g.Cards, Shuffle(g, r).Cards) {
			same++
		}
	}
	if same == 20 {
		t.Error("shuffle never changed the card assignment")
	}
}

func TestReset(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	g := testGame()
	g.SpymasterID = "user_abc"

	got := Reset(g, r)

	if got.ID != g.ID {
		t.Errorf("reset changed the game ID to %q", got.ID)
	}
	if got.CreatedAt != g.CreatedAt {
		t.Errorf("reset changed the creation time to %d", got.CreatedAt)
	}
	if got.SpymasterID != "" {
		t.Errorf("reset kept the spymaster seat: %q", got.SpymasterID)
	}
	// Unlike shuffle, a reset draws entirely new words. The pool is big
	// enough that a full overlap means words weren't redrawn.
	if diff := cmp.Diff(sortedWords(g), sortedWords(got)); diff == "" {
		t.Error("reset reused the existing words")
	}
}

func TestFullGame(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	g := boardgen.NewGame("GAMEAA", r)
	trailing := g.CurrentTeam.Other()

	// Reveal every card belonging to the team that didn't start, with
	// repeated reveals sprinkled in to exercise the no-op guard. When
	// their 8th card flips, the zero-count rule fires no matter whose
	// turn it nominally was.
	revealed := 0
	for i, c := range g.Cards {
		if c.Type != codewords.CardType(trailing) {
			continue
		}
		g = Reveal(g, i)
		g = Reveal(g, i) // duplicate submission, must be a no-op
		revealed++

		if revealed < 8 && g.Winner != nil {
			t.Fatalf("winner %q set after only %d reveals", *g.Winner, revealed)
		}
	}

	if revealed != 8 {
		t.Fatalf("board had %d %q cards, want 8", revealed, trailing)
	}
	if g.Winner == nil || *g.Winner != trailing {
		t.Fatalf("got winner %v, want %q", g.Winner, trailing)
	}
}

func sortedWords(g *codewords.Game) []string {
	words := make([]string, len(g.Cards))
	for i, c := range g.Cards {
		words[i] = c.Word
	}
	sort.Strings(words)
	return words
}

func sameAssignment(a, b []codewords.Card) bool {
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

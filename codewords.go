package codewords

import (
	"math/rand"
	"strconv"
)

const (
	// Rows is the number of rows of cards on a board.
	Rows = 5
	// Columns is the number of columns of cards on a board.
	Columns = 5
	// Size is the total number of cards on a board.
	Size = Rows * Columns

	// IDLength is the length of a game code.
	IDLength = 6
)

// Team is one of the two competing sides.
type Team string

const (
	RedTeam  = Team("red")
	BlueTeam = Team("blue")
)

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == RedTeam {
		return BlueTeam
	}
	return RedTeam
}

// Valid returns whether the team is one of the two playable sides.
func (t Team) Valid() bool {
	return t == RedTeam || t == BlueTeam
}

// CardType is the hidden affiliation of a card.
type CardType string

const (
	RedCard      = CardType("red")
	BlueCard     = CardType("blue")
	NeutralCard  = CardType("neutral")
	AssassinCard = CardType("assassin")
)

// Team returns the team a card belongs to, if it belongs to one. Neutral and
// assassin cards belong to no team.
func (c CardType) Team() (Team, bool) {
	switch c {
	case RedCard:
		return RedTeam, true
	case BlueCard:
		return BlueTeam, true
	}
	return Team(""), false
}

// Card is a single game card. Word and Type are fixed at generation time,
// Revealed flips false -> true exactly once.
type Card struct {
	Word     string   `json:"word"`
	Type     CardType `json:"type"`
	Revealed bool     `json:"revealed"`
}

// Clue is the active team's hint for the current turn.
type Clue struct {
	Word   string `json:"word"`
	Number int    `json:"number"`
	Team   Team   `json:"team"`
}

func (c *Clue) String() string {
	return c.Word + " " + strconv.Itoa(c.Number)
}

// GameID is the short shareable code that identifies a game record.
type GameID string

// Game is the single shared aggregate for one game. Exactly one authoritative
// copy lives in the store, each client holds a possibly-stale local copy.
//
// Winner and CurrentClue are absent until set, SpymasterID is empty until
// claimed. They're modeled as pointers/empty-string rather than "maybe missing
// key" so that clearing a field is an explicit operation, see GameUpdate.
type Game struct {
	ID            GameID `json:"id"`
	Cards         []Card `json:"cards"`
	CurrentTeam   Team   `json:"currentTeam"`
	RedRemaining  int    `json:"redRemaining"`
	BlueRemaining int    `json:"blueRemaining"`
	Winner        *Team  `json:"winner,omitempty"`
	CurrentClue   *Clue  `json:"currentClue,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	SpymasterID   string `json:"spymasterId,omitempty"`
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}

	gc := *g
	gc.Cards = make([]Card, len(g.Cards))
	copy(gc.Cards, g.Cards)
	if g.Winner != nil {
		w := *g.Winner
		gc.Winner = &w
	}
	if g.CurrentClue != nil {
		c := *g.CurrentClue
		gc.CurrentClue = &c
	}
	return &gc
}

var idChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// RandomGameID generates a short uppercase alphanumeric game code. Uniqueness
// across live games is best-effort.
func RandomGameID(r *rand.Rand) GameID {
	b := make([]byte, IDLength)
	for i := range b {
		b[i] = idChars[r.Intn(len(idChars))]
	}
	return GameID(b)
}

// ValidGameID reports whether id looks like a code RandomGameID could have
// produced.
func ValidGameID(id GameID) bool {
	s := string(id)
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

package codewords

import (
	"context"
	"errors"
)

var (
	// ErrGameNotFound is returned when no record exists for a game code.
	ErrGameNotFound = errors.New("codewords: game not found")
	// ErrStorageUnavailable is returned when the record store can't be
	// reached. Callers surface it and leave retrying to the user.
	ErrStorageUnavailable = errors.New("codewords: storage unavailable")
)

// GameUpdate is a partial-field merge against a stored game record.
//
// A zero field means "leave unchanged". Clearing an optional field is
// distinct from omitting it: setting ClearWinner removes the winner from the
// record, while leaving both Winner and ClearWinner zero leaves whatever
// winner the record has. Stores must honor that distinction.
type GameUpdate struct {
	Cards         []Card
	CurrentTeam   Team
	RedRemaining  *int
	BlueRemaining *int

	Winner      *Team
	ClearWinner bool

	Clue      *Clue
	ClearClue bool

	SpymasterID    string
	ClearSpymaster bool
}

// Apply merges the update into the given game in place.
func (u *GameUpdate) Apply(g *Game) {
	if u.Cards != nil {
		g.Cards = make([]Card, len(u.Cards))
		copy(g.Cards, u.Cards)
	}
	if u.CurrentTeam.Valid() {
		g.CurrentTeam = u.CurrentTeam
	}
	if u.RedRemaining != nil {
		g.RedRemaining = *u.RedRemaining
	}
	if u.BlueRemaining != nil {
		g.BlueRemaining = *u.BlueRemaining
	}

	switch {
	case u.ClearWinner:
		g.Winner = nil
	case u.Winner != nil:
		w := *u.Winner
		g.Winner = &w
	}

	switch {
	case u.ClearClue:
		g.CurrentClue = nil
	case u.Clue != nil:
		c := *u.Clue
		g.CurrentClue = &c
	}

	switch {
	case u.ClearSpymaster:
		g.SpymasterID = ""
	case u.SpymasterID != "":
		g.SpymasterID = u.SpymasterID
	}
}

// Store is the synchronization boundary to the shared record store. There is
// no server-side game logic behind it, all rules are evaluated on clients
// against their last observed record and written back as partial updates.
// Conflicting writes resolve last-writer-wins at the field level.
type Store interface {
	// CreateGame durably stores a new record keyed by the game's ID.
	CreateGame(ctx context.Context, g *Game) error
	// Game is a point-in-time fetch of the record, or ErrGameNotFound.
	Game(ctx context.Context, id GameID) (*Game, error)
	// UpdateGame merges the named fields into the existing record.
	UpdateGame(ctx context.Context, id GameID, u GameUpdate) error
}

// Watcher pushes every observed change to a record, including the caller's
// own writes once they round-trip, until the returned stop function is
// called. Stopping releases the underlying subscription and has no effect on
// the record itself.
type Watcher interface {
	Watch(ctx context.Context, id GameID, fn func(*Game)) (stop func(), err error)
}

// WatchStore is a Store that also supports subscriptions. The in-process
// stores implement it directly, remote clients get it from the record
// server's push channel.
type WatchStore interface {
	Store
	Watcher
}

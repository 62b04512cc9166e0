// Package client ties a session identity, a record store, and the rules
// engine into one client session. Actions are computed locally against the
// last observed record and written back as partial updates, the authoritative
// result arrives through the subscription like everyone else's writes.
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/boardgen"
	"github.com/bcspragu/Codewords/cryptorand"
	"github.com/bcspragu/Codewords/game"
)

// ErrNoGame is returned for actions taken before creating or joining a game.
var ErrNoGame = errors.New("client: no game joined")

type Config struct {
	// Store reads and writes the shared record.
	Store codewords.Store
	// Watcher delivers record changes. Often the same value as Store.
	Watcher codewords.Watcher
	// SessionID is this install's stable identifier, see the session
	// package.
	SessionID string

	// ClearSpymasterOnShuffle re-opens the spymaster seat when the board
	// is shuffled. Defaults to keeping the seat.
	ClearSpymasterOnShuffle bool

	// GraceDelay is how long a demoted client keeps the privileged view so
	// the UI can show a "role already taken" notice before navigating
	// away. Zero means demote immediately.
	GraceDelay time.Duration

	// Rand drives board generation. Defaults to an unseedable
	// crypto-backed source.
	Rand *rand.Rand

	// OnChange is invoked with every record snapshot the subscription
	// delivers.
	OnChange func(*codewords.Game)
	// OnDemoted is invoked, GraceDelay after the losing write settles,
	// when another session holds the spymaster seat this client believed
	// it had won.
	OnDemoted func(spymasterID string)
}

// Session is one client's view of a single shared game.
type Session struct {
	cfg Config
	r   *rand.Rand

	mu      sync.Mutex
	gameID  codewords.GameID
	game    *codewords.Game
	claimed bool
	stop    func()
}

func New(cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.New("client: no store given")
	}
	if cfg.Watcher == nil {
		return nil, errors.New("client: no watcher given")
	}
	if cfg.SessionID == "" {
		return nil, errors.New("client: no session ID given")
	}

	r := cfg.Rand
	if r == nil {
		r = rand.New(cryptorand.NewSource())
	}

	return &Session{cfg: cfg, r: r}, nil
}

// CreateGame generates a fresh game, stores it, and subscribes to it. The
// spymaster seat starts open, the creator claims it with ClaimSpymaster like
// any other joiner.
func (s *Session) CreateGame(ctx context.Context) (*codewords.Game, error) {
	g := boardgen.NewGame(codewords.RandomGameID(s.r), s.r)
	if err := s.cfg.Store.CreateGame(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := s.attach(ctx, g); err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// Join fetches the record for the given code and subscribes to it.
func (s *Session) Join(ctx context.Context, id codewords.GameID) (*codewords.Game, error) {
	g, err := s.cfg.Store.Game(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.attach(ctx, g); err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

func (s *Session) attach(ctx context.Context, g *codewords.Game) error {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return errors.New("client: session is already in a game")
	}
	s.gameID = g.ID
	s.game = g.Clone()
	s.mu.Unlock()

	stop, err := s.cfg.Watcher.Watch(ctx, g.ID, s.onRecord)
	if err != nil {
		// Don't leave a record we aren't subscribed to as local truth.
		s.mu.Lock()
		s.gameID = ""
		s.game = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to subscribe to game %q: %w", g.ID, err)
	}

	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
	return nil
}

// Close releases the subscription. It must run on every exit path from a
// game view, it has no effect on the shared record.
func (s *Session) Close() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Game returns the last observed record snapshot.
func (s *Session) Game() *codewords.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Clone()
}

// IsSpymaster reports whether this session currently believes it holds the
// spymaster seat. The belief is optimistic between a claim write and its
// round trip, the settled record is authoritative.
func (s *Session) IsSpymaster() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed
}

// ClaimSpymaster attempts to take the spymaster seat. It returns false when
// the seat is already held by another session, that's a normal outcome, not
// an error. A true return is provisional until the write round-trips: if a
// racing peer's claim settles instead, OnDemoted fires.
func (s *Session) ClaimSpymaster(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.game == nil {
		s.mu.Unlock()
		return false, ErrNoGame
	}
	id := s.gameID
	holder := s.game.SpymasterID
	s.mu.Unlock()

	switch holder {
	case "":
		// Seat looks open. The read and the write below aren't atomic,
		// a racing peer may win, reconciliation happens in onRecord.
	case s.cfg.SessionID:
		s.mu.Lock()
		s.claimed = true
		s.mu.Unlock()
		return true, nil
	default:
		return false, nil
	}

	err := s.cfg.Store.UpdateGame(ctx, id, codewords.GameUpdate{
		SpymasterID: s.cfg.SessionID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to claim spymaster seat: %w", err)
	}

	s.mu.Lock()
	s.claimed = true
	s.mu.Unlock()
	return true, nil
}

// onRecord is the subscription callback: it adopts the pushed record as the
// new local truth and reconciles the claim state against it.
func (s *Session) onRecord(g *codewords.Game) {
	s.mu.Lock()
	s.game = g.Clone()

	demoted := false
	if s.claimed && g.SpymasterID != "" && g.SpymasterID != s.cfg.SessionID {
		s.claimed = false
		demoted = true
	}
	s.mu.Unlock()

	if demoted && s.cfg.OnDemoted != nil {
		if s.cfg.GraceDelay > 0 {
			time.AfterFunc(s.cfg.GraceDelay, func() { s.cfg.OnDemoted(g.SpymasterID) })
		} else {
			s.cfg.OnDemoted(g.SpymasterID)
		}
	}

	if s.cfg.OnChange != nil {
		s.cfg.OnChange(g)
	}
}

// base returns the current record to compute an action against. There's no
// action queue: a second action issued before the first write round-trips
// computes from the stale base, and the store's field-level last-write-wins
// merge settles it.
func (s *Session) base() (*codewords.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return nil, ErrNoGame
	}
	return s.game.Clone(), nil
}

// Reveal flips the card at idx and writes the resulting delta. Reveals that
// the rules engine rejects (bad index, already revealed) write nothing.
func (s *Session) Reveal(ctx context.Context, idx int) error {
	g, err := s.base()
	if err != nil {
		return err
	}

	next := game.Reveal(g, idx)
	if next == g {
		return nil
	}

	u := codewords.GameUpdate{
		Cards:         next.Cards,
		CurrentTeam:   next.CurrentTeam,
		RedRemaining:  &next.RedRemaining,
		BlueRemaining: &next.BlueRemaining,
	}
	if next.Winner != nil {
		u.Winner = next.Winner
	}
	if err := s.cfg.Store.UpdateGame(ctx, g.ID, u); err != nil {
		return fmt.Errorf("failed to write reveal: %w", err)
	}
	return nil
}

// EndTurn passes the turn and clears the clue.
func (s *Session) EndTurn(ctx context.Context) error {
	g, err := s.base()
	if err != nil {
		return err
	}

	next := game.EndTurn(g)
	err = s.cfg.Store.UpdateGame(ctx, g.ID, codewords.GameUpdate{
		CurrentTeam: next.CurrentTeam,
		ClearClue:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to write end of turn: %w", err)
	}
	return nil
}

// GiveClue records the active team's hint.
func (s *Session) GiveClue(ctx context.Context, word string, number int) error {
	g, err := s.base()
	if err != nil {
		return err
	}

	next := game.GiveClue(g, word, number)
	err = s.cfg.Store.UpdateGame(ctx, g.ID, codewords.GameUpdate{
		Clue: next.CurrentClue,
	})
	if err != nil {
		return fmt.Errorf("failed to write clue: %w", err)
	}
	return nil
}

// Shuffle redeals the same words with a fresh assignment.
func (s *Session) Shuffle(ctx context.Context) error {
	g, err := s.base()
	if err != nil {
		return err
	}

	next := game.Shuffle(g, s.r)
	u := codewords.GameUpdate{
		Cards:          next.Cards,
		CurrentTeam:    next.CurrentTeam,
		RedRemaining:   &next.RedRemaining,
		BlueRemaining:  &next.BlueRemaining,
		ClearWinner:    true,
		ClearClue:      true,
		ClearSpymaster: s.cfg.ClearSpymasterOnShuffle,
	}
	if err := s.cfg.Store.UpdateGame(ctx, g.ID, u); err != nil {
		return fmt.Errorf("failed to write shuffle: %w", err)
	}
	return nil
}

// Reset regenerates the game with new words, keeping the code players joined
// with. The spymaster seat re-opens.
func (s *Session) Reset(ctx context.Context) error {
	g, err := s.base()
	if err != nil {
		return err
	}

	next := game.Reset(g, s.r)
	u := codewords.GameUpdate{
		Cards:          next.Cards,
		CurrentTeam:    next.CurrentTeam,
		RedRemaining:   &next.RedRemaining,
		BlueRemaining:  &next.BlueRemaining,
		ClearWinner:    true,
		ClearClue:      true,
		ClearSpymaster: true,
	}
	if err := s.cfg.Store.UpdateGame(ctx, g.ID, u); err != nil {
		return fmt.Errorf("failed to write reset: %w", err)
	}
	return nil
}

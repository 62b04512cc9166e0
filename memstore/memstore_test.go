package memstore

import (
	"context"
	"math/rand"
	"testing"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/boardgen"
	"github.com/google/go-cmp/cmp"
)

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := rand.New(rand.NewSource(0))

	g := boardgen.NewGame("ABCDE1", r)
	if err := s.CreateGame(ctx, g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	got, err := s.Game(ctx, "ABCDE1")
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("unexpected game (-want +got)\n%s", diff)
	}

	// The store must hand out copies, not aliases.
	got.Cards[0].Revealed = true
	again, err := s.Game(ctx, "ABCDE1")
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if again.Cards[0].Revealed {
		t.Error("mutating a returned game changed the stored record")
	}

	if _, err := s.Game(ctx, "NOSUCH"); err != codewords.ErrGameNotFound {
		t.Errorf("got error %v, want ErrGameNotFound", err)
	}
}

func TestUpdate_MergeAndClear(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := rand.New(rand.NewSource(0))

	g := boardgen.NewGame("ABCDE1", r)
	if err := s.CreateGame(ctx, g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	w := codewords.RedTeam
	clue := &codewords.Clue{Word: "ocean", Number: 2, Team: codewords.RedTeam}
	if err := s.UpdateGame(ctx, g.ID, codewords.GameUpdate{
		Winner:      &w,
		Clue:        clue,
		SpymasterID: "user_1",
	}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}

	got, err := s.Game(ctx, g.ID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if got.Winner == nil || *got.Winner != codewords.RedTeam {
		t.Errorf("got winner %v, want red", got.Winner)
	}
	if diff := cmp.Diff(clue, got.CurrentClue); diff != "" {
		t.Errorf("unexpected clue (-want +got)\n%s", diff)
	}
	if got.SpymasterID != "user_1" {
		t.Errorf("got spymaster %q, want user_1", got.SpymasterID)
	}
	// Omitted fields stay put.
	if diff := cmp.Diff(g.Cards, got.Cards); diff != "" {
		t.Errorf("cards changed by an update that omitted them (-want +got)\n%s", diff)
	}

	// Clearing is explicit and distinct from omitting.
	if err := s.UpdateGame(ctx, g.ID, codewords.GameUpdate{
		ClearWinner: true,
		ClearClue:   true,
	}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	got, err = s.Game(ctx, g.ID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if got.Winner != nil || got.CurrentClue != nil {
		t.Errorf("winner/clue survived explicit clear: %v %v", got.Winner, got.CurrentClue)
	}
	if got.SpymasterID != "user_1" {
		t.Errorf("spymaster cleared by an update that omitted it: %q", got.SpymasterID)
	}

	if err := s.UpdateGame(ctx, "NOSUCH", codewords.GameUpdate{}); err != codewords.ErrGameNotFound {
		t.Errorf("got error %v, want ErrGameNotFound", err)
	}
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := rand.New(rand.NewSource(0))

	g := boardgen.NewGame("ABCDE1", r)
	if err := s.CreateGame(ctx, g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	var seen []*codewords.Game
	stop, err := s.Watch(ctx, g.ID, func(g *codewords.Game) {
		seen = append(seen, g)
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// The current value arrives immediately.
	if len(seen) != 1 {
		t.Fatalf("got %d snapshots after subscribing, want 1", len(seen))
	}

	if err := s.UpdateGame(ctx, g.ID, codewords.GameUpdate{SpymasterID: "user_1"}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("got %d snapshots after update, want 2", len(seen))
	}
	if seen[1].SpymasterID != "user_1" {
		t.Errorf("snapshot has spymaster %q, want user_1", seen[1].SpymasterID)
	}

	stop()
	if err := s.UpdateGame(ctx, g.ID, codewords.GameUpdate{SpymasterID: "user_2"}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("watcher still delivered after stop, got %d snapshots", len(seen))
	}
}

func TestWatch_ClaimRaceSettles(t *testing.T) {
	// Two clients both read an empty spymaster seat and both write their
	// own ID. The store's last write wins, and both subscribers converge
	// on the same settled value.
	ctx := context.Background()
	s := New()
	r := rand.New(rand.NewSource(0))

	g := boardgen.NewGame("ABCDE1", r)
	if err := s.CreateGame(ctx, g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	var a, b string
	stopA, err := s.Watch(ctx, g.ID, func(g *codewords.Game) { a = g.SpymasterID })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stopA()
	stopB, err := s.Watch(ctx, g.ID, func(g *codewords.Game) { b = g.SpymasterID })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stopB()

	// Both claims raced past the emptiness check.
	if err := s.UpdateGame(ctx, g.ID, codewords.GameUpdate{SpymasterID: "user_1"}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	if err := s.UpdateGame(ctx, g.ID, codewords.GameUpdate{SpymasterID: "user_2"}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}

	if a != b {
		t.Fatalf("subscribers disagree on the settled spymaster: %q vs %q", a, b)
	}
	if a != "user_2" {
		t.Errorf("got settled spymaster %q, want the last writer user_2", a)
	}
}

package sqlstore

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/boardgen"
	"github.com/google/go-cmp/cmp"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "codewords.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := rand.New(rand.NewSource(0))

	g := boardgen.NewGame("SQLAB1", r)
	g.SpymasterID = "user_1"
	if err := db.CreateGame(ctx, g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	got, err := db.Game(ctx, g.ID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("unexpected game (-want +got)\n%s", diff)
	}

	if _, err := db.Game(ctx, "NOSUCH"); err != codewords.ErrGameNotFound {
		t.Errorf("got error %v, want ErrGameNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := rand.New(rand.NewSource(0))

	g := boardgen.NewGame("SQLAB1", r)
	if err := db.CreateGame(ctx, g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	w := codewords.BlueTeam
	red := 5
	if err := db.UpdateGame(ctx, g.ID, codewords.GameUpdate{
		Winner:       &w,
		RedRemaining: &red,
		SpymasterID:  "user_1",
	}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}

	got, err := db.Game(ctx, g.ID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if got.Winner == nil || *got.Winner != codewords.BlueTeam {
		t.Errorf("got winner %v, want blue", got.Winner)
	}
	if got.RedRemaining != 5 {
		t.Errorf("got RedRemaining = %d, want 5", got.RedRemaining)
	}
	if got.BlueRemaining != g.BlueRemaining {
		t.Errorf("BlueRemaining changed by an update that omitted it")
	}

	if err := db.UpdateGame(ctx, g.ID, codewords.GameUpdate{ClearWinner: true, ClearSpymaster: true}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	got, err = db.Game(ctx, g.ID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if got.Winner != nil {
		t.Errorf("winner survived explicit clear: %v", got.Winner)
	}
	if got.SpymasterID != "" {
		t.Errorf("spymaster survived explicit clear: %q", got.SpymasterID)
	}
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := rand.New(rand.NewSource(0))

	g := boardgen.NewGame("SQLAB1", r)
	if err := db.CreateGame(ctx, g); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	var seen []string
	stop, err := db.Watch(ctx, g.ID, func(g *codewords.Game) {
		seen = append(seen, g.SpymasterID)
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := db.UpdateGame(ctx, g.ID, codewords.GameUpdate{SpymasterID: "user_1"}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}

	want := []string{"", "user_1"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("unexpected watch deliveries (-want +got)\n%s", diff)
	}

	stop()
	if err := db.UpdateGame(ctx, g.ID, codewords.GameUpdate{SpymasterID: "user_2"}); err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("watcher delivered after stop, got %d snapshots", len(seen))
	}
}

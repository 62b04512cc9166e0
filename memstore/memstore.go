// Package memstore is an in-memory record store, used by tests and local
// play. It implements the full store contract including push subscriptions,
// so a client session can't tell it apart from a remote store beyond latency.
package memstore

import (
	"context"
	"sync"

	codewords "github.com/bcspragu/Codewords"
)

type Store struct {
	mu       sync.RWMutex
	games    map[codewords.GameID]*codewords.Game
	watchers map[codewords.GameID]map[int]func(*codewords.Game)
	nextID   int
}

func New() *Store {
	return &Store{
		games:    make(map[codewords.GameID]*codewords.Game),
		watchers: make(map[codewords.GameID]map[int]func(*codewords.Game)),
	}
}

func (s *Store) CreateGame(_ context.Context, g *codewords.Game) error {
	s.mu.Lock()
	s.games[g.ID] = g.Clone()
	s.mu.Unlock()

	s.notify(g.ID)
	return nil
}

func (s *Store) Game(_ context.Context, id codewords.GameID) (*codewords.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return nil, codewords.ErrGameNotFound
	}
	return g.Clone(), nil
}

func (s *Store) UpdateGame(_ context.Context, id codewords.GameID, u codewords.GameUpdate) error {
	s.mu.Lock()
	g, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return codewords.ErrGameNotFound
	}
	u.Apply(g)
	s.mu.Unlock()

	s.notify(id)
	return nil
}

// Watch registers fn for every subsequent change to the record, and delivers
// the current value immediately if the record exists. The returned stop
// function releases the subscription, as does canceling ctx.
func (s *Store) Watch(ctx context.Context, id codewords.GameID, fn func(*codewords.Game)) (func(), error) {
	s.mu.Lock()
	ws, ok := s.watchers[id]
	if !ok {
		ws = make(map[int]func(*codewords.Game))
		s.watchers[id] = ws
	}
	key := s.nextID
	s.nextID++
	ws[key] = fn

	var cur *codewords.Game
	if g, ok := s.games[id]; ok {
		cur = g.Clone()
	}
	s.mu.Unlock()

	if cur != nil {
		fn(cur)
	}

	stop := func() {
		s.mu.Lock()
		delete(s.watchers[id], key)
		s.mu.Unlock()
	}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			stop()
		}()
	}

	return stop, nil
}

// notify delivers a fresh snapshot to every watcher of the game. Callbacks
// run outside the lock so they're free to call back into the store.
func (s *Store) notify(id codewords.GameID) {
	s.mu.RLock()
	g, ok := s.games[id]
	if !ok {
		s.mu.RUnlock()
		return
	}
	var fns []func(*codewords.Game)
	for _, fn := range s.watchers[id] {
		fns = append(fns, fn)
	}
	snapshot := g.Clone()
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot.Clone())
	}
}

// Package sqlstore persists game records in SQLite, one schemaless JSON
// document per row. SQLite doesn't support concurrent writers, so the *sql.DB
// handle never leaves this package: every operation is a closure sent to a
// single goroutine that owns the connection.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	codewords "github.com/bcspragu/Codewords"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	doc TEXT NOT NULL
);`

type DB struct {
	dbChan   chan func(*sql.DB)
	doneChan chan struct{}
	closeFn  func() error

	mu          sync.Mutex
	watchers    map[codewords.GameID]map[int]func(*codewords.Game)
	nextWatcher int
}

// New opens (creating if needed) the record store at the given filename.
func New(fn string) (*DB, error) {
	sdb, err := sql.Open("sqlite3", fn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
	}

	if _, err := sdb.Exec(schema); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	db := &DB{
		dbChan:   make(chan func(*sql.DB)),
		doneChan: make(chan struct{}),
		closeFn: func() error {
			return sdb.Close()
		},
		watchers: make(map[codewords.GameID]map[int]func(*codewords.Game)),
	}
	go db.run(sdb)
	return db, nil
}

// run handles all database calls, and ensures that only one thing is
// happening against the database at a time.
func (db *DB) run(sdb *sql.DB) {
	for {
		select {
		case dbFn := <-db.dbChan:
			dbFn(sdb)
		case <-db.doneChan:
			sdb.Close()
			return
		}
	}
}

func (db *DB) Close() error {
	close(db.doneChan)
	return db.closeFn()
}

// do runs fn on the database goroutine and waits for it to finish.
func (db *DB) do(ctx context.Context, fn func(*sql.DB) error) error {
	errc := make(chan error, 1)
	select {
	case db.dbChan <- func(sdb *sql.DB) { errc <- fn(sdb) }:
	case <-db.doneChan:
		return fmt.Errorf("%w: store is closed", codewords.ErrStorageUnavailable)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (db *DB) CreateGame(ctx context.Context, g *codewords.Game) error {
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to encode game: %w", err)
	}

	err = db.do(ctx, func(sdb *sql.DB) error {
		if _, err := sdb.Exec(`INSERT OR REPLACE INTO games (id, doc) VALUES (?, ?)`, string(g.ID), string(doc)); err != nil {
			return fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.notify(g.Clone())
	return nil
}

func (db *DB) Game(ctx context.Context, id codewords.GameID) (*codewords.Game, error) {
	var g *codewords.Game
	err := db.do(ctx, func(sdb *sql.DB) error {
		var err error
		g, err = loadGame(sdb, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (db *DB) UpdateGame(ctx context.Context, id codewords.GameID, u codewords.GameUpdate) error {
	var updated *codewords.Game
	err := db.do(ctx, func(sdb *sql.DB) error {
		g, err := loadGame(sdb, id)
		if err != nil {
			return err
		}

		u.Apply(g)
		doc, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("failed to encode game: %w", err)
		}
		if _, err := sdb.Exec(`UPDATE games SET doc = ? WHERE id = ?`, string(doc), string(id)); err != nil {
			return fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
		}
		updated = g
		return nil
	})
	if err != nil {
		return err
	}

	db.notify(updated)
	return nil
}

func loadGame(sdb *sql.DB, id codewords.GameID) (*codewords.Game, error) {
	var doc string
	err := sdb.QueryRow(`SELECT doc FROM games WHERE id = ?`, string(id)).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, codewords.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
	}

	var g codewords.Game
	if err := json.Unmarshal([]byte(doc), &g); err != nil {
		return nil, fmt.Errorf("failed to decode game %q: %w", id, err)
	}
	return &g, nil
}

// Watch registers fn for every change committed through this process, and
// delivers the current value immediately if the record exists.
func (db *DB) Watch(ctx context.Context, id codewords.GameID, fn func(*codewords.Game)) (func(), error) {
	db.mu.Lock()
	ws, ok := db.watchers[id]
	if !ok {
		ws = make(map[int]func(*codewords.Game))
		db.watchers[id] = ws
	}
	key := db.nextWatcher
	db.nextWatcher++
	ws[key] = fn
	db.mu.Unlock()

	if g, err := db.Game(ctx, id); err == nil {
		fn(g)
	}

	stop := func() {
		db.mu.Lock()
		delete(db.watchers[id], key)
		db.mu.Unlock()
	}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			stop()
		}()
	}

	return stop, nil
}

func (db *DB) notify(g *codewords.Game) {
	db.mu.Lock()
	var fns []func(*codewords.Game)
	for _, fn := range db.watchers[g.ID] {
		fns = append(fns, fn)
	}
	db.mu.Unlock()

	for _, fn := range fns {
		fn(g.Clone())
	}
}

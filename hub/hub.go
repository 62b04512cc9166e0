// Package hub fans record snapshots out to every websocket subscribed to a
// game. All connection bookkeeping happens on a single goroutine, so the
// maps need no locking.
package hub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/gorilla/websocket"

	codewords "github.com/bcspragu/Codewords"
)

// Hub maintains the set of active connections and broadcasts record
// snapshots to the connections watching each game.
type Hub struct {
	// Registered connections, keyed by the game they watch.
	connections map[codewords.GameID][]*connection

	// Snapshots to send to everyone watching a game.
	broadcast chan *broadcastMsg

	// Snapshots to send to a single connection.
	direct chan *connMsg

	// Register requests from the connections.
	register chan *connection

	// Unregister requests from connections.
	unregister chan *connection
}

// New creates a new Hub and starts it in a background Go routine.
func New() *Hub {
	h := &Hub{
		broadcast:   make(chan *broadcastMsg),
		direct:      make(chan *connMsg),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		connections: make(map[codewords.GameID][]*connection),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			conns := h.connections[c.gameID]
			h.connections[c.gameID] = append(conns, c)
		case c := <-h.unregister:
			h.deleteConn(c)
		case m := <-h.broadcast:
			// Evictions compact the slice in place, so they can't
			// happen while we're ranging over it.
			var dead []*connection
			for _, c := range h.connections[m.gameID] {
				select {
				case c.send <- m.msg:
				default:
					dead = append(dead, c)
				}
			}
			for _, c := range dead {
				h.deleteConn(c)
			}
		case m := <-h.direct:
			for _, c := range h.connections[m.c.gameID] {
				if c.id == m.c.id {
					select {
					case c.send <- m.msg:
					default:
						h.deleteConn(c)
					}
					break
				}
			}
		}
	}
}

func (h *Hub) deleteConn(c *connection) {
	rconns := h.connections[c.gameID]
	for i, rconn := range rconns {
		if rconn.id == c.id {
			close(c.send)
			// Remove the connection.
			copy(rconns[i:], rconns[i+1:])
			rconns[len(rconns)-1] = nil
			h.connections[c.gameID] = rconns[:len(rconns)-1]
			return
		}
	}
}

type broadcastMsg struct {
	gameID codewords.GameID
	msg    []byte
}

// Broadcast sends a record snapshot to everyone watching a game.
func (h *Hub) Broadcast(gID codewords.GameID, g *codewords.Game) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(g); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	h.broadcast <- &broadcastMsg{
		gameID: gID,
		msg:    buf.Bytes(),
	}

	return nil
}

type connMsg struct {
	c   *connection
	msg []byte
}

// Register associates a connection with the hub and a given game. The
// returned function queues a message for just this connection, and is a no-op
// once the connection has been evicted.
func (h *Hub) Register(ws *websocket.Conn, gID codewords.GameID) func(msg interface{}) error {
	conn := &connection{
		id:     newID(gID),
		h:      h,
		gameID: gID,
		send:   make(chan []byte, 256),
		ws:     ws,
	}
	h.register <- conn
	go conn.writePump()
	go conn.readPump()

	return func(msg interface{}) error {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(msg); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}

		h.direct <- &connMsg{
			c:   conn,
			msg: buf.Bytes(),
		}

		return nil
	}
}

func newID(gID codewords.GameID) string {
	return fmt.Sprintf("%s-%d", gID, rand.Int63())
}

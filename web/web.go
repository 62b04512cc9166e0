// Package web exposes the record store over HTTP, with a websocket feed per
// game so browser clients see writes as they settle.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/hub"
	"github.com/bcspragu/Codewords/joinlink"
)

type Srv struct {
	sc    *securecookie.SecureCookie
	h     *hub.Hub
	mux   *mux.Router
	store codewords.Store
	base  string
	log   zerolog.Logger

	upgrader websocket.Upgrader
}

// New returns an initialized server. baseURL is the public address join
// links should point at.
func New(store codewords.Store, sc *securecookie.SecureCookie, baseURL string, logger zerolog.Logger) *Srv {
	s := &Srv{
		sc:    sc,
		h:     hub.New(),
		store: store,
		base:  baseURL,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.mux = s.initMux()

	return s
}

func (s *Srv) initMux() *mux.Router {
	m := mux.NewRouter()
	// New browser session.
	m.HandleFunc("/api/session", s.serveCreateSession).Methods("POST")
	// Load browser session.
	m.HandleFunc("/api/session", s.serveSession).Methods("GET")
	// New game.
	m.HandleFunc("/api/game", s.serveCreateGame).Methods("POST")
	// Get game.
	m.HandleFunc("/api/game/{id}", s.serveGame).Methods("GET")
	// Apply a partial update to a game.
	m.HandleFunc("/api/game/{id}", s.serveUpdateGame).Methods("POST")
	// Join link QR code.
	m.HandleFunc("/api/game/{id}/qr", s.serveQR).Methods("GET")

	// WebSocket feed of record snapshots.
	m.HandleFunc("/api/game/{id}/ws", s.serveData).Methods("GET")

	return m
}

func (s *Srv) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Srv) serveCreateSession(w http.ResponseWriter, r *http.Request) {
	id := "user_" + uuid.NewString()

	encoded, err := s.sc.Encode("session", id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  "Session",
		Value: encoded,
	})

	s.jsonResp(w, struct {
		ID string `json:"id"`
	}{id})
}

func (s *Srv) serveSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.loadSession(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if id == "" {
		http.Error(w, "No session", http.StatusUnauthorized)
		return
	}

	s.jsonResp(w, struct {
		ID string `json:"id"`
	}{id})
}

func (s *Srv) serveCreateGame(w http.ResponseWriter, r *http.Request) {
	var g codewords.Game
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !codewords.ValidGameID(g.ID) {
		http.Error(w, "Invalid game code", http.StatusBadRequest)
		return
	}
	if len(g.Cards) != codewords.Size {
		http.Error(w, "Malformed board", http.StatusBadRequest)
		return
	}

	if err := s.store.CreateGame(r.Context(), &g); err != nil {
		s.storeError(w, err)
		return
	}

	s.jsonResp(w, struct {
		ID string `json:"id"`
	}{string(g.ID)})
}

func (s *Srv) serveGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}

	g, err := s.store.Game(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.jsonResp(w, g)
}

func (s *Srv) serveUpdateGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := req.ToUpdate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateGame(r.Context(), id, u); err != nil {
		s.storeError(w, err)
		return
	}

	g, err := s.store.Game(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	if err := s.h.Broadcast(id, g); err != nil {
		s.log.Err(err).Str("game_id", string(id)).Msg("failed to broadcast update")
	}

	s.jsonResp(w, g)
}

func (s *Srv) serveQR(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}

	size := 256
	if v := r.FormValue("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 2048 {
			http.Error(w, "Invalid size", http.StatusBadRequest)
			return
		}
		size = n
	}

	link, err := joinlink.New(s.base, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	png, err := joinlink.QR(link, size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// serveData upgrades the connection and streams record snapshots. The
// current record goes out immediately so a fresh subscriber doesn't wait
// for the next write.
func (s *Srv) serveData(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}

	if _, err := s.store.Game(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Err(err).Str("game_id", string(id)).Msg("failed to upgrade connection")
		return
	}

	// Register before fetching the snapshot: a write that lands in between
	// reaches the connection's queue, and the snapshot fetched afterwards
	// already includes it. The other order can skip a settling write.
	send := s.h.Register(ws, id)

	g, err := s.store.Game(r.Context(), id)
	if err != nil {
		s.log.Err(err).Str("game_id", string(id)).Msg("failed to load initial snapshot")
		ws.Close()
		return
	}
	if err := send(g); err != nil {
		s.log.Err(err).Str("game_id", string(id)).Msg("failed to send initial snapshot")
		ws.Close()
	}
}

func (s *Srv) gameID(w http.ResponseWriter, r *http.Request) (codewords.GameID, bool) {
	id := codewords.GameID(mux.Vars(r)["id"])
	if !codewords.ValidGameID(id) {
		http.Error(w, "Invalid game code", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (s *Srv) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, codewords.ErrGameNotFound) {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	s.log.Err(err).Msg("store error")
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func (s *Srv) jsonResp(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Err(err).Msg("failed to encode response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *Srv) loadSession(r *http.Request) (string, error) {
	c, err := r.Cookie("Session")
	if err == http.ErrNoCookie {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var id string
	if err := s.sc.Decode("session", c.Value, &id); err != nil {
		// An unparseable cookie is treated as no session at all.
		return "", nil
	}

	return id, nil
}

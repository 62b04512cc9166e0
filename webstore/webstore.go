// Package webstore implements the record store against a codewords web
// server, so a terminal client and a browser client can share one game.
// Reads and writes go over HTTP, Watch streams snapshots over a websocket.
package webstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	codewords "github.com/bcspragu/Codewords"
	"github.com/bcspragu/Codewords/web"
)

type Store struct {
	scheme string
	addr   string
	http   *http.Client
}

func New(scheme, addr string) (*Store, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %v", err)
	}

	return &Store{
		scheme: scheme,
		addr:   addr,
		http:   &http.Client{Jar: jar},
	}, nil
}

func (s *Store) CreateGame(ctx context.Context, g *codewords.Game) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url("/api/game"), toBody(g))
	if err != nil {
		return fmt.Errorf("failed to form request: %w", err)
	}

	if err := s.do(req, nil); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (s *Store) Game(ctx context.Context, id codewords.GameID) (*codewords.Game, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url("/api/game/"+string(id)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var g codewords.Game
	if err := s.do(req, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) UpdateGame(ctx context.Context, id codewords.GameID, u codewords.GameUpdate) error {
	body, err := web.NewUpdateRequest(u)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url("/api/game/"+string(id)), toBody(body))
	if err != nil {
		return fmt.Errorf("failed to form request: %w", err)
	}

	if err := s.do(req, nil); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}

// Watch dials the server's websocket feed and invokes fn for every snapshot
// it sends, starting with the current record.
func (s *Store) Watch(ctx context.Context, id codewords.GameID, fn func(*codewords.Game)) (func(), error) {
	scheme := "ws"
	if s.scheme == "https" {
		scheme = "wss"
	}
	addr := scheme + "://" + s.addr + "/api/game/" + string(id) + "/ws"

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
		Jar:              s.http.Jar,
	}
	conn, resp, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, codewords.ErrGameNotFound
		}
		return nil, fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
	}

	var (
		mu      sync.Mutex
		stopped bool
	)
	done := make(chan struct{})
	stop := func() {
		mu.Lock()
		if stopped {
			mu.Unlock()
			return
		}
		stopped = true
		mu.Unlock()

		close(done)
		conn.Close()
	}

	go func() {
		defer conn.Close()
		for {
			var g codewords.Game
			if err := conn.ReadJSON(&g); err != nil {
				return
			}
			// Holding the lock across fn means no snapshot is
			// delivered after stop returns.
			mu.Lock()
			if stopped {
				mu.Unlock()
				return
			}
			fn(&g)
			mu.Unlock()
		}
	}()

	if d := ctx.Done(); d != nil {
		go func() {
			select {
			case <-d:
				stop()
			case <-done:
			}
		}()
	}

	return stop, nil
}

func (s *Store) url(path string) string {
	return s.scheme + "://" + s.addr + path
}

func (s *Store) do(req *http.Request, resp interface{}) error {
	httpResp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", codewords.ErrStorageUnavailable, err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode == http.StatusNotFound {
		return codewords.ErrGameNotFound
	}
	if httpResp.StatusCode != http.StatusOK {
		return handleError(httpResp)
	}

	if resp != nil {
		if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}

type httpError struct {
	statusCode int
	body       string
	err        error
}

func (h *httpError) Error() string {
	if h.err != nil {
		return fmt.Sprintf("[%d] failed to handle error: %v", h.statusCode, h.err)
	}
	return fmt.Sprintf("[%d] error from server: %s", h.statusCode, h.body)
}

func handleError(resp *http.Response) error {
	dat, err := io.ReadAll(resp.Body)
	if err != nil {
		return &httpError{
			statusCode: resp.StatusCode,
			err:        fmt.Errorf("failed to read error response body: %w", err),
		}
	}

	return &httpError{
		statusCode: resp.StatusCode,
		body:       string(dat),
	}
}

func toBody(req interface{}) io.Reader {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return &errReader{err: err}
	}
	return &buf
}

type errReader struct {
	err error
}

func (e *errReader) Read(_ []byte) (int, error) {
	return 0, e.err
}

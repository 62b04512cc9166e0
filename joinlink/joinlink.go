// Package joinlink builds and parses the shareable links that get players
// into a game, and renders them as QR codes for same-room play.
package joinlink

import (
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	codewords "github.com/bcspragu/Codewords"
)

const param = "join"

// New returns the shareable URL for the given game.
func New(base string, id codewords.GameID) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL %q: %w", base, err)
	}

	q := u.Query()
	q.Set(param, string(id))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Parse extracts the game code from a join link or a bare code. Codes are
// normalized to uppercase so hand-typed links still work.
func Parse(raw string) (codewords.GameID, bool) {
	code := strings.TrimSpace(raw)
	if u, err := url.Parse(code); err == nil {
		if v := u.Query().Get(param); v != "" {
			code = v
		}
	}

	id := codewords.GameID(strings.ToUpper(code))
	if !codewords.ValidGameID(id) {
		return "", false
	}
	return id, true
}

// QR renders the join link as a PNG of the given pixel size.
func QR(link string, size int) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

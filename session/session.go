// Package session manages the stable per-install session identifier. The ID
// is generated once, persisted to a local file, and reused across every game
// this client joins. It's what ends up in a record's spymasterId when this
// client wins the claim.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultPath returns where the session ID lives for this user.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find config dir: %w", err)
	}
	return filepath.Join(dir, "codewords", "session_id"), nil
}

// Load returns the session ID stored at path, generating and persisting a
// fresh one on first use.
func Load(path string) (string, error) {
	dat, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(dat)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	id := "user_" + uuid.NewString()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create session dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to persist session ID: %w", err)
	}
	return id, nil
}

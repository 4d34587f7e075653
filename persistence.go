package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"numberbaseball/internal/types"
)

// sessionStore keeps in-progress rounds on disk so a restart does not lose
// them. Finished rounds are never written.
type sessionStore struct {
	dir     string
	clock   quartz.Clock
	maxAge  time.Duration
	enabled bool
}

func newSessionStore(dir string, clock quartz.Clock, maxAge time.Duration) *sessionStore {
	return &sessionStore{dir: dir, clock: clock, maxAge: maxAge, enabled: dir != ""}
}

// path returns the file for sessionID, refusing anything that is not a UUID
// so a cookie can never point outside dir.
func (s *sessionStore) path(sessionID string) (string, error) {
	if err := uuid.Validate(sessionID); err != nil {
		return "", fmt.Errorf("invalid session ID %q: %w", sessionID, err)
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}

// save persists a session snapshot.
func (s *sessionStore) save(sessionID string, snap types.SessionSnapshot) error {
	if !s.enabled {
		return nil
	}
	sessionFile, err := s.path(sessionID)
	if err != nil {
		logWarn("Skipping save: %v", err)
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logWarn("Failed to create sessions directory: %v", err)
		return err
	}

	snap.LastAccessTime = s.clock.Now()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		logWarn("Failed to marshal session %s: %v", sessionID, err)
		return err
	}

	tmp := sessionFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		logWarn("Failed to write session file %s: %v", tmp, err)
		return err
	}
	if err := os.Rename(tmp, sessionFile); err != nil {
		_ = os.Remove(tmp)
		logWarn("Failed to move session file into place %s: %v", sessionFile, err)
		return err
	}
	return nil
}

// load reads a saved session. Expired or corrupted files are removed and
// reported as os.ErrNotExist.
func (s *sessionStore) load(sessionID string) (types.SessionSnapshot, error) {
	if !s.enabled {
		return types.SessionSnapshot{}, os.ErrNotExist
	}
	sessionFile, err := s.path(sessionID)
	if err != nil {
		return types.SessionSnapshot{}, os.ErrNotExist
	}

	data, err := os.ReadFile(sessionFile)
	if err != nil {
		return types.SessionSnapshot{}, err
	}

	var snap types.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logWarn("Session file %s is corrupted, removing: %v", sessionFile, err)
		_ = os.Remove(sessionFile)
		return types.SessionSnapshot{}, os.ErrNotExist
	}

	if age, old := s.expired(snap); old {
		logInfo("Session file is too old (%v, max: %v), removing: %s", age.Round(time.Second), s.maxAge, sessionFile)
		_ = os.Remove(sessionFile)
		return types.SessionSnapshot{}, os.ErrNotExist
	}
	return snap, nil
}

// expired reports how long ago snap was last used and whether that is
// beyond maxAge.
func (s *sessionStore) expired(snap types.SessionSnapshot) (time.Duration, bool) {
	age := s.clock.Since(snap.LastAccessTime)
	return age, age > s.maxAge
}

// remove deletes a saved session, if any.
func (s *sessionStore) remove(sessionID string) {
	if !s.enabled {
		return
	}
	sessionFile, err := s.path(sessionID)
	if err != nil {
		return
	}
	if err := os.Remove(sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logWarn("Failed to remove session file %s: %v", sessionFile, err)
	}
}

// cleanup removes session files not used within maxAge, and any it cannot
// decode, and returns how many were removed. Age comes from each file's
// LastAccessTime, the same clock load uses.
func (s *sessionStore) cleanup() (int, error) {
	if !s.enabled {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		sessionFile := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(sessionFile)
		if err != nil {
			logWarn("Failed to read session file %s: %v", sessionFile, err)
			continue
		}
		var snap types.SessionSnapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			if _, old := s.expired(snap); !old {
				continue
			}
		}
		if err := os.Remove(sessionFile); err != nil {
			logWarn("Failed to remove old session file %s: %v", sessionFile, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logInfo("Session cleanup removed %d files", removed)
	}
	return removed, nil
}

// Package artifacts persists rendered report documents on disk, one
// markdown file per cache key.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// keyPattern restricts artifact keys to hex cache keys so user input can
// never traverse out of the artifact directory.
var keyPattern = regexp.MustCompile(`^[a-f0-9]{16,128}$`)

// Store is a write-once-per-key markdown artifact store.
type Store struct {
	dir    string
	logger arbor.ILogger
}

// NewStore creates the artifact directory if needed and returns a store.
func NewStore(dir string, logger arbor.ILogger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// path returns the artifact file path for a key.
func (s *Store) path(key string) (string, error) {
	if !keyPattern.MatchString(strings.ToLower(key)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.dir, key+".md"), nil
}

// Write persists the markdown rendering for a key. Existing artifacts
// are left untouched; the store is write-once per key.
func (s *Store) Write(key string, markdown string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		s.logger.Debug().Str("cache_key", key).Msg("Artifact already exists, skipping write")
		return nil
	}

	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	s.logger.Debug().Str("cache_key", key).Int("bytes", len(markdown)).Msg("Artifact written")
	return nil
}

// Read returns the markdown artifact for a key.
func (s *Store) Read(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no artifact for key %s", key)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// Exists reports whether an artifact is stored for a key.
func (s *Store) Exists(key string) bool {
	path, err := s.path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes the artifact for a key if present.
func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// Sweep removes artifacts older than maxAge. Returns the number removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				s.logger.Warn().Err(err).Str("artifact", entry.Name()).Msg("Failed to remove expired artifact")
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// Package file implements a single-file session store for the CLI.
//
// The file holds every known session plus a pointer to the current one, so
// consecutive profilectl invocations share the login of the previous run.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

// DefaultFileName is the name of the session file inside the user's config dir.
const DefaultFileName = "session.json"

type document struct {
	Current  string                     `json:"current,omitempty"`
	Sessions map[string]session.Session `json:"sessions"`
}

// SessionStore persists sessions as JSON at a fixed path with mode 0600.
type SessionStore struct {
	path string
	mu   sync.Mutex
}

// NewSessionStore creates a store writing to path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/reboot-profile/session.json or its
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "reboot-profile", DefaultFileName), nil
}

var _ session.Store = (*SessionStore)(nil)

// Path returns the file location.
func (s *SessionStore) Path() string {
	return s.path
}

// Save stores sess and makes it the current session.
func (s *SessionStore) Save(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Sessions[sess.ID] = *sess
	doc.Current = sess.ID
	return s.write(doc)
}

// Get loads a session by id.
func (s *SessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	sess, ok := doc.Sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return &sess, nil
}

// Delete removes a session and clears the current pointer if it pointed at it.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Sessions[id]; !ok {
		return nil
	}
	delete(doc.Sessions, id)
	if doc.Current == id {
		doc.Current = ""
	}
	return s.write(doc)
}

// PurgeExpired drops sessions expired at now.
func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	purged := 0
	for id, sess := range doc.Sessions {
		if sess.Expired(now) {
			delete(doc.Sessions, id)
			if doc.Current == id {
				doc.Current = ""
			}
			purged++
		}
	}
	if purged == 0 {
		return 0, nil
	}
	return purged, s.write(doc)
}

// Current returns the id of the most recently saved session, or
// ErrSessionNotFound when nobody is logged in.
func (s *SessionStore) Current(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	if doc.Current == "" {
		return "", session.ErrSessionNotFound
	}
	return doc.Current, nil
}

func (s *SessionStore) load() (*document, error) {
	doc := &document{Sessions: make(map[string]session.Session)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]session.Session)
	}
	return doc, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *SessionStore) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return os.Rename(tmpName, s.path)
}

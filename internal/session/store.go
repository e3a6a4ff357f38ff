package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// Result is the outcome of a login or register attempt. Message carries the
// server's error text, or a fixed fallback when the request never reached
// the server.
type Result struct {
	OK      bool
	Message string
}

// Store owns the current session. It is the only writer of the client's
// bearer token; the token swap happens in the same critical section as the
// session swap, so no request goes out under a stale credential. Login and
// register run on command goroutines while the event loop reads Current, so
// session state is mutex-guarded. Subscribers are called outside the lock,
// on the goroutine that changed the session.
type Store struct {
	dir    string
	client *client.Client

	mu       sync.RWMutex
	session  *domain.Session
	restored bool
	subs     []func(*domain.Session)
}

// New creates a session store persisting under dir.
func New(dir string, c *client.Client) *Store {
	return &Store{dir: dir, client: c}
}

// Restore loads a persisted session from disk, if any. Corrupt or partial
// state is cleared rather than surfaced; the user simply logs in again.
// Calling Restore more than once is a no-op.
func (s *Store) Restore() {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return
	}
	s.restored = true
	s.mu.Unlock()

	token, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil || len(token) == 0 {
		s.clearFiles()
		return
	}
	data, err := os.ReadFile(filepath.Join(s.dir, userFile))
	if err != nil {
		s.clearFiles()
		return
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.clearFiles()
		return
	}
	sess.Token = string(token)
	s.activate(&sess)
}

// Login authenticates with the service and establishes a session. The
// session activates even if persisting it fails; it just will not survive a
// restart.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return Result{Message: client.ErrorMessage(err, "Login failed")}
	}

	sess := &domain.Session{
		ID: uuid.New(),
		User: domain.User{
			Username: resp.Username,
			Email:    email,
		},
	}
	sess.Token = resp.Token

	s.persist(sess)
	s.activate(sess)
	return Result{OK: true}
}

// Register creates an account then logs in with the same credentials.
func (s *Store) Register(ctx context.Context, email, username, password string) Result {
	if err := s.client.Signup(ctx, email, username, password); err != nil {
		return Result{Message: client.ErrorMessage(err, "Registration failed")}
	}
	return s.Login(ctx, email, password)
}

// Logout ends the session and removes persisted state. It is synchronous;
// no server call is involved.
func (s *Store) Logout() {
	s.clearFiles()
	s.activate(nil)
}

// Current returns the active session, or nil when logged out.
func (s *Store) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Active reports whether a session is established.
func (s *Store) Active() bool {
	return s.Current() != nil
}

// Subscribe registers fn to be called synchronously whenever the session
// changes, including on Restore. Subscribers added after Restore see only
// subsequent changes.
func (s *Store) Subscribe(fn func(*domain.Session)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) activate(sess *domain.Session) {
	s.mu.Lock()
	s.session = sess
	if sess != nil {
		s.client.SetToken(sess.Token)
	} else {
		s.client.ClearToken()
	}
	subs := make([]func(*domain.Session), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sess)
	}
}

// persist writes the token and user files. Failures are tolerated silently:
// the in-memory session still works, it just does not survive a restart.
func (s *Store) persist(sess *domain.Session) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(sess.Token), 0600); err != nil {
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, userFile), data, 0600); err != nil {
		os.Remove(filepath.Join(s.dir, tokenFile))
	}
}

func (s *Store) clearFiles() {
	os.Remove(filepath.Join(s.dir, tokenFile))
	os.Remove(filepath.Join(s.dir, userFile))
}

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/voltdeck/voltdeck/pkg/client"
	"github.com/voltdeck/voltdeck/pkg/domain"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "p" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
				return
			}
			json.NewEncoder(w).Encode(client.LoginResponse{Token: "tok1", Username: "u"})
		case "/auth/signup":
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoginEstablishesSession(t *testing.T) {
	server := newAuthServer(t)
	c := client.New(server.URL, "")
	store := New(t.TempDir(), c)

	res := store.Login(context.Background(), "u@x.com", "p")
	if !res.OK {
		t.Fatalf("Login failed: %s", res.Message)
	}
	sess := store.Current()
	if sess == nil {
		t.Fatal("Current = nil after login")
	}
	if sess.User.Username != "u" || sess.User.Email != "u@x.com" {
		t.Errorf("user = %+v", sess.User)
	}
	if sess.Token != "tok1" {
		t.Errorf("token = %q", sess.Token)
	}
	if c.Token() != "tok1" {
		t.Errorf("client token = %q, want tok1", c.Token())
	}
}

func TestLoginFailure(t *testing.T) {
	server := newAuthServer(t)
	c := client.New(server.URL, "")
	store := New(t.TempDir(), c)

	res := store.Login(context.Background(), "u@x.com", "wrong")
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Message != "invalid credentials" {
		t.Errorf("Message = %q", res.Message)
	}
	if store.Active() {
		t.Error("session active after failed login")
	}
	if c.Token() != "" {
		t.Errorf("client token = %q, want empty", c.Token())
	}
}

func TestLoginFallbackMessage(t *testing.T) {
	c := client.New("http://127.0.0.1:0", "")
	store := New(t.TempDir(), c)
	res := store.Login(context.Background(), "u@x.com", "p")
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Message != "Login failed" {
		t.Errorf("Message = %q, want %q", res.Message, "Login failed")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	server := newAuthServer(t)
	dir := t.TempDir()
	c := client.New(server.URL, "")
	store := New(dir, c)
	if res := store.Login(context.Background(), "u@x.com", "p"); !res.OK {
		t.Fatalf("Login: %s", res.Message)
	}

	c2 := client.New(server.URL, "")
	store2 := New(dir, c2)
	store2.Restore()
	sess := store2.Current()
	if sess == nil {
		t.Fatal("Restore did not recover session")
	}
	if sess.User.Username != "u" || sess.Token != "tok1" {
		t.Errorf("restored session = %+v token=%q", sess.User, sess.Token)
	}
	if c2.Token() != "tok1" {
		t.Errorf("client token = %q", c2.Token())
	}
}

func TestRestoreCorruptUserClearsBoth(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "token"), []byte("tok1"), 0600)
	os.WriteFile(filepath.Join(dir, "user.json"), []byte("{not json"), 0600)

	store := New(dir, client.New("http://example.com", ""))
	store.Restore()
	if store.Active() {
		t.Fatal("session active after corrupt restore")
	}
	if _, err := os.Stat(filepath.Join(dir, "token")); !os.IsNotExist(err) {
		t.Error("token file not removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "user.json")); !os.IsNotExist(err) {
		t.Error("user file not removed")
	}

	// A second restore is a no-op and must not panic or resurrect state.
	store.Restore()
	if store.Active() {
		t.Error("session active after second restore")
	}
}

func TestRestoreTokenWithoutUserClearsBoth(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "token"), []byte("tok1"), 0600)

	store := New(dir, client.New("http://example.com", ""))
	store.Restore()
	if store.Active() {
		t.Fatal("session active with no user file")
	}
	if _, err := os.Stat(filepath.Join(dir, "token")); !os.IsNotExist(err) {
		t.Error("token file not removed")
	}
}

func TestLogout(t *testing.T) {
	server := newAuthServer(t)
	dir := t.TempDir()
	c := client.New(server.URL, "")
	store := New(dir, c)
	if res := store.Login(context.Background(), "u@x.com", "p"); !res.OK {
		t.Fatalf("Login: %s", res.Message)
	}

	store.Logout()
	if store.Active() {
		t.Error("session active after logout")
	}
	if c.Token() != "" {
		t.Errorf("client token = %q after logout", c.Token())
	}
	if _, err := os.Stat(filepath.Join(dir, "token")); !os.IsNotExist(err) {
		t.Error("token file survives logout")
	}
	if _, err := os.Stat(filepath.Join(dir, "user.json")); !os.IsNotExist(err) {
		t.Error("user file survives logout")
	}
}

func TestRegister(t *testing.T) {
	server := newAuthServer(t)
	c := client.New(server.URL, "")
	store := New(t.TempDir(), c)

	res := store.Register(context.Background(), "u@x.com", "u", "p")
	if !res.OK {
		t.Fatalf("Register: %s", res.Message)
	}
	if !store.Active() {
		t.Error("no session after register")
	}
}

func TestSubscribe(t *testing.T) {
	server := newAuthServer(t)
	c := client.New(server.URL, "")
	store := New(t.TempDir(), c)

	var got []*domain.Session
	store.Subscribe(func(s *domain.Session) { got = append(got, s) })

	store.Login(context.Background(), "u@x.com", "p")
	store.Logout()

	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2", len(got))
	}
	if got[0] == nil || got[0].User.Username != "u" {
		t.Errorf("first notification = %+v", got[0])
	}
	if got[1] != nil {
		t.Errorf("second notification = %+v, want nil", got[1])
	}
}

// Login and register run on command goroutines while the event loop keeps
// rendering, so session reads must be safe against a concurrent activate.
// Run with -race.
func TestConcurrentLoginAndReads(t *testing.T) {
	server := newAuthServer(t)
	c := client.New(server.URL, "")
	store := New(t.TempDir(), c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			if res := store.Login(context.Background(), "u@x.com", "p"); !res.OK {
				t.Errorf("Login: %s", res.Message)
				return
			}
			store.Logout()
		}
	}()

	for {
		select {
		case <-done:
			if store.Active() {
				t.Error("session active after final logout")
			}
			return
		default:
			if sess := store.Current(); sess != nil && sess.User.Username != "u" {
				t.Fatalf("torn session read: %+v", sess.User)
			}
		}
	}
}

func TestTokenNotInUserFile(t *testing.T) {
	server := newAuthServer(t)
	dir := t.TempDir()
	store := New(dir, client.New(server.URL, ""))
	if res := store.Login(context.Background(), "u@x.com", "p"); !res.OK {
		t.Fatalf("Login: %s", res.Message)
	}
	data, err := os.ReadFile(filepath.Join(dir, "user.json"))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["token"]; ok {
		t.Error("token leaked into user.json")
	}
}

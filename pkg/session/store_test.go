package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/crypto/bcrypt"

	"github.com/mensylisir/hostboard/pkg/logger"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	log, _ := logger.NewLogger(logger.Options{})
	return NewStore(filepath.Join(t.TempDir(), "sessions.json"), ttl, log)
}

func TestLoginVerifyLogout(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if err := s.SetPassword("admin", "hunter2"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}

	token, err := s.Login("admin", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	user, err := s.Verify(token)
	if err != nil || user != "admin" {
		t.Fatalf("Verify = %q, %v", user, err)
	}

	if err := s.Logout(token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := s.Verify(token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Verify after logout = %v, want ErrSessionNotFound", err)
	}
	// Logging out an unknown token is a no-op.
	if err := s.Logout(token); err != nil {
		t.Errorf("second Logout: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if err := s.SetPassword("admin", "hunter2"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v", err)
	}
	if _, err := s.Login("nobody", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user = %v", err)
	}
	if _, err := s.Login("bad.user!", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("malformed username = %v", err)
	}
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if err := s.SetPassword("admin", "hunter2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Login("admin", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// gjson paths treat * and ? as wildcards; a token must never be
	// able to match a session it was not issued for.
	for _, token := range []string{"*", "?", "sessions.*", "", "a.b", "#"} {
		if user, err := s.Verify(token); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Verify(%q) = %q, %v, want ErrSessionNotFound", token, user, err)
		}
	}
	// Same for logout: a wildcard must not delete live sessions.
	if err := s.Logout("*"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(gjson.GetBytes(data, "sessions").Map()); n != 1 {
		t.Errorf("sessions after wildcard logout = %d, want 1", n)
	}
}

func TestSetPasswordRejectsInvalidUsername(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if err := s.SetPassword("has spaces", "x"); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("SetPassword = %v, want ErrInvalidUsername", err)
	}
}

func TestPasswordStoredHashed(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if err := s.SetPassword("admin", "hunter2"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatal(err)
	}
	stored := gjson.GetBytes(data, "users.admin").String()
	if stored == "hunter2" {
		t.Fatal("password stored in the clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("hunter2")) != nil {
		t.Error("stored value is not a bcrypt hash of the password")
	}
}

func TestVerifyExpiredSession(t *testing.T) {
	s := newTestStore(t, time.Hour)
	// Seed a session that expired an hour ago.
	doc, _ := sjson.Set("{}", "sessions.stale-token.user", "admin")
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	doc, _ = sjson.Set(doc, "sessions.stale-token.expiresAt", past)
	if err := os.WriteFile(s.path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Verify("stale-token"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Verify = %v, want ErrSessionExpired", err)
	}

	if err := s.Prune(); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if _, err := s.Verify("stale-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Verify after prune = %v, want ErrSessionNotFound", err)
	}
}

func TestLoginPrunesExpiredSessions(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if err := s.SetPassword("admin", "hunter2"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	doc, _ := sjson.Set(string(data), "sessions.stale-token.user", "admin")
	doc, _ = sjson.Set(doc, "sessions.stale-token.expiresAt", past)
	if err := os.WriteFile(s.path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Login("admin", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	data, _ = os.ReadFile(s.path)
	if gjson.GetBytes(data, "sessions.stale-token").Exists() {
		t.Error("expired session survived login")
	}
}

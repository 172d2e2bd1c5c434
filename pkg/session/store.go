// Package session implements a flat-file session store. Sessions and
// user credentials live in one JSON document guarded by an exclusive
// flock, so several hostboard processes pointed at the same state file
// cannot interleave read-modify-write cycles.
package session

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sys/unix"

	"github.com/mensylisir/hostboard/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidUsername    = errors.New("username contains invalid characters")
)

// usernameRe and tokenRe keep usernames and session tokens out of
// gjson path syntax. Tokens are UUIDs, so anything else (wildcards
// included) is rejected before it can form a path.
var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	tokenRe    = regexp.MustCompile(`^[a-zA-Z0-9-]{36}$`)
)

// Store is a session store backed by one JSON file.
type Store struct {
	path string
	ttl  time.Duration
	log  *logger.Logger
	mu   sync.Mutex
}

// NewStore returns a Store persisting to path with the given session
// lifetime.
func NewStore(path string, ttl time.Duration, log *logger.Logger) *Store {
	return &Store{path: path, ttl: ttl, log: log}
}

// SetPassword creates or replaces a user credential. The password is
// stored as a bcrypt hash, never in the clear.
func (s *Store) SetPassword(username, password string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.update(func(doc string) (string, bool, error) {
		out, err := sjson.Set(doc, "users."+username, string(hash))
		return out, true, err
	})
}

// Login verifies the credential and mints a new session token.
func (s *Store) Login(username, password string) (string, error) {
	if !usernameRe.MatchString(username) {
		return "", ErrInvalidCredentials
	}
	token := uuid.New().String()
	err := s.update(func(doc string) (string, bool, error) {
		hash := gjson.Get(doc, "users."+username)
		if !hash.Exists() {
			return doc, false, ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword([]byte(hash.String()), []byte(password)) != nil {
			return doc, false, ErrInvalidCredentials
		}
		doc = pruneExpired(doc)
		doc, err := sjson.Set(doc, "sessions."+token+".user", username)
		if err != nil {
			return doc, false, err
		}
		expires := time.Now().Add(s.ttl).UTC().Format(time.RFC3339)
		doc, err = sjson.Set(doc, "sessions."+token+".expiresAt", expires)
		return doc, true, err
	})
	if err != nil {
		return "", err
	}
	s.log.Debugf("session: issued token for user %s", username)
	return token, nil
}

// Verify checks a token and returns the username bound to it. Expired
// sessions are reported as expired and removed on the next write.
func (s *Store) Verify(token string) (string, error) {
	if !tokenRe.MatchString(token) {
		return "", ErrSessionNotFound
	}
	var user string
	err := s.read(func(doc string) error {
		sess := gjson.Get(doc, "sessions."+token)
		if !sess.Exists() {
			return ErrSessionNotFound
		}
		expires, err := time.Parse(time.RFC3339, sess.Get("expiresAt").String())
		if err != nil || time.Now().After(expires) {
			return ErrSessionExpired
		}
		user = sess.Get("user").String()
		return nil
	})
	return user, err
}

// Logout removes a session. Removing an unknown token is not an error.
func (s *Store) Logout(token string) error {
	if !tokenRe.MatchString(token) {
		return nil
	}
	return s.update(func(doc string) (string, bool, error) {
		if !gjson.Get(doc, "sessions."+token).Exists() {
			return doc, false, nil
		}
		out, err := sjson.Delete(doc, "sessions."+token)
		return out, true, err
	})
}

// Prune deletes all expired sessions.
func (s *Store) Prune() error {
	return s.update(func(doc string) (string, bool, error) {
		return pruneExpired(doc), true, nil
	})
}

// pruneExpired drops every session past its expiry from the document.
func pruneExpired(doc string) string {
	now := time.Now()
	gjson.Get(doc, "sessions").ForEach(func(key, value gjson.Result) bool {
		expires, err := time.Parse(time.RFC3339, value.Get("expiresAt").String())
		if err == nil && now.Before(expires) {
			return true
		}
		doc, _ = sjson.Delete(doc, "sessions."+key.String())
		return true
	})
	return doc
}

// read runs fn against the current document under a shared lock.
func (s *Store) read(fn func(doc string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	doc, err := readDoc(f)
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs a read-modify-write cycle under an exclusive lock. fn
// returns the new document and whether it must be written back.
func (s *Store) update(fn func(doc string) (string, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	doc, err := readDoc(f)
	if err != nil {
		return err
	}
	out, dirty, err := fn(doc)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = f.WriteString(out)
	return err
}

func (s *Store) open() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o600)
}

func readDoc(f *os.File) (string, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "{}", nil
	}
	return string(data), nil
}

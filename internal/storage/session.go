package storage

import (
	"context"
	"errors"
)

// SessionKey holds the admin console login flag.
const SessionKey = "isLoggedIn"

// Session is the admin console login flag kept next to the cart.
type Session struct {
	kv KV
}

// NewSession returns the session flag stored in kv.
func NewSession(kv KV) *Session {
	return &Session{kv: kv}
}

// LoggedIn reports whether the flag is set. A missing key means logged out.
func (s *Session) LoggedIn(ctx context.Context) (bool, error) {
	value, err := s.kv.Get(ctx, SessionKey)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(value) == "true", nil
}

// SetLoggedIn stores the flag, or removes it when loggedIn is false.
func (s *Session) SetLoggedIn(ctx context.Context, loggedIn bool) error {
	if !loggedIn {
		return s.kv.Delete(ctx, SessionKey)
	}
	return s.kv.Set(ctx, SessionKey, []byte("true"))
}

package session

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const contextKey = "_portal_session"

const flashPrefix = "_flash:"

// Session wraps a gorilla session and tracks whether it needs saving.
type Session struct {
	raw        *sessions.Session
	modified   bool
	destroyed  bool
	previousID string
}

// FromContext returns the request session, or nil when the session
// middleware is not installed.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}

// ID returns the store-assigned id; empty until first saved in server stores.
func (s *Session) ID() string { return s.raw.ID }

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool { return s.raw.IsNew }

// Modified reports whether the session has pending changes.
func (s *Session) Modified() bool { return s.modified || s.destroyed }

func (s *Session) Get(key string) (any, bool) {
	v, ok := s.raw.Values[key]
	return v, ok
}

// GetString returns the value for key when it is a string.
func (s *Session) GetString(key string) string {
	v, _ := s.raw.Values[key].(string)
	return v
}

func (s *Session) Set(key string, value any) {
	s.raw.Values[key] = value
	s.modified = true
	s.destroyed = false
}

func (s *Session) Delete(key string) {
	if _, ok := s.raw.Values[key]; !ok {
		return
	}
	delete(s.raw.Values, key)
	s.modified = true
}

// AddFlash queues a one-shot message under kind.
func (s *Session) AddFlash(kind, message string) {
	s.raw.AddFlash(message, flashPrefix+kind)
	s.modified = true
	s.destroyed = false
}

// Flashes returns and clears the messages queued under kind.
func (s *Session) Flashes(kind string) []string {
	raw := s.raw.Flashes(flashPrefix + kind)
	if len(raw) == 0 {
		return nil
	}
	s.modified = true

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if msg, ok := v.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// Regenerate drops all values and moves the session to a fresh id. The old
// id is removed from server-side storage on save.
func (s *Session) Regenerate() {
	if s.previousID == "" {
		s.previousID = s.raw.ID
	}
	s.raw.ID = ""
	s.raw.Values = make(map[interface{}]interface{})
	s.modified = true
	s.destroyed = false
}

// Destroy deletes the session and expires its cookie on save.
func (s *Session) Destroy() {
	s.raw.Values = make(map[interface{}]interface{})
	s.destroyed = true
}

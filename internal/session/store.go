package session

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"github.com/octobees/portal/internal/config"
	"github.com/octobees/portal/internal/repository"
)

// ErrInvalidCookie marks a session cookie that failed signature or timestamp checks.
var ErrInvalidCookie = errors.New("session: invalid cookie")

// fallbackTTL bounds server-side storage of browser-lifetime (MaxAge 0) sessions.
const fallbackTTL = 24 * time.Hour

// ServerStore is a sessions.Store whose cookie only carries a signed id;
// the values live in a Backend.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend Backend
}

// NewServerStore builds a store over backend. keyPairs follow gorilla's
// hash/block key convention.
func NewServerStore(backend Backend, opts *sessions.Options, keyPairs ...[]byte) *ServerStore {
	if opts == nil {
		opts = &sessions.Options{Path: "/", MaxAge: int(fallbackTTL.Seconds()), HttpOnly: true}
	}
	s := &ServerStore{
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: opts,
		backend: backend,
	}
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(opts.MaxAge)
			sc.MaxLength(0)
		}
	}
	return s
}

// Get returns the session for name, cached per request.
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie, or returns a fresh one.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}

	data, err := s.backend.Load(r.Context(), session.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			session.ID = ""
			return session, nil
		}
		return session, fmt.Errorf("load session: %w", err)
	}

	if err := securecookie.DecodeMulti(name, data, &session.Values, s.Codecs...); err != nil {
		session.ID = ""
		session.Values = make(map[interface{}]interface{})
		return session, fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}

	session.IsNew = false
	return session, nil
}

// Save persists the values and writes the id cookie. A negative MaxAge
// deletes the session.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(ctx, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newID()
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}

	if err := s.backend.Store(ctx, session.ID, data, s.expiry(session.Options)); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	encodedID, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encodedID, session.Options))
	return nil
}

// Delete drops a session by id without touching cookies.
func (s *ServerStore) Delete(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, id)
}

func (s *ServerStore) expiry(opts *sessions.Options) time.Time {
	if opts.MaxAge > 0 {
		return time.Now().Add(time.Duration(opts.MaxAge) * time.Second)
	}
	return time.Now().Add(fallbackTTL)
}

func newID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

// CookieOptions derives cookie attributes from configuration.
func CookieOptions(cfg config.SessionConfig) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieStore keeps the whole session inside the signed cookie.
func NewCookieStore(opts *sessions.Options, keyPairs ...[]byte) *sessions.CookieStore {
	cs := sessions.NewCookieStore(keyPairs...)
	cs.Options = opts
	cs.MaxAge(opts.MaxAge)
	return cs
}

// StoreDeps carries the clients a configured store may need.
type StoreDeps struct {
	Sessions repository.SessionsRepository
	Redis    redis.Cmdable
}

// NewStore builds the store selected by cfg.Store. The returned Purger is
// nil for backends that expire entries on their own.
func NewStore(cfg config.SessionConfig, deps StoreDeps) (sessions.Store, Purger, error) {
	opts := CookieOptions(cfg)
	secret := []byte(cfg.Secret)

	switch cfg.Store {
	case config.SessionStorePostgres:
		if deps.Sessions == nil {
			return nil, nil, errors.New("postgres session store requires a sessions repository")
		}
		backend := NewPostgresBackend(deps.Sessions)
		return NewServerStore(backend, opts, secret), backend, nil
	case config.SessionStoreRedis:
		if deps.Redis == nil {
			return nil, nil, errors.New("redis session store requires a redis client")
		}
		return NewServerStore(NewRedisBackend(deps.Redis, ""), opts, secret), nil, nil
	case config.SessionStoreCookie:
		return NewCookieStore(opts, secret), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Deleter is implemented by stores that can drop a session by id.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Options controls when sessions are written back to the store.
type Options struct {
	Name string
	// SaveUninitialized saves sessions created during the request even
	// when nothing was stored in them.
	SaveUninitialized bool
	// Resave writes existing sessions back even when unmodified.
	Resave bool
}

// Manager loads one named session per request and saves it before the
// response headers go out.
type Manager struct {
	store  sessions.Store
	opts   Options
	logger *zap.Logger
}

// NewManager builds a manager over store.
func NewManager(store sessions.Store, opts Options, logger *zap.Logger) *Manager {
	if opts.Name == "" {
		opts.Name = "sid"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, opts: opts, logger: logger}
}

// Store returns the underlying gorilla store.
func (m *Manager) Store() sessions.Store {
	return m.store
}

// Middleware installs the store for echo-contrib and exposes *Session in the context.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	inject := echosession.Middleware(m.store)

	load := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := echosession.Get(m.opts.Name, c)
			if err != nil {
				if raw == nil || !unreadable(err) {
					return fmt.Errorf("load session: %w", err)
				}
				m.logger.Debug("discarding unreadable session cookie", zap.Error(err))
			}

			s := &Session{raw: raw}
			c.Set(contextKey, s)

			saved := false
			save := func() {
				if saved {
					return
				}
				saved = true
				if !m.shouldSave(s) {
					return
				}
				if err := m.save(c, s); err != nil {
					m.logger.Error("save session", zap.Error(err), zap.String("path", c.Request().URL.Path))
				}
			}

			c.Response().Before(save)
			err = next(c)
			if !c.Response().Committed {
				save()
			}
			return err
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return inject(load(next))
	}
}

func (m *Manager) shouldSave(s *Session) bool {
	switch {
	case s.Modified():
		return true
	case s.raw.IsNew:
		return m.opts.SaveUninitialized
	default:
		return m.opts.Resave
	}
}

func (m *Manager) save(c echo.Context, s *Session) error {
	if s.previousID != "" {
		if d, ok := m.store.(Deleter); ok {
			if err := d.Delete(c.Request().Context(), s.previousID); err != nil {
				m.logger.Warn("delete regenerated session", zap.Error(err))
			}
		}
		s.previousID = ""
	}

	if s.destroyed {
		opts := *s.raw.Options
		opts.MaxAge = -1
		s.raw.Options = &opts
	}

	return m.store.Save(c.Request(), c.Response(), s.raw)
}

func unreadable(err error) bool {
	if errors.Is(err, ErrInvalidCookie) {
		return true
	}
	var scErr securecookie.Error
	return errors.As(err, &scErr) && scErr.IsDecode()
}

package session

import (
	"context"
	"net/http"
	"time"

	"github.com/prevozkop/backend/config"
	"github.com/rs/zerolog/log"
)

type contextKey struct{}

type state struct {
	id   string
	data Data
}

// Manager ties a Store to the session cookie.
type Manager struct {
	store    Store
	name     string
	secure   bool
	sameSite http.SameSite
}

func NewManager(store Store, cfg config.Session) *Manager {
	name := cfg.CookieName
	if name == "" {
		name = "prevozkop_session"
	}
	return &Manager{
		store:    store,
		name:     name,
		secure:   cfg.Secure,
		sameSite: cfg.SameSite,
	}
}

// Middleware loads the session named by the cookie into the request context
// and refreshes its TTL. Unknown or expired ids are treated as anonymous.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.name)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		data, ok, err := m.store.Load(ctx, cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load session")
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if err := m.store.Touch(ctx, cookie.Value); err != nil {
			log.Warn().Err(err).Msg("Failed to refresh session TTL")
		}
		ctx = context.WithValue(ctx, contextKey{}, state{id: cookie.Value, data: data})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start replaces any current session with a fresh id holding data.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, data Data) error {
	ctx := r.Context()
	if old := m.currentID(r); old != "" {
		if err := m.store.Destroy(ctx, old); err != nil {
			log.Warn().Err(err).Msg("Failed to destroy previous session")
		}
	}

	id, err := newID()
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, id, data); err != nil {
		return err
	}

	http.SetCookie(w, m.cookie(id, 0))
	return nil
}

// Destroy removes the server-side session and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	var err error
	if id := m.currentID(r); id != "" {
		err = m.store.Destroy(r.Context(), id)
	}
	http.SetCookie(w, m.cookie("", -1))
	return err
}

func (m *Manager) currentID(r *http.Request) string {
	if st, ok := r.Context().Value(contextKey{}).(state); ok {
		return st.id
	}
	if cookie, err := r.Cookie(m.name); err == nil {
		return cookie.Value
	}
	return ""
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   maxAge,
	}
	if maxAge < 0 {
		c.Expires = time.Unix(1, 0)
	}
	return c
}

// FromContext returns the session loaded by Middleware.
func FromContext(ctx context.Context) (Data, bool) {
	st, ok := ctx.Value(contextKey{}).(state)
	return st.data, ok
}

// AdminID returns the logged-in admin, if any.
func AdminID(ctx context.Context) (uint, bool) {
	data, ok := FromContext(ctx)
	if !ok || data.AdminID == 0 {
		return 0, false
	}
	return data.AdminID, true
}

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classhelper/internal/api"
)

// Options configures a Manager.
type Options struct {
	Secret     string
	Issuer     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager binds sessions to requests through a signed cookie.
type Manager struct {
	store Store
	opts  Options
	now   func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = "classhelper_session"
	}
	return &Manager{store: store, opts: opts, now: time.Now}
}

// Start stores a new session for token and user and sets the cookie.
func (m *Manager) Start(c *gin.Context, token string, user api.User) (*Session, error) {
	if token == "" {
		return nil, errors.New("session: empty api token")
	}
	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		APIToken:  token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.Put(c.Request.Context(), s); err != nil {
		return nil, err
	}
	value, err := Issue(s.ID, m.opts.Issuer, m.opts.Secret, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session cookie: %w", err)
	}
	m.setCookie(c, value, int(m.opts.TTL.Seconds()))
	return s, nil
}

// Load returns the session named by the request cookie.
func (m *Manager) Load(c *gin.Context) (*Session, error) {
	value, err := c.Cookie(m.opts.CookieName)
	if err != nil || value == "" {
		return nil, ErrNotFound
	}
	claims, err := Parse(value, m.opts.Secret, m.opts.Issuer)
	if err != nil {
		return nil, ErrNotFound
	}
	s, err := m.store.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) || s.APIToken == "" {
		return nil, ErrNotFound
	}
	return s, nil
}

// End removes the request's session, token and user together, and clears
// the cookie. A missing session is not an error.
func (m *Manager) End(c *gin.Context) error {
	defer m.setCookie(c, "", -1)
	value, err := c.Cookie(m.opts.CookieName)
	if err != nil || value == "" {
		return nil
	}
	claims, err := Parse(value, m.opts.Secret, m.opts.Issuer)
	if err != nil {
		return nil
	}
	return m.store.Delete(c.Request.Context(), claims.SessionID)
}

// Healthy reports whether the backing store answers. Stores without a
// health check are always healthy.
func (m *Manager) Healthy(ctx context.Context) bool {
	if h, ok := m.store.(interface{ Healthy(context.Context) bool }); ok {
		return h.Healthy(ctx)
	}
	return true
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.opts.CookieName, value, maxAge, "/", "", m.opts.Secure, true)
}

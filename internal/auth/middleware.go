package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"classhelper/internal/session"
)

const sessionKey = "session"

// LoginPath is where requests without a valid session are sent.
const LoginPath = "/login"

// RequireSession lets a request through only when it carries a live
// session with an API token. Anything else is redirected to the login page
// without an error message.
func RequireSession(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.Load(c)
		if err != nil {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// GuestOnly sends logged-in browsers away from the login and register pages.
func GuestOnly(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := m.Load(c); err == nil {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Current returns the session attached by RequireSession.
func Current(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/session"
)

// ErrNoToken is returned when a login response carries no token.
var ErrNoToken = errors.New("login response has no token")

// API is the subset of the classroom API used for the session lifecycle.
type API interface {
	Login(ctx context.Context, creds api.Credentials) (api.AuthResponse, error)
	Register(ctx context.Context, reg api.Registration) (api.AuthResponse, error)
	Logout(ctx context.Context) error
}

// Service logs browsers in and out of the classroom API.
type Service struct {
	log      *zap.Logger
	sessions *session.Manager
}

func NewService(log *zap.Logger, sessions *session.Manager) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log, sessions: sessions}
}

// Login exchanges credentials for a token and starts a session holding the
// token and the returned user.
func (s *Service) Login(c *gin.Context, client API, creds api.Credentials) (*session.Session, error) {
	resp, err := client.Login(c.Request.Context(), creds)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}
	sess, err := s.sessions.Start(c, resp.Token, resp.User)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.log.Info("login", zap.Int("user_id", resp.User.ID), zap.String("session_id", sess.ID))
	return sess, nil
}

// Register creates an account. When the API answers with a token the
// browser is logged in at once; otherwise the returned session is nil.
func (s *Service) Register(c *gin.Context, client API, reg api.Registration) (*session.Session, error) {
	resp, err := client.Register(c.Request.Context(), reg)
	if err != nil {
		return nil, err
	}
	s.log.Info("registered", zap.String("username", reg.Username), zap.Int("user_id", resp.User.ID))
	if resp.Token == "" {
		return nil, nil
	}
	sess, err := s.sessions.Start(c, resp.Token, resp.User)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return sess, nil
}

// Logout tells the API the token is done and ends the local session even
// when that call fails.
func (s *Service) Logout(c *gin.Context, client API) error {
	if err := client.Logout(c.Request.Context()); err != nil {
		s.log.Warn("api logout failed", zap.Error(err))
	}
	return s.sessions.End(c)
}

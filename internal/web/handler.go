// Package web serves the classroom pages. Every page reads from the remote
// classroom API through a client bound to the browser's session.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/attendance"
	"classhelper/internal/auth"
	"classhelper/internal/enrich"
	"classhelper/internal/session"
	"classhelper/internal/students"
	"classhelper/internal/vocab"
)

// Deps are the collaborators of a Handler.
type Deps struct {
	API         *api.Client
	Sessions    *session.Manager
	Auth        *auth.Service
	Students    *students.Service
	Attendance  *attendance.Service
	Vocab       *vocab.Service
	Log         *zap.Logger
	PageTimeout time.Duration
}

// Handler renders the browser routes.
type Handler struct {
	api         *api.Client
	sessions    *session.Manager
	auth        *auth.Service
	students    *students.Service
	attendance  *attendance.Service
	vocab       *vocab.Service
	log         *zap.Logger
	pageTimeout time.Duration
	views       *views
}

func New(d Deps) (*Handler, error) {
	if d.API == nil || d.Sessions == nil {
		return nil, errors.New("web: api client and session manager are required")
	}
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		api:         d.API,
		sessions:    d.Sessions,
		auth:        d.Auth,
		students:    d.Students,
		attendance:  d.Attendance,
		vocab:       d.Vocab,
		log:         log,
		pageTimeout: d.PageTimeout,
		views:       v,
	}
	if h.auth == nil {
		h.auth = auth.NewService(log, d.Sessions)
	}
	if h.students == nil {
		h.students = students.NewService(log, nil)
	}
	if h.attendance == nil {
		h.attendance = attendance.NewService(log, enrich.Options{})
	}
	if h.vocab == nil {
		h.vocab = vocab.NewService(log, enrich.Options{})
	}
	return h, nil
}

// Register mounts the pages on r. credentialLimits run before the login and
// register posts.
func (h *Handler) Register(r gin.IRouter, credentialLimits ...gin.HandlerFunc) {
	limited := func(final gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, credentialLimits...), final)
	}

	guest := r.Group("/", auth.GuestOnly(h.sessions))
	guest.GET("/login", h.loginPage)
	guest.POST("/login", limited(h.login)...)
	guest.GET("/register", h.registerPage)
	guest.POST("/register", limited(h.register)...)

	app := r.Group("/", auth.RequireSession(h.sessions))
	app.POST("/logout", h.logout)
	app.GET("/", h.home)
	app.GET("/profile", h.profile)
	app.POST("/profile", h.updateProfile)
	app.GET("/attendance", h.attendanceLists)
	app.GET("/attendance/:id", h.attendanceSheet)
	app.POST("/attendance/:id/records/:recordId", h.checkIn)
	app.GET("/vocab-list", h.vocabLists)
	app.GET("/vocab-list/:id", h.vocabList)
	app.POST("/vocab-list/:id/vocabs", h.createVocab)
	app.POST("/vocab-list/:id/vocabs/:vocabId", h.updateVocab)
}

// client returns the API client bound to the request's session.
func (h *Handler) client(c *gin.Context) *api.Client {
	return h.api.As(auth.Current(c))
}

// pageContext bounds all fetches of one page. A browser that goes away
// cancels the request context and with it every outstanding fetch.
func (h *Handler) pageContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.pageTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.pageTimeout)
}

// unauthorized ends the session and sends the browser to the login page
// when err is an API 401. It reports whether it did so.
func (h *Handler) unauthorized(c *gin.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	if endErr := h.sessions.End(c); endErr != nil {
		h.log.Warn("end session failed", zap.Error(endErr))
	}
	c.Redirect(http.StatusSeeOther, auth.LoginPath)
	return true
}

// upstreamStatus maps an API failure to the status of the rendered page.
func upstreamStatus(err error) int {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) int {
	if s := auth.Current(c); s != nil {
		return s.User.ID
	}
	return 0
}

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/auth"
)

const (
	msgRequired     = "Please fill in all required fields."
	msgAuthFallback = "An error occurred."
)

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type registerForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	FullName string `form:"userFullName" binding:"required"`
	Gender   string `form:"gender"`
	Nickname string `form:"nickname"`
	Age      int    `form:"age" binding:"required"`
	Address  string `form:"address" binding:"required"`
}

// Passwords are never echoed back into a re-rendered form.
type authView struct {
	Username string
	Register registerForm
	Genders  []string
}

var genders = []string{"Boy", "Girl"}

func (h *Handler) loginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login", page{Title: "Login", View: authView{}})
}

func (h *Handler) login(c *gin.Context) {
	var f loginForm
	if err := c.ShouldBind(&f); err != nil {
		h.render(c, http.StatusBadRequest, "login", page{Title: "Login", Error: msgRequired, View: authView{Username: f.Username}})
		return
	}
	if _, err := h.auth.Login(c, h.api, api.Credentials{Username: f.Username, Password: f.Password}); err != nil {
		h.log.Info("login rejected", zap.String("username", f.Username), zap.Error(err))
		h.render(c, upstreamStatus(err), "login", page{
			Title: "Login",
			Error: api.Message(err, msgAuthFallback),
			View:  authView{Username: f.Username},
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) registerPage(c *gin.Context) {
	h.render(c, http.StatusOK, "register", page{Title: "Register", View: authView{Register: registerForm{Gender: genders[0]}, Genders: genders}})
}

func (h *Handler) register(c *gin.Context) {
	var f registerForm
	if err := c.ShouldBind(&f); err != nil {
		f.Password = ""
		h.render(c, http.StatusBadRequest, "register", page{Title: "Register", Error: msgRequired, View: authView{Register: f, Genders: genders}})
		return
	}
	if f.Gender == "" {
		f.Gender = genders[0]
	}
	sess, err := h.auth.Register(c, h.api, api.Registration{
		Username: f.Username,
		Password: f.Password,
		FullName: f.FullName,
		Gender:   f.Gender,
		Nickname: f.Nickname,
		Age:      f.Age,
		Address:  f.Address,
	})
	if err != nil {
		f.Password = ""
		h.render(c, upstreamStatus(err), "register", page{
			Title: "Register",
			Error: api.Message(err, msgAuthFallback),
			View:  authView{Register: f, Genders: genders},
		})
		return
	}
	if sess == nil {
		c.Redirect(http.StatusSeeOther, auth.LoginPath)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.Logout(c, h.client(c)); err != nil {
		h.log.Warn("logout failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, auth.LoginPath)
}

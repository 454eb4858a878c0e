package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"classhelper/internal/api"
	"classhelper/internal/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"login", "register", "home", "profile",
	"attendance_lists", "attendance_sheet", "vocab_lists", "vocab_list", "error",
}

type views struct {
	pages map[string]*template.Template
}

func loadViews() (*views, error) {
	funcs := template.FuncMap{
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
		"listStatusClass": func(status string) string {
			switch status {
			case api.ListActive:
				return "status-active"
			case api.ListClosed, api.ListCancelled:
				return "status-closed"
			default:
				return "status-other"
			}
		},
	}
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// page is the data every template receives.
type page struct {
	Title  string
	User   *api.User
	Error  string
	Notice string
	View   any
}

func (h *Handler) render(c *gin.Context, status int, name string, p page) {
	t, ok := h.views.pages[name]
	if !ok {
		h.log.Error("unknown template " + name)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if s := auth.Current(c); s != nil && p.User == nil {
		u := s.User
		p.User = &u
	}
	c.Render(status, render.HTML{Template: t, Name: "layout", Data: p})
}

func (h *Handler) renderError(c *gin.Context, status int, msg string) {
	h.render(c, status, "error", page{Title: "Error", Error: msg})
}

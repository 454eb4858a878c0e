package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/students"
)

type homeView struct {
	Query    string
	Students []api.Student
}

func (h *Handler) home(c *gin.Context) {
	ctx, cancel := h.pageContext(c)
	defer cancel()

	q := strings.TrimSpace(c.Query("q"))
	list, err := h.students.Roster(ctx, h.client(c), q)
	if err != nil {
		if h.unauthorized(c, err) {
			return
		}
		h.log.Warn("roster load failed", zap.String("query", q), zap.Error(err))
		msg := "Failed to load students. Please try again later."
		if q != "" {
			msg = "An error occurred while searching for students."
		}
		h.render(c, upstreamStatus(err), "home", page{Title: "Students", Error: msg, View: homeView{Query: q}})
		return
	}

	p := page{Title: "Students", View: homeView{Query: q, Students: list}}
	if q != "" && len(list) == 0 {
		p.Notice = "No students found matching the query."
	}
	h.render(c, http.StatusOK, "home", p)
}

type profileView struct {
	Student       api.Student
	Form          students.ProfileForm
	PhotosEnabled bool
}

func (h *Handler) profile(c *gin.Context) {
	ctx, cancel := h.pageContext(c)
	defer cancel()

	st, err := h.students.Profile(ctx, h.client(c), currentUserID(c))
	if err != nil {
		h.profileLoadFailed(c, err)
		return
	}
	h.render(c, http.StatusOK, "profile", page{Title: "Profile", View: profileView{
		Student: st, Form: students.FormFrom(st), PhotosEnabled: h.students.PhotosEnabled(),
	}})
}

func (h *Handler) updateProfile(c *gin.Context) {
	ctx, cancel := h.pageContext(c)
	defer cancel()

	client := h.client(c)
	st, err := h.students.Profile(ctx, client, currentUserID(c))
	if err != nil {
		h.profileLoadFailed(c, err)
		return
	}
	view := profileView{Student: st, PhotosEnabled: h.students.PhotosEnabled()}

	var f students.ProfileForm
	if err := c.ShouldBind(&f); err != nil {
		view.Form = f
		h.render(c, http.StatusBadRequest, "profile", page{Title: "Profile", Error: msgRequired, View: view})
		return
	}

	var photo *students.Photo
	if view.PhotosEnabled {
		if fh, err := c.FormFile("photo"); err == nil && fh.Size > 0 {
			file, err := fh.Open()
			if err != nil {
				h.log.Warn("open profile photo failed", zap.Error(err))
			} else {
				defer file.Close()
				photo = &students.Photo{Filename: fh.Filename, Data: file}
			}
		}
	}

	updated, err := h.students.UpdateProfile(ctx, client, st, f, photo)
	if err != nil {
		if h.unauthorized(c, err) {
			return
		}
		h.log.Warn("profile update failed", zap.Int("student_id", st.ID), zap.Error(err))
		view.Form = f
		h.render(c, upstreamStatus(err), "profile", page{
			Title: "Profile",
			Error: api.Message(err, "Failed to update profile. Please try again."),
			View:  view,
		})
		return
	}

	view.Student, view.Form = updated, students.FormFrom(updated)
	h.render(c, http.StatusOK, "profile", page{Title: "Profile", Notice: "Profile updated successfully", View: view})
}

func (h *Handler) profileLoadFailed(c *gin.Context, err error) {
	if h.unauthorized(c, err) {
		return
	}
	h.log.Warn("profile load failed", zap.Int("user_id", currentUserID(c)), zap.Error(err))
	h.render(c, upstreamStatus(err), "profile", page{
		Title: "Profile",
		Error: api.Message(err, "Failed to load student data. Please try again."),
	})
}

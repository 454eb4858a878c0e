package students

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/cloudinary"
)

// API is the subset of the classroom API used by roster and profile pages.
type API interface {
	Students(ctx context.Context) ([]api.Student, error)
	SearchStudents(ctx context.Context, q string) ([]api.Student, error)
	Student(ctx context.Context, id int) (api.Student, error)
	StudentByUser(ctx context.Context, userID int) (api.Student, error)
	UpdateStudent(ctx context.Context, id int, upd api.StudentUpdate) error
}

// Uploader stores a profile photo and returns its public URL.
type Uploader interface {
	UploadBytes(ctx context.Context, data []byte, filename string) (*cloudinary.UploadResult, error)
}

// ProfileForm holds the editable profile fields.
type ProfileForm struct {
	FullName string `form:"userFullName" binding:"required"`
	Age      int    `form:"age" binding:"gte=0"`
	Address  string `form:"address" binding:"required"`
	Nickname string `form:"nickname"`
}

// FormFrom pre-populates a profile form from a student.
func FormFrom(st api.Student) ProfileForm {
	return ProfileForm{FullName: st.FullName, Age: st.Age, Address: st.Address, Nickname: st.Nickname}
}

// Photo is an uploaded profile picture.
type Photo struct {
	Filename string
	Data     io.Reader
}

// Service serves the roster and the profile page.
type Service struct {
	log      *zap.Logger
	uploader Uploader
}

// NewService creates a service. uploader may be nil when photo uploads are
// not configured.
func NewService(log *zap.Logger, uploader Uploader) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log, uploader: uploader}
}

// PhotosEnabled reports whether profile photos can be uploaded.
func (s *Service) PhotosEnabled() bool { return s.uploader != nil }

// Roster returns every student, or those matching query.
func (s *Service) Roster(ctx context.Context, c API, query string) ([]api.Student, error) {
	if query == "" {
		return c.Students(ctx)
	}
	return c.SearchStudents(ctx, query)
}

// Current resolves the student profile owned by the logged-in account.
func (s *Service) Current(ctx context.Context, c API, userID int) (api.Student, error) {
	if userID == 0 {
		return api.Student{}, fmt.Errorf("resolve student: no user id in session")
	}
	st, err := c.StudentByUser(ctx, userID)
	if err != nil {
		return api.Student{}, fmt.Errorf("resolve student for user %d: %w", userID, err)
	}
	return st, nil
}

// Profile loads the full student record of the logged-in account.
func (s *Service) Profile(ctx context.Context, c API, userID int) (api.Student, error) {
	owner, err := s.Current(ctx, c, userID)
	if err != nil {
		return api.Student{}, err
	}
	st, err := c.Student(ctx, owner.ID)
	if err != nil {
		return api.Student{}, fmt.Errorf("load student %d: %w", owner.ID, err)
	}
	return st, nil
}

// UpdateProfile saves the form, uploading photo first when given, and
// returns the student as it should now be displayed.
func (s *Service) UpdateProfile(ctx context.Context, c API, st api.Student, f ProfileForm, photo *Photo) (api.Student, error) {
	upd := api.StudentUpdate{FullName: f.FullName, Age: f.Age, Address: f.Address, Nickname: f.Nickname}

	if photo != nil && s.uploader != nil {
		data, err := io.ReadAll(photo.Data)
		if err != nil {
			return st, fmt.Errorf("read profile photo: %w", err)
		}
		res, err := s.uploader.UploadBytes(ctx, data, photo.Filename)
		if err != nil {
			return st, fmt.Errorf("upload profile photo: %w", err)
		}
		upd.ProfileImage = res.SecureURL
		s.log.Info("profile photo uploaded", zap.Int("student_id", st.ID), zap.String("public_id", res.PublicID))
	}

	if err := c.UpdateStudent(ctx, st.ID, upd); err != nil {
		return st, fmt.Errorf("update student %d: %w", st.ID, err)
	}

	st.FullName, st.Age, st.Address, st.Nickname = f.FullName, f.Age, f.Address, f.Nickname
	if upd.ProfileImage != "" {
		st.ProfileImage = upd.ProfileImage
	}
	return st, nil
}

package attendance

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/enrich"
	"classhelper/internal/metrics"
)

// DefaultListStatus is assumed when a list's status cannot be fetched.
const DefaultListStatus = api.ListActive

// UnknownStudent is the display name used when a student lookup fails.
const UnknownStudent = "Unknown"

var (
	ErrNotOwner       = errors.New("record belongs to another student")
	ErrListClosed     = errors.New("attendance list is closed")
	ErrRecordNotFound = errors.New("attendance record not found")
)

// API is the subset of the classroom API used by attendance pages.
type API interface {
	AttendanceLists(ctx context.Context) ([]api.AttendanceList, error)
	SearchAttendanceLists(ctx context.Context, query string) ([]api.AttendanceList, error)
	AttendanceList(ctx context.Context, id int) (api.AttendanceList, error)
	AttendanceRecords(ctx context.Context, listID int) ([]api.AttendanceRecord, error)
	Student(ctx context.Context, id int) (api.Student, error)
	CheckAttendance(ctx context.Context, recordID int, status string) error
}

// Row is an attendance record joined with its student.
type Row struct {
	api.AttendanceRecord
	Student api.Student
	// Resolved is false when Student is the placeholder.
	Resolved bool
}

// Attended reports whether the row is checked.
func (r Row) Attended() bool { return r.Status == api.RecordAttended }

// Sheet is one attendance list with its enriched records, in API order.
type Sheet struct {
	List api.AttendanceList
	Rows []Row
}

// Closed reports whether check-ins are disabled for the list.
func (s *Sheet) Closed() bool { return s.List.Status == api.ListClosed }

// Editable reports whether the acting student may toggle the row.
func (s *Sheet) Editable(row Row, actingStudentID int) bool {
	return !s.Closed() && actingStudentID != 0 && row.StudentID == actingStudentID
}

func (s *Sheet) row(recordID int) *Row {
	for i := range s.Rows {
		if s.Rows[i].ID == recordID {
			return &s.Rows[i]
		}
	}
	return nil
}

// Placeholder is the student shown for a record whose lookup failed.
func Placeholder(studentID int) api.Student {
	return api.Student{ID: studentID, FullName: UnknownStudent}
}

// Service loads attendance sheets and applies check-ins.
type Service struct {
	log  *zap.Logger
	opts enrich.Options
}

// NewService creates a service. opts controls the student lookup fan-out.
func NewService(log *zap.Logger, opts enrich.Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log, opts: opts}
}

// Lists returns every attendance list, or the lists matching query.
func (s *Service) Lists(ctx context.Context, c API, query string) ([]api.AttendanceList, error) {
	if query == "" {
		return c.AttendanceLists(ctx)
	}
	return c.SearchAttendanceLists(ctx, query)
}

// Load fetches a list's status and records and joins each record with its
// student. A failed records fetch fails the whole load; a failed student
// lookup only replaces that row's student with a placeholder.
func (s *Service) Load(ctx context.Context, c API, listID int) (*Sheet, error) {
	list, err := c.AttendanceList(ctx, listID)
	if err != nil {
		if ctx.Err() != nil || api.IsUnauthorized(err) {
			return nil, err
		}
		s.log.Warn("attendance list status unavailable",
			zap.Int("list_id", listID), zap.String("assumed", DefaultListStatus), zap.Error(err))
		list = api.AttendanceList{ID: listID}
	}
	if list.Status == "" {
		list.Status = DefaultListStatus
	}

	records, err := c.AttendanceRecords(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("load records for list %d: %w", listID, err)
	}

	students, err := enrich.Resolve(ctx, records,
		func(r api.AttendanceRecord) (int, bool) { return r.StudentID, true },
		c.Student, s.opts)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{List: list, Rows: make([]Row, len(records))}
	for i, rec := range records {
		row := Row{AttendanceRecord: rec}
		if res := students[i]; res.OK() {
			row.Student = res.Value
			row.Resolved = true
		} else {
			s.log.Warn("student lookup failed",
				zap.Int("record_id", rec.ID), zap.Int("student_id", rec.StudentID), zap.Error(res.Err))
			metrics.EnrichFallback("attendance_student")
			row.Student = Placeholder(rec.StudentID)
		}
		sheet.Rows[i] = row
	}
	return sheet, nil
}

// CheckIn sets the acting student's own record to attended or absent.
// Rejections happen before any network call. On success only the affected
// row changes; on failure the sheet is left as it was.
func (s *Service) CheckIn(ctx context.Context, c API, sheet *Sheet, recordID int, attended bool, actingStudentID int) error {
	row := sheet.row(recordID)
	if row == nil {
		return ErrRecordNotFound
	}
	if sheet.Closed() {
		return ErrListClosed
	}
	if actingStudentID == 0 || row.StudentID != actingStudentID {
		return ErrNotOwner
	}

	status := api.RecordAbsent
	if attended {
		status = api.RecordAttended
	}
	if err := c.CheckAttendance(ctx, recordID, status); err != nil {
		return fmt.Errorf("check in record %d: %w", recordID, err)
	}
	row.Status = status
	s.log.Info("attendance checked",
		zap.Int("list_id", sheet.List.ID), zap.Int("record_id", recordID), zap.String("status", status))
	return nil
}

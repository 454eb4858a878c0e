package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"classhelper/internal/api"
	"classhelper/internal/attendance"
)

const (
	msgSheetLoad   = "Failed to load attendance records. Please try again later."
	msgStudentLoad = "Failed to fetch student information"
	msgNotOwner    = "You can only check your own attendance."
	msgListClosed  = "This attendance list is closed."
	msgNoRecord    = "Attendance record not found."
	msgCheckIn     = "Failed to update attendance status. Please try again."
)

type attendanceListsView struct {
	Query string
	Lists []api.AttendanceList
}

func (h *Handler) attendanceLists(c *gin.Context) {
	ctx, cancel := h.pageContext(c)
	defer cancel()

	q := strings.TrimSpace(c.Query("q"))
	lists, err := h.attendance.Lists(ctx, h.client(c), q)
	if err != nil {
		if h.unauthorized(c, err) {
			return
		}
		h.log.Warn("attendance lists load failed", zap.String("query", q), zap.Error(err))
		msg := "Failed to load attendance lists. Please try again later."
		if q != "" {
			msg = "An error occurred while searching for attendance lists."
		}
		h.render(c, upstreamStatus(err), "attendance_lists", page{Title: "Attendance", Error: msg, View: attendanceListsView{Query: q}})
		return
	}

	p := page{Title: "Attendance", View: attendanceListsView{Query: q, Lists: lists}}
	if q != "" && len(lists) == 0 {
		p.Notice = "No attendance lists found matching the query."
	}
	h.render(c, http.StatusOK, "attendance_lists", p)
}

type sheetRow struct {
	attendance.Row
	Editable bool
}

type sheetView struct {
	ListID    int
	List      api.AttendanceList
	Closed    bool
	Rows      []sheetRow
	StudentID int
}

func newSheetView(sheet *attendance.Sheet, actingStudentID int) sheetView {
	v := sheetView{
		ListID:    sheet.List.ID,
		List:      sheet.List,
		Closed:    sheet.Closed(),
		Rows:      make([]sheetRow, len(sheet.Rows)),
		StudentID: actingStudentID,
	}
	for i, row := range sheet.Rows {
		v.Rows[i] = sheetRow{Row: row, Editable: sheet.Editable(row, actingStudentID)}
	}
	return v
}

// loadedSheet is the result of fetching the acting student and the sheet
// side by side.
type loadedSheet struct {
	sheet      *attendance.Sheet
	sheetErr   error
	studentID  int
	studentErr error
}

func (h *Handler) loadSheet(ctx context.Context, c *gin.Context, client *api.Client, listID int) loadedSheet {
	var out loadedSheet
	var g errgroup.Group
	userID := currentUserID(c)
	g.Go(func() error {
		st, err := h.students.Current(ctx, client, userID)
		out.studentID, out.studentErr = st.ID, err
		return nil
	})
	g.Go(func() error {
		out.sheet, out.sheetErr = h.attendance.Load(ctx, client, listID)
		return nil
	})
	_ = g.Wait()
	return out
}

// sheetFailed renders a failed sheet load and reports whether it did.
func (h *Handler) sheetFailed(c *gin.Context, listID int, l loadedSheet) bool {
	if l.sheetErr == nil {
		return false
	}
	if h.unauthorized(c, l.sheetErr) {
		return true
	}
	h.log.Warn("attendance sheet load failed", zap.Int("list_id", listID), zap.Error(l.sheetErr))
	h.render(c, upstreamStatus(l.sheetErr), "attendance_sheet", page{
		Title: "Attendance",
		Error: msgSheetLoad,
		View:  sheetView{ListID: listID},
	})
	return true
}

func (h *Handler) attendanceSheet(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		h.renderError(c, http.StatusNotFound, "Attendance list not found.")
		return
	}
	ctx, cancel := h.pageContext(c)
	defer cancel()

	l := h.loadSheet(ctx, c, h.client(c), listID)
	if h.sheetFailed(c, listID, l) {
		return
	}
	p := page{Title: l.sheet.List.Title, View: newSheetView(l.sheet, l.studentID)}
	if l.studentErr != nil {
		if h.unauthorized(c, l.studentErr) {
			return
		}
		h.log.Warn("acting student lookup failed", zap.Int("user_id", currentUserID(c)), zap.Error(l.studentErr))
		p.Error = msgStudentLoad
	}
	h.render(c, http.StatusOK, "attendance_sheet", p)
}

// checkIn applies the toggle to the freshly loaded sheet and renders it
// with only that row changed.
func (h *Handler) checkIn(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		h.renderError(c, http.StatusNotFound, "Attendance list not found.")
		return
	}
	recordID, ok := paramID(c, "recordId")
	if !ok {
		h.renderError(c, http.StatusNotFound, msgNoRecord)
		return
	}
	attended := c.PostForm("attended") == "true"

	ctx, cancel := h.pageContext(c)
	defer cancel()

	client := h.client(c)
	l := h.loadSheet(ctx, c, client, listID)
	if h.sheetFailed(c, listID, l) {
		return
	}
	if l.studentErr != nil {
		if h.unauthorized(c, l.studentErr) {
			return
		}
		h.log.Warn("acting student lookup failed", zap.Int("user_id", currentUserID(c)), zap.Error(l.studentErr))
		h.render(c, http.StatusBadGateway, "attendance_sheet", page{
			Title: l.sheet.List.Title, Error: msgStudentLoad, View: newSheetView(l.sheet, 0),
		})
		return
	}

	status, msg := http.StatusOK, ""
	if err := h.attendance.CheckIn(ctx, client, l.sheet, recordID, attended, l.studentID); err != nil {
		switch {
		case errors.Is(err, attendance.ErrNotOwner):
			status, msg = http.StatusForbidden, msgNotOwner
		case errors.Is(err, attendance.ErrListClosed):
			status, msg = http.StatusConflict, msgListClosed
		case errors.Is(err, attendance.ErrRecordNotFound):
			status, msg = http.StatusNotFound, msgNoRecord
		default:
			if h.unauthorized(c, err) {
				return
			}
			h.log.Warn("check in failed", zap.Int("record_id", recordID), zap.Error(err))
			status, msg = upstreamStatus(err), msgCheckIn
		}
	}
	h.render(c, status, "attendance_sheet", page{Title: l.sheet.List.Title, Error: msg, View: newSheetView(l.sheet, l.studentID)})
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrDictionaryUnavailable is returned when no dictionary service is configured.
var ErrDictionaryUnavailable = errors.New("dictionary service not configured")

// ---------- Auth ----------

func (c *Client) Register(ctx context.Context, reg Registration) (AuthResponse, error) {
	var out AuthResponse
	err := c.send(ctx, "auth.register", http.MethodPost, "/auth/register", reg, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var out AuthResponse
	err := c.send(ctx, "auth.login", http.MethodPost, "/auth/login", creds, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, "auth.logout", http.MethodPost, "/auth/logout", nil, nil)
}

// ---------- Students ----------

func (c *Client) Students(ctx context.Context) ([]Student, error) {
	var out []Student
	err := c.get(ctx, "student.all", "/student/all", &out)
	return out, err
}

func (c *Client) SearchStudents(ctx context.Context, q string) ([]Student, error) {
	var out []Student
	err := c.get(ctx, "student.search", "/student/search?q="+url.QueryEscape(q), &out)
	return out, err
}

func (c *Client) Student(ctx context.Context, id int) (Student, error) {
	var out Student
	err := c.get(ctx, "student.get", fmt.Sprintf("/student/%d", id), &out)
	return out, err
}

// StudentByUser resolves the student profile owned by an account.
func (c *Client) StudentByUser(ctx context.Context, userID int) (Student, error) {
	var out Student
	err := c.get(ctx, "student.by_user", fmt.Sprintf("/student/user/%d", userID), &out)
	return out, err
}

func (c *Client) UpdateStudent(ctx context.Context, id int, upd StudentUpdate) error {
	return c.send(ctx, "student.update", http.MethodPut, fmt.Sprintf("/student/%d", id), upd, nil)
}

// ---------- Attendance ----------

func (c *Client) AttendanceLists(ctx context.Context) ([]AttendanceList, error) {
	var out []AttendanceList
	err := c.get(ctx, "attendance_list.all", "/attendanceList/all", &out)
	return out, err
}

func (c *Client) AttendanceList(ctx context.Context, id int) (AttendanceList, error) {
	var out AttendanceList
	err := c.get(ctx, "attendance_list.get", fmt.Sprintf("/attendanceList/%d", id), &out)
	return out, err
}

func (c *Client) SearchAttendanceLists(ctx context.Context, query string) ([]AttendanceList, error) {
	var out []AttendanceList
	err := c.get(ctx, "attendance_list.search", "/attendanceList/search?query="+url.QueryEscape(query), &out)
	return out, err
}

func (c *Client) AttendanceRecords(ctx context.Context, listID int) ([]AttendanceRecord, error) {
	var out []AttendanceRecord
	err := c.get(ctx, "attendance_record.list", fmt.Sprintf("/attendanceRecord/list/%d", listID), &out)
	return out, err
}

// CheckAttendance sets a record's status to "attended" or "absent".
func (c *Client) CheckAttendance(ctx context.Context, recordID int, status string) error {
	body := map[string]string{"status": status}
	return c.send(ctx, "attendance_record.check", http.MethodPut, fmt.Sprintf("/attendanceRecord/record/%d", recordID), body, nil)
}

// ---------- Vocabulary ----------

func (c *Client) VocabLists(ctx context.Context) ([]VocabList, error) {
	var out []VocabList
	err := c.get(ctx, "vocab_list.all", "/vocabList/all", &out)
	return out, err
}

func (c *Client) VocabList(ctx context.Context, id int) (VocabList, error) {
	var out VocabList
	err := c.get(ctx, "vocab_list.get", fmt.Sprintf("/vocabList/%d", id), &out)
	return out, err
}

func (c *Client) SearchVocabLists(ctx context.Context, query string) ([]VocabList, error) {
	var out []VocabList
	err := c.get(ctx, "vocab_list.search", "/vocabList/search?query="+url.QueryEscape(query), &out)
	return out, err
}

func (c *Client) Vocabs(ctx context.Context, listID int) ([]Vocab, error) {
	var out []Vocab
	err := c.get(ctx, "vocab.list", fmt.Sprintf("/vocab/list/%d", listID), &out)
	return out, err
}

func (c *Client) SearchVocabs(ctx context.Context, listID int, query string) ([]Vocab, error) {
	var out []Vocab
	err := c.get(ctx, "vocab.search", fmt.Sprintf("/vocab/list/%d/search?query=%s", listID, url.QueryEscape(query)), &out)
	return out, err
}

func (c *Client) SortVocabs(ctx context.Context, listID int, column, order string) ([]Vocab, error) {
	var out []Vocab
	path := fmt.Sprintf("/vocab/list/%d/sort?column=%s&order=%s", listID, url.QueryEscape(column), url.QueryEscape(order))
	err := c.get(ctx, "vocab.sort", path, &out)
	return out, err
}

func (c *Client) CreateVocab(ctx context.Context, listID int, in VocabInput) error {
	return c.send(ctx, "vocab.create", http.MethodPost, fmt.Sprintf("/vocab/list/%d", listID), in, nil)
}

func (c *Client) UpdateVocab(ctx context.Context, id int, in VocabInput) error {
	return c.send(ctx, "vocab.update", http.MethodPut, fmt.Sprintf("/vocab/%d", id), in, nil)
}

// ---------- Dictionary ----------

// Dictionary looks a word up on the dictionary service. It never carries
// the session's bearer token.
func (c *Client) Dictionary(ctx context.Context, word string) (DictionaryEntry, error) {
	var out DictionaryEntry
	if c.DictionaryURL == "" {
		return out, ErrDictionaryUnavailable
	}
	err := c.do(ctx, "dictionary.get", http.MethodGet, c.DictionaryURL+"/dictionary/"+url.PathEscape(word), false, nil, &out)
	return out, err
}

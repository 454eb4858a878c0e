package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"classhelper/internal/api"
	"classhelper/internal/api/apitest"
	"classhelper/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// browser keeps cookies between requests like a real one would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return w
}

func newApp(t *testing.T) (*apitest.Server, *browser) {
	t.Helper()
	srv := apitest.New(t)
	srv.RequireAuth = true
	srv.AddAccount("ann", "pw", api.User{ID: 70, Username: "ann"})
	srv.Students[10] = api.Student{ID: 10, FullName: "Ann Lee", Nickname: "ann", Age: 12, Address: "Jl. Mawar"}
	srv.Students[11] = api.Student{ID: 11, FullName: "Budi"}
	srv.StudentsByUser[70] = 10

	srv.Lists[3] = api.AttendanceList{ID: 3, Title: "Monday", Status: api.ListActive}
	srv.Records[3] = []api.AttendanceRecord{
		{ID: 1, AttendanceListID: 3, StudentID: 10, Status: api.RecordAbsent},
		{ID: 2, AttendanceListID: 3, StudentID: 11, Status: api.RecordAttended},
	}
	srv.VocabLists[5] = api.VocabList{ID: 5, Title: "Animals"}
	srv.Vocabs[5] = []api.Vocab{
		{ID: 1, Word: "cat", Translation: "kucing", Definition: "feline", PartOfSpeech: "noun", ExampleSentence: "A cat.", Synonyms: "kitty", CreatedBy: 10},
		{ID: 2, Word: "ant", Translation: "semut", Definition: "insect", PartOfSpeech: "noun", ExampleSentence: "An ant.", Synonyms: "emmet", CreatedBy: 11},
	}

	manager := session.NewManager(session.NewMemoryStore(), session.Options{
		Secret: "test-secret", Issuer: "test", TTL: time.Hour, CookieName: "sid",
	})
	h, err := New(Deps{
		API:         api.New(srv.URL, srv.URL, 2*time.Second),
		Sessions:    manager,
		Log:         zaptest.NewLogger(t),
		PageTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	r := gin.New()
	h.Register(r)
	return srv, &browser{t: t, handler: r, cookies: map[string]*http.Cookie{}}
}

func login(t *testing.T, b *browser) {
	t.Helper()
	w := b.do(http.MethodPost, "/login", url.Values{"username": {"ann"}, "password": {"pw"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
}

func expectContains(t *testing.T, w *httptest.ResponseRecorder, parts ...string) {
	t.Helper()
	body := w.Body.String()
	for _, p := range parts {
		if !strings.Contains(body, p) {
			t.Fatalf("expected body to contain %q; got:\n%s", p, body)
		}
	}
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != location {
		t.Fatalf("expected redirect to %s, got %d %q", location, w.Code, w.Header().Get("Location"))
	}
}

func TestPagesRequireSession(t *testing.T) {
	_, b := newApp(t)
	for _, p := range []string{"/", "/profile", "/attendance", "/attendance/3", "/vocab-list", "/vocab-list/5"} {
		expectRedirect(t, b.do(http.MethodGet, p, nil), "/login")
	}
	if w := b.do(http.MethodGet, "/login", nil); w.Code != http.StatusOK {
		t.Fatalf("expected login page, got %d", w.Code)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	_, b := newApp(t)
	w := b.do(http.MethodPost, "/login", url.Values{"username": {"ann"}, "password": {"nope"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	expectContains(t, w, "Invalid username or password", `value="ann"`)

	w = b.do(http.MethodPost, "/login", url.Values{"username": {"ann"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", w.Code)
	}
}

func TestRegisterThenHome(t *testing.T) {
	_, b := newApp(t)
	w := b.do(http.MethodPost, "/register", url.Values{
		"username": {"budi2"}, "password": {"pw"}, "userFullName": {"Budi Dua"},
		"gender": {"Boy"}, "age": {"11"}, "address": {"Jl. B"},
	})
	expectRedirect(t, w, "/")
	expectContains(t, b.do(http.MethodGet, "/", nil), "Budi Dua")
	expectRedirect(t, b.do(http.MethodGet, "/login", nil), "/")
}

func TestHomeRosterAndSearch(t *testing.T) {
	_, b := newApp(t)
	login(t, b)

	expectContains(t, b.do(http.MethodGet, "/", nil), "Ann Lee", "Budi")
	expectContains(t, b.do(http.MethodGet, "/?q=zzz", nil), "No students found matching the query.")
}

func TestAttendanceSheetWithPlaceholder(t *testing.T) {
	srv, b := newApp(t)
	srv.FailStudents[11] = true
	login(t, b)

	w := b.do(http.MethodGet, "/attendance/3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	expectContains(t, w, "Monday", "Ann Lee", "Unknown", `action="/attendance/3/records/1"`)
	if strings.Contains(w.Body.String(), `action="/attendance/3/records/2"`) {
		t.Fatalf("other student's record must not be editable")
	}
}

func TestAttendanceRecordsFailure(t *testing.T) {
	srv, b := newApp(t)
	srv.FailPaths["GET /attendanceRecord/list/3"] = http.StatusInternalServerError
	login(t, b)

	w := b.do(http.MethodGet, "/attendance/3", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	expectContains(t, w, msgSheetLoad)
	if strings.Contains(w.Body.String(), "record-1") {
		t.Fatalf("expected no rows on page error")
	}
}

func TestCheckInOwnRecord(t *testing.T) {
	srv, b := newApp(t)
	login(t, b)
	srv.Reset()

	w := b.do(http.MethodPost, "/attendance/3/records/1", url.Values{"attended": {"true"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	expectContains(t, w, "Mark absent")
	puts := srv.CallsTo(http.MethodPut, "/attendanceRecord/record/")
	if len(puts) != 1 || puts[0].Path != "/attendanceRecord/record/1" {
		t.Fatalf("expected exactly one check-in call, got %+v", puts)
	}
}

func TestCheckInOtherStudentRejected(t *testing.T) {
	srv, b := newApp(t)
	login(t, b)
	srv.Reset()

	w := b.do(http.MethodPost, "/attendance/3/records/2", url.Values{"attended": {"false"}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	expectContains(t, w, msgNotOwner)
	if n := len(srv.CallsTo(http.MethodPut, "/attendanceRecord/")); n != 0 {
		t.Fatalf("expected no check-in call, got %d", n)
	}
	for _, call := range srv.Calls() {
		if call.Method != http.MethodGet {
			t.Fatalf("rejected check-in must only read, got %s %s", call.Method, call.Path)
		}
	}
}

func TestClosedSheetIsReadOnly(t *testing.T) {
	srv, b := newApp(t)
	srv.Lists[3] = api.AttendanceList{ID: 3, Title: "Monday", Status: api.ListClosed}
	login(t, b)

	w := b.do(http.MethodGet, "/attendance/3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `action="/attendance/3/records/`) {
		t.Fatalf("closed list must not offer check-in")
	}
	expectContains(t, w, "check-in is closed")

	srv.Reset()
	w = b.do(http.MethodPost, "/attendance/3/records/1", url.Values{"attended": {"true"}})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	expectContains(t, w, msgListClosed)
	if n := len(srv.CallsTo(http.MethodPut, "/attendanceRecord/")); n != 0 {
		t.Fatalf("expected no check-in call, got %d", n)
	}
}

func TestCheckInFailureMessage(t *testing.T) {
	srv, b := newApp(t)
	srv.FailPaths["PUT /attendanceRecord/record/1"] = http.StatusInternalServerError
	login(t, b)

	w := b.do(http.MethodPost, "/attendance/3/records/1", url.Values{"attended": {"true"}})
	expectContains(t, w, msgCheckIn, "Mark attended")
}

func TestExpiredTokenRedirectsToLogin(t *testing.T) {
	srv, b := newApp(t)
	login(t, b)
	srv.Token = "rotated"

	expectRedirect(t, b.do(http.MethodGet, "/attendance", nil), "/login")
	expectRedirect(t, b.do(http.MethodGet, "/", nil), "/login")
}

func TestVocabPageCreators(t *testing.T) {
	srv, b := newApp(t)
	srv.FailStudents[11] = true
	login(t, b)

	w := b.do(http.MethodGet, "/vocab-list/5", nil)
	expectContains(t, w, "Animals", "Added by Ann Lee", "Added by Unknown")

	expectContains(t, b.do(http.MethodGet, "/vocab-list/5?search=zzz", nil), msgVocabEmpty)
	w = b.do(http.MethodGet, "/vocab-list/5?column=password&order=asc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad sort, got %d", w.Code)
	}
	expectContains(t, w, msgBadSort, "Animals", "kucing", `name="search"`)
}

func TestVocabSortWithoutOrder(t *testing.T) {
	_, b := newApp(t)
	login(t, b)

	w := b.do(http.MethodGet, "/vocab-list/5?column=word", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	ant, cat := strings.Index(body, "semut"), strings.Index(body, "kucing")
	if ant < 0 || cat < 0 || ant > cat {
		t.Fatalf("expected ascending word order")
	}
	expectContains(t, w, `<option value="asc" selected>`)
}

func TestVocabEditPrefill(t *testing.T) {
	_, b := newApp(t)
	login(t, b)

	w := b.do(http.MethodGet, "/vocab-list/5?edit=1", nil)
	expectContains(t, w, `action="/vocab-list/5/vocabs/1"`, `value="kucing"`, "Update Vocabulary")
}

func TestVocabCreate(t *testing.T) {
	srv, b := newApp(t)
	login(t, b)
	form := url.Values{
		"word": {"dog"}, "translation": {"anjing"}, "definition": {"pet"},
		"part_of_speech": {"noun"}, "example_sentence": {"A dog."}, "synonyms": {"hound"},
	}

	expectRedirect(t, b.do(http.MethodPost, "/vocab-list/5/vocabs", form), "/vocab-list/5")
	expectContains(t, b.do(http.MethodGet, "/vocab-list/5", nil), "anjing")

	srv.FailPaths["POST /vocab/list/5"] = http.StatusInternalServerError
	w := b.do(http.MethodPost, "/vocab-list/5/vocabs", form)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	expectContains(t, w, msgVocabCreate, `value="dog"`)
}

func TestProfileUpdate(t *testing.T) {
	_, b := newApp(t)
	login(t, b)

	expectContains(t, b.do(http.MethodGet, "/profile", nil), `value="Ann Lee"`, `value="Jl. Mawar"`)

	w := b.do(http.MethodPost, "/profile", url.Values{
		"userFullName": {"Ann Lee"}, "age": {"13"}, "address": {"Jl. Melati"}, "nickname": {"ann"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	expectContains(t, w, "Profile updated successfully", `value="Jl. Melati"`)
}

func TestProfileUpdateZeroAge(t *testing.T) {
	srv, b := newApp(t)
	st := srv.Students[10]
	st.Age = 0
	srv.Students[10] = st
	login(t, b)

	expectContains(t, b.do(http.MethodGet, "/profile", nil), `name="age" value="0"`)

	srv.Reset()
	w := b.do(http.MethodPost, "/profile", url.Values{
		"userFullName": {"Ann Lee"}, "age": {"0"}, "address": {"Jl. Mawar"}, "nickname": {"ann"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	puts := srv.CallsTo(http.MethodPut, "/student/")
	if len(puts) != 1 || puts[0].Path != "/student/10" {
		t.Fatalf("expected one update of student 10, got %+v", puts)
	}
	var sent api.StudentUpdate
	if err := json.Unmarshal(puts[0].Body, &sent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := api.StudentUpdate{FullName: "Ann Lee", Age: 0, Address: "Jl. Mawar", Nickname: "ann"}
	if sent != want {
		t.Fatalf("expected unchanged fields %+v, got %+v", want, sent)
	}
	if !strings.Contains(string(puts[0].Body), `"age":0`) {
		t.Fatalf("expected age sent as 0, got %s", puts[0].Body)
	}
}

func TestLogout(t *testing.T) {
	srv, b := newApp(t)
	login(t, b)

	expectRedirect(t, b.do(http.MethodPost, "/logout", nil), "/login")
	if len(srv.CallsTo(http.MethodPost, "/auth/logout")) != 1 {
		t.Fatalf("expected api logout call")
	}
	expectRedirect(t, b.do(http.MethodGet, "/", nil), "/login")
}

// Package apitest provides an in-process fake of the classroom REST API.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"classhelper/internal/api"
)

// Call is one request received by the fake.
type Call struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

type account struct {
	password string
	user     api.User
}

// Server is a fake API backed by in-memory maps. Tests mutate the exported
// fields before issuing requests.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	Token          string
	RequireAuth    bool
	Students       map[int]api.Student
	StudentsByUser map[int]int
	FailStudents   map[int]bool
	Lists          map[int]api.AttendanceList
	Records        map[int][]api.AttendanceRecord
	VocabLists     map[int]api.VocabList
	Vocabs         map[int][]api.Vocab
	Dictionary     map[string]api.DictionaryEntry
	// FailPaths maps "METHOD /path" to a status code returned instead of the real handler.
	FailPaths map[string]int

	accounts map[string]account
	nextID   int
	calls    []Call
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Token:          "test-token",
		Students:       map[int]api.Student{},
		StudentsByUser: map[int]int{},
		FailStudents:   map[int]bool{},
		Lists:          map[int]api.AttendanceList{},
		Records:        map[int][]api.AttendanceRecord{},
		VocabLists:     map[int]api.VocabList{},
		Vocabs:         map[int][]api.Vocab{},
		Dictionary:     map[string]api.DictionaryEntry{},
		FailPaths:      map[string]int{},
		accounts:       map[string]account{},
		nextID:         1000,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// AddAccount registers login credentials for a user.
func (s *Server) AddAccount(username, password string, user api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = account{password: password, user: user}
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns requests with the given method whose path starts with prefix.
func (s *Server) CallsTo(method, prefix string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (s *Server) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	})

	mux.HandleFunc("GET /student/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.studentSlice(""))
	})
	mux.HandleFunc("GET /student/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.studentSlice(r.URL.Query().Get("q")))
	})
	mux.HandleFunc("GET /student/user/{userId}", s.studentByUser)
	mux.HandleFunc("GET /student/{id}", s.student)
	mux.HandleFunc("PUT /student/{id}", s.updateStudent)

	mux.HandleFunc("GET /attendanceList/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.listSlice(""))
	})
	mux.HandleFunc("GET /attendanceList/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.listSlice(r.URL.Query().Get("query")))
	})
	mux.HandleFunc("GET /attendanceList/{id}", s.attendanceList)
	mux.HandleFunc("GET /attendanceRecord/list/{listId}", s.records)
	mux.HandleFunc("PUT /attendanceRecord/record/{id}", s.checkRecord)

	mux.HandleFunc("GET /vocabList/all", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.vocabListSlice(""))
	})
	mux.HandleFunc("GET /vocabList/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.vocabListSlice(r.URL.Query().Get("query")))
	})
	mux.HandleFunc("GET /vocabList/{id}", s.vocabList)
	mux.HandleFunc("GET /vocab/list/{id}", s.vocabs)
	mux.HandleFunc("GET /vocab/list/{id}/search", s.vocabs)
	mux.HandleFunc("GET /vocab/list/{id}/sort", s.vocabs)
	mux.HandleFunc("POST /vocab/list/{id}", s.createVocab)
	mux.HandleFunc("PUT /vocab/{id}", s.updateVocab)

	mux.HandleFunc("GET /dictionary/{word}", s.dictionary)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		status, failing := s.FailPaths[r.Method+" "+r.URL.Path]
		requireAuth := s.RequireAuth
		token := s.Token
		s.mu.Unlock()

		if failing {
			writeJSON(w, status, map[string]string{"message": "forced failure"})
			return
		}
		public := strings.HasPrefix(r.URL.Path, "/auth/login") || strings.HasPrefix(r.URL.Path, "/auth/register") ||
			strings.HasPrefix(r.URL.Path, "/dictionary/")
		if requireAuth && !public && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[creds.Username]
	token := s.Token
	s.mu.Unlock()
	if !ok || acc.password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, api.AuthResponse{Token: token, User: acc.user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg api.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[reg.Username]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Username already taken"})
		return
	}
	s.nextID++
	user := api.User{ID: s.nextID, Username: reg.Username}
	s.accounts[reg.Username] = account{password: reg.Password, user: user}
	s.nextID++
	s.Students[s.nextID] = api.Student{
		ID: s.nextID, FullName: reg.FullName, Nickname: reg.Nickname,
		Gender: reg.Gender, Age: reg.Age, Address: reg.Address,
	}
	s.StudentsByUser[user.ID] = s.nextID
	token := s.Token
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, api.AuthResponse{Token: token, User: user})
}

func (s *Server) studentSlice(q string) []api.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Student{}
	for _, st := range s.Students {
		if q == "" || strings.Contains(strings.ToLower(st.FullName), strings.ToLower(q)) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) student(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	st, found := s.Students[id]
	fail := s.FailStudents[id]
	s.mu.Unlock()
	switch {
	case fail:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "lookup failed"})
	case !found:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Student not found"})
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) studentByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	s.mu.Lock()
	id, found := s.StudentsByUser[userID]
	st := s.Students[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Student not found"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) updateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd api.StudentUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}
	s.mu.Lock()
	st, found := s.Students[id]
	if found {
		st.FullName, st.Age, st.Address, st.Nickname = upd.FullName, upd.Age, upd.Address, upd.Nickname
		if upd.ProfileImage != "" {
			st.ProfileImage = upd.ProfileImage
		}
		s.Students[id] = st
	}
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Student not found"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) listSlice(q string) []api.AttendanceList {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.AttendanceList{}
	for _, l := range s.Lists {
		if q == "" || strings.Contains(strings.ToLower(l.Title), strings.ToLower(q)) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) attendanceList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	l, found := s.Lists[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Attendance list not found"})
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "listId")
	if !ok {
		return
	}
	s.mu.Lock()
	recs := append([]api.AttendanceRecord{}, s.Records[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) checkRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for listID, recs := range s.Records {
		for i := range recs {
			if recs[i].ID == id {
				recs[i].Status = body.Status
				s.Records[listID] = recs
				writeJSON(w, http.StatusOK, recs[i])
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Record not found"})
}

func (s *Server) vocabListSlice(q string) []api.VocabList {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.VocabList{}
	for _, l := range s.VocabLists {
		if q == "" || strings.Contains(strings.ToLower(l.Title), strings.ToLower(q)) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) vocabList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	l, found := s.VocabLists[id]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Vocabulary list not found"})
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) vocabs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	out := append([]api.Vocab{}, s.Vocabs[id]...)
	s.mu.Unlock()

	if q := strings.ToLower(r.URL.Query().Get("query")); q != "" {
		filtered := []api.Vocab{}
		for _, v := range out {
			if strings.Contains(strings.ToLower(v.Word), q) || strings.Contains(strings.ToLower(v.Translation), q) {
				filtered = append(filtered, v)
			}
		}
		out = filtered
	}
	if col := r.URL.Query().Get("column"); col == "word" {
		desc := r.URL.Query().Get("order") == "desc"
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[i].Word > out[j].Word
			}
			return out[i].Word < out[j].Word
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createVocab(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in api.VocabInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}
	s.mu.Lock()
	s.nextID++
	v := vocabFromInput(s.nextID, in)
	s.Vocabs[listID] = append(s.Vocabs[listID], v)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) updateVocab(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in api.VocabInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for listID, vs := range s.Vocabs {
		for i := range vs {
			if vs[i].ID == id {
				updated := vocabFromInput(id, in)
				updated.CreatedBy = vs[i].CreatedBy
				vs[i] = updated
				s.Vocabs[listID] = vs
				writeJSON(w, http.StatusOK, updated)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Vocabulary not found"})
}

func (s *Server) dictionary(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	s.mu.Lock()
	entry, found := s.Dictionary[word]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Word not found"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func vocabFromInput(id int, in api.VocabInput) api.Vocab {
	return api.Vocab{
		ID:              id,
		Word:            in.Word,
		Translation:     in.Translation,
		Definition:      in.Definition,
		PartOfSpeech:    in.PartOfSpeech,
		ExampleSentence: in.ExampleSentence,
		Synonyms:        in.Synonyms,
		Antonyms:        in.Antonyms,
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

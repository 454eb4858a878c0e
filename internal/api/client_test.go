package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"classhelper/internal/api"
	"classhelper/internal/api/apitest"
)

func TestBearerAttachedWhenTokenPresent(t *testing.T) {
	srv := apitest.New(t)
	srv.Students[10] = api.Student{ID: 10, FullName: "Ann"}

	client := api.New(srv.URL, "", time.Second).As(api.StaticToken("abc"))
	st, err := client.Student(context.Background(), 10)
	if err != nil {
		t.Fatalf("student: %v", err)
	}
	if st.FullName != "Ann" {
		t.Fatalf("expected Ann, got %q", st.FullName)
	}
	calls := srv.Calls()
	if len(calls) != 1 || calls[0].Auth != "Bearer abc" {
		t.Fatalf("expected bearer header, got %+v", calls)
	}
}

func TestNoAuthorizationHeaderWithoutToken(t *testing.T) {
	srv := apitest.New(t)

	client := api.New(srv.URL, "", time.Second)
	if _, err := client.Students(context.Background()); err != nil {
		t.Fatalf("students: %v", err)
	}
	client = client.As(api.StaticToken(""))
	if _, err := client.Students(context.Background()); err != nil {
		t.Fatalf("students: %v", err)
	}
	for _, c := range srv.Calls() {
		if c.Auth != "" {
			t.Fatalf("expected unauthenticated request, got %q", c.Auth)
		}
	}
}

func TestErrorCarriesServerMessage(t *testing.T) {
	srv := apitest.New(t)
	srv.RequireAuth = true

	client := api.New(srv.URL, "", time.Second).As(api.StaticToken("wrong"))
	_, err := client.AttendanceLists(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if msg := api.Message(err, "fallback"); msg != "Unauthorized" {
		t.Fatalf("expected server message, got %q", msg)
	}

	_, err = client.As(api.StaticToken(srv.Token)).VocabList(context.Background(), 99)
	if !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if msg := api.Message(errors.New("boom"), "fallback"); msg != "fallback" {
		t.Fatalf("expected fallback message, got %q", msg)
	}
}

func TestCheckAttendanceBody(t *testing.T) {
	srv := apitest.New(t)
	srv.Records[3] = []api.AttendanceRecord{{ID: 1, AttendanceListID: 3, StudentID: 10, Status: api.RecordAbsent}}

	client := api.New(srv.URL, "", time.Second).As(api.StaticToken("t"))
	if err := client.CheckAttendance(context.Background(), 1, api.RecordAttended); err != nil {
		t.Fatalf("check: %v", err)
	}
	puts := srv.CallsTo("PUT", "/attendanceRecord/record/1")
	if len(puts) != 1 {
		t.Fatalf("expected one PUT, got %d", len(puts))
	}
	var body map[string]string
	if err := json.Unmarshal(puts[0].Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 1 || body["status"] != "attended" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestQueryParametersEscaped(t *testing.T) {
	srv := apitest.New(t)
	client := api.New(srv.URL, "", time.Second)

	if _, err := client.SearchStudents(context.Background(), "ann & bob"); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := client.SortVocabs(context.Background(), 4, "word", "desc"); err != nil {
		t.Fatalf("sort: %v", err)
	}
	calls := srv.Calls()
	if calls[0].Path != "/student/search" || calls[0].Query != "q=ann+%26+bob" {
		t.Fatalf("unexpected search call %+v", calls[0])
	}
	if calls[1].Path != "/vocab/list/4/sort" || calls[1].Query != "column=word&order=desc" {
		t.Fatalf("unexpected sort call %+v", calls[1])
	}
}

func TestDictionaryNeverSendsToken(t *testing.T) {
	srv := apitest.New(t)
	srv.Dictionary["apple"] = api.DictionaryEntry{Word: "apple", Definition: "a fruit"}

	client := api.New(srv.URL, srv.URL, time.Second).As(api.StaticToken("secret"))
	entry, err := client.Dictionary(context.Background(), "apple")
	if err != nil {
		t.Fatalf("dictionary: %v", err)
	}
	if entry.Definition != "a fruit" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if auth := srv.Calls()[0].Auth; auth != "" {
		t.Fatalf("dictionary call carried credentials %q", auth)
	}

	_, err = api.New(srv.URL, "", time.Second).Dictionary(context.Background(), "apple")
	if !errors.Is(err, api.ErrDictionaryUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := apitest.New(t)
	client := api.New(srv.URL, "", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Students(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestLoginReturnsTokenAndUser(t *testing.T) {
	srv := apitest.New(t)
	srv.AddAccount("ann", "pw", api.User{ID: 7, Username: "ann"})
	client := api.New(srv.URL, "", time.Second)

	res, err := client.Login(context.Background(), api.Credentials{Username: "ann", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token != srv.Token || res.User.ID != 7 {
		t.Fatalf("unexpected auth response %+v", res)
	}

	_, err = client.Login(context.Background(), api.Credentials{Username: "ann", Password: "nope"})
	if msg := api.Message(err, ""); msg != "Invalid username or password" {
		t.Fatalf("expected login failure message, got %q", msg)
	}
}

package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"classhelper/internal/api"
	"classhelper/internal/api/apitest"
	"classhelper/internal/enrich"
)

func newFixture(t *testing.T) (*apitest.Server, *api.Client, *Service) {
	t.Helper()
	srv := apitest.New(t)
	srv.VocabLists[5] = api.VocabList{ID: 5, Title: "Animals", Category: "nouns", WordCount: 3}
	srv.Vocabs[5] = []api.Vocab{
		{ID: 1, Word: "cat", Translation: "kucing", PartOfSpeech: "noun", CreatedBy: 10},
		{ID: 2, Word: "bird", Translation: "burung", PartOfSpeech: "noun", CreatedBy: 0},
		{ID: 3, Word: "ant", Translation: "semut", PartOfSpeech: "noun", CreatedBy: 11},
	}
	srv.Students[10] = api.Student{ID: 10, FullName: "Ann"}
	srv.FailStudents[11] = true

	client := api.New(srv.URL, srv.URL, time.Second).As(api.StaticToken("t"))
	return srv, client, NewService(zaptest.NewLogger(t), enrich.Options{Dedup: true})
}

func TestLoadResolvesCreators(t *testing.T) {
	srv, client, svc := newFixture(t)

	page, err := svc.Load(context.Background(), client, 5, Query{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if page.List.Title != "Animals" || len(page.Entries) != 3 {
		t.Fatalf("unexpected page %+v", page)
	}
	want := []string{"Ann", "", UnknownCreator}
	for i, e := range page.Entries {
		if e.Creator != want[i] {
			t.Fatalf("entry %d: expected creator %q, got %q", i, want[i], e.Creator)
		}
	}
	if got := len(srv.CallsTo(http.MethodGet, "/student/")); got != 2 {
		t.Fatalf("expected two creator lookups, got %d", got)
	}
}

func TestLoadHeaderFailure(t *testing.T) {
	srv, client, svc := newFixture(t)
	srv.FailPaths["GET /vocabList/5"] = http.StatusInternalServerError

	if _, err := svc.Load(context.Background(), client, 5, Query{}); err == nil {
		t.Fatalf("expected page error")
	}
}

func TestLoadSearchAndSort(t *testing.T) {
	srv, client, svc := newFixture(t)

	page, err := svc.Load(context.Background(), client, 5, Query{Search: " cat "})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Entries) != 1 || page.Entries[0].Word != "cat" {
		t.Fatalf("unexpected search result %+v", page.Entries)
	}
	if len(srv.CallsTo(http.MethodGet, "/vocab/list/5/search")) != 1 {
		t.Fatalf("expected search endpoint")
	}

	page, err = svc.Load(context.Background(), client, 5, Query{Column: "word", Order: "asc"})
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if page.Entries[0].Word != "ant" || page.Entries[2].Word != "cat" {
		t.Fatalf("expected sorted entries, got %+v", page.Entries)
	}

	page, err = svc.Load(context.Background(), client, 5, Query{Column: "word"})
	if err != nil {
		t.Fatalf("sort without order: %v", err)
	}
	if page.Entries[0].Word != "ant" {
		t.Fatalf("expected ascending default, got %+v", page.Entries)
	}
	if q := (Query{Column: "word"}).Normalize(); q.Order != "asc" {
		t.Fatalf("expected asc default, got %q", q.Order)
	}
	if q := (Query{}).Normalize(); q.Order != "" {
		t.Fatalf("expected unsorted query to stay empty, got %q", q.Order)
	}

	if _, err := svc.Load(context.Background(), client, 5, Query{Column: "password", Order: "asc"}); !errors.Is(err, ErrInvalidSort) {
		t.Fatalf("expected invalid sort, got %v", err)
	}
}

func TestUnchangedEditRoundTrip(t *testing.T) {
	srv, client, svc := newFixture(t)
	srv.Vocabs[5][0] = api.Vocab{
		ID: 1, Word: "cat", Translation: "kucing", Definition: "a small feline",
		PartOfSpeech: "noun", ExampleSentence: "The cat sleeps.", Synonyms: "kitty", Antonyms: "",
		CreatedBy: 10,
	}

	before, err := svc.Load(context.Background(), client, 5, Query{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry, ok := before.Find(1)
	if !ok {
		t.Fatalf("entry 1 missing")
	}
	srv.Reset()

	if err := svc.Update(context.Background(), client, 1, FormFrom(entry.Vocab)); err != nil {
		t.Fatalf("update: %v", err)
	}
	puts := srv.CallsTo(http.MethodPut, "/vocab/1")
	if len(puts) != 1 {
		t.Fatalf("expected one update call, got %d", len(puts))
	}
	var sent api.VocabInput
	if err := json.Unmarshal(puts[0].Body, &sent); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sent != FormFrom(entry.Vocab).Input() {
		t.Fatalf("expected original fields, got %+v", sent)
	}

	after, err := svc.Load(context.Background(), client, 5, Query{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	reloaded, _ := after.Find(1)
	if reloaded.Vocab != entry.Vocab || reloaded.Creator != entry.Creator {
		t.Fatalf("entry changed after no-op edit: %+v vs %+v", reloaded, entry)
	}
}

func TestCreate(t *testing.T) {
	srv, client, svc := newFixture(t)
	f := NewForm()
	if f.PartOfSpeech != "noun" {
		t.Fatalf("expected default part of speech noun, got %q", f.PartOfSpeech)
	}
	f.Word, f.Translation, f.Definition, f.ExampleSentence, f.Synonyms = "dog", "anjing", "a pet", "The dog barks.", "hound"

	if err := svc.Create(context.Background(), client, 5, f); err != nil {
		t.Fatalf("create: %v", err)
	}
	page, err := svc.Load(context.Background(), client, 5, Query{})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(page.Entries) != 4 || page.Entries[3].Word != "dog" {
		t.Fatalf("expected entry added, got %+v", page.Entries)
	}

	srv.FailPaths["POST /vocab/list/5"] = http.StatusBadRequest
	if err := svc.Create(context.Background(), client, 5, f); err == nil {
		t.Fatalf("expected create failure")
	}
}

func TestLookup(t *testing.T) {
	srv, client, svc := newFixture(t)
	srv.Dictionary["run"] = api.DictionaryEntry{Word: "run", Definition: "move fast", PartOfSpeech: "verb"}
	srv.Dictionary["odd"] = api.DictionaryEntry{Definition: "strange", PartOfSpeech: "interjection"}

	f, err := svc.Lookup(context.Background(), client, "run")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if f.Word != "run" || f.Definition != "move fast" || f.PartOfSpeech != "verb" {
		t.Fatalf("unexpected form %+v", f)
	}

	f, err = svc.Lookup(context.Background(), client, "odd")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if f.Word != "odd" || f.PartOfSpeech != "noun" {
		t.Fatalf("expected word and default part of speech, got %+v", f)
	}

	if _, err := svc.Lookup(context.Background(), client, "missing"); err == nil {
		t.Fatalf("expected lookup failure")
	}
}

package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/enrich"
	"classhelper/internal/metrics"
)

// UnknownCreator is shown when an entry's creator cannot be resolved.
const UnknownCreator = "Unknown"

// PartsOfSpeech are the choices offered by the entry form.
var PartsOfSpeech = []string{
	"noun", "verb", "adjective", "adverb", "pronoun", "preposition", "phrasal verb", "collocation",
}

// Sortable columns and orders accepted by the sort endpoint.
var (
	SortColumns = []string{"word", "translation", "part_of_speech", "created_at"}
	SortOrders  = []string{"asc", "desc"}
)

var ErrInvalidSort = errors.New("invalid sort column or order")

// API is the subset of the classroom API used by vocabulary pages.
type API interface {
	VocabLists(ctx context.Context) ([]api.VocabList, error)
	SearchVocabLists(ctx context.Context, query string) ([]api.VocabList, error)
	VocabList(ctx context.Context, id int) (api.VocabList, error)
	Vocabs(ctx context.Context, listID int) ([]api.Vocab, error)
	SearchVocabs(ctx context.Context, listID int, query string) ([]api.Vocab, error)
	SortVocabs(ctx context.Context, listID int, column, order string) ([]api.Vocab, error)
	CreateVocab(ctx context.Context, listID int, in api.VocabInput) error
	UpdateVocab(ctx context.Context, id int, in api.VocabInput) error
	Student(ctx context.Context, id int) (api.Student, error)
	Dictionary(ctx context.Context, word string) (api.DictionaryEntry, error)
}

// Entry is a vocabulary entry with its creator's display name.
type Entry struct {
	api.Vocab
	Creator string
}

// Query selects which entries of a list are shown.
type Query struct {
	Search string
	Column string
	Order  string
}

// Normalize fills in an ascending order when only a column is chosen.
func (q Query) Normalize() Query {
	if q.Column != "" && q.Order == "" {
		q.Order = "asc"
	}
	return q
}

// Validate checks the sort fields. Empty means unsorted.
func (q Query) Validate() error {
	if q.Column == "" && q.Order == "" {
		return nil
	}
	if !contains(SortColumns, q.Column) || !contains(SortOrders, q.Order) {
		return ErrInvalidSort
	}
	return nil
}

// Page is one vocabulary list and its entries in API order.
type Page struct {
	List    api.VocabList
	Entries []Entry
}

// Find returns the entry with the given id.
func (p *Page) Find(id int) (Entry, bool) {
	for _, e := range p.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Service loads and edits vocabulary lists.
type Service struct {
	log  *zap.Logger
	opts enrich.Options
}

func NewService(log *zap.Logger, opts enrich.Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log, opts: opts}
}

// Lists returns every vocabulary list, or the lists matching query.
func (s *Service) Lists(ctx context.Context, c API, query string) ([]api.VocabList, error) {
	if query == "" {
		return c.VocabLists(ctx)
	}
	return c.SearchVocabLists(ctx, query)
}

// Load fetches the list header and its entries, then resolves each entry's
// creator. Entries without a creator are left as they are.
func (s *Service) Load(ctx context.Context, c API, listID int, q Query) (*Page, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	list, err := c.VocabList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("load vocab list %d: %w", listID, err)
	}

	var vocabs []api.Vocab
	switch {
	case strings.TrimSpace(q.Search) != "":
		vocabs, err = c.SearchVocabs(ctx, listID, strings.TrimSpace(q.Search))
	case q.Column != "":
		vocabs, err = c.SortVocabs(ctx, listID, q.Column, q.Order)
	default:
		vocabs, err = c.Vocabs(ctx, listID)
	}
	if err != nil {
		return nil, fmt.Errorf("load entries of vocab list %d: %w", listID, err)
	}

	creators, err := enrich.Resolve(ctx, vocabs,
		func(v api.Vocab) (int, bool) { return v.CreatedBy, v.CreatedBy != 0 },
		c.Student, s.opts)
	if err != nil {
		return nil, err
	}

	page := &Page{List: list, Entries: make([]Entry, len(vocabs))}
	for i, v := range vocabs {
		entry := Entry{Vocab: v}
		switch res := creators[i]; {
		case res.Skipped:
		case res.OK():
			entry.Creator = res.Value.FullName
		default:
			s.log.Warn("creator lookup failed",
				zap.Int("vocab_id", v.ID), zap.Int("student_id", v.CreatedBy), zap.Error(res.Err))
			metrics.EnrichFallback("vocab_creator")
			entry.Creator = UnknownCreator
		}
		page.Entries[i] = entry
	}
	return page, nil
}

// Create adds an entry to a list.
func (s *Service) Create(ctx context.Context, c API, listID int, f Form) error {
	if err := c.CreateVocab(ctx, listID, f.Input()); err != nil {
		return fmt.Errorf("create vocab in list %d: %w", listID, err)
	}
	return nil
}

// Update replaces an entry's fields.
func (s *Service) Update(ctx context.Context, c API, vocabID int, f Form) error {
	if err := c.UpdateVocab(ctx, vocabID, f.Input()); err != nil {
		return fmt.Errorf("update vocab %d: %w", vocabID, err)
	}
	return nil
}

// Lookup prepares a create form from the dictionary entry for word.
func (s *Service) Lookup(ctx context.Context, c API, word string) (Form, error) {
	entry, err := c.Dictionary(ctx, strings.TrimSpace(word))
	if err != nil {
		return NewForm(), fmt.Errorf("dictionary lookup %q: %w", word, err)
	}
	f := Form{
		Word:            entry.Word,
		Translation:     entry.Translation,
		Definition:      entry.Definition,
		PartOfSpeech:    entry.PartOfSpeech,
		ExampleSentence: entry.ExampleSentence,
		Synonyms:        entry.Synonyms,
		Antonyms:        entry.Antonyms,
	}
	if f.Word == "" {
		f.Word = word
	}
	if !contains(PartsOfSpeech, f.PartOfSpeech) {
		f.PartOfSpeech = "noun"
	}
	return f, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

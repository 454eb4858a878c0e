package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classhelper/internal/api"
	"classhelper/internal/vocab"
)

const (
	msgVocabLoad   = "Failed to load vocabulary data. Please try again later."
	msgVocabSearch = "An error occurred while searching."
	msgVocabEmpty  = "No vocabularies found matching your search."
	msgVocabCreate = "Failed to create vocabulary. Please try again."
	msgVocabUpdate = "Failed to update vocabulary. Please try again."
	msgBadSort     = "Invalid sort column or order."
	msgNoWord      = "Word not found in the dictionary."
)

type vocabListsView struct {
	Query string
	Lists []api.VocabList
}

func (h *Handler) vocabLists(c *gin.Context) {
	ctx, cancel := h.pageContext(c)
	defer cancel()

	q := strings.TrimSpace(c.Query("q"))
	lists, err := h.vocab.Lists(ctx, h.client(c), q)
	if err != nil {
		if h.unauthorized(c, err) {
			return
		}
		h.log.Warn("vocab lists load failed", zap.String("query", q), zap.Error(err))
		msg := "Failed to load vocabulary lists. Please try again later."
		if q != "" {
			msg = "An error occurred while searching for vocabulary lists."
		}
		h.render(c, upstreamStatus(err), "vocab_lists", page{Title: "Vocabulary", Error: msg, View: vocabListsView{Query: q}})
		return
	}

	p := page{Title: "Vocabulary", View: vocabListsView{Query: q, Lists: lists}}
	if q != "" && len(lists) == 0 {
		p.Notice = "No vocabulary lists found matching the query."
	}
	h.render(c, http.StatusOK, "vocab_lists", p)
}

type vocabView struct {
	ListID        int
	Page          *vocab.Page
	Query         vocab.Query
	ShowCreate    bool
	Create        vocab.Form
	EditID        int
	Edit          vocab.Form
	FormError     string
	PartsOfSpeech []string
	SortColumns   []string
	SortOrders    []string

	// prefillEdit fills Edit from the loaded entry EditID.
	prefillEdit bool
	// badSort marks a retry without the rejected sort fields.
	badSort bool
}

func newVocabView(listID int, q vocab.Query) vocabView {
	return vocabView{
		ListID:        listID,
		Query:         q,
		Create:        vocab.NewForm(),
		PartsOfSpeech: vocab.PartsOfSpeech,
		SortColumns:   vocab.SortColumns,
		SortOrders:    vocab.SortOrders,
	}
}

func queryFrom(c *gin.Context) vocab.Query {
	return vocab.Query{
		Search: strings.TrimSpace(c.Query("search")),
		Column: c.Query("column"),
		Order:  c.Query("order"),
	}.Normalize()
}

// renderVocabList loads the list with view.Query and renders it around view.
func (h *Handler) renderVocabList(ctx context.Context, c *gin.Context, status int, view vocabView) {
	pg, err := h.vocab.Load(ctx, h.client(c), view.ListID, view.Query)
	if err != nil {
		if errors.Is(err, vocab.ErrInvalidSort) && !view.badSort {
			view.Query.Column, view.Query.Order = "", ""
			view.badSort = true
			h.renderVocabList(ctx, c, http.StatusBadRequest, view)
			return
		}
		if h.unauthorized(c, err) {
			return
		}
		h.log.Warn("vocab list load failed", zap.Int("list_id", view.ListID), zap.Error(err))
		msg := msgVocabLoad
		if view.Query.Search != "" {
			msg = msgVocabSearch
		}
		h.render(c, upstreamStatus(err), "vocab_list", page{Title: "Vocabulary", Error: msg, View: vocabView{ListID: view.ListID, Query: view.Query}})
		return
	}
	view.Page = pg
	if view.prefillEdit {
		if e, ok := pg.Find(view.EditID); ok {
			view.Edit = vocab.FormFrom(e.Vocab)
		} else {
			view.EditID = 0
		}
	}

	p := page{Title: pg.List.Title, View: view}
	if view.badSort {
		p.Error = msgBadSort
	}
	if view.Query.Search != "" && len(pg.Entries) == 0 {
		p.Notice = msgVocabEmpty
	}
	h.render(c, status, "vocab_list", p)
}

func (h *Handler) vocabList(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		h.renderError(c, http.StatusNotFound, "Vocabulary list not found.")
		return
	}
	ctx, cancel := h.pageContext(c)
	defer cancel()

	view := newVocabView(listID, queryFrom(c))
	view.ShowCreate = c.Query("new") != ""
	if id, err := strconv.Atoi(c.Query("edit")); err == nil && id > 0 {
		view.EditID, view.prefillEdit = id, true
	}

	if word := strings.TrimSpace(c.Query("lookup")); word != "" {
		view.ShowCreate = true
		f, err := h.vocab.Lookup(ctx, h.client(c), word)
		if err != nil {
			h.log.Info("dictionary lookup failed", zap.String("word", word), zap.Error(err))
			view.FormError = msgNoWord
			f.Word = word
		}
		view.Create = f
	}

	h.renderVocabList(ctx, c, http.StatusOK, view)
}

func (h *Handler) createVocab(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		h.renderError(c, http.StatusNotFound, "Vocabulary list not found.")
		return
	}
	ctx, cancel := h.pageContext(c)
	defer cancel()

	view := newVocabView(listID, vocab.Query{})
	view.ShowCreate = true

	var f vocab.Form
	if err := c.ShouldBind(&f); err != nil {
		view.Create, view.FormError = f, msgRequired
		h.renderVocabList(ctx, c, http.StatusBadRequest, view)
		return
	}
	if err := h.vocab.Create(ctx, h.client(c), listID, f); err != nil {
		if h.unauthorized(c, err) {
			return
		}
		h.log.Warn("vocab create failed", zap.Int("list_id", listID), zap.Error(err))
		view.Create, view.FormError = f, msgVocabCreate
		h.renderVocabList(ctx, c, upstreamStatus(err), view)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/vocab-list/%d", listID))
}

func (h *Handler) updateVocab(c *gin.Context) {
	listID, ok := paramID(c, "id")
	if !ok {
		h.renderError(c, http.StatusNotFound, "Vocabulary list not found.")
		return
	}
	vocabID, ok := paramID(c, "vocabId")
	if !ok {
		h.renderError(c, http.StatusNotFound, "Vocabulary not found.")
		return
	}
	ctx, cancel := h.pageContext(c)
	defer cancel()

	view := newVocabView(listID, vocab.Query{})
	view.EditID = vocabID

	var f vocab.Form
	if err := c.ShouldBind(&f); err != nil {
		view.Edit, view.FormError = f, msgRequired
		h.renderVocabList(ctx, c, http.StatusBadRequest, view)
		return
	}
	if err := h.vocab.Update(ctx, h.client(c), vocabID, f); err != nil {
		if h.unauthorized(c, err) {
			return
		}
		h.log.Warn("vocab update failed", zap.Int("vocab_id", vocabID), zap.Error(err))
		view.Edit, view.FormError = f, msgVocabUpdate
		h.renderVocabList(ctx, c, upstreamStatus(err), view)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/vocab-list/%d", listID))
}

package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/curatehq/curate/internal/vocab"
	"github.com/curatehq/curate/model"
)

// handleVocabularyList reports which trees are currently loaded. The MSL
// tree only appears here after a trigger keyword activated it.
func (h *Handlers) handleVocabularyList(w http.ResponseWriter, r *http.Request) {
	loaded := h.vocab.Loaded()
	if loaded == nil {
		loaded = []model.VocabularyType{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": loaded})
}

// handleVocabularyTree serves the full node tree of one vocabulary.
func (h *Handlers) handleVocabularyTree(w http.ResponseWriter, r *http.Request) {
	vocabType := model.VocabularyType(chi.URLParam(r, "vocabulary"))
	if !knownVocabulary(vocabType) {
		WriteError(w, model.NewNotFoundError("unknown vocabulary"))
		return
	}

	tree := h.vocab.Tree(vocabType)
	if tree == nil {
		WriteError(w, model.NewNotFoundError("vocabulary not loaded"))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": tree})
}

// handleVocabularySearch runs a recursive case-insensitive search over one
// loaded tree.
func (h *Handlers) handleVocabularySearch(w http.ResponseWriter, r *http.Request) {
	vocabType := model.VocabularyType(chi.URLParam(r, "vocabulary"))
	if !knownVocabulary(vocabType) {
		WriteError(w, model.NewNotFoundError("unknown vocabulary"))
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, model.NewBadRequestError("missing query parameter q"))
		return
	}

	start := time.Now()
	matches := h.vocab.Search(vocabType, query, queryLimit(r))
	if h.metrics != nil {
		h.metrics.RecordVocabularySearch(time.Since(start))
	}
	if matches == nil {
		matches = []vocab.Match{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": matches})
}

// handleMSLLaboratories proxies the laboratory list shown alongside the MSL
// tree. The list is not cached: it is small and rarely requested.
func (h *Handlers) handleMSLLaboratories(w http.ResponseWriter, r *http.Request) {
	labs, err := h.vocabClient.MSLLaboratories(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if labs == nil {
		labs = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": labs})
}

func knownVocabulary(v model.VocabularyType) bool {
	switch v {
	case model.VocabScienceKeywords, model.VocabPlatforms, model.VocabInstruments, model.VocabMSL:
		return true
	}
	return false
}

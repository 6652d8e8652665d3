package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curatehq/curate/model"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50

	// applyTimeout bounds one background session write after a lookup lands.
	applyTimeout = 5 * time.Second
)

// suggestionCache holds name-search candidates per row until the client
// polls them. Entries are written by the scheduler's apply callback and
// consumed (or overwritten) on read.
type suggestionCache struct {
	mu      sync.Mutex
	entries map[string][]model.ORCIDRecord
}

func newSuggestionCache() *suggestionCache {
	return &suggestionCache{entries: make(map[string][]model.ORCIDRecord)}
}

func (c *suggestionCache) put(key string, records []model.ORCIDRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = records
}

func (c *suggestionCache) take(key string) ([]model.ORCIDRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return records, ok
}

func (c *suggestionCache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// orcidInputRequest reports one keystroke in a row's ORCID or name fields.
// Scope is "author" or "contributor". A non-empty Value schedules a record
// fetch; otherwise FirstName and LastName schedule a name search.
type orcidInputRequest struct {
	Scope     string `json:"scope"`
	RowID     string `json:"rowId"`
	Value     string `json:"value,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// handleORCIDInput accepts the keystroke and returns immediately; the
// debounced lookup runs in the background and writes through the session
// store when it lands. 202 signals "scheduled, poll for suggestions".
func (h *Handlers) handleORCIDInput(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var req orcidInputRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid JSON body"))
		return
	}
	if req.Scope != "author" && req.Scope != "contributor" {
		WriteError(w, model.NewBadRequestError("scope must be author or contributor"))
		return
	}
	if req.RowID == "" {
		WriteError(w, model.NewBadRequestError("missing row id"))
		return
	}

	// Ownership check up front so a foreign session id cannot schedule work.
	if _, err := h.sessions.Get(r.Context(), rctx.SubjectID, sessionID); err != nil {
		WriteError(w, err)
		return
	}

	key := rowKey(sessionID, req.Scope, req.RowID)
	subjectID := rctx.SubjectID

	if req.Value != "" {
		h.scheduler.Input(key, req.Value, func(record model.ORCIDRecord) {
			h.applyRecord(subjectID, sessionID, req.Scope, req.RowID, record)
		})
	} else {
		h.suggestions.drop(key)
		h.scheduler.NameInput(key, req.FirstName, req.LastName, req.Value, h.orcid, func(records []model.ORCIDRecord) {
			h.suggestions.put(key, records)
		})
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// applyRecord writes a fetched ORCID record into the row. It re-reads the
// session so intervening edits are respected; the engine's value-level stale
// guard rejects the record if the row no longer holds the looked-up iD, and
// a version conflict from a concurrent save is retried on fresh state.
func (h *Handlers) applyRecord(subjectID, sessionID, scope, rowID string, record model.ORCIDRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	for attempt := 0; attempt < 3; attempt++ {
		sess, err := h.sessions.Get(ctx, subjectID, sessionID)
		if err != nil {
			// Session gone; the result has nowhere to land.
			return
		}

		now := time.Now().UTC()
		if scope == "author" {
			err = h.engine.ApplyORCIDRecord(sess.State, rowID, record, now)
		} else {
			err = h.engine.ApplyContributorORCIDRecord(sess.State, rowID, record, now)
		}
		if err != nil {
			if h.metrics != nil {
				h.metrics.RecordStaleResponseSuppressed()
			}
			h.log.Debug("orcid record rejected",
				zap.String("session_id", sessionID),
				zap.String("row", rowID),
				zap.Error(err))
			return
		}

		if _, err = h.sessions.Save(ctx, sess); err == nil {
			if h.metrics != nil {
				h.metrics.RecordORCIDLookup("applied")
			}
			return
		}
		var ee *model.ErrorEnvelope
		if !errors.As(err, &ee) || ee.Code != model.ErrConflict {
			h.log.Warn("orcid apply save failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return
		}
	}
	h.log.Warn("orcid apply abandoned after conflicts",
		zap.String("session_id", sessionID),
		zap.String("row", rowID))
}

// handleORCIDSuggestions returns and clears the pending name-search
// candidates for a row. An empty list means nothing has landed yet.
func (h *Handlers) handleORCIDSuggestions(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	rowID := chi.URLParam(r, "rowID")
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "author"
	}

	if _, err := h.sessions.Get(r.Context(), rctx.SubjectID, sessionID); err != nil {
		WriteError(w, err)
		return
	}

	records, _ := h.suggestions.take(rowKey(sessionID, scope, rowID))
	if records == nil {
		records = []model.ORCIDRecord{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": records})
}

// handleORCIDSearch is the direct, non-debounced search used by the
// suggestion dropdown's explicit "search" action.
func (h *Handlers) handleORCIDSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteError(w, model.NewBadRequestError("missing query parameter q"))
		return
	}

	records, err := h.orcid.Search(r.Context(), query, queryLimit(r))
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordORCIDLookup("error")
		}
		WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordORCIDLookup("ok")
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": records})
}

// handleFunderSuggest serves typeahead matches from the in-memory ROR index.
func (h *Handlers) handleFunderSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	records := h.funders.Suggest(query, queryLimit(r))
	if records == nil {
		records = []model.FunderRecord{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": records})
}

// handleAffiliationSuggestions proxies the externally curated affiliation
// list for the tag inputs.
func (h *Handlers) handleAffiliationSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.ror.AffiliationSuggestions(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": suggestions})
}

func queryLimit(r *http.Request) int {
	limit := defaultSuggestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}
	return limit
}

package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/client"
	"github.com/curatehq/curate/internal/form"
	"github.com/curatehq/curate/internal/lookup"
	"github.com/curatehq/curate/internal/normalize"
	"github.com/curatehq/curate/internal/observability"
	"github.com/curatehq/curate/internal/session"
	"github.com/curatehq/curate/internal/submit"
	"github.com/curatehq/curate/internal/vocab"
	"github.com/curatehq/curate/model"
)

// maxBodyBytes caps request bodies, including CSV uploads.
const maxBodyBytes = 5 << 20

// Handlers holds the services behind the curation routes.
type Handlers struct {
	engine      *form.Engine
	sessions    *session.Manager
	submitter   *submit.Service
	vocab       *vocab.Store
	vocabClient *client.VocabClient
	funders     *lookup.FunderIndex
	orcid       *client.ORCIDClient
	ror         *client.RORClient
	scheduler   *lookup.ORCIDScheduler
	metrics     *observability.Metrics
	log         *zap.Logger

	suggestions *suggestionCache
}

// NewHandlers wires the handler set.
func NewHandlers(
	engine *form.Engine,
	sessions *session.Manager,
	submitter *submit.Service,
	vocabStore *vocab.Store,
	vocabClient *client.VocabClient,
	funders *lookup.FunderIndex,
	orcid *client.ORCIDClient,
	ror *client.RORClient,
	scheduler *lookup.ORCIDScheduler,
	metrics *observability.Metrics,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		engine:      engine,
		sessions:    sessions,
		submitter:   submitter,
		vocab:       vocabStore,
		vocabClient: vocabClient,
		funders:     funders,
		orcid:       orcid,
		ror:         ror,
		scheduler:   scheduler,
		metrics:     metrics,
		log:         log.Named("transport"),
		suggestions: newSuggestionCache(),
	}
}

// sessionResponse is the envelope returned by every session endpoint: the
// full form state plus the derived readiness, so the client never computes
// the submit predicate itself.
type sessionResponse struct {
	ID        string         `json:"id"`
	Version   int            `json:"version"`
	ExpiresAt time.Time      `json:"expiresAt"`
	State     *form.State    `json:"state"`
	Readiness form.Readiness `json:"readiness"`
}

func (h *Handlers) envelope(sess session.Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		Version:   sess.Version,
		ExpiresAt: sess.ExpiresAt,
		State:     sess.State,
		Readiness: h.engine.Evaluate(sess.State),
	}
}

// handleSessionCreate opens a draft session. An optional hydration document
// seeds the form; without one the starter rows apply.
func (h *Handlers) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}

	var body struct {
		Document json.RawMessage `json:"document"`
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, model.NewBadRequestError("unreadable request body"))
		return
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			WriteError(w, model.NewBadRequestError("invalid JSON body"))
			return
		}
	}

	var state *form.State
	if len(body.Document) > 0 {
		state, err = normalize.Seed(h.engine, body.Document)
		if err != nil {
			WriteError(w, model.NewBadRequestError("invalid hydration document"))
			return
		}
		h.resolveLegacyMarkers(state)
		if _, err := h.vocab.EnsureMSL(r.Context(), state.FreeKeywords); err != nil {
			h.log.Warn("msl load failed during hydration", zap.Error(err))
		}
	} else {
		state = h.engine.NewState()
	}

	sess, err := h.sessions.Open(r.Context(), rctx.SubjectID, state)
	if err != nil {
		WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSessionOpened()
	}
	WriteJSON(w, http.StatusCreated, h.envelope(sess))
}

// resolveLegacyMarkers retries unresolved hydration keywords against the
// loaded trees. A marker that resolves becomes a selection; the rest keep
// blocking submission until re-picked.
func (h *Handlers) resolveLegacyMarkers(state *form.State) {
	if len(state.LegacyMarkers) == 0 {
		return
	}
	var remaining []string
	for _, marker := range state.LegacyMarkers {
		if kw, ok := h.vocab.ResolveText(marker); ok {
			h.engine.ToggleKeyword(state, kw)
			continue
		}
		remaining = append(remaining, marker)
	}
	state.LegacyMarkers = remaining
}

func (h *Handlers) handleSessionList(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}

	sessions, err := h.sessions.List(r.Context(), rctx.SubjectID)
	if err != nil {
		WriteError(w, err)
		return
	}

	type summary struct {
		ID        string    `json:"id"`
		Version   int       `json:"version"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
		ExpiresAt time.Time `json:"expiresAt"`
		Ready     bool      `json:"ready"`
	}
	summaries := make([]summary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, summary{
			ID:        sess.ID,
			Version:   sess.Version,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			ExpiresAt: sess.ExpiresAt,
			Ready:     h.engine.Evaluate(sess.State).Ready(),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"data": summaries})
}

func (h *Handlers) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}

	sess, err := h.sessions.Get(r.Context(), rctx.SubjectID, chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.envelope(sess))
}

func (h *Handlers) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	// Deletion invalidates any pending lookups keyed under the session.
	h.scheduler.CancelSession(sessionID)

	if err := h.sessions.Delete(r.Context(), rctx.SubjectID, sessionID); err != nil {
		WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSessionClosed()
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

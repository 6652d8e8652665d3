package transport

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/csvimport"
	"github.com/curatehq/curate/internal/session"
	"github.com/curatehq/curate/model"
)

// importSession loads the session behind a bulk import and enforces the
// optimistic version passed as the "version" query parameter.
func (h *Handlers) importSession(r *http.Request) (session.Session, error) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		return session.Session{}, model.NewUnauthorizedError("missing request context")
	}

	sess, err := h.sessions.Get(r.Context(), rctx.SubjectID, chi.URLParam(r, "sessionID"))
	if err != nil {
		return session.Session{}, err
	}

	raw := r.URL.Query().Get("version")
	version, err := strconv.Atoi(raw)
	if err != nil {
		return session.Session{}, model.NewBadRequestError("missing or invalid version parameter")
	}
	if version != sess.Version {
		return session.Session{}, model.NewConflictError("session was modified concurrently")
	}
	return sess, nil
}

// handleImportContributors parses a contributor CSV and bulk-adds the
// accepted rows. Rejected rows come back with their row numbers; a file
// where every row fails still succeeds with an empty accepted list.
func (h *Handlers) handleImportContributors(w http.ResponseWriter, r *http.Request) {
	sess, err := h.importSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	result, err := csvimport.Contributors(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCSVRows("contributors", len(result.Accepted), len(result.Errors))
	}

	if len(result.Accepted) > 0 {
		h.engine.AddContributors(sess.State, result.Accepted)
		sess, err = h.sessions.Save(r.Context(), sess)
		if err != nil {
			WriteError(w, err)
			return
		}
	}

	h.log.Info("contributor csv imported",
		zap.String("session_id", sess.ID),
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("rejected", len(result.Errors)))

	WriteJSON(w, http.StatusOK, map[string]any{
		"accepted": len(result.Accepted),
		"errors":   result.Errors,
		"session":  h.envelope(sess),
	})
}

// handleImportKeywords parses a one-column keyword CSV and adds each value
// as a free keyword, then checks whether the import activated the MSL tree.
func (h *Handlers) handleImportKeywords(w http.ResponseWriter, r *http.Request) {
	sess, err := h.importSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	keywords, err := csvimport.Keywords(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCSVRows("keywords", len(keywords), 0)
	}

	if len(keywords) > 0 {
		for _, kw := range keywords {
			h.engine.AddFreeKeyword(sess.State, kw)
		}
		if _, err := h.vocab.EnsureMSL(r.Context(), sess.State.FreeKeywords); err != nil {
			h.log.Warn("msl load failed after keyword import", zap.Error(err))
		}
		sess, err = h.sessions.Save(r.Context(), sess)
		if err != nil {
			WriteError(w, err)
			return
		}
	}

	h.log.Info("keyword csv imported",
		zap.String("session_id", sess.ID),
		zap.Int("accepted", len(keywords)))

	WriteJSON(w, http.StatusOK, map[string]any{
		"accepted": len(keywords),
		"session":  h.envelope(sess),
	})
}

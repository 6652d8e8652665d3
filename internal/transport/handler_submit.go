package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curatehq/curate/model"
)

// handleSubmit posts the session's record to the registry. The bearer token
// from the incoming request is forwarded verbatim; on success the session is
// discarded so a stale draft cannot be resubmitted.
func (h *Handlers) handleSubmit(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}

	sess, err := h.sessions.Get(r.Context(), rctx.SubjectID, chi.URLParam(r, "sessionID"))
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordSubmission("session_error")
		}
		WriteError(w, err)
		return
	}

	result, err := h.submitter.Submit(r.Context(), sess.ID, rctx.Token, sess.State)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordSubmission(submitOutcome(err))
		}
		WriteError(w, err)
		return
	}

	if delErr := h.sessions.Delete(r.Context(), rctx.SubjectID, sess.ID); delErr == nil {
		if h.metrics != nil {
			h.metrics.RecordSessionClosed()
		}
	}
	if h.metrics != nil {
		h.metrics.RecordSubmission("ok")
	}
	WriteJSON(w, http.StatusOK, result)
}

// submitOutcome labels failed submissions for the metrics counter.
func submitOutcome(err error) string {
	ee, ok := err.(*model.ErrorEnvelope)
	if !ok {
		return "error"
	}
	switch ee.Code {
	case model.ErrSessionExpired:
		return "session_expired"
	case model.ErrValidationError, model.ErrBadRequest:
		return "rejected"
	case model.ErrConflict:
		return "not_ready"
	case model.ErrBackendUnavailable, model.ErrBackendTimeout:
		return "backend_error"
	default:
		return "error"
	}
}

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/form"
	"github.com/curatehq/curate/model"
)

// operationRequest is the body of POST /api/sessions/{sessionID}/operations.
// Version carries the optimistic lock; the remaining fields are read per
// operation, with Entry holding the full row for replace-style ops.
type operationRequest struct {
	Version int    `json:"version"`
	Op      string `json:"op"`

	ID    string `json:"id,omitempty"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
	Type  string `json:"type,omitempty"`

	Kind model.PartyKind `json:"kind,omitempty"`
	From int             `json:"from,omitempty"`
	To   int             `json:"to,omitempty"`

	Entry   json.RawMessage        `json:"entry,omitempty"`
	Keyword *model.SelectedKeyword `json:"keyword,omitempty"`
}

// handleSessionOperation applies one form operation under the session's
// optimistic version, persists the result, and returns the new envelope.
func (h *Handlers) handleSessionOperation(w http.ResponseWriter, r *http.Request) {
	rctx := model.RequestContextFrom(r.Context())
	if rctx == nil {
		WriteError(w, model.NewUnauthorizedError("missing request context"))
		return
	}

	var req operationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid JSON body"))
		return
	}
	if req.Op == "" {
		WriteError(w, model.NewBadRequestError("missing operation name"))
		return
	}

	sess, err := h.sessions.Get(r.Context(), rctx.SubjectID, chi.URLParam(r, "sessionID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if req.Version != sess.Version {
		WriteError(w, model.NewConflictError("session was modified concurrently"))
		return
	}

	if err := h.applyOperation(r.Context(), sess.ID, sess.State, req); err != nil {
		if h.metrics != nil {
			h.metrics.RecordFormOperation(req.Op, "error")
		}
		WriteError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordFormOperation(req.Op, "ok")
	}

	sess, err = h.sessions.Save(r.Context(), sess)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.envelope(sess))
}

func (h *Handlers) handleSessionReadiness(w http.ResponseWriter, r *http.Request) {
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
	WriteJSON(w, http.StatusOK, h.engine.Evaluate(sess.State))
}

// applyOperation dispatches one named operation against the state. Unknown
// names and malformed per-op arguments come back as BAD_REQUEST; row-level
// failures keep whatever envelope the engine assigned.
func (h *Handlers) applyOperation(ctx context.Context, sessionID string, s *form.State, req operationRequest) error {
	e := h.engine
	switch req.Op {

	// Titles.
	case "title.add":
		return e.AddTitle(s)
	case "title.remove":
		return e.RemoveTitle(s, req.ID)
	case "title.set":
		return e.SetTitle(s, req.ID, req.Value)
	case "title.set-type":
		return e.SetTitleType(s, req.ID, model.TitleType(req.Type))

	// Licenses.
	case "license.add":
		return e.AddLicense(s)
	case "license.remove":
		return e.RemoveLicense(s, req.ID)
	case "license.set":
		return e.SetLicense(s, req.ID, req.Value)

	// Dates.
	case "date.add":
		return e.AddDate(s, model.DateType(req.Type))
	case "date.remove":
		return e.RemoveDate(s, req.ID)
	case "date.set-type":
		return e.SetDateType(s, req.ID, model.DateType(req.Type))
	case "date.set-start":
		return e.SetDateStart(s, req.ID, req.Value)
	case "date.set-end":
		return e.SetDateEnd(s, req.ID, req.Value)

	// Authors.
	case "author.add":
		e.AddAuthor(s, req.Kind)
		return nil
	case "author.remove":
		h.scheduler.CancelRow(rowKey(sessionID, "author", req.ID))
		return e.RemoveAuthor(s, req.ID)
	case "author.replace":
		var entry model.AuthorEntry
		if err := decodeEntry(req.Entry, &entry); err != nil {
			return err
		}
		return e.ReplaceAuthor(s, entry)
	case "author.switch-kind":
		h.scheduler.CancelRow(rowKey(sessionID, "author", req.ID))
		return e.SwitchAuthorKind(s, req.ID, req.Kind)
	case "author.move":
		return e.MoveAuthor(s, req.From, req.To)

	// Contributors.
	case "contributor.add":
		e.AddContributor(s, req.Kind)
		return nil
	case "contributor.remove":
		h.scheduler.CancelRow(rowKey(sessionID, "contributor", req.ID))
		return e.RemoveContributor(s, req.ID)
	case "contributor.replace":
		var entry model.ContributorEntry
		if err := decodeEntry(req.Entry, &entry); err != nil {
			return err
		}
		return e.ReplaceContributor(s, entry)
	case "contributor.switch-kind":
		h.scheduler.CancelRow(rowKey(sessionID, "contributor", req.ID))
		return e.SwitchContributorKind(s, req.ID, req.Kind)
	case "contributor.move":
		return e.MoveContributor(s, req.From, req.To)

	// Funding references.
	case "funding.add":
		e.AddFunding(s)
		return nil
	case "funding.remove":
		return e.RemoveFunding(s, req.ID)
	case "funding.set-name":
		return e.SetFunderName(s, req.ID, req.Value)
	case "funding.apply-funder":
		var funder model.FunderRecord
		if err := decodeEntry(req.Entry, &funder); err != nil {
			return err
		}
		return e.ApplyFunderSelection(s, req.ID, funder)
	case "funding.replace":
		var entry model.FundingReferenceEntry
		if err := decodeEntry(req.Entry, &entry); err != nil {
			return err
		}
		return e.ReplaceFunding(s, entry)
	case "funding.toggle-expanded":
		return e.ToggleFundingExpanded(s, req.ID)

	// Descriptions.
	case "description.set":
		e.SetDescription(s, model.DescriptionType(req.Type), req.Value)
		return nil

	// Controlled keywords.
	case "keyword.toggle":
		if req.Keyword == nil {
			return model.NewBadRequestError("keyword.toggle requires a keyword")
		}
		e.ToggleKeyword(s, *req.Keyword)
		return nil
	case "keyword.remove":
		return e.RemoveKeyword(s, req.ID)

	// Free keywords. Adding one may pull in the MSL tree.
	case "free-keyword.add":
		e.AddFreeKeyword(s, req.Value)
		if _, err := h.vocab.EnsureMSL(ctx, s.FreeKeywords); err != nil {
			h.log.Warn("msl load failed", zap.Error(err))
		}
		return nil
	case "free-keyword.remove":
		e.RemoveFreeKeyword(s, req.Value)
		return nil

	// Spatial and temporal coverage.
	case "coverage.add":
		var entry model.SpatialTemporalCoverageEntry
		if err := decodeEntry(req.Entry, &entry); err != nil {
			return err
		}
		return e.AddCoverage(s, entry)
	case "coverage.replace":
		var entry model.SpatialTemporalCoverageEntry
		if err := decodeEntry(req.Entry, &entry); err != nil {
			return err
		}
		return e.ReplaceCoverage(s, entry)
	case "coverage.remove":
		return e.RemoveCoverage(s, req.ID)

	// Related works.
	case "related-work.add":
		var entry model.RelatedWorkEntry
		if err := decodeEntry(req.Entry, &entry); err != nil {
			return err
		}
		e.AddRelatedWork(s, entry)
		return nil
	case "related-work.replace":
		var entry model.RelatedWorkEntry
		if err := decodeEntry(req.Entry, &entry); err != nil {
			return err
		}
		return e.ReplaceRelatedWork(s, entry)
	case "related-work.remove":
		return e.RemoveRelatedWork(s, req.ID)

	// MSL laboratory selection, shown only while the MSL tree is active.
	case "msl-laboratories.set":
		var labs []string
		if err := decodeEntry(req.Entry, &labs); err != nil {
			return err
		}
		s.MSLLaboratories = labs
		return nil

	// Top-level scalar fields.
	case "scalar.set":
		return setScalar(s, req.Field, req.Value)

	default:
		return model.NewBadRequestError(fmt.Sprintf("unknown operation %q", req.Op))
	}
}

// setScalar writes one of the flat resource fields.
func setScalar(s *form.State, field, value string) error {
	switch field {
	case "doi":
		s.DOI = value
	case "year":
		s.Year = value
	case "version":
		s.Version = value
	case "language":
		s.Language = value
	case "resourceType":
		s.ResourceType = value
	default:
		return model.NewBadRequestError(fmt.Sprintf("unknown scalar field %q", field))
	}
	return nil
}

func decodeEntry(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return model.NewBadRequestError("operation requires an entry body")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return model.NewBadRequestError("invalid entry body")
	}
	return nil
}

// rowKey namespaces a debounce key: one pending lookup per row per session.
func rowKey(sessionID, scope, rowID string) string {
	return sessionID + "/" + scope + "/" + rowID
}

package form

import (
	"fmt"
	"strings"

	"github.com/curatehq/curate/model"
)

// --- descriptions ---

// SetDescription stores the text for a description type, replacing any
// existing entry of that type. An empty value removes the entry.
func (e *Engine) SetDescription(s *State, dt model.DescriptionType, value string) {
	out := make([]model.DescriptionEntry, 0, len(s.Descriptions)+1)
	for _, d := range s.Descriptions {
		if d.Type != dt {
			out = append(out, d)
		}
	}
	if value != "" {
		out = append(out, model.DescriptionEntry{Type: dt, Value: value})
	}
	s.Descriptions = out
}

// Description returns the stored text for a description type.
func Description(s *State, dt model.DescriptionType) string {
	for _, d := range s.Descriptions {
		if d.Type == dt {
			return d.Value
		}
	}
	return ""
}

// --- keywords ---

// ToggleKeyword adds the keyword to the selection, or removes it when the
// same node id is already selected. Both the tree checkboxes and the
// summary badges render from this one list.
func (e *Engine) ToggleKeyword(s *State, kw model.SelectedKeyword) {
	for i, have := range s.GCMDKeywords {
		if have.ID == kw.ID {
			out := make([]model.SelectedKeyword, 0, len(s.GCMDKeywords)-1)
			out = append(out, s.GCMDKeywords[:i]...)
			out = append(out, s.GCMDKeywords[i+1:]...)
			s.GCMDKeywords = out
			return
		}
	}
	out := make([]model.SelectedKeyword, 0, len(s.GCMDKeywords)+1)
	out = append(out, s.GCMDKeywords...)
	out = append(out, kw)
	s.GCMDKeywords = out
}

// RemoveKeyword removes a selection by node id (the badge path).
func (e *Engine) RemoveKeyword(s *State, id string) error {
	for i, have := range s.GCMDKeywords {
		if have.ID == id {
			out := make([]model.SelectedKeyword, 0, len(s.GCMDKeywords)-1)
			out = append(out, s.GCMDKeywords[:i]...)
			out = append(out, s.GCMDKeywords[i+1:]...)
			s.GCMDKeywords = out
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("keyword %q is not selected", id))
}

// AddFreeKeyword appends a free-text keyword, ignoring duplicates
// case-insensitively.
func (e *Engine) AddFreeKeyword(s *State, kw string) {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return
	}
	for _, have := range s.FreeKeywords {
		if strings.EqualFold(have, kw) {
			return
		}
	}
	out := make([]string, 0, len(s.FreeKeywords)+1)
	out = append(out, s.FreeKeywords...)
	out = append(out, kw)
	s.FreeKeywords = out
}

// RemoveFreeKeyword removes a free-text keyword.
func (e *Engine) RemoveFreeKeyword(s *State, kw string) {
	out := make([]string, 0, len(s.FreeKeywords))
	for _, have := range s.FreeKeywords {
		if !strings.EqualFold(have, kw) {
			out = append(out, have)
		}
	}
	s.FreeKeywords = out
}

// --- spatial/temporal coverage ---

func coverageID(c model.SpatialTemporalCoverageEntry) string { return c.ID }

// AddCoverage appends a coverage entry after validating its geometry.
func (e *Engine) AddCoverage(s *State, c model.SpatialTemporalCoverageEntry) error {
	if !c.Valid() {
		return model.NewValidationError([]model.FieldError{{
			Field:   "coverage",
			Message: coverageComplaint(c),
		}})
	}
	c.ID = model.NewRowID()
	out := make([]model.SpatialTemporalCoverageEntry, 0, len(s.Coverages)+1)
	out = append(out, s.Coverages...)
	out = append(out, c)
	s.Coverages = out
	return nil
}

// ReplaceCoverage swaps the stored entry for the updated value, keyed by ID.
func (e *Engine) ReplaceCoverage(s *State, updated model.SpatialTemporalCoverageEntry) error {
	if !updated.Valid() {
		return model.NewValidationError([]model.FieldError{{
			Field:   "coverage",
			Message: coverageComplaint(updated),
		}})
	}
	coverages, ok := replaceByID(s.Coverages, updated.ID, coverageID, updated)
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("coverage row %q not found", updated.ID))
	}
	s.Coverages = coverages
	return nil
}

// RemoveCoverage removes the row with the given id.
func (e *Engine) RemoveCoverage(s *State, id string) error {
	coverages, ok := removeByID(s.Coverages, id, coverageID)
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("coverage row %q not found", id))
	}
	s.Coverages = coverages
	return nil
}

func coverageComplaint(c model.SpatialTemporalCoverageEntry) string {
	if c.Kind == model.CoveragePolygon {
		return "a polygon needs at least three points"
	}
	return fmt.Sprintf("incomplete %s geometry", c.Kind)
}

// --- related works ---

func relatedID(r model.RelatedWorkEntry) string { return r.ID }

// AddRelatedWork appends a related-work row.
func (e *Engine) AddRelatedWork(s *State, r model.RelatedWorkEntry) {
	r.ID = model.NewRowID()
	out := make([]model.RelatedWorkEntry, 0, len(s.RelatedWorks)+1)
	out = append(out, s.RelatedWorks...)
	out = append(out, r)
	s.RelatedWorks = out
}

// ReplaceRelatedWork swaps the stored entry for the updated value.
func (e *Engine) ReplaceRelatedWork(s *State, updated model.RelatedWorkEntry) error {
	works, ok := replaceByID(s.RelatedWorks, updated.ID, relatedID, updated)
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("related work %q not found", updated.ID))
	}
	s.RelatedWorks = works
	return nil
}

// RemoveRelatedWork removes the row with the given id.
func (e *Engine) RemoveRelatedWork(s *State, id string) error {
	works, ok := removeByID(s.RelatedWorks, id, relatedID)
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("related work %q not found", id))
	}
	s.RelatedWorks = works
	return nil
}

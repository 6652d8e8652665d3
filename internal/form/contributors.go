package form

import (
	"fmt"
	"time"

	"github.com/curatehq/curate/model"
)

func contributorID(c model.ContributorEntry) string { return c.ID }

// AddContributor appends an empty contributor row of the given kind.
func (e *Engine) AddContributor(s *State, kind model.PartyKind) {
	if kind == "" {
		kind = model.KindPerson
	}
	contributors := make([]model.ContributorEntry, 0, len(s.Contributors)+1)
	contributors = append(contributors, s.Contributors...)
	contributors = append(contributors, model.ContributorEntry{
		ID:       model.NewRowID(),
		Kind:     kind,
		Position: len(contributors),
	})
	s.Contributors = contributors
}

// RemoveContributor removes the row with the given id. Contributors have no
// minimum-count invariant.
func (e *Engine) RemoveContributor(s *State, id string) error {
	contributors, ok := removeByID(s.Contributors, id, contributorID)
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("contributor row %q not found", id))
	}
	s.Contributors = renumberContributors(contributors)
	return nil
}

// ReplaceContributor swaps the stored entry for the updated value, keyed by
// ID, validating roles against the kind's vocabulary.
func (e *Engine) ReplaceContributor(s *State, updated model.ContributorEntry) error {
	for _, c := range s.Contributors {
		if c.ID != updated.ID {
			continue
		}
		for _, role := range updated.Roles {
			if !e.roles.Allowed(updated.Kind, role) {
				return model.NewValidationError([]model.FieldError{{
					Field:   "roles",
					Message: fmt.Sprintf("role %q is not permitted for %s contributors", role, updated.Kind),
				}})
			}
		}
		updated.Position = c.Position
		s.Contributors, _ = replaceByID(s.Contributors, updated.ID, contributorID, updated)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("contributor row %q not found", updated.ID))
}

// SwitchContributorKind changes a contributor between person and
// institution, preserving shared fields (affiliations, roles) and
// discarding kind-specific ones. Roles no longer permitted under the new
// kind's vocabulary are dropped.
func (e *Engine) SwitchContributorKind(s *State, id string, kind model.PartyKind) error {
	for _, c := range s.Contributors {
		if c.ID != id {
			continue
		}
		if c.Kind == kind {
			return nil
		}
		var roles []string
		for _, role := range c.Roles {
			if e.roles.Allowed(kind, role) {
				roles = append(roles, role)
			}
		}
		next := model.ContributorEntry{
			ID:           c.ID,
			Kind:         kind,
			Roles:        roles,
			Affiliations: c.Affiliations,
			Position:     c.Position,
		}
		s.Contributors, _ = replaceByID(s.Contributors, id, contributorID, next)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("contributor row %q not found", id))
}

// MoveContributor reorders the contributor list and synchronizes positions.
func (e *Engine) MoveContributor(s *State, from, to int) error {
	if from < 0 || from >= len(s.Contributors) || to < 0 || to >= len(s.Contributors) {
		return model.NewBadRequestError("move indices out of range")
	}
	s.Contributors = renumberContributors(moveItem(s.Contributors, from, to))
	return nil
}

// AddContributors bulk-appends already validated rows (CSV import).
func (e *Engine) AddContributors(s *State, rows []model.ContributorEntry) {
	contributors := make([]model.ContributorEntry, 0, len(s.Contributors)+len(rows))
	contributors = append(contributors, s.Contributors...)
	for _, row := range rows {
		row.ID = model.NewRowID()
		contributors = append(contributors, row)
	}
	s.Contributors = renumberContributors(contributors)
}

// ApplyContributorORCIDRecord mirrors Engine.ApplyORCIDRecord for the
// contributor list, with the same fill-empty-only and stale-guard rules.
func (e *Engine) ApplyContributorORCIDRecord(s *State, id string, record model.ORCIDRecord, at time.Time) error {
	for _, c := range s.Contributors {
		if c.ID != id {
			continue
		}
		if current, ok := model.NormalizeORCID(c.ORCID); !ok || current != record.ORCID {
			return nil
		}
		if c.FirstName == "" {
			c.FirstName = record.FirstName
		}
		if c.LastName == "" {
			c.LastName = record.LastName
		}
		c.Affiliations = mergeAffiliations(c.Affiliations, record.Affiliations)
		c.ORCIDVerified = true
		c.ORCIDVerifiedAt = at
		s.Contributors, _ = replaceByID(s.Contributors, id, contributorID, c)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("contributor row %q not found", id))
}

func renumberContributors(contributors []model.ContributorEntry) []model.ContributorEntry {
	out := make([]model.ContributorEntry, len(contributors))
	for i, c := range contributors {
		c.Position = i
		out[i] = c
	}
	return out
}

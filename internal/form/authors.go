package form

import (
	"fmt"
	"time"

	"github.com/curatehq/curate/model"
)

func authorID(a model.AuthorEntry) string { return a.ID }

// AddAuthor appends an empty author row of the given kind.
func (e *Engine) AddAuthor(s *State, kind model.PartyKind) {
	if kind == "" {
		kind = model.KindPerson
	}
	authors := make([]model.AuthorEntry, 0, len(s.Authors)+1)
	authors = append(authors, s.Authors...)
	authors = append(authors, model.AuthorEntry{
		ID:       model.NewRowID(),
		Kind:     kind,
		Position: len(authors),
	})
	s.Authors = authors
}

// RemoveAuthor removes the row with the given id and recomputes positions.
// The last remaining author cannot be removed.
func (e *Engine) RemoveAuthor(s *State, id string) error {
	if len(s.Authors) == 1 && s.Authors[0].ID == id {
		return model.NewConflictError("at least one author is required")
	}
	authors, ok := removeByID(s.Authors, id, authorID)
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("author row %q not found", id))
	}
	s.Authors = renumberAuthors(authors)
	return nil
}

// ReplaceAuthor swaps the stored entry for the updated value, keyed by ID.
// The stored position is preserved; callers cannot reorder through it.
func (e *Engine) ReplaceAuthor(s *State, updated model.AuthorEntry) error {
	for _, a := range s.Authors {
		if a.ID == updated.ID {
			updated.Position = a.Position
			s.Authors, _ = replaceByID(s.Authors, updated.ID, authorID, updated)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("author row %q not found", updated.ID))
}

// SwitchAuthorKind changes an author between person and institution,
// preserving shared fields (affiliations) and discarding kind-specific
// ones. Switching to the current kind is a no-op.
func (e *Engine) SwitchAuthorKind(s *State, id string, kind model.PartyKind) error {
	for _, a := range s.Authors {
		if a.ID != id {
			continue
		}
		if a.Kind == kind {
			return nil
		}
		next := model.AuthorEntry{
			ID:           a.ID,
			Kind:         kind,
			Affiliations: a.Affiliations,
			Position:     a.Position,
		}
		s.Authors, _ = replaceByID(s.Authors, id, authorID, next)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("author row %q not found", id))
}

// MoveAuthor reorders the author list and synchronizes positions to the new
// array indices.
func (e *Engine) MoveAuthor(s *State, from, to int) error {
	if from < 0 || from >= len(s.Authors) || to < 0 || to >= len(s.Authors) {
		return model.NewBadRequestError("move indices out of range")
	}
	s.Authors = renumberAuthors(moveItem(s.Authors, from, to))
	return nil
}

// ApplyORCIDRecord merges a fetched ORCID record into the author row. Only
// empty fields are filled; user-entered values are never overwritten. New
// affiliations are appended unless an equal (value, rorId) pair exists. The
// row is marked verified with the given timestamp.
//
// The caller is responsible for the stale-response guard: the record is
// applied only when the row's current ORCID still equals record.ORCID.
func (e *Engine) ApplyORCIDRecord(s *State, id string, record model.ORCIDRecord, at time.Time) error {
	for _, a := range s.Authors {
		if a.ID != id {
			continue
		}
		// The row may hold an unnormalized form (URL prefix, bare digits);
		// compare canonically so a still-matching input is not dropped.
		if current, ok := model.NormalizeORCID(a.ORCID); !ok || current != record.ORCID {
			// Input changed since the lookup was issued; drop the response.
			return nil
		}
		if a.FirstName == "" {
			a.FirstName = record.FirstName
		}
		if a.LastName == "" {
			a.LastName = record.LastName
		}
		a.Affiliations = mergeAffiliations(a.Affiliations, record.Affiliations)
		a.ORCIDVerified = true
		a.ORCIDVerifiedAt = at
		s.Authors, _ = replaceByID(s.Authors, id, authorID, a)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("author row %q not found", id))
}

// renumberAuthors returns a copy with Position synchronized to array index.
func renumberAuthors(authors []model.AuthorEntry) []model.AuthorEntry {
	out := make([]model.AuthorEntry, len(authors))
	for i, a := range authors {
		a.Position = i
		out[i] = a
	}
	return out
}

// mergeAffiliations appends entries from add that are not already present,
// comparing by the (value, rorId) pair.
func mergeAffiliations(existing, add []model.Affiliation) []model.Affiliation {
	if len(add) == 0 {
		return existing
	}
	out := make([]model.Affiliation, 0, len(existing)+len(add))
	out = append(out, existing...)
	for _, a := range add {
		found := false
		for _, have := range out {
			if have.Value == a.Value && have.RORID == a.RORID {
				found = true
				break
			}
		}
		if !found {
			out = append(out, a)
		}
	}
	return out
}

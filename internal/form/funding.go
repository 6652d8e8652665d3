package form

import (
	"fmt"

	"github.com/curatehq/curate/model"
)

func fundingID(f model.FundingReferenceEntry) string { return f.ID }

// AddFunding appends an empty, expanded funding reference row.
func (e *Engine) AddFunding(s *State) {
	funding := make([]model.FundingReferenceEntry, 0, len(s.Funding)+1)
	funding = append(funding, s.Funding...)
	funding = append(funding, model.FundingReferenceEntry{
		ID:       model.NewRowID(),
		Expanded: true,
	})
	s.Funding = funding
}

// RemoveFunding removes the row with the given id.
func (e *Engine) RemoveFunding(s *State, id string) error {
	funding, ok := removeByID(s.Funding, id, fundingID)
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("funding row %q not found", id))
	}
	s.Funding = funding
	return nil
}

// SetFunderName replaces the funder name typed by the user. Hand-editing
// the name after a ROR selection invalidates the attached identifier, so a
// name change clears identifier and identifier type.
func (e *Engine) SetFunderName(s *State, id, name string) error {
	for _, f := range s.Funding {
		if f.ID != id {
			continue
		}
		if f.FunderName != name {
			f.FunderIdentifier = ""
			f.FunderIdentifierType = ""
		}
		f.FunderName = name
		s.Funding, _ = replaceByID(s.Funding, id, fundingID, f)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("funding row %q not found", id))
}

// ApplyFunderSelection sets name, identifier, and identifier type together
// from a ROR funder suggestion. The three fields change atomically so a
// stale keystroke can never observe a half-applied selection.
func (e *Engine) ApplyFunderSelection(s *State, id string, funder model.FunderRecord) error {
	for _, f := range s.Funding {
		if f.ID != id {
			continue
		}
		f.FunderName = funder.PrefLabel
		f.FunderIdentifier = funder.RORID
		f.FunderIdentifierType = "ROR"
		s.Funding, _ = replaceByID(s.Funding, id, fundingID, f)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("funding row %q not found", id))
}

// ReplaceFunding swaps the stored entry for the updated value, keyed by ID.
// The identifier fields are carried from the stored row: they only change
// through SetFunderName (clearing) or ApplyFunderSelection (atomic set).
func (e *Engine) ReplaceFunding(s *State, updated model.FundingReferenceEntry) error {
	for _, f := range s.Funding {
		if f.ID != updated.ID {
			continue
		}
		updated.FunderName = f.FunderName
		updated.FunderIdentifier = f.FunderIdentifier
		updated.FunderIdentifierType = f.FunderIdentifierType
		s.Funding, _ = replaceByID(s.Funding, updated.ID, fundingID, updated)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("funding row %q not found", updated.ID))
}

// ToggleFundingExpanded flips the row's accordion state.
func (e *Engine) ToggleFundingExpanded(s *State, id string) error {
	for _, f := range s.Funding {
		if f.ID != id {
			continue
		}
		f.Expanded = !f.Expanded
		s.Funding, _ = replaceByID(s.Funding, id, fundingID, f)
		return nil
	}
	return model.NewNotFoundError(fmt.Sprintf("funding row %q not found", id))
}

// Package form implements the curation form state engine: repeatable row
// groups, person/institution entity lists, submit-readiness derivation, and
// payload serialization. All mutations replace the owning entry or list as
// a whole (copy-on-write); nothing is mutated in place.
package form

import (
	"github.com/curatehq/curate/internal/config"
	"github.com/curatehq/curate/model"
)

// State is the complete in-memory form state for one curation session. It
// is a plain value; engine operations return errors and write through
// whole-value slice replacement so a stored State can be snapshotted by
// copying the struct.
type State struct {
	DOI          string `json:"doi,omitempty"`
	Year         string `json:"year,omitempty"`
	Version      string `json:"version,omitempty"`
	Language     string `json:"language,omitempty"`
	ResourceType string `json:"resourceType,omitempty"`

	Titles       []model.TitleEntry       `json:"titles,omitempty"`
	Licenses     []model.LicenseEntry     `json:"licenses,omitempty"`
	Authors      []model.AuthorEntry      `json:"authors,omitempty"`
	Contributors []model.ContributorEntry `json:"contributors,omitempty"`
	Descriptions []model.DescriptionEntry `json:"descriptions,omitempty"`
	Dates        []model.DateEntry        `json:"dates,omitempty"`

	GCMDKeywords []model.SelectedKeyword `json:"gcmdKeywords,omitempty"`
	FreeKeywords []string                `json:"freeKeywords,omitempty"`

	Coverages    []model.SpatialTemporalCoverageEntry `json:"spatialTemporalCoverages,omitempty"`
	RelatedWorks []model.RelatedWorkEntry             `json:"relatedWorks,omitempty"`
	Funding      []model.FundingReferenceEntry        `json:"fundingReferences,omitempty"`

	MSLLaboratories []string `json:"mslLaboratories,omitempty"`

	// LegacyMarkers lists vocabulary values from hydration data that could
	// not be resolved against the current controlled vocabularies. Any
	// remaining marker blocks submission until the user re-picks the value.
	LegacyMarkers []string `json:"legacyMarkers,omitempty"`
}

// Engine applies operations to form states under the configured limits and
// role vocabularies. It holds no per-session state itself.
type Engine struct {
	limits Limits
	roles  model.RoleVocabulary
}

// Limits caps the repeatable row groups.
type Limits struct {
	MaxTitles   int
	MaxLicenses int
	MaxDates    int
}

// NewEngine creates an Engine from configuration.
func NewEngine(cfg config.FormConfig) *Engine {
	limits := Limits{
		MaxTitles:   cfg.MaxTitles,
		MaxLicenses: cfg.MaxLicenses,
		MaxDates:    cfg.MaxDates,
	}
	if limits.MaxTitles < 1 {
		limits.MaxTitles = 10
	}
	if limits.MaxLicenses < 1 {
		limits.MaxLicenses = 10
	}
	if limits.MaxDates < 1 {
		limits.MaxDates = 11
	}
	return &Engine{
		limits: limits,
		roles: model.RoleVocabulary{
			Person:      cfg.PersonRoles,
			Institution: cfg.InstitutionRoles,
		},
	}
}

// Roles exposes the injected role vocabulary.
func (e *Engine) Roles() model.RoleVocabulary { return e.roles }

// NewState returns an empty state pre-seeded with the single starter rows
// the form always shows: one main title, one license slot, one person
// author, and one "created" date.
func (e *Engine) NewState() *State {
	return &State{
		Titles:   []model.TitleEntry{{ID: model.NewRowID(), Type: model.TitleMain}},
		Licenses: []model.LicenseEntry{{ID: model.NewRowID()}},
		Authors:  []model.AuthorEntry{{ID: model.NewRowID(), Kind: model.KindPerson}},
		Dates:    []model.DateEntry{{ID: model.NewRowID(), Type: model.DateCreated}},
	}
}

// canAdd is the shared row-group predicate: a row may be appended only when
// at least one row exists, the cap is not reached, and the last row's
// primary value is non-empty (prevents runs of empty trailing rows).
func canAdd(count, max int, lastPrimaryNonEmpty bool) bool {
	return count > 0 && count < max && lastPrimaryNonEmpty
}

// moveItem reassigns positions over a stable-id-keyed ordered sequence. It
// returns a new slice; the receiver slice is left untouched.
func moveItem[T any](items []T, from, to int) []T {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return items
	}
	out := make([]T, 0, len(items))
	out = append(out, items...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// removeByID drops the entry with the given id, leaving all other rows'
// values and order unchanged. Returns the new slice and whether a row was
// removed.
func removeByID[T any](items []T, id string, idOf func(T) string) ([]T, bool) {
	for i, it := range items {
		if idOf(it) == id {
			out := make([]T, 0, len(items)-1)
			out = append(out, items[:i]...)
			out = append(out, items[i+1:]...)
			return out, true
		}
	}
	return items, false
}

// replaceByID swaps the entry with the matching id for the updated value.
// Returns the new slice and whether a row matched.
func replaceByID[T any](items []T, id string, idOf func(T) string, updated T) ([]T, bool) {
	for i, it := range items {
		if idOf(it) == id {
			out := make([]T, len(items))
			copy(out, items)
			out[i] = updated
			return out, true
		}
	}
	return items, false
}

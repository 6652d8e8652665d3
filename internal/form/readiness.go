package form

import "github.com/curatehq/curate/model"

// Readiness is the per-section breakdown of the submit predicate. Submit is
// enabled only when every field is true; a false field disables the submit
// control without raising an error.
type Readiness struct {
	MainTitle      bool `json:"mainTitle"`
	Year           bool `json:"year"`
	ResourceType   bool `json:"resourceType"`
	Language       bool `json:"language"`
	License        bool `json:"license"`
	Authors        bool `json:"authors"`
	Abstract       bool `json:"abstract"`
	CreatedDate    bool `json:"createdDate"`
	LegacyResolved bool `json:"legacyResolved"`
}

// Ready is the conjunction of all section predicates.
func (r Readiness) Ready() bool {
	return r.MainTitle && r.Year && r.ResourceType && r.Language &&
		r.License && r.Authors && r.Abstract && r.CreatedDate && r.LegacyResolved
}

// Evaluate recomputes readiness from the current state. The predicate is
// pure; it is recomputed on demand rather than cached.
func (e *Engine) Evaluate(s *State) Readiness {
	r := Readiness{
		Year:           s.Year != "",
		ResourceType:   s.ResourceType != "",
		Language:       s.Language != "",
		LegacyResolved: len(s.LegacyMarkers) == 0,
	}

	for _, t := range s.Titles {
		if t.Type == model.TitleMain && t.Title != "" {
			r.MainTitle = true
			break
		}
	}

	r.License = len(s.Licenses) > 0 && s.Licenses[0].Identifier != ""

	if len(s.Authors) > 0 {
		r.Authors = true
		for _, a := range s.Authors {
			if !a.Valid() {
				r.Authors = false
				break
			}
		}
	}

	abstract := Description(s, model.DescriptionAbstract)
	n := len([]rune(abstract))
	r.Abstract = n >= model.AbstractMinLength && n <= model.AbstractMaxLength

	for _, d := range s.Dates {
		if d.Type == model.DateCreated && d.HasValue() {
			r.CreatedDate = true
			break
		}
	}

	return r
}

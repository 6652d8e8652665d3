package form

import (
	"fmt"

	"github.com/curatehq/curate/model"
)

// --- titles ---

// CanAddTitle reports whether another title row may be appended.
func (e *Engine) CanAddTitle(s *State) bool {
	n := len(s.Titles)
	return canAdd(n, e.limits.MaxTitles, n > 0 && s.Titles[n-1].Title != "")
}

// AddTitle appends an empty alternative-title row.
func (e *Engine) AddTitle(s *State) error {
	if !e.CanAddTitle(s) {
		return model.NewConflictError("cannot add a title row")
	}
	titles := make([]model.TitleEntry, 0, len(s.Titles)+1)
	titles = append(titles, s.Titles...)
	titles = append(titles, model.TitleEntry{ID: model.NewRowID(), Type: model.TitleAlternative})
	s.Titles = titles
	return nil
}

// RemoveTitle removes the row with the given id. The first row carries the
// add control and is never removable.
func (e *Engine) RemoveTitle(s *State, id string) error {
	if len(s.Titles) > 0 && s.Titles[0].ID == id {
		return model.NewConflictError("the first title row cannot be removed")
	}
	titles, ok := removeByID(s.Titles, id, func(t model.TitleEntry) string { return t.ID })
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("title row %q not found", id))
	}
	s.Titles = titles
	return nil
}

// SetTitle replaces the text of the row with the given id.
func (e *Engine) SetTitle(s *State, id, text string) error {
	for _, t := range s.Titles {
		if t.ID == id {
			t.Title = text
			s.Titles, _ = replaceByID(s.Titles, id, func(t model.TitleEntry) string { return t.ID }, t)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("title row %q not found", id))
}

// SetTitleType changes the row's title type, enforcing that at most one row
// holds the main-title type.
func (e *Engine) SetTitleType(s *State, id string, tt model.TitleType) error {
	if tt == model.TitleMain {
		for _, t := range s.Titles {
			if t.ID != id && t.Type == model.TitleMain {
				return model.NewConflictError("another row already holds the main title")
			}
		}
	}
	for _, t := range s.Titles {
		if t.ID == id {
			t.Type = tt
			s.Titles, _ = replaceByID(s.Titles, id, func(t model.TitleEntry) string { return t.ID }, t)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("title row %q not found", id))
}

// --- licenses ---

// CanAddLicense reports whether another license row may be appended.
func (e *Engine) CanAddLicense(s *State) bool {
	n := len(s.Licenses)
	return canAdd(n, e.limits.MaxLicenses, n > 0 && s.Licenses[n-1].Identifier != "")
}

// AddLicense appends an empty license row.
func (e *Engine) AddLicense(s *State) error {
	if !e.CanAddLicense(s) {
		return model.NewConflictError("cannot add a license row")
	}
	licenses := make([]model.LicenseEntry, 0, len(s.Licenses)+1)
	licenses = append(licenses, s.Licenses...)
	licenses = append(licenses, model.LicenseEntry{ID: model.NewRowID()})
	s.Licenses = licenses
	return nil
}

// RemoveLicense removes a non-first license row.
func (e *Engine) RemoveLicense(s *State, id string) error {
	if len(s.Licenses) > 0 && s.Licenses[0].ID == id {
		return model.NewConflictError("the first license row cannot be removed")
	}
	licenses, ok := removeByID(s.Licenses, id, func(l model.LicenseEntry) string { return l.ID })
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("license row %q not found", id))
	}
	s.Licenses = licenses
	return nil
}

// SetLicense replaces the identifier of the row with the given id.
func (e *Engine) SetLicense(s *State, id, identifier string) error {
	for _, l := range s.Licenses {
		if l.ID == id {
			l.Identifier = identifier
			s.Licenses, _ = replaceByID(s.Licenses, id, func(l model.LicenseEntry) string { return l.ID }, l)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("license row %q not found", id))
}

// --- dates ---

// CanAddDate reports whether another date row may be appended.
func (e *Engine) CanAddDate(s *State) bool {
	n := len(s.Dates)
	return canAdd(n, e.limits.MaxDates, n > 0 && s.Dates[n-1].StartDate != "")
}

// AddDate appends an empty date row of the given type.
func (e *Engine) AddDate(s *State, dt model.DateType) error {
	if !e.CanAddDate(s) {
		return model.NewConflictError("cannot add a date row")
	}
	dates := make([]model.DateEntry, 0, len(s.Dates)+1)
	dates = append(dates, s.Dates...)
	dates = append(dates, model.DateEntry{ID: model.NewRowID(), Type: dt})
	s.Dates = dates
	return nil
}

// RemoveDate removes a non-first date row.
func (e *Engine) RemoveDate(s *State, id string) error {
	if len(s.Dates) > 0 && s.Dates[0].ID == id {
		return model.NewConflictError("the first date row cannot be removed")
	}
	dates, ok := removeByID(s.Dates, id, func(d model.DateEntry) string { return d.ID })
	if !ok {
		return model.NewNotFoundError(fmt.Sprintf("date row %q not found", id))
	}
	s.Dates = dates
	return nil
}

// SetDateType changes the row's date type. Leaving a ranged type clears the
// end date while preserving the start date.
func (e *Engine) SetDateType(s *State, id string, dt model.DateType) error {
	for _, d := range s.Dates {
		if d.ID == id {
			d.Type = dt
			if !dt.AllowsRange() {
				d.EndDate = ""
			}
			s.Dates, _ = replaceByID(s.Dates, id, func(d model.DateEntry) string { return d.ID }, d)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("date row %q not found", id))
}

// SetDateStart replaces the row's start date.
func (e *Engine) SetDateStart(s *State, id, date string) error {
	for _, d := range s.Dates {
		if d.ID == id {
			d.StartDate = date
			s.Dates, _ = replaceByID(s.Dates, id, func(d model.DateEntry) string { return d.ID }, d)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("date row %q not found", id))
}

// SetDateEnd replaces the row's end date. Only ranged date types accept one.
func (e *Engine) SetDateEnd(s *State, id, date string) error {
	for _, d := range s.Dates {
		if d.ID == id {
			if date != "" && !d.Type.AllowsRange() {
				return model.NewConflictError(
					fmt.Sprintf("date type %q does not permit a range", d.Type))
			}
			d.EndDate = date
			s.Dates, _ = replaceByID(s.Dates, id, func(d model.DateEntry) string { return d.ID }, d)
			return nil
		}
	}
	return model.NewNotFoundError(fmt.Sprintf("date row %q not found", id))
}

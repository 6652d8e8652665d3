package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/curatehq/curate/internal/form"
	"github.com/curatehq/curate/model"
)

// document mirrors the optional "initial*" hydration values. Every field is
// raw; the typed accessors above decide whether a value is usable.
type document struct {
	DOI          json.RawMessage `json:"doi"`
	Year         json.RawMessage `json:"year"`
	Version      json.RawMessage `json:"version"`
	Language     json.RawMessage `json:"language"`
	ResourceType json.RawMessage `json:"resourceType"`

	Titles       []json.RawMessage `json:"titles"`
	Licenses     []json.RawMessage `json:"licenses"`
	Authors      json.RawMessage   `json:"authors"`
	Contributors json.RawMessage   `json:"contributors"`
	Descriptions []json.RawMessage `json:"descriptions"`
	Dates        []json.RawMessage `json:"dates"`

	GCMDKeywords []json.RawMessage `json:"gcmdKeywords"`
	FreeKeywords []json.RawMessage `json:"freeKeywords"`

	Coverages    []json.RawMessage `json:"spatialTemporalCoverages"`
	RelatedWorks []json.RawMessage `json:"relatedWorks"`
	Funding      []json.RawMessage `json:"fundingReferences"`

	MSLLaboratories []json.RawMessage `json:"mslLaboratories"`
}

// Seed builds a form state from a hydration document. Lists that parse to
// nothing keep the engine's starter rows; keyword entries that cannot be
// resolved to a vocabulary node become legacy markers on the state.
func Seed(engine *form.Engine, raw []byte) (*form.State, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("normalize: parsing hydration document: %w", err)
	}

	s := engine.NewState()
	s.DOI, _ = String(doc.DOI)
	s.Year, _ = String(doc.Year)
	s.Version, _ = String(doc.Version)
	s.Language, _ = String(doc.Language)
	s.ResourceType, _ = String(doc.ResourceType)

	if titles := seedTitles(doc.Titles); len(titles) > 0 {
		s.Titles = titles
	}
	if licenses := seedLicenses(doc.Licenses); len(licenses) > 0 {
		s.Licenses = licenses
	}
	if authors := Authors(doc.Authors); len(authors) > 0 {
		s.Authors = authors
	}
	s.Contributors = Contributors(doc.Contributors)
	s.Descriptions = seedDescriptions(doc.Descriptions)
	if dates := seedDates(doc.Dates); len(dates) > 0 {
		s.Dates = dates
	}

	s.GCMDKeywords, s.LegacyMarkers = seedKeywords(doc.GCMDKeywords)
	s.FreeKeywords = seedStrings(doc.FreeKeywords)
	s.Coverages = seedCoverages(doc.Coverages)
	s.RelatedWorks = seedRelatedWorks(doc.RelatedWorks)
	s.Funding = seedFunding(doc.Funding)
	s.MSLLaboratories = seedStrings(doc.MSLLaboratories)

	return s, nil
}

func seedTitles(items []json.RawMessage) []model.TitleEntry {
	var out []model.TitleEntry
	hasMain := false
	for _, item := range items {
		var obj struct {
			Title string          `json:"title"`
			Type  model.TitleType `json:"titleType"`
		}
		if err := json.Unmarshal(item, &obj); err != nil || obj.Title == "" {
			continue
		}
		// Legacy data may carry several main titles; the state invariant
		// allows at most one, so the first wins and the rest demote.
		switch {
		case obj.Type == model.TitleMain && hasMain:
			obj.Type = model.TitleAlternative
		case obj.Type == "" && !hasMain:
			obj.Type = model.TitleMain
		case obj.Type == "":
			obj.Type = model.TitleAlternative
		}
		if obj.Type == model.TitleMain {
			hasMain = true
		}
		out = append(out, model.TitleEntry{ID: model.NewRowID(), Title: obj.Title, Type: obj.Type})
	}
	return out
}

func seedLicenses(items []json.RawMessage) []model.LicenseEntry {
	var out []model.LicenseEntry
	for _, item := range items {
		identifier, ok := String(item)
		if !ok {
			var obj struct {
				License    string `json:"license"`
				Identifier string `json:"identifier"`
			}
			if err := json.Unmarshal(item, &obj); err != nil {
				continue
			}
			identifier = obj.License
			if identifier == "" {
				identifier = obj.Identifier
			}
		}
		if identifier == "" {
			continue
		}
		out = append(out, model.LicenseEntry{ID: model.NewRowID(), Identifier: identifier})
	}
	return out
}

func seedDescriptions(items []json.RawMessage) []model.DescriptionEntry {
	var out []model.DescriptionEntry
	for _, item := range items {
		var obj model.DescriptionEntry
		if err := json.Unmarshal(item, &obj); err != nil || obj.Value == "" {
			continue
		}
		if obj.Type == "" {
			obj.Type = model.DescriptionAbstract
		}
		out = append(out, obj)
	}
	return out
}

func seedDates(items []json.RawMessage) []model.DateEntry {
	var out []model.DateEntry
	for _, item := range items {
		var obj struct {
			StartDate string         `json:"startDate"`
			EndDate   string         `json:"endDate"`
			Type      model.DateType `json:"dateType"`
		}
		if err := json.Unmarshal(item, &obj); err != nil || obj.Type == "" {
			continue
		}
		if !obj.Type.AllowsRange() {
			obj.EndDate = ""
		}
		out = append(out, model.DateEntry{
			ID:        model.NewRowID(),
			StartDate: obj.StartDate,
			EndDate:   obj.EndDate,
			Type:      obj.Type,
		})
	}
	return out
}

// seedKeywords splits hydrated keyword entries into resolvable selections
// (id and path present) and legacy markers (free text only). Markers block
// submission until the user re-picks the value from the current tree.
func seedKeywords(items []json.RawMessage) ([]model.SelectedKeyword, []string) {
	var selected []model.SelectedKeyword
	var markers []string
	for _, item := range items {
		if text, ok := String(item); ok {
			if text != "" {
				markers = append(markers, text)
			}
			continue
		}
		var kw model.SelectedKeyword
		if err := json.Unmarshal(item, &kw); err != nil {
			continue
		}
		if kw.ID == "" || kw.Path == "" {
			if kw.Text != "" {
				markers = append(markers, kw.Text)
			}
			continue
		}
		selected = append(selected, kw)
	}
	return selected, markers
}

func seedStrings(items []json.RawMessage) []string {
	var out []string
	for _, item := range items {
		if s, ok := String(item); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func seedCoverages(items []json.RawMessage) []model.SpatialTemporalCoverageEntry {
	var out []model.SpatialTemporalCoverageEntry
	for _, item := range items {
		var c model.SpatialTemporalCoverageEntry
		if err := json.Unmarshal(item, &c); err != nil || !c.Valid() {
			continue
		}
		c.ID = model.NewRowID()
		out = append(out, c)
	}
	return out
}

func seedRelatedWorks(items []json.RawMessage) []model.RelatedWorkEntry {
	var out []model.RelatedWorkEntry
	for _, item := range items {
		var r model.RelatedWorkEntry
		if err := json.Unmarshal(item, &r); err != nil || r.Identifier == "" {
			continue
		}
		r.ID = model.NewRowID()
		out = append(out, r)
	}
	return out
}

func seedFunding(items []json.RawMessage) []model.FundingReferenceEntry {
	var out []model.FundingReferenceEntry
	for _, item := range items {
		var f model.FundingReferenceEntry
		if err := json.Unmarshal(item, &f); err != nil || f.FunderName == "" {
			continue
		}
		f.ID = model.NewRowID()
		f.Expanded = false
		out = append(out, f)
	}
	return out
}

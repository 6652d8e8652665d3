package form

import "github.com/curatehq/curate/model"

// BuildPayload serializes the state into the flat submission document:
// affiliations deduplicated, roles flattened to strings, empty optionals
// coerced to null, and dates filtered to those with a usable value.
func BuildPayload(s *State) model.Payload {
	p := model.Payload{
		DOI:          nullable(s.DOI),
		Year:         nullable(s.Year),
		Version:      nullable(s.Version),
		Language:     nullable(s.Language),
		ResourceType: nullable(s.ResourceType),

		Titles:            make([]model.PayloadTitle, 0, len(s.Titles)),
		Licenses:          make([]string, 0, len(s.Licenses)),
		Authors:           make([]model.PayloadParty, 0, len(s.Authors)),
		Contributors:      make([]model.PayloadParty, 0, len(s.Contributors)),
		Descriptions:      make([]model.PayloadDescription, 0, len(s.Descriptions)),
		Dates:             make([]model.PayloadDate, 0, len(s.Dates)),
		GCMDKeywords:      make([]model.PayloadKeyword, 0, len(s.GCMDKeywords)),
		FreeKeywords:      append([]string{}, s.FreeKeywords...),
		Coverages:         make([]model.PayloadCoverage, 0, len(s.Coverages)),
		RelatedWorks:      make([]model.PayloadRelated, 0, len(s.RelatedWorks)),
		FundingReferences: make([]model.PayloadFunding, 0, len(s.Funding)),
		MSLLaboratories:   append([]string{}, s.MSLLaboratories...),
	}

	for _, t := range s.Titles {
		if t.Title == "" {
			continue
		}
		p.Titles = append(p.Titles, model.PayloadTitle{Title: t.Title, Type: t.Type})
	}

	for _, l := range s.Licenses {
		if l.Identifier != "" {
			p.Licenses = append(p.Licenses, l.Identifier)
		}
	}

	for i, a := range s.Authors {
		p.Authors = append(p.Authors, model.PayloadParty{
			Kind:            a.Kind,
			ORCID:           nullable(a.ORCID),
			FirstName:       nullable(a.FirstName),
			LastName:        nullable(a.LastName),
			Email:           nullable(a.Email),
			Website:         nullable(a.Website),
			IsContact:       a.IsContact,
			InstitutionName: nullable(a.InstitutionName),
			Affiliations:    SerializeAffiliations(a.Affiliations),
			Position:        i,
		})
	}

	for i, c := range s.Contributors {
		p.Contributors = append(p.Contributors, model.PayloadParty{
			Kind:            c.Kind,
			ORCID:           nullable(c.ORCID),
			FirstName:       nullable(c.FirstName),
			LastName:        nullable(c.LastName),
			InstitutionName: nullable(c.InstitutionName),
			Roles:           append([]string{}, c.Roles...),
			Affiliations:    SerializeAffiliations(c.Affiliations),
			Position:        i,
		})
	}

	for _, d := range s.Descriptions {
		if d.Value != "" {
			p.Descriptions = append(p.Descriptions, model.PayloadDescription{Type: d.Type, Value: d.Value})
		}
	}

	for _, d := range s.Dates {
		if !d.HasValue() {
			continue
		}
		p.Dates = append(p.Dates, model.PayloadDate{
			Type:      d.Type,
			StartDate: d.StartDate,
			EndDate:   nullable(d.EndDate),
		})
	}

	for _, kw := range s.GCMDKeywords {
		p.GCMDKeywords = append(p.GCMDKeywords, model.PayloadKeyword(kw))
	}

	for _, c := range s.Coverages {
		p.Coverages = append(p.Coverages, model.PayloadCoverage{
			Kind:        c.Kind,
			Point:       c.Point,
			Bounds:      c.Bounds,
			Polygon:     c.Polygon,
			StartDate:   nullable(c.StartDate),
			StartTime:   nullable(c.StartTime),
			EndDate:     nullable(c.EndDate),
			EndTime:     nullable(c.EndTime),
			Timezone:    nullable(c.Timezone),
			Description: nullable(c.Description),
		})
	}

	for _, r := range s.RelatedWorks {
		if r.Identifier == "" {
			continue
		}
		p.RelatedWorks = append(p.RelatedWorks, model.PayloadRelated{
			Identifier:     r.Identifier,
			IdentifierType: r.IdentifierType,
			RelationType:   r.RelationType,
		})
	}

	for _, f := range s.Funding {
		if f.FunderName == "" {
			continue
		}
		p.FundingReferences = append(p.FundingReferences, model.PayloadFunding{
			FunderName:           f.FunderName,
			FunderIdentifier:     nullable(f.FunderIdentifier),
			FunderIdentifierType: nullable(f.FunderIdentifierType),
			AwardNumber:          nullable(f.AwardNumber),
			AwardURI:             nullable(f.AwardURI),
			AwardTitle:           nullable(f.AwardTitle),
		})
	}

	return p
}

// SerializeAffiliations deduplicates by the (value, rorId) pair. An entry
// with an empty value falls back to its ROR ID as the display value before
// keying, so a bare ROR selection and its hydrated twin collapse into one.
func SerializeAffiliations(affiliations []model.Affiliation) []model.PayloadAffiliation {
	type key struct{ value, ror string }
	seen := make(map[key]bool, len(affiliations))
	out := make([]model.PayloadAffiliation, 0, len(affiliations))

	for _, a := range affiliations {
		if a.Value == "" && a.RORID == "" {
			continue
		}
		value := a.Value
		if value == "" {
			value = a.RORID
		}
		k := key{value: value, ror: a.RORID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, model.PayloadAffiliation{
			Value: value,
			RORID: nullable(a.RORID),
		})
	}
	return out
}

// nullable coerces an empty string to null in the serialized payload.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

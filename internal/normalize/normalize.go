// Package normalize parses loosely-typed hydration documents into typed
// entities. Historical records spell affiliation keys several ways and carry
// contributor roles as an array, a bare string, or an object; every accessor
// here either returns a typed value or reports the field as absent. No other
// package probes raw hydration shapes.
package normalize

import (
	"encoding/json"
	"strings"

	"github.com/curatehq/curate/model"
)

// Known historical spellings, in probe order.
var (
	affiliationValueKeys = []string{"value", "name", "affiliation", "label"}
	affiliationRORKeys   = []string{"rorId", "ror_id", "rorid", "ror"}
)

// String extracts a scalar string. Numbers are accepted and formatted as
// their literal token (legacy records carry the year as a JSON number).
func String(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// Affiliation parses one affiliation entry: either a bare string (the
// organization name) or an object probed under the historical key spellings.
// An entry with neither a value nor a ROR ID is absent.
func Affiliation(raw json.RawMessage) (model.Affiliation, bool) {
	if s, ok := String(raw); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return model.Affiliation{}, false
		}
		return model.Affiliation{Value: s}, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.Affiliation{}, false
	}
	var a model.Affiliation
	for _, k := range affiliationValueKeys {
		if v, ok := String(obj[k]); ok && v != "" {
			a.Value = v
			break
		}
	}
	for _, k := range affiliationRORKeys {
		if v, ok := String(obj[k]); ok && v != "" {
			a.RORID = v
			break
		}
	}
	if a.Value == "" && a.RORID == "" {
		return model.Affiliation{}, false
	}
	return a, true
}

// Affiliations parses an affiliation list, dropping unparseable entries.
func Affiliations(raw json.RawMessage) []model.Affiliation {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		// Some records carry a single affiliation without the array.
		if a, ok := Affiliation(raw); ok {
			return []model.Affiliation{a}
		}
		return nil
	}
	var out []model.Affiliation
	for _, item := range items {
		if a, ok := Affiliation(item); ok {
			out = append(out, a)
		}
	}
	return out
}

// Roles parses a contributor role field in any of its historical shapes:
// ["DataCurator", ...], "DataCurator", {"name": "DataCurator"}, or an array
// mixing strings and objects. Unparseable entries are dropped.
func Roles(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if r, ok := role(raw); ok {
			return []string{r}
		}
		return nil
	}
	var out []string
	for _, item := range items {
		if r, ok := role(item); ok {
			out = append(out, r)
		}
	}
	return out
}

// role parses one role entry: a bare string or an object keyed by name.
func role(raw json.RawMessage) (string, bool) {
	if s, ok := String(raw); ok {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	for _, k := range []string{"name", "role", "value"} {
		if v, ok := String(obj[k]); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Party holds the fields shared by legacy author and contributor entries.
type Party struct {
	Kind            model.PartyKind
	ORCID           string
	FirstName       string
	LastName        string
	Email           string
	Website         string
	IsContact       bool
	InstitutionName string
	Roles           []string
	Affiliations    []model.Affiliation
}

// ParseParty parses one legacy author or contributor object. The kind is
// taken from the "type" field when present; otherwise it is inferred from
// which name fields the record carries. Records with no usable name and no
// affiliation are absent.
func ParseParty(raw json.RawMessage) (Party, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Party{}, false
	}

	var p Party
	p.ORCID, _ = String(obj["orcid"])
	p.FirstName, _ = String(obj["firstName"])
	p.LastName, _ = String(obj["lastName"])
	p.Email, _ = String(obj["email"])
	p.Website, _ = String(obj["website"])
	p.InstitutionName, _ = String(obj["institutionName"])
	if p.InstitutionName == "" {
		p.InstitutionName, _ = String(obj["name"])
	}
	p.Roles = Roles(obj["roles"])
	p.Affiliations = Affiliations(obj["affiliations"])

	if v, ok := obj["isContact"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			p.IsContact = b
		}
	}

	if kind, ok := String(obj["type"]); ok {
		switch model.PartyKind(kind) {
		case model.KindPerson, model.KindInstitution:
			p.Kind = model.PartyKind(kind)
		}
	}
	if p.Kind == "" {
		if p.InstitutionName != "" && p.FirstName == "" && p.LastName == "" {
			p.Kind = model.KindInstitution
		} else {
			p.Kind = model.KindPerson
		}
	}

	switch p.Kind {
	case model.KindInstitution:
		if p.InstitutionName == "" {
			return Party{}, false
		}
	default:
		if p.FirstName == "" && p.LastName == "" {
			return Party{}, false
		}
	}
	return p, true
}

// Authors parses the legacy initialAuthors list.
func Authors(raw json.RawMessage) []model.AuthorEntry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []model.AuthorEntry
	for _, item := range items {
		p, ok := ParseParty(item)
		if !ok {
			continue
		}
		out = append(out, model.AuthorEntry{
			ID:              model.NewRowID(),
			Kind:            p.Kind,
			ORCID:           p.ORCID,
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			Email:           p.Email,
			Website:         p.Website,
			IsContact:       p.IsContact,
			InstitutionName: p.InstitutionName,
			Affiliations:    p.Affiliations,
			Position:        len(out),
		})
	}
	return out
}

// Contributors parses the legacy initialContributors list. Roles are carried
// verbatim here; the form engine validates them against the configured
// vocabulary on the next edit.
func Contributors(raw json.RawMessage) []model.ContributorEntry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []model.ContributorEntry
	for _, item := range items {
		p, ok := ParseParty(item)
		if !ok {
			continue
		}
		out = append(out, model.ContributorEntry{
			ID:              model.NewRowID(),
			Kind:            p.Kind,
			ORCID:           p.ORCID,
			FirstName:       p.FirstName,
			LastName:        p.LastName,
			InstitutionName: p.InstitutionName,
			Roles:           p.Roles,
			Affiliations:    p.Affiliations,
			Position:        len(out),
		})
	}
	return out
}

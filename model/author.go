package model

import "time"

// PartyKind discriminates the person/institution union used by authors and
// contributors.
type PartyKind string

const (
	KindPerson      PartyKind = "person"
	KindInstitution PartyKind = "institution"
)

// Affiliation ties a party to an organization, optionally identified by a
// ROR ID. Entries are deduplicated by the (Value, RORID) pair during
// serialization; an empty Value falls back to the ROR ID only at that point.
type Affiliation struct {
	Value string `json:"value"`
	RORID string `json:"rorId,omitempty"`
}

// AuthorEntry is one creator of the resource. Person fields and institution
// fields are mutually exclusive under Kind; switching kinds discards the
// kind-specific fields and preserves Affiliations.
type AuthorEntry struct {
	ID   string    `json:"id"`
	Kind PartyKind `json:"type"`

	// Person fields.
	ORCID     string `json:"orcid,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Website   string `json:"website,omitempty"`
	IsContact bool   `json:"isContact,omitempty"`

	// Institution fields.
	InstitutionName string `json:"institutionName,omitempty"`

	Affiliations []Affiliation `json:"affiliations,omitempty"`

	// ORCID verification bookkeeping; best-effort, never blocks submission.
	ORCIDVerified   bool      `json:"orcidVerified,omitempty"`
	ORCIDVerifiedAt time.Time `json:"orcidVerifiedAt,omitzero"`

	// Position mirrors the array index after reordering.
	Position int `json:"position"`
}

// Valid reports whether the author satisfies its per-entry invariant: a
// person needs a last name (and an email when marked as contact), an
// institution needs a name.
func (a AuthorEntry) Valid() bool {
	switch a.Kind {
	case KindInstitution:
		return a.InstitutionName != ""
	default:
		if a.LastName == "" {
			return false
		}
		if a.IsContact && a.Email == "" {
			return false
		}
		return true
	}
}

// ContributorEntry is the same person/institution union as AuthorEntry plus
// a role list. The permitted role vocabulary depends on the kind. There is
// no minimum-count invariant for contributors.
type ContributorEntry struct {
	ID   string    `json:"id"`
	Kind PartyKind `json:"type"`

	ORCID     string `json:"orcid,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`

	InstitutionName string `json:"institutionName,omitempty"`

	Roles        []string      `json:"roles,omitempty"`
	Affiliations []Affiliation `json:"affiliations,omitempty"`

	ORCIDVerified   bool      `json:"orcidVerified,omitempty"`
	ORCIDVerifiedAt time.Time `json:"orcidVerifiedAt,omitzero"`

	Position int `json:"position"`
}

// Valid reports whether the contributor carries the name its kind requires.
func (c ContributorEntry) Valid() bool {
	if c.Kind == KindInstitution {
		return c.InstitutionName != ""
	}
	return c.LastName != "" || c.FirstName != ""
}

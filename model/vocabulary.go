package model

// VocabularyType identifies one of the hierarchical keyword vocabularies.
type VocabularyType string

const (
	VocabScienceKeywords VocabularyType = "science-keywords"
	VocabPlatforms       VocabularyType = "platforms"
	VocabInstruments     VocabularyType = "instruments"
	VocabMSL             VocabularyType = "msl"
)

// GCMDVocabularies are the trees loaded unconditionally after startup. The
// MSL tree is loaded only when a free keyword matches a trigger word.
var GCMDVocabularies = []VocabularyType{
	VocabScienceKeywords,
	VocabPlatforms,
	VocabInstruments,
}

// VocabularyNode is one node of a keyword tree.
type VocabularyNode struct {
	ID          string           `json:"id"`
	Text        string           `json:"text"`
	Description string           `json:"description,omitempty"`
	Children    []VocabularyNode `json:"children,omitempty"`
}

// SelectedKeyword references a vocabulary node from the flat selection list.
// Path is the materialized breadcrumb from the root to the node. Tree
// checkbox state and the summary badges both derive from this list; the
// selection is never duplicated per view.
type SelectedKeyword struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Path       string         `json:"path"`
	Vocabulary VocabularyType `json:"vocabularyType"`
}

// FunderRecord is one entry of the ROR funder list, loaded once per process.
type FunderRecord struct {
	PrefLabel  string   `json:"prefLabel"`
	RORID      string   `json:"rorId"`
	OtherLabel []string `json:"otherLabel,omitempty"`
}

// ORCIDRecord is the canonical person record fetched from the ORCID
// registry: name plus employment affiliations.
type ORCIDRecord struct {
	ORCID        string        `json:"orcid"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Affiliations []Affiliation `json:"affiliations,omitempty"`
}

// AffiliationSuggestion is one externally supplied suggestion entry,
// consumed read-only by the affiliation tag inputs.
type AffiliationSuggestion struct {
	Value       string   `json:"value"`
	RORID       string   `json:"rorId,omitempty"`
	SearchTerms []string `json:"searchTerms,omitempty"`
}

// RoleVocabulary is the immutable set of contributor roles permitted per
// party kind, injected into the form engine at construction.
type RoleVocabulary struct {
	Person      []string
	Institution []string
}

// Allowed reports whether role is permitted for the given kind.
func (v RoleVocabulary) Allowed(kind PartyKind, role string) bool {
	set := v.Person
	if kind == KindInstitution {
		set = v.Institution
	}
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

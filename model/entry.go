// Package model holds the core curation entities: the repeatable form
// entries, controlled vocabularies, the error envelope, and the serialized
// submission payload. Entities carry a client-generated opaque ID used only
// for list reconciliation (stable keys across reorder/removal), never as a
// domain identifier.
package model

import "github.com/google/uuid"

// NewRowID returns a fresh reconciliation key for a list entry.
func NewRowID() string {
	return uuid.NewString()
}

// TitleType is a DataCite title type.
type TitleType string

const (
	TitleMain        TitleType = "main-title"
	TitleAlternative TitleType = "alternative-title"
	TitleSubtitle    TitleType = "subtitle"
	TitleTranslated  TitleType = "translated-title"
)

// TitleEntry is one row of the repeatable title group. At most one entry may
// hold TitleMain, and at least one entry with non-empty text is required for
// the record to be submittable.
type TitleEntry struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Type  TitleType `json:"titleType"`
}

// LicenseEntry is one row of the repeatable license group. The identifier is
// an SPDX license ID.
type LicenseEntry struct {
	ID         string `json:"id"`
	Identifier string `json:"license"`
}

// DescriptionType is a DataCite description type.
type DescriptionType string

const (
	DescriptionAbstract          DescriptionType = "Abstract"
	DescriptionMethods           DescriptionType = "Methods"
	DescriptionSeriesInformation DescriptionType = "SeriesInformation"
	DescriptionTableOfContents   DescriptionType = "TableOfContents"
	DescriptionTechnicalInfo     DescriptionType = "TechnicalInfo"
	DescriptionOther             DescriptionType = "Other"
)

// Bounds for the mandatory abstract, in characters.
const (
	AbstractMinLength = 50
	AbstractMaxLength = 17500
)

// DescriptionEntry holds one description text. There is at most one entry
// per type; the Abstract entry is mandatory for submission.
type DescriptionEntry struct {
	Type  DescriptionType `json:"type"`
	Value string          `json:"value"`
}

// DateType is a DataCite date type. Only DateValid describes a range; every
// other type is a single point in time.
type DateType string

const (
	DateAccepted    DateType = "accepted"
	DateAvailable   DateType = "available"
	DateCollected   DateType = "collected"
	DateCopyrighted DateType = "copyrighted"
	DateCreated     DateType = "created"
	DateIssued      DateType = "issued"
	DateSubmitted   DateType = "submitted"
	DateUpdated     DateType = "updated"
	DateValid       DateType = "valid"
	DateWithdrawn   DateType = "withdrawn"
	DateOther       DateType = "other"
)

// AllowsRange reports whether the date type permits an end date.
func (t DateType) AllowsRange() bool {
	return t == DateValid
}

// DateEntry is one row of the repeatable date group. EndDate is only
// meaningful when Type.AllowsRange(); transitions away from a ranged type
// clear it. A DateCreated entry with a usable start date is mandatory for
// submission.
type DateEntry struct {
	ID        string   `json:"id"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Type      DateType `json:"dateType"`
}

// HasValue reports whether the entry carries a usable date.
func (d DateEntry) HasValue() bool {
	return d.StartDate != ""
}

// RelatedWorkEntry links the resource to another identified work.
type RelatedWorkEntry struct {
	ID             string `json:"id"`
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifierType"`
	RelationType   string `json:"relationType"`
}

// FundingReferenceEntry describes one funding source. FunderIdentifier and
// FunderIdentifierType are set atomically when a ROR funder suggestion is
// selected, and cleared again when the funder name is hand-edited afterward.
// Expanded is presentation state only and never serialized.
type FundingReferenceEntry struct {
	ID                   string `json:"id"`
	FunderName           string `json:"funderName"`
	FunderIdentifier     string `json:"funderIdentifier"`
	FunderIdentifierType string `json:"funderIdentifierType"`
	AwardNumber          string `json:"awardNumber"`
	AwardURI             string `json:"awardUri"`
	AwardTitle           string `json:"awardTitle"`
	Expanded             bool   `json:"isExpanded"`
}

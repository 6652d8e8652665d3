package model

// Payload is the flat JSON document POSTed to the registry on submission.
// Empty optional scalars are serialized as null rather than "", affiliations
// are deduplicated, contributor roles are flattened to plain strings, and
// dates are filtered to those with a usable value.
type Payload struct {
	DOI          *string `json:"doi"`
	Year         *string `json:"year"`
	Version      *string `json:"version"`
	Language     *string `json:"language"`
	ResourceType *string `json:"resourceType"`

	Titles       []PayloadTitle       `json:"titles"`
	Licenses     []string             `json:"licenses"`
	Authors      []PayloadParty       `json:"authors"`
	Contributors []PayloadParty       `json:"contributors"`
	Descriptions []PayloadDescription `json:"descriptions"`
	Dates        []PayloadDate        `json:"dates"`

	GCMDKeywords []PayloadKeyword `json:"gcmdKeywords"`
	FreeKeywords []string         `json:"freeKeywords"`

	Coverages         []PayloadCoverage `json:"spatialTemporalCoverages"`
	RelatedWorks      []PayloadRelated  `json:"relatedWorks"`
	FundingReferences []PayloadFunding  `json:"fundingReferences"`
	MSLLaboratories   []string          `json:"mslLaboratories"`
}

// PayloadTitle is one serialized title.
type PayloadTitle struct {
	Title string    `json:"title"`
	Type  TitleType `json:"titleType"`
}

// PayloadParty is one serialized author or contributor.
type PayloadParty struct {
	Kind            PartyKind            `json:"type"`
	ORCID           *string              `json:"orcid,omitempty"`
	FirstName       *string              `json:"firstName,omitempty"`
	LastName        *string              `json:"lastName,omitempty"`
	Email           *string              `json:"email,omitempty"`
	Website         *string              `json:"website,omitempty"`
	IsContact       bool                 `json:"isContact,omitempty"`
	InstitutionName *string              `json:"institutionName,omitempty"`
	Roles           []string             `json:"roles,omitempty"`
	Affiliations    []PayloadAffiliation `json:"affiliations"`
	Position        int                  `json:"position"`
}

// PayloadAffiliation is one deduplicated affiliation.
type PayloadAffiliation struct {
	Value string  `json:"value"`
	RORID *string `json:"rorId"`
}

// PayloadDescription is one serialized description.
type PayloadDescription struct {
	Type  DescriptionType `json:"type"`
	Value string          `json:"value"`
}

// PayloadDate is one serialized lifecycle date.
type PayloadDate struct {
	Type      DateType `json:"dateType"`
	StartDate string   `json:"startDate"`
	EndDate   *string  `json:"endDate"`
}

// PayloadKeyword is one serialized controlled-vocabulary selection.
type PayloadKeyword struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Path       string         `json:"path"`
	Vocabulary VocabularyType `json:"vocabularyType"`
}

// PayloadCoverage is one serialized spatial/temporal coverage.
type PayloadCoverage struct {
	Kind        CoverageKind `json:"type"`
	Point       *GeoPoint    `json:"point,omitempty"`
	Bounds      *GeoBounds   `json:"bounds,omitempty"`
	Polygon     []GeoPoint   `json:"polygon,omitempty"`
	StartDate   *string      `json:"startDate"`
	StartTime   *string      `json:"startTime"`
	EndDate     *string      `json:"endDate"`
	EndTime     *string      `json:"endTime"`
	Timezone    *string      `json:"timezone"`
	Description *string      `json:"description"`
}

// PayloadRelated is one serialized related-work link.
type PayloadRelated struct {
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifierType"`
	RelationType   string `json:"relationType"`
}

// PayloadFunding is one serialized funding reference.
type PayloadFunding struct {
	FunderName           string  `json:"funderName"`
	FunderIdentifier     *string `json:"funderIdentifier"`
	FunderIdentifierType *string `json:"funderIdentifierType"`
	AwardNumber          *string `json:"awardNumber"`
	AwardURI             *string `json:"awardUri"`
	AwardTitle           *string `json:"awardTitle"`
}

// SubmitResult is the registry's success response.
type SubmitResult struct {
	Message string `json:"message,omitempty"`
}

// Package csvimport parses header-driven CSV files into contributor rows or
// free keywords. Column names are matched case-insensitively by substring
// against a small synonym set per concept, so exports from different legacy
// tools map without manual configuration. Validation errors are collected
// per row; a bad row is excluded from the accepted set without aborting the
// rest of the file.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/curatehq/curate/model"
)

// column identifies a recognized contributor CSV concept.
type column int

const (
	colFirstName column = iota
	colLastName
	colORCID
	colInstitution
	colAffiliation
	colRole
)

// columnSynonyms maps each concept to the substrings matched against
// lowercased header cells, in declaration order. The first concept whose
// synonym matches claims the header.
var columnSynonyms = []struct {
	col     column
	needles []string
}{
	{colFirstName, []string{"first", "vorname", "given"}},
	{colLastName, []string{"last", "nachname", "family", "surname"}},
	{colORCID, []string{"orcid"}},
	{colInstitution, []string{"institution", "organisation", "organization"}},
	{colAffiliation, []string{"affiliation"}},
	{colRole, []string{"role", "rolle"}},
}

// RowError is one rejected row. Row numbers are 1-based and count the
// header, matching what a spreadsheet shows the user.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ContributorResult is the outcome of one parse: the accepted rows plus the
// errors of rejected ones. Accepted rows carry no IDs; the form engine
// assigns them on bulk add.
type ContributorResult struct {
	Accepted []model.ContributorEntry `json:"accepted"`
	Errors   []RowError               `json:"errors"`
}

// Contributors parses a contributor CSV from r.
func Contributors(r io.Reader) (ContributorResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return ContributorResult{}, fmt.Errorf("csvimport: file is empty")
	}
	if err != nil {
		return ContributorResult{}, fmt.Errorf("csvimport: reading header: %w", err)
	}

	mapping := mapHeader(header)
	if _, ok := mapping[colFirstName]; !ok {
		if _, ok := mapping[colLastName]; !ok {
			if _, ok := mapping[colInstitution]; !ok {
				return ContributorResult{}, fmt.Errorf("csvimport: no recognizable name column in header")
			}
		}
	}

	var result ContributorResult
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Message: "malformed CSV row"})
			continue
		}

		entry, rowErr := parseContributor(mapping, record)
		if rowErr != "" {
			result.Errors = append(result.Errors, RowError{Row: row, Message: rowErr})
			continue
		}
		result.Accepted = append(result.Accepted, entry)
	}
	return result, nil
}

// mapHeader assigns each header cell to at most one concept. The first
// matching cell wins per concept; later duplicates are ignored.
func mapHeader(header []string) map[column]int {
	mapping := make(map[column]int)
	for i, cell := range header {
		cell = strings.ToLower(strings.TrimSpace(cell))
		for _, syn := range columnSynonyms {
			if _, taken := mapping[syn.col]; taken {
				continue
			}
			for _, needle := range syn.needles {
				if strings.Contains(cell, needle) {
					mapping[syn.col] = i
					break
				}
			}
			if _, taken := mapping[syn.col]; taken {
				break
			}
		}
	}
	return mapping
}

// parseContributor builds one entry from a record, returning a row-scoped
// complaint when the row is invalid.
func parseContributor(mapping map[column]int, record []string) (model.ContributorEntry, string) {
	field := func(col column) string {
		i, ok := mapping[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	entry := model.ContributorEntry{
		FirstName:       field(colFirstName),
		LastName:        field(colLastName),
		InstitutionName: field(colInstitution),
	}

	if entry.InstitutionName != "" && entry.FirstName == "" && entry.LastName == "" {
		entry.Kind = model.KindInstitution
	} else {
		entry.Kind = model.KindPerson
		if entry.FirstName == "" && entry.LastName == "" {
			return model.ContributorEntry{}, "person row needs a first or last name"
		}
	}

	if raw := field(colORCID); raw != "" {
		orcid, ok := model.NormalizeORCID(raw)
		if !ok {
			return model.ContributorEntry{}, fmt.Sprintf("%q is not a valid ORCID iD", raw)
		}
		entry.ORCID = orcid
	}

	if aff := field(colAffiliation); aff != "" {
		entry.Affiliations = []model.Affiliation{{Value: aff}}
	}
	if role := field(colRole); role != "" {
		for _, r := range strings.Split(role, ";") {
			if r = strings.TrimSpace(r); r != "" {
				entry.Roles = append(entry.Roles, r)
			}
		}
	}

	return entry, ""
}

// Keywords parses a one-column keyword CSV: every non-empty cell of every
// row becomes a keyword. A header row matching "keyword" is skipped.
func Keywords(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvimport: reading keywords: %w", err)
		}
		if first {
			first = false
			if len(record) > 0 && strings.Contains(strings.ToLower(record[0]), "keyword") {
				continue
			}
		}
		for _, cell := range record {
			if cell = strings.TrimSpace(cell); cell != "" {
				out = append(out, cell)
			}
		}
	}
	return out, nil
}

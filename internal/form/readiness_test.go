package form

import (
	"strings"
	"testing"

	"github.com/curatehq/curate/model"
)

// readyState builds a minimal state that satisfies every readiness predicate.
func readyState(t *testing.T, e *Engine) *State {
	t.Helper()
	s := e.NewState()
	if err := e.SetTitle(s, s.Titles[0].ID, "Groundwater levels, Ore Mountains 2019-2023"); err != nil {
		t.Fatal(err)
	}
	s.Year = "2024"
	s.ResourceType = "Dataset"
	s.Language = "en"
	if err := e.SetLicense(s, s.Licenses[0].ID, "CC-BY-4.0"); err != nil {
		t.Fatal(err)
	}
	if err := e.ReplaceAuthor(s, model.AuthorEntry{
		ID:       s.Authors[0].ID,
		Kind:     model.KindPerson,
		LastName: "Carberry",
	}); err != nil {
		t.Fatal(err)
	}
	e.SetDescription(s, model.DescriptionAbstract, strings.Repeat("Water table observations. ", 4))
	if err := e.SetDateStart(s, s.Dates[0].ID, "2024-02-01"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestReadinessAllPredicatesSatisfied(t *testing.T) {
	e := newTestEngine()
	s := readyState(t, e)

	r := e.Evaluate(s)
	if !r.Ready() {
		t.Fatalf("Ready() = false, want true; breakdown %+v", r)
	}
}

func TestReadinessFlipCases(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name   string
		mutate func(*Engine, *State)
	}{
		{"no main title text", func(e *Engine, s *State) {
			e.SetTitle(s, s.Titles[0].ID, "")
		}},
		{"main title retagged", func(e *Engine, s *State) {
			e.SetTitleType(s, s.Titles[0].ID, model.TitleSubtitle)
		}},
		{"missing year", func(e *Engine, s *State) { s.Year = "" }},
		{"missing resource type", func(e *Engine, s *State) { s.ResourceType = "" }},
		{"missing language", func(e *Engine, s *State) { s.Language = "" }},
		{"first license empty", func(e *Engine, s *State) {
			e.SetLicense(s, s.Licenses[0].ID, "")
		}},
		{"invalid author", func(e *Engine, s *State) {
			e.ReplaceAuthor(s, model.AuthorEntry{ID: s.Authors[0].ID, Kind: model.KindPerson})
		}},
		{"contact author without email", func(e *Engine, s *State) {
			e.ReplaceAuthor(s, model.AuthorEntry{
				ID: s.Authors[0].ID, Kind: model.KindPerson, LastName: "Carberry", IsContact: true,
			})
		}},
		{"abstract too short", func(e *Engine, s *State) {
			e.SetDescription(s, model.DescriptionAbstract, "too short")
		}},
		{"abstract too long", func(e *Engine, s *State) {
			e.SetDescription(s, model.DescriptionAbstract, strings.Repeat("x", model.AbstractMaxLength+1))
		}},
		{"created date cleared", func(e *Engine, s *State) {
			e.SetDateStart(s, s.Dates[0].ID, "")
		}},
		{"unresolved legacy marker", func(e *Engine, s *State) {
			s.LegacyMarkers = []string{"EARTH SCIENCE > OBSOLETE TERM"}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := readyState(t, e)
			tc.mutate(e, s)
			if r := e.Evaluate(s); r.Ready() {
				t.Errorf("Ready() = true after %q, want false; breakdown %+v", tc.name, r)
			}
		})
	}
}

func TestReadinessAbstractBoundsAreRuneCounted(t *testing.T) {
	e := newTestEngine()
	s := readyState(t, e)

	// 50 two-byte runes: exactly at the minimum when counted as runes,
	// past it when counted as bytes.
	e.SetDescription(s, model.DescriptionAbstract, strings.Repeat("ö", model.AbstractMinLength))
	if r := e.Evaluate(s); !r.Abstract {
		t.Error("Abstract = false for 50-rune text, want true")
	}

	e.SetDescription(s, model.DescriptionAbstract, strings.Repeat("ö", model.AbstractMinLength-1))
	if r := e.Evaluate(s); r.Abstract {
		t.Error("Abstract = true for 49-rune text, want false")
	}
}

func TestReadinessIgnoresInstitutionAuthorPersonFields(t *testing.T) {
	e := newTestEngine()
	s := readyState(t, e)

	if err := e.SwitchAuthorKind(s, s.Authors[0].ID, model.KindInstitution); err != nil {
		t.Fatal(err)
	}
	if r := e.Evaluate(s); r.Authors {
		t.Error("Authors = true for institution without a name, want false")
	}

	if err := e.ReplaceAuthor(s, model.AuthorEntry{
		ID:              s.Authors[0].ID,
		Kind:            model.KindInstitution,
		InstitutionName: "GFZ German Research Centre for Geosciences",
	}); err != nil {
		t.Fatal(err)
	}
	if r := e.Evaluate(s); !r.Authors {
		t.Error("Authors = false for named institution, want true")
	}
}

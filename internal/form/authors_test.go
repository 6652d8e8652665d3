package form

import (
	"testing"
	"time"

	"github.com/curatehq/curate/model"
)

func TestRemoveLastAuthorRefused(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()

	err := e.RemoveAuthor(s, s.Authors[0].ID)
	if err == nil {
		t.Fatal("RemoveAuthor(last remaining) = nil, want conflict")
	}
	env, ok := err.(*model.ErrorEnvelope)
	if !ok || env.Code != model.ErrConflict {
		t.Errorf("RemoveAuthor error = %v, want %s envelope", err, model.ErrConflict)
	}
}

func TestMoveAuthorRenumbersPositions(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()
	e.AddAuthor(s, model.KindPerson)
	e.AddAuthor(s, model.KindPerson)

	e.ReplaceAuthor(s, model.AuthorEntry{ID: s.Authors[0].ID, Kind: model.KindPerson, LastName: "Ada"})
	e.ReplaceAuthor(s, model.AuthorEntry{ID: s.Authors[1].ID, Kind: model.KindPerson, LastName: "Ben"})
	e.ReplaceAuthor(s, model.AuthorEntry{ID: s.Authors[2].ID, Kind: model.KindPerson, LastName: "Cid"})

	if err := e.MoveAuthor(s, 2, 0); err != nil {
		t.Fatalf("MoveAuthor: %v", err)
	}

	want := []string{"Cid", "Ada", "Ben"}
	for i, a := range s.Authors {
		if a.LastName != want[i] {
			t.Errorf("Authors[%d].LastName = %q, want %q", i, a.LastName, want[i])
		}
		if a.Position != i {
			t.Errorf("Authors[%d].Position = %d, want %d", i, a.Position, i)
		}
	}
}

func TestMoveAuthorOutOfRange(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()

	if err := e.MoveAuthor(s, 0, 5); err == nil {
		t.Error("MoveAuthor(0, 5) = nil, want bad request")
	}
}

func TestSwitchAuthorKindPreservesAffiliations(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()
	id := s.Authors[0].ID

	e.ReplaceAuthor(s, model.AuthorEntry{
		ID:        id,
		Kind:      model.KindPerson,
		ORCID:     "0000-0002-1825-0097",
		FirstName: "Josiah",
		LastName:  "Carberry",
		Email:     "jc@example.edu",
		IsContact: true,
		Affiliations: []model.Affiliation{
			{Value: "Brown University", RORID: "https://ror.org/05gq02987"},
		},
	})

	if err := e.SwitchAuthorKind(s, id, model.KindInstitution); err != nil {
		t.Fatalf("SwitchAuthorKind: %v", err)
	}

	a := s.Authors[0]
	if a.Kind != model.KindInstitution {
		t.Errorf("Kind = %q, want %q", a.Kind, model.KindInstitution)
	}
	if a.ORCID != "" || a.FirstName != "" || a.LastName != "" || a.Email != "" || a.IsContact {
		t.Errorf("person fields survived kind switch: %+v", a)
	}
	if len(a.Affiliations) != 1 || a.Affiliations[0].Value != "Brown University" {
		t.Errorf("Affiliations = %+v, want preserved", a.Affiliations)
	}
	if a.ID != id {
		t.Errorf("ID = %q, want stable %q", a.ID, id)
	}
}

func TestApplyORCIDRecordFillsOnlyEmptyFields(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()
	id := s.Authors[0].ID

	e.ReplaceAuthor(s, model.AuthorEntry{
		ID:        id,
		Kind:      model.KindPerson,
		ORCID:     "0000-0002-1825-0097",
		FirstName: "Jo", // user-entered, must survive
		Affiliations: []model.Affiliation{
			{Value: "Brown University", RORID: "https://ror.org/05gq02987"},
		},
	})

	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	err := e.ApplyORCIDRecord(s, id, model.ORCIDRecord{
		ORCID:     "0000-0002-1825-0097",
		FirstName: "Josiah",
		LastName:  "Carberry",
		Affiliations: []model.Affiliation{
			{Value: "Brown University", RORID: "https://ror.org/05gq02987"}, // duplicate
			{Value: "Wesleyan University"},
		},
	}, at)
	if err != nil {
		t.Fatalf("ApplyORCIDRecord: %v", err)
	}

	a := s.Authors[0]
	if a.FirstName != "Jo" {
		t.Errorf("FirstName = %q, want user value preserved", a.FirstName)
	}
	if a.LastName != "Carberry" {
		t.Errorf("LastName = %q, want filled from record", a.LastName)
	}
	if len(a.Affiliations) != 2 {
		t.Fatalf("len(Affiliations) = %d, want 2 (duplicate dropped)", len(a.Affiliations))
	}
	if a.Affiliations[1].Value != "Wesleyan University" {
		t.Errorf("Affiliations[1].Value = %q, want Wesleyan University", a.Affiliations[1].Value)
	}
	if !a.ORCIDVerified || !a.ORCIDVerifiedAt.Equal(at) {
		t.Errorf("verification mark = (%v, %v), want (true, %v)", a.ORCIDVerified, a.ORCIDVerifiedAt, at)
	}
}

func TestApplyORCIDRecordStaleResponseDropped(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()
	id := s.Authors[0].ID

	// The user edited the ORCID field after the lookup was issued.
	e.ReplaceAuthor(s, model.AuthorEntry{
		ID:    id,
		Kind:  model.KindPerson,
		ORCID: "0000-0002-9079-593X",
	})

	err := e.ApplyORCIDRecord(s, id, model.ORCIDRecord{
		ORCID:    "0000-0002-1825-0097",
		LastName: "Carberry",
	}, time.Now())
	if err != nil {
		t.Fatalf("ApplyORCIDRecord: %v", err)
	}

	a := s.Authors[0]
	if a.LastName != "" {
		t.Errorf("LastName = %q, want untouched by stale record", a.LastName)
	}
	if a.ORCIDVerified {
		t.Error("ORCIDVerified = true, want false for stale record")
	}
}

func TestApplyORCIDRecordMatchesUnnormalizedRowValue(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()
	id := s.Authors[0].ID

	// The row holds the pasted URL form; the fetched record carries the
	// canonical iD. The guard must compare canonically, not verbatim.
	e.ReplaceAuthor(s, model.AuthorEntry{
		ID:    id,
		Kind:  model.KindPerson,
		ORCID: "https://orcid.org/0000-0002-1825-0097",
	})

	err := e.ApplyORCIDRecord(s, id, model.ORCIDRecord{
		ORCID:    "0000-0002-1825-0097",
		LastName: "Carberry",
	}, time.Now())
	if err != nil {
		t.Fatalf("ApplyORCIDRecord: %v", err)
	}

	a := s.Authors[0]
	if a.LastName != "Carberry" {
		t.Errorf("LastName = %q, want filled despite unnormalized row value", a.LastName)
	}
	if !a.ORCIDVerified {
		t.Error("ORCIDVerified = false, want true")
	}
}

func TestReplaceAuthorPreservesPosition(t *testing.T) {
	e := newTestEngine()
	s := e.NewState()
	e.AddAuthor(s, model.KindPerson)
	id := s.Authors[1].ID

	e.ReplaceAuthor(s, model.AuthorEntry{ID: id, Kind: model.KindPerson, LastName: "Lovelace", Position: 99})
	if got := s.Authors[1].Position; got != 1 {
		t.Errorf("Position = %d, want 1 (caller positions ignored)", got)
	}
}

package model

import "testing"

func TestNormalizeORCID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0000-0002-1825-0097", "0000-0002-1825-0097", true},
		{"0000-0002-9079-593X", "0000-0002-9079-593X", true},
		{"0000-0002-9079-593x", "0000-0002-9079-593X", true},
		{"https://orcid.org/0000-0002-1825-0097", "0000-0002-1825-0097", true},
		{"  0000000218250097  ", "0000-0002-1825-0097", true},
		{"0000-0002-1825-0098", "", false}, // wrong check digit
		{"0000-0002-1825-009", "", false},  // too short
		{"0000-0002-1825-00970", "", false},
		{"not-an-orcid", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeORCID(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizeORCID(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

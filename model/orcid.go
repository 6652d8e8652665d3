package model

import (
	"regexp"
	"strings"
)

// orcidPattern matches the four hyphen-separated groups of an ORCID iD, with
// an optional X check digit. Bare 16-character forms are normalized first.
var orcidPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

// NormalizeORCID canonicalizes an ORCID iD: trims whitespace, strips an
// https://orcid.org/ prefix, re-hyphenates bare digit runs, uppercases the
// check digit, and verifies format plus the ISO 7064 11,2 checksum.
func NormalizeORCID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"https://orcid.org/", "http://orcid.org/", "orcid.org/"} {
		if rest, ok := strings.CutPrefix(s, prefix); ok {
			s = rest
			break
		}
	}
	s = strings.ToUpper(s)

	if len(s) == 16 && !strings.Contains(s, "-") {
		s = s[0:4] + "-" + s[4:8] + "-" + s[8:12] + "-" + s[12:16]
	}
	if !orcidPattern.MatchString(s) {
		return "", false
	}
	if !orcidChecksumValid(s) {
		return "", false
	}
	return s, true
}

// orcidChecksumValid verifies the ISO 7064 11,2 check digit over the 15 base
// digits; X stands for the value 10.
func orcidChecksumValid(s string) bool {
	digits := strings.ReplaceAll(s, "-", "")
	total := 0
	for _, r := range digits[:15] {
		total = (total + int(r-'0')) * 2
	}
	remainder := total % 11
	check := (12 - remainder) % 11
	want := byte('0' + check)
	if check == 10 {
		want = 'X'
	}
	return digits[15] == want
}

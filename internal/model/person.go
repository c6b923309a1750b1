package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// RecordStatus tracks whether a person is still listed on the source page.
type RecordStatus string

const (
	StatusActive  RecordStatus = "active"
	StatusRemoved RecordStatus = "removed"
)

// PersonRecord is the canonical extracted entity for one listed person.
// Name is the only required field; everything else is best-effort.
type PersonRecord struct {
	Name              string `json:"name"`
	Title             string `json:"title,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	ProfileURL        string `json:"profile_url,omitempty"`
	Department        string `json:"department,omitempty"`
	ResearchInterests string `json:"research_interests,omitempty"`

	FirstSeen    time.Time    `json:"first_seen,omitempty"`
	LastVerified time.Time    `json:"last_verified,omitempty"`
	Status       RecordStatus `json:"status,omitempty"`
}

// Identity derives a stable key from normalized (name, email, title).
// The same person yields the same identity across scrapes unless all three
// fields change at once. First 16 hex chars of a sha256 digest.
func (p PersonRecord) Identity() string {
	key := NormalizeName(p.Name) + "|" + NormalizeEmail(p.Email) + "|" + NormalizeField(p.Title)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// NormalizeField trims, NFC-normalizes, and collapses internal whitespace.
func NormalizeField(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName lowercases a name after standard field normalization.
func NormalizeName(s string) string {
	return strings.ToLower(NormalizeField(s))
}

// NormalizeEmail case-folds an email address after trimming.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FieldsEqual compares two records field by field after normalization.
// Email comparison is case-folded; other fields compare trimmed literals.
// Lifecycle fields are ignored.
func (p PersonRecord) FieldsEqual(other PersonRecord) bool {
	return len(p.FieldDiffs(other)) == 0
}

// FieldDiff names one field whose value changed between two scrapes.
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// FieldDiffs lists the fields of other that differ from p after
// normalization, in a fixed field order.
func (p PersonRecord) FieldDiffs(other PersonRecord) []FieldDiff {
	var diffs []FieldDiff
	cmp := func(field, a, b string) {
		if strings.TrimSpace(a) != strings.TrimSpace(b) {
			diffs = append(diffs, FieldDiff{Field: field, Old: a, New: b})
		}
	}
	cmp("name", p.Name, other.Name)
	cmp("title", p.Title, other.Title)
	if NormalizeEmail(p.Email) != NormalizeEmail(other.Email) {
		diffs = append(diffs, FieldDiff{Field: "email", Old: p.Email, New: other.Email})
	}
	cmp("phone", p.Phone, other.Phone)
	cmp("profile_url", p.ProfileURL, other.ProfileURL)
	cmp("department", p.Department, other.Department)
	cmp("research_interests", p.ResearchInterests, other.ResearchInterests)
	return diffs
}

// HasContact reports whether the record carries at least one way to reach
// the person. Records without any contact signal are dropped at validation.
func (p PersonRecord) HasContact() bool {
	return p.Email != "" || p.Phone != "" || p.ProfileURL != ""
}

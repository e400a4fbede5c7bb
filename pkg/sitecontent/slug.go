package sitecontent

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var separatorRun = regexp.MustCompile(`[\s/]+`)

// Slugify derives a record id from a display name: lower-case with every run
// of whitespace replaced by a single hyphen. "Test Tower" becomes "test-tower".
// Slashes count as whitespace, so "Bole / East" becomes "bole-east".
func Slugify(name string) string {
	trimmed := strings.TrimFunc(name, func(r rune) bool { return unicode.IsSpace(r) || r == '/' })
	return separatorRun.ReplaceAllString(strings.ToLower(trimmed), "-")
}

// checkRecordID applies the id rule shared by records and their storage
// prefixes: a single path segment.
func checkRecordID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") || id == "." || id == ".." {
		return &ValidationError{Field: "id", Message: "must be a non-empty id without slashes"}
	}
	return nil
}

// slugOrUUID falls back to a random id when the name yields no slug.
func slugOrUUID(name string) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return uuid.NewString()
}

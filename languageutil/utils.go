package languageutil

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
)

// NormalizeName trims and collapses inner whitespace of a user supplied name.
func NormalizeName(name string) string {
	return strings.Join(strings.FieldsFunc(name, unicode.IsSpace), " ")
}

var folder = cases.Fold()

// NameKey is the case folded form used to match names case-insensitively.
func NameKey(name string) string {
	return folder.String(NormalizeName(name))
}

// DefaultModelName names a saved model after the day it was stored.
func DefaultModelName(now time.Time) string {
	return "Model-" + now.UTC().Format("2006-01-02")
}

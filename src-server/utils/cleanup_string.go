package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CleanupString collapses whitespace, title-cases each word and drops a
// trailing period. Used for event titles typed on the command line.
func CleanupString(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = cases.Title(language.English, cases.NoLower).String(s)
	return strings.TrimSuffix(s, ".")
}

// Package header cleans raw column labels from survey exports and matches
// configured labels against them.
//
// Form exports carry bilingual labels with embedded line breaks, trailing
// spaces and, for files saved from spreadsheet tools, a UTF-8 BOM on the first
// cell. Clean removes those artifacts; Fold produces a looser key used only
// when an exact match fails.
package header

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Clean returns label with every line break replaced by a single space, the
// leading BOM and surrounding whitespace removed, and the result in NFC.
func Clean(label string) string {
	label = lineBreaks.Replace(label)
	label = strings.TrimSpace(label)
	label = strings.TrimSpace(strings.TrimPrefix(label, utf8BOM))
	return norm.NFC.String(label)
}

// CleanAll cleans every label and returns a new slice.
func CleanAll(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = Clean(l)
	}
	return out
}

// Fold returns a comparison key for label: cleaned, compatibility-decomposed,
// case-folded, stripped of combining marks and with whitespace runs collapsed.
// Two labels that differ only in case, accents, width or spacing fold to the
// same key.
func Fold(label string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		cases.Fold(),
		norm.NFC,
	)
	folded, _, err := transform.String(t, Clean(label))
	if err != nil {
		folded = strings.ToLower(Clean(label))
	}
	return strings.Join(strings.Fields(folded), " ")
}

// Match resolves want against columns. An exact match on the cleaned label
// wins; otherwise the unique column whose Fold equals Fold(want) is returned.
// ok is false when nothing matches; ambiguous is true when the fallback found
// more than one candidate.
func Match(columns []string, want string) (col string, ok bool, ambiguous bool) {
	cw := Clean(want)
	for _, c := range columns {
		if c == cw {
			return c, true, false
		}
	}

	key := Fold(want)
	if key == "" {
		return "", false, false
	}
	found := ""
	for _, c := range columns {
		if Fold(c) != key {
			continue
		}
		if found != "" {
			return "", false, true
		}
		found = c
	}
	if found == "" {
		return "", false, false
	}
	return found, true, false
}

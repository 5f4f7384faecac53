// Package marker implements the inline document-send token the generative
// model embeds in its replies. The token is stripped from the lead-facing
// text and decoded into a directive the conversation flow acts on.
package marker

import (
	"regexp"
	"strings"
)

// NoUnit is the placeholder the model uses when a document is not tied to a
// specific unit.
const NoUnit = "NONE"

// Directive is a decoded document-send instruction.
type Directive struct {
	Category string
	// Unit is empty when the token carried the NONE placeholder.
	Unit string
	// ListingSlug is empty when the token omitted the optional slug,
	// meaning the session's current project.
	ListingSlug string
}

// The token grammar is strict: category and unit are single
// colon-and-bracket-free fields, the slug is optional.
var tokenRe = regexp.MustCompile(`\[SEND_DOC:([^:\[\]]+):([^:\[\]]+)(?::([^:\[\]]+))?\]`)

// stripRe also eats the whitespace preceding a token so a mid-sentence
// removal does not leave a double space. Spacing elsewhere is untouched.
var stripRe = regexp.MustCompile(`[ \t]*` + tokenRe.String())

// Extract finds the first well-formed token in text. It returns the text
// with the token removed plus a directive, or the untouched text and nil
// when no valid token is present. Only the first token is honored; any
// later ones are stripped without effect.
func Extract(text string) (string, *Directive) {
	matches := tokenRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	first := tokenRe.FindStringSubmatch(text)
	d := &Directive{
		Category:    strings.TrimSpace(first[1]),
		Unit:        strings.TrimSpace(first[2]),
		ListingSlug: strings.TrimSpace(first[3]),
	}
	if strings.EqualFold(d.Unit, NoUnit) {
		d.Unit = ""
	}

	clean := stripRe.ReplaceAllString(text, "")
	clean = strings.TrimSpace(clean)
	return clean, d
}

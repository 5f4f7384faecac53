// Package sanitize provides text normalization utilities for free-form
// WhatsApp input and identifier generation.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	slugInvalidRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashRegex    = regexp.MustCompile(`-{2,}`)

	accentReplacer = strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
		"ü", "u", "ñ", "n",
		"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u",
		"Ü", "u", "Ñ", "n",
	)
)

// Slug derives a URL-safe identifier from a display name:
// "Manzanares 2088" -> "manzanares-2088". Case-insensitive uniqueness
// checks compare slugs, not names.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = accentReplacer.Replace(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, ".", "")
	s = slugInvalidRegex.ReplaceAllString(s, "")
	s = slugDashRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Fold lowercases, trims and strips Spanish accents so that free-text
// replies ("Sí", "PLANO") compare against fixed vocabularies.
func Fold(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Words splits folded text into word tokens, dropping punctuation.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		}
		return true
	})
}

package documents

import (
	"fmt"
	"strings"

	"realia_backend/internal/identity"
	"realia_backend/platform/sanitize"
)

// Upload flow steps. The pointer only moves forward; an unmatched reply
// re-prompts without advancing.
type Step string

const (
	StepAskListing Step = "ask_listing"
	StepAskType    Step = "ask_type"
	StepAskUnit    Step = "ask_unit"
	StepFinalize   Step = "finalize"
)

// Upload is the pending state of one in-flight document upload.
type Upload struct {
	Step     Step
	Data     []byte
	Filename string
	MimeType string

	Projects []identity.Project
	Project  *identity.Project
	Units    []identity.Unit

	Category string
	Unit     *string
}

// NewUpload builds the initial state for a downloaded attachment. With a
// single active project the listing question is skipped.
func NewUpload(data []byte, filename, mimeType string, projects []identity.Project) *Upload {
	u := &Upload{
		Step:     StepAskListing,
		Data:     data,
		Filename: filename,
		MimeType: mimeType,
		Projects: projects,
	}
	if len(projects) == 1 {
		u.Project = &projects[0]
		u.Step = StepAskType
	}
	return u
}

// Prompt returns the question for the current step.
func (u *Upload) Prompt() string {
	switch u.Step {
	case StepAskListing:
		var b strings.Builder
		b.WriteString("¿Para qué proyecto es este archivo?\n")
		for _, p := range u.Projects {
			fmt.Fprintf(&b, "  • %s (%s)\n", p.Name, p.Slug)
		}
		return b.String()
	case StepAskType:
		var b strings.Builder
		b.WriteString("¿Qué tipo de documento es?\n")
		for _, key := range categoryOrder {
			fmt.Fprintf(&b, "  • %s (%s)\n", categoryLabels[key], key)
		}
		return b.String()
	case StepAskUnit:
		var b strings.Builder
		b.WriteString("¿De qué unidad es el plano? Respondé el identificador o *general* si es de todo el edificio.\n")
		if len(u.Units) > 0 {
			b.WriteString("Unidades: ")
			ids := make([]string, 0, len(u.Units))
			for _, unit := range u.Units {
				ids = append(ids, unit.Identifier)
			}
			b.WriteString(strings.Join(ids, ", "))
		}
		return b.String()
	}
	return ""
}

// Advance consumes one free-text reply. It returns true when the reply
// matched and the step moved; false means re-prompt with Prompt().
func (u *Upload) Advance(text string) bool {
	switch u.Step {
	case StepAskListing:
		project := MatchListing(text, u.Projects)
		if project == nil {
			return false
		}
		u.Project = project
		u.Step = StepAskType
		return true

	case StepAskType:
		category := matchCategory(text)
		if category == "" {
			return false
		}
		u.Category = category
		if category == CategoryFloorPlan {
			u.Step = StepAskUnit
		} else {
			u.Step = StepFinalize
		}
		return true

	case StepAskUnit:
		if IsGeneral(text) {
			u.Unit = nil
			u.Step = StepFinalize
			return true
		}
		candidate := strings.ToUpper(strings.TrimSpace(text))
		for _, unit := range u.Units {
			if strings.EqualFold(unit.Identifier, candidate) {
				id := unit.Identifier
				u.Unit = &id
				u.Step = StepFinalize
				return true
			}
		}
		// Unknown identifier: stay on the step and re-prompt with the
		// real unit list rather than filing under a bad key.
		return false
	}
	return false
}

// MatchListing resolves a free-text reply to a project: slug-substring
// match first, then whole-word fallback over name tokens longer than three
// characters. First match wins.
func MatchListing(text string, projects []identity.Project) *identity.Project {
	folded := sanitize.Fold(text)
	if folded == "" {
		return nil
	}

	for i := range projects {
		if strings.Contains(folded, sanitize.Fold(projects[i].Slug)) {
			return &projects[i]
		}
	}

	words := sanitize.Words(text)
	for i := range projects {
		for _, token := range sanitize.Words(projects[i].Name) {
			if len(token) <= 3 {
				continue
			}
			for _, w := range words {
				if w == token {
					return &projects[i]
				}
			}
		}
	}
	return nil
}

// matchCategory resolves a reply to a category key, matching on the key
// itself or a substring of the human label. First match in fixed order wins.
func matchCategory(text string) string {
	folded := sanitize.Fold(text)
	if folded == "" {
		return ""
	}
	for _, key := range categoryOrder {
		if strings.Contains(folded, key) {
			return key
		}
		if strings.Contains(folded, sanitize.Fold(categoryLabels[key])) {
			return key
		}
	}
	return ""
}
